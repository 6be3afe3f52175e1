// Package returns aligns raw price series into a ReturnMatrix.
package returns

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/frontier/internal/contracts"
)

// MinObservations is the fewest usable closes an asset must have
const MinObservations = 2

// Build aligns the closes of every universe asset on the intersection of
// their dates and computes simple period returns.
//
// Dates are truncated to UTC calendar days; when an asset has two bars on the
// same day the later one in the input wins. Closes that are not finite and
// positive are ignored. Rows containing a non-finite return are dropped.
func Build(universe *contracts.AssetUniverse, prices contracts.PriceSeries) (*contracts.ReturnMatrix, error) {
	if universe == nil {
		return nil, contracts.Preconditionf("nil asset universe")
	}

	closes := make([]map[time.Time]float64, universe.Len())
	for i, symbol := range universe.Symbols() {
		c, err := usableCloses(symbol, prices[symbol])
		if err != nil {
			return nil, err
		}
		closes[i] = c
	}

	dates := intersect(closes)
	if len(dates) < 2 {
		return nil, contracts.NewDataUnavailable(contracts.AllAssets, "fewer than 2 aligned dates", nil)
	}

	n := universe.Len()
	rows := make([][]float64, 0, len(dates)-1)
	rowDates := make([]time.Time, 0, len(dates)-1)
	for t := 1; t < len(dates); t++ {
		row := make([]float64, n)
		finite := true
		for i := 0; i < n; i++ {
			r := closes[i][dates[t]]/closes[i][dates[t-1]] - 1
			if math.IsNaN(r) || math.IsInf(r, 0) {
				finite = false
				break
			}
			row[i] = r
		}
		if finite {
			rows = append(rows, row)
			rowDates = append(rowDates, dates[t])
		}
	}

	if len(rows) == 0 {
		return nil, contracts.NewDataUnavailable(contracts.AllAssets, "no aligned return rows", nil)
	}

	return contracts.NewReturnMatrix(universe, rowDates, rows)
}

// BuildDropping excludes every asset whose own history is unusable, then
// builds from the remaining universe. The excluded assets are returned with
// their reasons. It still fails if nothing usable remains.
func BuildDropping(universe *contracts.AssetUniverse, prices contracts.PriceSeries) (*contracts.ReturnMatrix, map[string]string, error) {
	if universe == nil {
		return nil, nil, contracts.Preconditionf("nil asset universe")
	}

	dropped := make(map[string]string)
	var drop []string
	for _, symbol := range universe.Symbols() {
		if _, err := usableCloses(symbol, prices[symbol]); err != nil {
			var reason string
			if due, ok := err.(*contracts.DataUnavailableError); ok {
				reason = due.Reason
			} else {
				reason = err.Error()
			}
			dropped[symbol] = reason
			drop = append(drop, symbol)
		}
	}

	if len(drop) == universe.Len() {
		return nil, dropped, contracts.NewDataUnavailable(contracts.AllAssets, "no asset has usable history", nil)
	}

	kept := universe
	if len(drop) > 0 {
		var err error
		if kept, err = universe.Without(drop...); err != nil {
			return nil, dropped, err
		}
	}

	rm, err := Build(kept, prices)
	return rm, dropped, err
}

func usableCloses(symbol string, bars []contracts.Bar) (map[time.Time]float64, error) {
	if len(bars) == 0 {
		return nil, contracts.NewDataUnavailable(symbol, "no price observations", nil)
	}

	out := make(map[time.Time]float64, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			continue
		}
		out[contracts.Day(b.Date)] = b.Close
	}

	switch {
	case len(out) == 0:
		return nil, contracts.NewDataUnavailable(symbol, "no price observations", nil)
	case len(out) < MinObservations:
		return nil, contracts.NewDataUnavailable(symbol, "need at least 2 observations", nil)
	}
	return out, nil
}

// intersect returns the dates present in every map, ascending
func intersect(series []map[time.Time]float64) []time.Time {
	if len(series) == 0 {
		return nil
	}

	var dates []time.Time
	for d := range series[0] {
		common := true
		for _, s := range series[1:] {
			if _, ok := s[d]; !ok {
				common = false
				break
			}
		}
		if common {
			dates = append(dates, d)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
