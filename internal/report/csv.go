package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/wonny/frontier/internal/contracts"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteWeightsCSV writes symbol,weight,amount rows for every universe asset
func WriteWeightsCSV(w io.Writer, b *contracts.Bundle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"symbol", "weight", "amount"}); err != nil {
		return err
	}
	for i, s := range b.Universe {
		weight := 0.0
		if i < b.Weights.Len() {
			weight = b.Weights.At(i)
		}
		if err := cw.Write([]string{s, formatFloat(weight), formatFloat(weight * b.PortfolioValue)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFrontierCSV writes return,risk,sharpe followed by one weight column per asset
func WriteFrontierCSV(w io.Writer, universe []string, points []contracts.FrontierPoint) error {
	cw := csv.NewWriter(w)
	header := append([]string{"annual_return", "annual_risk", "sharpe"}, universe...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range points {
		if p.Weights.Len() != len(universe) {
			return contracts.Preconditionf("frontier point has %d weights for %d assets", p.Weights.Len(), len(universe))
		}
		row := make([]string, 0, len(header))
		row = append(row,
			formatFloat(p.Metrics.AnnualReturn),
			formatFloat(p.Metrics.AnnualRisk),
			formatFloat(p.Metrics.Sharpe),
		)
		for _, v := range p.Weights.Values() {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePricesCSV writes long-format bars: symbol,date,open,high,low,close,volume
func WritePricesCSV(w io.Writer, prices contracts.PriceSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"symbol", "date", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}

	symbols := make([]string, 0, len(prices))
	for s := range prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, s := range symbols {
		bars := append([]contracts.Bar(nil), prices[s]...)
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
		for _, b := range bars {
			if err := cw.Write([]string{
				s,
				b.Date.Format("2006-01-02"),
				formatFloat(b.Open),
				formatFloat(b.High),
				formatFloat(b.Low),
				formatFloat(b.Close),
				strconv.FormatInt(b.Volume, 10),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates dir/name and streams content into it
func WriteFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, f.Close()
}
