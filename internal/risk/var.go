package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/contracts"
)

// =============================================================================
// Historical Simulation (daily, signed)
// =============================================================================

// HistoricalVaR returns the (1−confidence) percentile of daily returns.
// Signed: a loss is negative.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return Percentile(sorted(returns), (1-confidence)*100)
}

// HistoricalCVaR returns the mean of the daily returns at or below the VaR
// threshold. Never above HistoricalVaR for the same inputs.
func HistoricalCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	s := sorted(returns)
	p := (1 - confidence) * 100
	threshold := Percentile(s, p)

	// the tail always holds every rank up to the interpolation floor
	n := sort.Search(len(s), func(i int) bool { return s[i] > threshold })
	n = max(n, floorRank(len(s), p)+1)
	return math.Min(stat.Mean(s[:n], nil), threshold)
}

// =============================================================================
// Statistics Utilities
// =============================================================================

// Percentile returns the p-th percentile (0..100) of ascending data with
// linear interpolation between closest ranks: rank = p/100·(n−1)
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// lo + w·(hi−lo) is exactly lo on ties and never below it
	weight := idx - float64(lower)
	lo, hi := sorted[lower], sorted[upper]
	return lo + weight*(hi-lo)
}

// floorRank is the lower interpolation index Percentile uses for p
func floorRank(n int, p float64) int {
	if n == 0 || p <= 0 {
		return 0
	}
	if p >= 100 {
		return n - 1
	}
	return min(int(math.Floor(p/100.0*float64(n-1))), n-1)
}

// Annualize scales a daily figure by sqrt(252)
func Annualize(daily float64) float64 {
	return daily * math.Sqrt(contracts.TradingDays)
}

func sorted(values []float64) []float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	return s
}
