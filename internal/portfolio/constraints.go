package portfolio

import "slices"

// Constraints bound how weights become share positions
// ⭐ SSOT: allocation constraints live only here
type Constraints struct {
	LotSize      int64    // shares per tradable lot (1 on Borsa Istanbul)
	MinPosition  float64  // smallest position worth opening, in currency
	CashReserve  float64  // fraction of value kept as cash (0.0 ~ 1.0)
	ExcludedList []string // symbols never bought
}

// IsExcluded checks if a symbol is on the exclusion list
func (c *Constraints) IsExcluded(symbol string) bool {
	return slices.Contains(c.ExcludedList, symbol)
}

// DefaultConstraints returns whole-share allocation with no cash reserve
func DefaultConstraints() Constraints {
	return Constraints{
		LotSize:      1,
		MinPosition:  0,
		CashReserve:  0,
		ExcludedList: []string{},
	}
}
