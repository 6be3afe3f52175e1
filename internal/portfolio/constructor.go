// Package portfolio turns optimized weights into whole-share positions.
package portfolio

import (
	"math"
	"sort"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/logger"
)

// Constructor converts a weight vector into lots at given prices
type Constructor struct {
	constraints Constraints
	logger      *logger.Logger
}

// NewConstructor creates a new allocation constructor
func NewConstructor(constraints Constraints, log *logger.Logger) *Constructor {
	if constraints.LotSize < 1 {
		constraints.LotSize = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Constructor{
		constraints: constraints,
		logger:      log.WithComponent("allocation"),
	}
}

// Construct buys floor(weight * value / lot cost) lots per asset, then spends
// the leftover cash one lot at a time on the asset furthest below its target.
// Assets without a positive price are skipped and their share stays in cash.
func (c *Constructor) Construct(weights []contracts.AssetWeight, prices map[string]float64, value float64) (*contracts.Allocation, error) {
	if value <= 0 {
		return nil, contracts.Preconditionf("portfolio value must be positive, got %g", value)
	}

	investable := value * (1 - c.constraints.CashReserve)
	lot := float64(c.constraints.LotSize)

	positions := make([]contracts.TargetPosition, 0, len(weights))
	for _, w := range weights {
		price := prices[w.Symbol]
		if w.Weight <= 0 || c.constraints.IsExcluded(w.Symbol) {
			continue
		}
		if !(price > 0) || math.IsInf(price, 0) {
			c.logger.WithField("symbol", w.Symbol).Warn("No usable price, position left in cash")
			continue
		}

		target := w.Weight * investable
		if target < c.constraints.MinPosition {
			continue
		}
		lots := math.Floor(target / (price * lot))
		positions = append(positions, contracts.TargetPosition{
			Symbol: w.Symbol,
			Weight: w.Weight,
			Price:  price,
			Shares: int64(lots) * c.constraints.LotSize,
		})
	}

	cash := value - invested(positions)
	c.spendLeftover(positions, investable, &cash)

	alloc := &contracts.Allocation{Positions: positions, Cash: cash}
	for i := range positions {
		p := &positions[i]
		p.Amount = float64(p.Shares) * p.Price
		p.ActualWeight = p.Amount / value
		alloc.Invested += p.Amount
	}
	sort.SliceStable(alloc.Positions, func(i, j int) bool { return alloc.Positions[i].Amount > alloc.Positions[j].Amount })

	c.logger.WithFields(map[string]interface{}{
		"positions": len(positions),
		"invested":  alloc.Invested,
		"cash":      alloc.Cash,
	}).Info("Allocation constructed")

	return alloc, nil
}

// spendLeftover greedily adds lots while cash above the reserve allows it
func (c *Constructor) spendLeftover(positions []contracts.TargetPosition, investable float64, cash *float64) {
	reserve := *cash + invested(positions) - investable
	lot := float64(c.constraints.LotSize)

	for {
		best, bestGap := -1, 0.0
		for i, p := range positions {
			cost := p.Price * lot
			if cost > *cash-reserve {
				continue
			}
			gap := p.Weight*investable - float64(p.Shares)*p.Price
			if gap > bestGap {
				best, bestGap = i, gap
			}
		}
		if best < 0 {
			return
		}
		positions[best].Shares += c.constraints.LotSize
		*cash -= positions[best].Price * lot
	}
}

func invested(positions []contracts.TargetPosition) float64 {
	total := 0.0
	for _, p := range positions {
		total += float64(p.Shares) * p.Price
	}
	return total
}
