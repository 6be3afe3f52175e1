package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
)

func TestConstruct_WholeShares(t *testing.T) {
	c := NewConstructor(DefaultConstraints(), nil)

	weights := []contracts.AssetWeight{
		{Symbol: "THYAO", Weight: 0.5},
		{Symbol: "GARAN", Weight: 0.3},
		{Symbol: "ASELS", Weight: 0.2},
	}
	prices := map[string]float64{"THYAO": 300, "GARAN": 70, "ASELS": 45}

	alloc, err := c.Construct(weights, prices, 10_000)
	require.NoError(t, err)
	require.Len(t, alloc.Positions, 3)

	// floor pass: 16/42/44 shares, leftover 280 buys one GARAN and one ASELS
	shares := map[string]int64{}
	for _, p := range alloc.Positions {
		shares[p.Symbol] = p.Shares
	}
	assert.Equal(t, map[string]int64{"THYAO": 16, "GARAN": 43, "ASELS": 45}, shares)
	assert.InDelta(t, 165, alloc.Cash, 1e-9)
	assert.InDelta(t, 10_000, alloc.Invested+alloc.Cash, 1e-9)

	for _, p := range alloc.Positions {
		assert.InDelta(t, float64(p.Shares)*p.Price, p.Amount, 1e-9)
		assert.InDelta(t, p.Weight, p.ActualWeight, 0.05, p.Symbol)
	}
	assert.Equal(t, "THYAO", alloc.Positions[0].Symbol, "sorted by amount")
}

func TestConstruct_SkipsMissingPriceAndExcluded(t *testing.T) {
	cons := DefaultConstraints()
	cons.ExcludedList = []string{"SASA"}
	c := NewConstructor(cons, nil)

	weights := []contracts.AssetWeight{
		{Symbol: "A", Weight: 0.4},
		{Symbol: "B", Weight: 0.3},
		{Symbol: "SASA", Weight: 0.3},
	}
	alloc, err := c.Construct(weights, map[string]float64{"A": 10, "SASA": 5}, 1000)
	require.NoError(t, err)

	require.Len(t, alloc.Positions, 1)
	assert.Equal(t, "A", alloc.Positions[0].Symbol)
	assert.Equal(t, int64(40), alloc.Positions[0].Shares, "leftover never overshoots the target weight")
	assert.InDelta(t, 600, alloc.Cash, 1e-9)
}

func TestConstruct_CashReserveAndLots(t *testing.T) {
	c := NewConstructor(Constraints{LotSize: 10, CashReserve: 0.1}, nil)

	alloc, err := c.Construct([]contracts.AssetWeight{{Symbol: "A", Weight: 1}}, map[string]float64{"A": 7}, 1000)
	require.NoError(t, err)

	// 900 investable → 12 lots of 70
	assert.Equal(t, int64(120), alloc.Positions[0].Shares)
	assert.InDelta(t, 160, alloc.Cash, 1e-9)
}

func TestConstruct_InvalidValue(t *testing.T) {
	_, err := NewConstructor(DefaultConstraints(), nil).Construct(nil, nil, 0)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)
}
