package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
)

func matrix(t *testing.T, symbols []string, rows [][]float64) *contracts.ReturnMatrix {
	t.Helper()

	u, err := contracts.NewAssetUniverse(symbols)
	require.NoError(t, err)
	dates := make([]time.Time, len(rows))
	for i := range dates {
		dates[i] = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	rm, err := contracts.NewReturnMatrix(u, dates, rows)
	require.NoError(t, err)
	return rm
}

func wavy(n int) [][]float64 {
	rows := make([][]float64, n)
	for k := range rows {
		x := float64(k)
		rows[k] = []float64{
			0.001 + 0.01*math.Sin(x/3),
			0.0005 + 0.015*math.Sin(x/5+1),
			0.0002 + 0.005*math.Cos(x/2),
		}
	}
	return rows
}

func TestRunPreconditions(t *testing.T) {
	e := NewEngine(nil)
	rm := matrix(t, []string{"A", "B", "C"}, wavy(30))

	_, err := e.Run(context.Background(), nil, DefaultConfig())
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)

	cfg := DefaultConfig()
	cfg.TrainDays = 1
	_, err = e.Run(context.Background(), rm, cfg)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)

	cfg = DefaultConfig()
	cfg.InitialCapital = 0
	_, err = e.Run(context.Background(), rm, cfg)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)

	// 30 rows cannot cover a 252-row training window
	_, err = e.Run(context.Background(), rm, DefaultConfig())
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}

func TestRunHoldsOutOfSample(t *testing.T) {
	rm := matrix(t, []string{"A", "B", "C"}, wavy(60))
	cfg := Config{TrainDays: 20, InitialCapital: 100_000}

	res, err := NewEngine(nil).Run(context.Background(), rm, cfg)
	require.NoError(t, err)

	assert.Equal(t, 40, res.TradingDays)
	assert.Len(t, res.EquityCurve, 40)
	assert.Equal(t, rm.Dates()[0], res.TrainStart)
	assert.Equal(t, rm.Dates()[20], res.StartDate)
	assert.Equal(t, rm.Dates()[59], res.EndDate)
	assert.InDelta(t, 1.0, res.Weights.Sum(), 1e-9)

	last := res.EquityCurve[len(res.EquityCurve)-1]
	assert.InDelta(t, res.Optimized.FinalCapital, last.Equity, 1e-9)
	assert.InDelta(t, res.Optimized.TotalReturn, last.Return, 1e-12)
	assert.GreaterOrEqual(t, res.Optimized.MaxDrawdown, 0.0)
	assert.Less(t, res.Optimized.MaxDrawdown, 1.0)
	assert.Greater(t, res.Optimized.Volatility, 0.0)
	assert.Greater(t, res.Benchmark.FinalCapital, 0.0)
}

func TestRunSingleAssetCompounds(t *testing.T) {
	rows := [][]float64{{0.01}, {0.02}, {-0.01}, {0.03}, {-0.02}, {0.01}}
	rm := matrix(t, []string{"A"}, rows)

	res, err := NewEngine(nil).Run(context.Background(), rm, Config{TrainDays: 2, InitialCapital: 1000})
	require.NoError(t, err)

	want := 1000 * 0.99 * 1.03 * 0.98 * 1.01
	assert.InDelta(t, want, res.Optimized.FinalCapital, 1e-9)
	assert.InDelta(t, want/1000-1, res.Optimized.TotalReturn, 1e-12)
	// with one asset the benchmark is the same portfolio
	assert.InDelta(t, res.Optimized.FinalCapital, res.Benchmark.FinalCapital, 1e-9)
}

func TestHoldDrifts(t *testing.T) {
	rows := [][]float64{{0, 0}, {0.10, 0}, {0.10, 0}}
	rm := matrix(t, []string{"A", "B"}, rows)

	curve, daily := hold(rm, rm.Dates(), 1, []float64{0.5, 0.5}, 100)
	require.Len(t, curve, 2)
	assert.InDelta(t, 0.05, daily[0], 1e-12)
	// after the first row A is 55/105 of the book
	assert.InDelta(t, 0.10*55.0/105.0, daily[1], 1e-12)
	assert.InDelta(t, 105.0+5.5, curve[1].Equity, 1e-9)
}

func TestRunCancelled(t *testing.T) {
	rm := matrix(t, []string{"A", "B", "C"}, wavy(40))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(nil).Run(ctx, rm, Config{TrainDays: 20, InitialCapital: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaxDrawdown(t *testing.T) {
	curve := []EquityPoint{{Equity: 110}, {Equity: 88}, {Equity: 99}, {Equity: 120}, {Equity: 108}}
	assert.InDelta(t, 0.2, maxDrawdown(100, curve), 1e-12)
	assert.Zero(t, maxDrawdown(100, nil))
	assert.InDelta(t, 0.1, maxDrawdown(100, []EquityPoint{{Equity: 90}}), 1e-12)
}
