package risk

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
)

func returnMatrix(t *testing.T, symbols []string, rows [][]float64) *contracts.ReturnMatrix {
	t.Helper()

	u, err := contracts.NewAssetUniverse(symbols)
	require.NoError(t, err)

	dates := make([]time.Time, len(rows))
	for i := range dates {
		dates[i] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	rm, err := contracts.NewReturnMatrix(u, dates, rows)
	require.NoError(t, err)
	return rm
}

func column(values ...float64) [][]float64 {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return rows
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{5, 1.2},
		{25, 2},
		{50, 3},
		{90, 4.6},
		{100, 5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(data, tt.p), 1e-12, "p=%g", tt.p)
	}
	assert.Equal(t, 0.0, Percentile(nil, 50))
}

func TestEstimate_KnownValues(t *testing.T) {
	rm := returnMatrix(t, []string{"A"}, column(0.03, -0.05, 0.01, 0, -0.02))
	w := contracts.EqualWeights(1)
	e := NewEngine()

	r, err := e.Estimate(rm, w, 0.95, 1_000_000)
	require.NoError(t, err)

	scale := math.Sqrt(252) * 1_000_000
	assert.InDelta(t, -0.044*scale, r.VaR, 1e-6)
	assert.InDelta(t, -0.05*scale, r.CVaR, 1e-6)
	assert.Equal(t, 5, r.Observations)

	varLoss, _ := r.Losses()
	assert.Greater(t, varLoss, 0.0)

	v, err := e.VaR(rm, w, 0.95, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, r.VaR, v)

	c, err := e.CVaR(rm, w, 0.95, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, r.CVaR, c)
}

func TestEstimate_WeightedPortfolio(t *testing.T) {
	rm := returnMatrix(t, []string{"A", "B"}, [][]float64{
		{0.02, -0.04},
		{-0.01, 0.01},
		{0.00, 0.02},
	})
	w, err := contracts.NewWeightVector([]float64{0.5, 0.5})
	require.NoError(t, err)

	returns, err := PortfolioReturns(rm, w)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.01, 0, 0.01}, returns, 1e-15)
}

func TestEstimate_ZeroReturnsAreZeroRisk(t *testing.T) {
	rows := make([][]float64, 252)
	for i := range rows {
		rows[i] = []float64{0, 0, 0}
	}
	rm := returnMatrix(t, []string{"A", "B", "C"}, rows)

	levels, err := NewEngine().EstimateAll(rm, contracts.EqualWeights(3), []float64{0.95, 0.99}, 500_000)
	require.NoError(t, err)

	for _, r := range levels {
		assert.Equal(t, 0.0, r.VaR)
		assert.Equal(t, 0.0, r.CVaR)
	}
}

func TestEstimate_RequiresWeights(t *testing.T) {
	rm := returnMatrix(t, []string{"A", "B"}, [][]float64{{0.01, 0.02}, {-0.01, 0.0}})
	e := NewEngine()

	_, err := e.VaR(rm, contracts.WeightVector{}, 0.95, 1_000_000)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)

	_, err = e.CVaR(rm, contracts.WeightVector{}, 0.99, 1_000_000)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)

	_, err = e.Estimate(rm, contracts.EqualWeights(3), 0.95, 1_000_000)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)

	_, err = e.Estimate(rm, contracts.EqualWeights(2), 1.0, 1_000_000)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)

	_, err = e.Estimate(rm, contracts.EqualWeights(2), 0.95, 0)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)
}

func TestCVaRNeverAboveVaR(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := NewEngine()

	for trial := 0; trial < 20; trial++ {
		rows := make([][]float64, 100+trial*10)
		for i := range rows {
			rows[i] = []float64{rng.NormFloat64() * 0.02, rng.NormFloat64()*0.01 + 0.0005}
		}
		rm := returnMatrix(t, []string{"A", "B"}, rows)
		a := rng.Float64()
		w, err := contracts.NewWeightVector([]float64{a, 1 - a})
		require.NoError(t, err)

		for _, c := range []float64{0.9, 0.95, 0.99} {
			r, err := e.Estimate(rm, w, c, 1_000_000)
			require.NoError(t, err)
			assert.LessOrEqual(t, r.CVaR, r.VaR+1e-9, "trial %d confidence %g", trial, c)
		}
	}
}

func TestHistoricalCVaR_TiedTail(t *testing.T) {
	constant := make([]float64, 7)
	for i := range constant {
		constant[i] = -0.013
	}

	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"constant series", constant, -0.013},
		{"tied minimum", []float64{-0.013, -0.013, 0.002, 0.003, 0.01, 0.07, 0.004}, -0.013},
		{"limit-down days", []float64{-0.1, -0.1, -0.1, 0.02, 0.01, -0.03, 0.05, 0.0, 0.01, 0.02}, -0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			varDaily := HistoricalVaR(tt.returns, 0.95)
			cvarDaily := HistoricalCVaR(tt.returns, 0.95)

			assert.False(t, math.IsNaN(cvarDaily))
			assert.Equal(t, tt.want, varDaily)
			assert.InDelta(t, tt.want, cvarDaily, 1e-15)
			assert.LessOrEqual(t, cvarDaily, varDaily)
		})
	}
}

func TestHistoricalCVaR_NeverNaN(t *testing.T) {
	for n := 2; n <= 300; n++ {
		for _, v := range []float64{0.01, -0.013, 0.003, 0.07} {
			returns := make([]float64, n)
			for i := range returns {
				returns[i] = v
			}
			for _, c := range []float64{0.9, 0.95, 0.99} {
				got := HistoricalCVaR(returns, c)
				require.False(t, math.IsNaN(got), "n=%d v=%g c=%g", n, v, c)
				require.LessOrEqual(t, got, HistoricalVaR(returns, c), "n=%d v=%g c=%g", n, v, c)
			}
		}
	}
}

func TestEstimate_ConstantReturnsAreFinite(t *testing.T) {
	rows := make([][]float64, 7)
	for i := range rows {
		rows[i] = []float64{-0.013, -0.013}
	}
	rm := returnMatrix(t, []string{"A", "B"}, rows)

	r, err := NewEngine().Estimate(rm, contracts.EqualWeights(2), 0.95, 1_000_000)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(r.CVaR))
	assert.LessOrEqual(t, r.CVaR, r.VaR)
	assert.InDelta(t, -0.013*math.Sqrt(252)*1_000_000, r.VaR, 1e-6)
}

func TestCheckLimits(t *testing.T) {
	metrics := []contracts.RiskMetrics{
		{Confidence: 0.95, PortfolioValue: 100, VaR: -20, CVaR: -30},
		{Confidence: 0.99, PortfolioValue: 100, VaR: -32, CVaR: -45},
	}
	e := NewEngine()

	result := e.CheckLimits(metrics, DefaultLimits())
	assert.False(t, result.Passed)
	require.Len(t, result.Violations, 2)
	assert.Equal(t, "VAR", result.Violations[0].Type)
	assert.Equal(t, 0.99, result.Violations[0].Confidence)
	assert.Equal(t, "CVAR", result.Violations[1].Type)

	relaxed := e.CheckLimits(metrics, contracts.RiskLimits{MaxVaR: 0.5})
	assert.True(t, relaxed.Passed)
	assert.Empty(t, relaxed.Violations)
}

func TestStressTest(t *testing.T) {
	u, err := contracts.NewAssetUniverse([]string{"THYAO", "GARAN"})
	require.NoError(t, err)
	w, err := contracts.NewWeightVector([]float64{0.6, 0.4})
	require.NoError(t, err)

	scenarios := []contracts.StressScenario{
		{Name: "market", Shocks: map[string]float64{"*": -0.10}},
		{Name: "airline", Shocks: map[string]float64{"THYAO": -0.25}},
	}

	results, err := NewEngine().StressTest(u, w, scenarios, 1_000_000)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.InDelta(t, -0.10, results[0].Return, 1e-12)
	assert.InDelta(t, -100_000, results[0].PnL, 1e-6)
	assert.InDelta(t, -0.15, results[1].Return, 1e-12)

	_, err = NewEngine().StressTest(u, contracts.WeightVector{}, scenarios, 1)
	assert.ErrorIs(t, err, contracts.ErrPreconditionViolated)
}
