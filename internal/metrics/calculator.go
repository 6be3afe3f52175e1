// Package metrics computes annualized portfolio return, risk and Sharpe ratio.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/contracts"
)

// ZeroRiskTolerance is the annualized volatility treated as exactly zero.
// Constant return columns leave rounding residue in the covariance.
const ZeroRiskTolerance = 1e-10

// Calculator caches the annualized column means and sample covariance of a
// ReturnMatrix so repeated evaluations (optimizer, frontier) cost O(N²).
// It is read-only after construction and safe for concurrent use.
type Calculator struct {
	n    int
	mean *mat.VecDense // annualized μ
	cov  *mat.SymDense // annualized Σ, unbiased (T−1)
}

// NewCalculator precomputes the moments of rm
func NewCalculator(rm *contracts.ReturnMatrix) *Calculator {
	x := rm.Matrix()
	t, n := x.Dims()

	mean := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		mean.SetVec(i, stat.Mean(rm.Column(i), nil)*contracts.TradingDays)
	}

	// One row has no sample covariance; it is taken as zero.
	cov := mat.NewSymDense(n, nil)
	if t >= 2 {
		stat.CovarianceMatrix(cov, x, nil)
		cov.ScaleSym(contracts.TradingDays, cov)
	}

	return &Calculator{n: n, mean: mean, cov: cov}
}

// Assets returns N
func (c *Calculator) Assets() int {
	return c.n
}

// Mean returns a copy of the annualized expected returns
func (c *Calculator) Mean() []float64 {
	return mat.Col(nil, 0, c.mean)
}

// Covariance returns a copy of the annualized covariance matrix
func (c *Calculator) Covariance() *mat.SymDense {
	out := mat.NewSymDense(c.n, nil)
	out.CopySym(c.cov)
	return out
}

// Evaluate returns the metrics of raw weights. len(w) must be N; callers
// outside the engine go through Compute, which validates.
func (c *Calculator) Evaluate(w []float64) contracts.PortfolioMetrics {
	wv := mat.NewVecDense(c.n, w)

	ret := mat.Dot(c.mean, wv)
	risk := math.Sqrt(math.Max(mat.Inner(wv, c.cov, wv), 0))
	if risk < ZeroRiskTolerance {
		return contracts.PortfolioMetrics{AnnualReturn: ret, Degenerate: true}
	}

	return contracts.PortfolioMetrics{
		AnnualReturn: ret,
		AnnualRisk:   risk,
		Sharpe:       ret / risk,
	}
}

// SharpeGradient writes ∂Sharpe/∂w into dst and returns the metrics at w.
//
//	∇S = μ/σ − (μ·w)·Σw/σ³
//
// The gradient is zero where the portfolio is riskless.
func (c *Calculator) SharpeGradient(dst, w []float64) contracts.PortfolioMetrics {
	m := c.Evaluate(w)
	if m.Degenerate {
		for i := range dst {
			dst[i] = 0
		}
		return m
	}

	var sw mat.VecDense
	sw.MulVec(c.cov, mat.NewVecDense(c.n, w))

	sigma := m.AnnualRisk
	s3 := sigma * sigma * sigma
	for i := range dst {
		dst[i] = c.mean.AtVec(i)/sigma - m.AnnualReturn*sw.AtVec(i)/s3
	}
	return m
}

// Compute is the pure entry point: metrics of w over rm.
func Compute(rm *contracts.ReturnMatrix, w contracts.WeightVector) (contracts.PortfolioMetrics, error) {
	if rm == nil {
		return contracts.PortfolioMetrics{}, contracts.Preconditionf("nil return matrix")
	}
	if w.IsZero() {
		return contracts.PortfolioMetrics{}, contracts.Preconditionf("weights not computed")
	}
	if w.Len() != rm.Cols() {
		return contracts.PortfolioMetrics{}, contracts.Preconditionf("%d weights for %d assets", w.Len(), rm.Cols())
	}
	return NewCalculator(rm).Evaluate(w.Values()), nil
}

// Compute validates w against the cached universe size
func (c *Calculator) Compute(w contracts.WeightVector) (contracts.PortfolioMetrics, error) {
	if w.IsZero() {
		return contracts.PortfolioMetrics{}, contracts.Preconditionf("weights not computed")
	}
	if w.Len() != c.n {
		return contracts.PortfolioMetrics{}, contracts.Preconditionf("%d weights for %d assets", w.Len(), c.n)
	}
	return c.Evaluate(w.Values()), nil
}
