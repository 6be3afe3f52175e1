package risk

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/frontier/internal/contracts"
)

// =============================================================================
// Engine - pure calculator
// =============================================================================

// Engine estimates historical-simulation tail risk of a weighted portfolio
// ⭐ SSOT: data collection and limit policy are assembled by the pipeline;
// this package only computes
type Engine struct{}

// NewEngine creates a risk engine
func NewEngine() *Engine {
	return &Engine{}
}

// =============================================================================
// VaR/CVaR
// =============================================================================

// VaR returns the annualized signed VaR in currency units
func (e *Engine) VaR(rm *contracts.ReturnMatrix, w contracts.WeightVector, confidence, portfolioValue float64) (float64, error) {
	r, err := e.Estimate(rm, w, confidence, portfolioValue)
	if err != nil {
		return 0, err
	}
	return r.VaR, nil
}

// CVaR returns the annualized signed CVaR in currency units
func (e *Engine) CVaR(rm *contracts.ReturnMatrix, w contracts.WeightVector, confidence, portfolioValue float64) (float64, error) {
	r, err := e.Estimate(rm, w, confidence, portfolioValue)
	if err != nil {
		return 0, err
	}
	return r.CVaR, nil
}

// Estimate computes VaR and CVaR at one confidence level.
// Weights must exist: the zero WeightVector fails with ErrPreconditionViolated.
func (e *Engine) Estimate(rm *contracts.ReturnMatrix, w contracts.WeightVector, confidence, portfolioValue float64) (contracts.RiskMetrics, error) {
	if err := validateLevel(confidence, portfolioValue); err != nil {
		return contracts.RiskMetrics{}, err
	}

	returns, err := PortfolioReturns(rm, w)
	if err != nil {
		return contracts.RiskMetrics{}, err
	}

	return estimate(returns, confidence, portfolioValue), nil
}

// EstimateAll computes risk metrics for every confidence level, reusing
// one portfolio return series
func (e *Engine) EstimateAll(rm *contracts.ReturnMatrix, w contracts.WeightVector, levels []float64, portfolioValue float64) ([]contracts.RiskMetrics, error) {
	if len(levels) == 0 {
		levels = DefaultConfidenceLevels
	}
	for _, c := range levels {
		if err := validateLevel(c, portfolioValue); err != nil {
			return nil, err
		}
	}

	returns, err := PortfolioReturns(rm, w)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.RiskMetrics, len(levels))
	for i, c := range levels {
		out[i] = estimate(returns, c, portfolioValue)
	}
	return out, nil
}

func estimate(returns []float64, confidence, portfolioValue float64) contracts.RiskMetrics {
	return contracts.RiskMetrics{
		Confidence:     confidence,
		PortfolioValue: portfolioValue,
		VaR:            Annualize(HistoricalVaR(returns, confidence)) * portfolioValue,
		CVaR:           Annualize(HistoricalCVaR(returns, confidence)) * portfolioValue,
		Observations:   len(returns),
	}
}

func validateLevel(confidence, portfolioValue float64) error {
	if confidence <= 0 || confidence >= 1 {
		return contracts.Preconditionf("confidence %g outside (0,1)", confidence)
	}
	if portfolioValue <= 0 {
		return contracts.Preconditionf("portfolio value %g must be positive", portfolioValue)
	}
	return nil
}

// =============================================================================
// Risk Check
// =============================================================================

// CheckLimits compares the loss fractions of every confidence level with
// the limits. A zero limit disables that check.
func (e *Engine) CheckLimits(metrics []contracts.RiskMetrics, limits contracts.RiskLimits) *contracts.RiskCheckResult {
	result := &contracts.RiskCheckResult{Passed: true}

	for _, m := range metrics {
		varLoss, cvarLoss := m.LossFractions()

		if limits.MaxVaR > 0 && varLoss > limits.MaxVaR {
			result.Passed = false
			result.Violations = append(result.Violations, contracts.RiskViolation{
				Type:       "VAR",
				Confidence: m.Confidence,
				Limit:      limits.MaxVaR,
				Actual:     varLoss,
				Message:    fmt.Sprintf("VaR%.0f loss %.2f%% exceeds limit %.2f%%", m.Confidence*100, varLoss*100, limits.MaxVaR*100),
			})
		}

		if limits.MaxCVaR > 0 && cvarLoss > limits.MaxCVaR {
			result.Passed = false
			result.Violations = append(result.Violations, contracts.RiskViolation{
				Type:       "CVAR",
				Confidence: m.Confidence,
				Limit:      limits.MaxCVaR,
				Actual:     cvarLoss,
				Message:    fmt.Sprintf("CVaR%.0f loss %.2f%% exceeds limit %.2f%%", m.Confidence*100, cvarLoss*100, limits.MaxCVaR*100),
			})
		}
	}

	return result
}

// =============================================================================
// Stress Test
// =============================================================================

// StressTest applies each scenario's shocks to the weighted universe.
// Assets without a shock (and no "*" entry) are unaffected.
func (e *Engine) StressTest(universe *contracts.AssetUniverse, w contracts.WeightVector, scenarios []contracts.StressScenario, portfolioValue float64) ([]contracts.StressResult, error) {
	if w.IsZero() {
		return nil, contracts.Preconditionf("weights not computed")
	}
	if universe == nil || universe.Len() != w.Len() {
		return nil, contracts.Preconditionf("weights do not match the universe")
	}

	results := make([]contracts.StressResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		var ret float64
		for i, symbol := range universe.Symbols() {
			shock, ok := scenario.Shocks[symbol]
			if !ok {
				if shock, ok = scenario.Shocks[contracts.AllAssets]; !ok {
					continue
				}
			}
			ret += w.At(i) * shock
		}

		results = append(results, contracts.StressResult{
			Scenario: scenario.Name,
			Return:   ret,
			PnL:      ret * portfolioValue,
		})
	}

	return results, nil
}

// =============================================================================
// Utility Functions
// =============================================================================

// PortfolioReturns returns r_t = Σ_i r[t,i]·w_i for every row of rm
func PortfolioReturns(rm *contracts.ReturnMatrix, w contracts.WeightVector) ([]float64, error) {
	if w.IsZero() {
		return nil, contracts.Preconditionf("weights not computed: run the optimizer or supply weights")
	}
	if rm == nil {
		return nil, contracts.Preconditionf("nil return matrix")
	}
	if w.Len() != rm.Cols() {
		return nil, contracts.Preconditionf("%d weights for %d assets", w.Len(), rm.Cols())
	}

	var r mat.VecDense
	r.MulVec(rm.Matrix(), mat.NewVecDense(w.Len(), w.Values()))
	return r.RawVector().Data, nil
}
