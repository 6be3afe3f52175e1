package risk

import "github.com/wonny/frontier/internal/contracts"

// =============================================================================
// Conventions
// =============================================================================

// VaRConvention mirrors contracts.RiskSignConvention
// ⭐ SSOT: VaR/CVaR are signed portfolio returns (negative = loss),
// annualized by sqrt(252) and scaled by the portfolio value
const VaRConvention = contracts.RiskSignConvention

// DefaultConfidenceLevels are reported when a run does not name any
var DefaultConfidenceLevels = []float64{0.95, 0.99}

// =============================================================================
// Limits & Scenarios
// =============================================================================

// DefaultLimits caps annualized tail losses as fractions of portfolio value
func DefaultLimits() contracts.RiskLimits {
	return contracts.RiskLimits{
		MaxVaR:  0.25,
		MaxCVaR: 0.35,
	}
}

// DefaultScenarios are broad market shocks applied when a profile has none
func DefaultScenarios() []contracts.StressScenario {
	return []contracts.StressScenario{
		{Name: "market_-10%", Shocks: map[string]float64{"*": -0.10}},
		{Name: "market_-20%", Shocks: map[string]float64{"*": -0.20}},
		{Name: "market_-30%", Shocks: map[string]float64{"*": -0.30}},
	}
}
