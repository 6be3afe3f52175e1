package contracts

// TradingDays annualizes daily statistics
const TradingDays = 252

// PortfolioMetrics is the annualized (return, risk, Sharpe) triple of a
// weight vector. Risk ≥ 0; Sharpe is 0 exactly when Risk is 0, in which
// case Degenerate is set.
type PortfolioMetrics struct {
	AnnualReturn float64 `json:"annual_return"`
	AnnualRisk   float64 `json:"annual_risk"`
	Sharpe       float64 `json:"sharpe"`
	Degenerate   bool    `json:"degenerate,omitempty"`
}

// RiskSignConvention documents how VaR/CVaR are signed
// ⭐ SSOT: VaR and CVaR are signed returns times portfolio value.
// Losses are negative. Use Losses() for positive magnitudes.
const RiskSignConvention = "signed_return"

// RiskMetrics is the historical-simulation tail risk at one confidence level
type RiskMetrics struct {
	Confidence     float64 `json:"confidence"`
	PortfolioValue float64 `json:"portfolio_value"`
	VaR            float64 `json:"var"`
	CVaR           float64 `json:"cvar"`
	Observations   int     `json:"observations"`
}

// Losses returns VaR and CVaR as positive loss amounts (negated once, here)
func (r RiskMetrics) Losses() (varLoss, cvarLoss float64) {
	return -r.VaR, -r.CVaR
}

// LossFractions returns the losses relative to the portfolio value
func (r RiskMetrics) LossFractions() (varFrac, cvarFrac float64) {
	if r.PortfolioValue == 0 {
		return 0, 0
	}
	v, c := r.Losses()
	return v / r.PortfolioValue, c / r.PortfolioValue
}

// FrontierPoint is one sampled portfolio of the efficient-frontier cloud
type FrontierPoint struct {
	Weights WeightVector     `json:"weights"`
	Metrics PortfolioMetrics `json:"metrics"`
}

// FrontierSummary condenses a consumed sample
type FrontierSummary struct {
	Samples   int           `json:"samples"`
	MaxSharpe FrontierPoint `json:"max_sharpe"`
	MinRisk   FrontierPoint `json:"min_risk"`
}

// RiskLimits are loss ceilings expressed as fractions of portfolio value
type RiskLimits struct {
	MaxVaR  float64 `json:"max_var" yaml:"max_var"`
	MaxCVaR float64 `json:"max_cvar" yaml:"max_cvar"`
}

// RiskCheckResult reports limit violations of a run
type RiskCheckResult struct {
	Passed     bool            `json:"passed"`
	Violations []RiskViolation `json:"violations,omitempty"`
}

// RiskViolation is one exceeded limit
type RiskViolation struct {
	Type       string  `json:"type"` // VAR, CVAR
	Confidence float64 `json:"confidence"`
	Limit      float64 `json:"limit"`
	Actual     float64 `json:"actual"`
	Message    string  `json:"message"`
}

// StressScenario applies instantaneous shocks (simple returns) per asset.
// The "*" key shocks every asset without its own entry.
type StressScenario struct {
	Name   string             `json:"name" yaml:"name"`
	Shocks map[string]float64 `json:"shocks" yaml:"shocks"`
}

// StressResult is the portfolio outcome of one scenario (signed, like RiskMetrics)
type StressResult struct {
	Scenario string  `json:"scenario"`
	Return   float64 `json:"return"`
	PnL      float64 `json:"pnl"`
}

// TargetPosition is a weight turned into whole shares at a reference price
type TargetPosition struct {
	Symbol       string  `json:"symbol"`
	Weight       float64 `json:"weight"` // optimizer weight
	Price        float64 `json:"price"`  // latest close
	Shares       int64   `json:"shares"`
	Amount       float64 `json:"amount"`        // Shares * Price
	ActualWeight float64 `json:"actual_weight"` // Amount / portfolio value
}

// Allocation is the share-level realization of a weight vector
type Allocation struct {
	Positions []TargetPosition `json:"positions"`
	Invested  float64          `json:"invested"`
	Cash      float64          `json:"cash"`
}
