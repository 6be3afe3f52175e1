package contracts

import "time"

// Bundle is the finished result of one optimization run, handed to the
// report, notification and persistence sinks
type Bundle struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	ProfileName string    `json:"profile_name,omitempty"`
	ProfileHash string    `json:"profile_hash,omitempty"`

	Universe       []string          `json:"universe"`
	Dropped        map[string]string `json:"dropped,omitempty"` // asset: reason
	Window         DateRange         `json:"window"`
	Observations   int               `json:"observations"`
	PortfolioValue float64           `json:"portfolio_value"`
	Currency       string            `json:"currency"`

	Weights    WeightVector     `json:"weights"`
	Metrics    PortfolioMetrics `json:"metrics"`
	Allocation *Allocation      `json:"allocation,omitempty"`
	Risk       []RiskMetrics    `json:"risk"`
	Frontier   *FrontierSummary `json:"frontier,omitempty"`
	Stress     []StressResult   `json:"stress,omitempty"`
	Limits     *RiskCheckResult `json:"limits,omitempty"`
	Solver     SolverInfo       `json:"solver"`

	Warnings []string `json:"warnings,omitempty"`
}

// SolverInfo records how the optimizer terminated
type SolverInfo struct {
	Method      string        `json:"method"`
	Status      string        `json:"status"`
	Iterations  int           `json:"iterations"`
	Evaluations int           `json:"evaluations"`
	Runtime     time.Duration `json:"runtime"`
}

// AllocationRows pairs weights with symbols, skipping empty positions
func (b *Bundle) AllocationRows() []AssetWeight {
	out := make([]AssetWeight, 0, len(b.Universe))
	for i, s := range b.Universe {
		if i >= b.Weights.Len() {
			break
		}
		if w := b.Weights.At(i); w > 0 {
			out = append(out, AssetWeight{Symbol: s, Weight: w})
		}
	}
	return out
}

// RiskAt returns the risk metrics for confidence c
func (b *Bundle) RiskAt(c float64) (RiskMetrics, bool) {
	for _, r := range b.Risk {
		if r.Confidence == c {
			return r, true
		}
	}
	return RiskMetrics{}, false
}

// RunSummary is a lightweight listing row of a persisted run
type RunSummary struct {
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	Universe     []string  `json:"universe"`
	AnnualReturn float64   `json:"annual_return"`
	AnnualRisk   float64   `json:"annual_risk"`
	Sharpe       float64   `json:"sharpe"`
}
