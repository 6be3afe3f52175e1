// Package profile loads YAML portfolio profiles: a named universe with the
// run parameters used to optimize it.
package profile

import "github.com/wonny/frontier/internal/contracts"

// Profile is the full definition of a scheduled or on-demand run
type Profile struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Window    Window    `yaml:"window" json:"window"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Optimizer Optimizer `yaml:"optimizer" json:"optimizer"`
	Risk      Risk      `yaml:"risk" json:"risk"`
	Frontier  Frontier  `yaml:"frontier" json:"frontier"`
}

// Meta identifies the profile
type Meta struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Universe lists the assets to optimize over
type Universe struct {
	Symbols         []string `yaml:"symbols" json:"symbols"`
	DropUnavailable *bool    `yaml:"drop_unavailable,omitempty" json:"drop_unavailable,omitempty"`
}

// Window selects the price history. Start/End (YYYY-MM-DD) win over LookbackDays.
type Window struct {
	LookbackDays int    `yaml:"lookback_days" json:"lookback_days"`
	Start        string `yaml:"start,omitempty" json:"start,omitempty"`
	End          string `yaml:"end,omitempty" json:"end,omitempty"`
}

// Portfolio holds the capital being allocated
type Portfolio struct {
	Value    float64 `yaml:"value" json:"value"`
	Currency string  `yaml:"currency" json:"currency"`
}

// Optimizer selects the solver
type Optimizer struct {
	Method        string `yaml:"method" json:"method"`
	MaxIterations int    `yaml:"max_iterations" json:"max_iterations"`
}

// Risk configures tail-risk reporting
type Risk struct {
	ConfidenceLevels []float64                  `yaml:"confidence_levels" json:"confidence_levels"`
	Limits           contracts.RiskLimits       `yaml:"limits" json:"limits"`
	Scenarios        []contracts.StressScenario `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`
}

// Frontier configures the random-portfolio sample
type Frontier struct {
	Samples int   `yaml:"samples" json:"samples"`
	Seed    int64 `yaml:"seed" json:"seed"`
}

// DropsUnavailable reports the drop policy, defaulting to true
func (u Universe) DropsUnavailable() bool {
	return u.DropUnavailable == nil || *u.DropUnavailable
}
