package pipeline

import (
	"strings"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/profile"
	"github.com/wonny/frontier/internal/risk"
	"github.com/wonny/frontier/pkg/config"
)

// Request describes one optimization run
type Request struct {
	Symbols          []string
	Window           contracts.DateRange
	PortfolioValue   float64
	Currency         string
	ConfidenceLevels []float64
	DropUnavailable  bool

	// FrontierSamples < 0 skips the frontier; 0 uses the sampler default
	FrontierSamples int
	Seed            int64

	Optimizer optimizer.Config
	Limits    *contracts.RiskLimits // nil skips the limit check
	Scenarios []contracts.StressScenario

	ProfileName string
	ProfileHash string

	Persist bool
	Notify  bool
}

// FromConfig builds a request from environment defaults
func FromConfig(cfg *config.Config, now time.Time) (Request, error) {
	window, err := resolveWindow(cfg.Portfolio.StartDate, cfg.Portfolio.EndDate, cfg.Portfolio.LookbackDays, now)
	if err != nil {
		return Request{}, err
	}

	limits := risk.DefaultLimits()
	return Request{
		Symbols:          cfg.Portfolio.Symbols,
		Window:           window,
		PortfolioValue:   cfg.Portfolio.Value,
		Currency:         cfg.Portfolio.Currency,
		ConfidenceLevels: cfg.Portfolio.ConfidenceLevels,
		DropUnavailable:  cfg.Portfolio.DropUnavailable,
		FrontierSamples:  cfg.Portfolio.FrontierSamples,
		Seed:             cfg.Portfolio.RandomSeed,
		Optimizer: optimizer.Config{
			Method:            optimizer.Method(cfg.Optimizer.Method),
			MaxIterations:     cfg.Optimizer.MaxIterations,
			GradientThreshold: cfg.Optimizer.GradientThreshold,
		},
		Limits:    &limits,
		Scenarios: risk.DefaultScenarios(),
	}, nil
}

// FromProfile overlays a validated profile on the environment defaults
func FromProfile(cfg *config.Config, p *profile.Profile, now time.Time) (Request, error) {
	req, err := FromConfig(cfg, now)
	if err != nil {
		return Request{}, err
	}

	window, err := resolveWindow(p.Window.Start, p.Window.End, p.Window.LookbackDays, now)
	if err != nil {
		return Request{}, err
	}
	hash, err := profile.Hash(p)
	if err != nil {
		return Request{}, err
	}

	req.Symbols = p.Universe.Symbols
	req.DropUnavailable = p.Universe.DropsUnavailable()
	req.Window = window
	req.PortfolioValue = p.Portfolio.Value
	if p.Portfolio.Currency != "" {
		req.Currency = p.Portfolio.Currency
	}
	if len(p.Risk.ConfidenceLevels) > 0 {
		req.ConfidenceLevels = p.Risk.ConfidenceLevels
	}
	if p.Optimizer.Method != "" {
		req.Optimizer.Method = optimizer.Method(strings.ToLower(p.Optimizer.Method))
	}
	if p.Optimizer.MaxIterations > 0 {
		req.Optimizer.MaxIterations = p.Optimizer.MaxIterations
	}
	limits := p.Risk.Limits
	req.Limits = &limits
	if len(p.Risk.Scenarios) > 0 {
		req.Scenarios = p.Risk.Scenarios
	}
	req.FrontierSamples = p.Frontier.Samples
	if p.Frontier.Seed != 0 {
		req.Seed = p.Frontier.Seed
	}
	req.ProfileName = p.Meta.Name
	req.ProfileHash = hash

	return req, nil
}

func resolveWindow(start, end string, lookbackDays int, now time.Time) (contracts.DateRange, error) {
	to := contracts.Day(now)
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return contracts.DateRange{}, contracts.Preconditionf("invalid end date %q", end)
		}
		to = t
	}
	if start == "" {
		return contracts.Lookback(to, lookbackDays), nil
	}

	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return contracts.DateRange{}, contracts.Preconditionf("invalid start date %q", start)
	}
	rng := contracts.DateRange{From: from, To: to}
	if !rng.Valid() {
		return contracts.DateRange{}, contracts.Preconditionf("start %s is after end %s", start, to.Format("2006-01-02"))
	}
	return rng, nil
}
