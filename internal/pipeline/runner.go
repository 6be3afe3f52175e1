// Package pipeline runs the end-to-end optimization: collect prices, build
// returns, optimize, estimate risk, sample the frontier, then persist and
// notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/frontier"
	"github.com/wonny/frontier/internal/marketdata"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/portfolio"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/internal/risk"
	"github.com/wonny/frontier/pkg/logger"
)

// Runner coordinates one optimization run
// ⭐ SSOT: run orchestration lives only here
type Runner struct {
	collector   *marketdata.Collector
	riskEngine  *risk.Engine
	constructor *portfolio.Constructor
	runs        contracts.RunRepository
	notifier    contracts.Notifier
	logger      *logger.Logger
	now         func() time.Time
}

// NewRunner creates a runner. runs and notifier may be nil.
func NewRunner(collector *marketdata.Collector, runs contracts.RunRepository, notifier contracts.Notifier, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		collector:   collector,
		riskEngine:  risk.NewEngine(),
		constructor: portfolio.NewConstructor(portfolio.DefaultConstraints(), log),
		runs:        runs,
		notifier:    notifier,
		logger:      log.WithComponent("pipeline"),
		now:         time.Now,
	}
}

// Result carries the bundle plus the intermediate data used by exporters
type Result struct {
	Bundle   *contracts.Bundle
	Prices   contracts.PriceSeries
	Returns  *contracts.ReturnMatrix
	Frontier []contracts.FrontierPoint
	Stages   []string
}

// Run executes the pipeline. Any stage failure aborts the run; persistence
// and notification failures are recorded as warnings.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := r.now()
	runID := uuid.NewString()
	log := r.logger.WithField("run_id", runID)

	universe, err := contracts.NewAssetUniverse(req.Symbols)
	if err != nil {
		return nil, err
	}
	if req.PortfolioValue <= 0 {
		return nil, contracts.Preconditionf("portfolio value must be positive, got %g", req.PortfolioValue)
	}
	levels := req.ConfidenceLevels
	if len(levels) == 0 {
		levels = risk.DefaultConfidenceLevels
	}

	log.WithFields(map[string]interface{}{
		"assets":  universe.Len(),
		"from":    req.Window.From.Format("2006-01-02"),
		"to":      req.Window.To.Format("2006-01-02"),
		"method":  string(req.Optimizer.Method),
		"profile": req.ProfileName,
	}).Info("Starting optimization run")

	result := &Result{}

	// 1. Prices
	collected, err := r.collector.Collect(ctx, universe, req.Window)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	if !req.DropUnavailable && len(collected.Failures) > 0 {
		failed := collected.Failed()
		return nil, collected.Failures[failed[0]]
	}
	result.Prices = collected.Prices
	result.Stages = append(result.Stages, "collect")

	// 2. Returns
	rm, dropped, err := r.buildReturns(universe, collected, req.DropUnavailable)
	if err != nil {
		return nil, fmt.Errorf("returns: %w", err)
	}
	result.Returns = rm
	result.Stages = append(result.Stages, "returns")

	// 3. Weights
	opt, err := optimizer.New(req.Optimizer, r.logger).Optimize(rm)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	result.Stages = append(result.Stages, "optimize")

	// 4. Risk
	riskMetrics, err := r.riskEngine.EstimateAll(rm, opt.Weights, levels, req.PortfolioValue)
	if err != nil {
		return nil, fmt.Errorf("risk: %w", err)
	}
	stress, err := r.riskEngine.StressTest(rm.Universe(), opt.Weights, req.Scenarios, req.PortfolioValue)
	if err != nil {
		return nil, fmt.Errorf("stress: %w", err)
	}
	result.Stages = append(result.Stages, "risk")

	bundle := &contracts.Bundle{
		RunID:          runID,
		CreatedAt:      startTime.UTC(),
		ProfileName:    req.ProfileName,
		ProfileHash:    req.ProfileHash,
		Universe:       rm.Universe().Symbols(),
		Dropped:        dropped,
		Window:         req.Window,
		Observations:   rm.Rows(),
		PortfolioValue: req.PortfolioValue,
		Currency:       req.Currency,
		Weights:        opt.Weights,
		Metrics:        opt.Metrics,
		Risk:           riskMetrics,
		Stress:         stress,
		Solver:         opt.Solver,
	}
	if opt.Metrics.Degenerate {
		w := fmt.Errorf("%w: portfolio variance is zero, Sharpe reported as 0", contracts.ErrDegenerateInput)
		log.Warn(w.Error())
		bundle.Warnings = append(bundle.Warnings, w.Error())
	}
	for _, s := range sortedKeys(dropped) {
		bundle.Warnings = append(bundle.Warnings, fmt.Sprintf("%s excluded: %s", s, dropped[s]))
	}

	// 5. Frontier
	if req.FrontierSamples >= 0 {
		points, err := r.sampleFrontier(rm, req.FrontierSamples, req.Seed)
		if err != nil {
			return nil, fmt.Errorf("frontier: %w", err)
		}
		summary := frontier.Summarize(points)
		bundle.Frontier = &summary
		result.Frontier = points
		result.Stages = append(result.Stages, "frontier")
	}

	// 6. Limits
	if req.Limits != nil {
		bundle.Limits = r.riskEngine.CheckLimits(riskMetrics, *req.Limits)
	}

	// 7. Shares
	alloc, err := r.constructor.Construct(opt.Weights.Labeled(rm.Universe()), lastCloses(collected.Prices), req.PortfolioValue)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	bundle.Allocation = alloc
	result.Bundle = bundle

	// 8. Sinks
	if req.Persist && r.runs != nil {
		if err := r.runs.SaveRun(ctx, bundle); err != nil {
			log.WithError(err).Error("Failed to persist run")
			bundle.Warnings = append(bundle.Warnings, "run not persisted: "+err.Error())
		} else {
			result.Stages = append(result.Stages, "persist")
		}
	}
	if req.Notify && r.notifier != nil {
		if err := r.notifier.NotifyRun(ctx, bundle); err != nil {
			log.WithError(err).Error("Failed to send notification")
		} else {
			result.Stages = append(result.Stages, "notify")
		}
	}

	log.WithFields(map[string]interface{}{
		"assets":   len(bundle.Universe),
		"dropped":  len(dropped),
		"sharpe":   bundle.Metrics.Sharpe,
		"status":   bundle.Solver.Status,
		"duration": r.now().Sub(startTime).String(),
	}).Info("Optimization run completed")

	return result, nil
}

func (r *Runner) buildReturns(universe *contracts.AssetUniverse, collected *marketdata.Result, drop bool) (*contracts.ReturnMatrix, map[string]string, error) {
	if !drop {
		rm, err := returns.Build(universe, collected.Prices)
		return rm, nil, err
	}

	rm, dropped, err := returns.BuildDropping(universe, collected.Prices)
	if err != nil {
		return nil, dropped, err
	}
	// the provider's reason is more useful than "no price observations"
	for symbol, ferr := range collected.Failures {
		var due *contracts.DataUnavailableError
		if errors.As(ferr, &due) {
			dropped[symbol] = due.Reason
		}
	}
	if len(dropped) == 0 {
		dropped = nil
	}
	return rm, dropped, nil
}

func (r *Runner) sampleFrontier(rm *contracts.ReturnMatrix, samples int, seed int64) ([]contracts.FrontierPoint, error) {
	sampler, err := frontier.NewSampler(rm, frontier.NewRand(seed))
	if err != nil {
		return nil, err
	}
	seq, err := sampler.Sample(rm.Cols(), samples)
	if err != nil {
		return nil, err
	}
	return frontier.Collect(seq), nil
}

// lastCloses returns each asset's most recent close
func lastCloses(prices contracts.PriceSeries) map[string]float64 {
	out := make(map[string]float64, len(prices))
	for symbol, bars := range prices {
		var latest time.Time
		for _, b := range bars {
			if b.Close > 0 && !b.Date.Before(latest) {
				latest = b.Date
				out[symbol] = b.Close
			}
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
