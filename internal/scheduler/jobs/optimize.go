package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/frontier/internal/pipeline"
	"github.com/wonny/frontier/pkg/logger"
)

// RequestFunc builds the run request at fire time so the window tracks the clock
type RequestFunc func(now time.Time) (pipeline.Request, error)

// OptimizeJob runs the optimization pipeline after the market close
type OptimizeJob struct {
	runner   *pipeline.Runner
	request  RequestFunc
	schedule string
	logger   *logger.Logger
}

// NewOptimizeJob creates the portfolio optimization job
func NewOptimizeJob(runner *pipeline.Runner, request RequestFunc, schedule string, log *logger.Logger) *OptimizeJob {
	if log == nil {
		log = logger.Nop()
	}
	return &OptimizeJob{runner: runner, request: request, schedule: schedule, logger: log}
}

func (j *OptimizeJob) Name() string     { return "portfolio_optimization" }
func (j *OptimizeJob) Schedule() string { return j.schedule }

// Run optimizes, persists and notifies
func (j *OptimizeJob) Run(ctx context.Context) error {
	req, err := j.request(time.Now())
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Persist = true
	req.Notify = true

	res, err := j.runner.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("optimization run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": res.Bundle.RunID,
		"sharpe": res.Bundle.Metrics.Sharpe,
	}).Info("Scheduled optimization completed")
	return nil
}
