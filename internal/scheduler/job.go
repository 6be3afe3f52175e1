package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work
// ⭐ SSOT: scheduled jobs implement only this interface
type Job interface {
	// Name returns the unique job name
	Name() string

	// Run executes the job once
	Run(ctx context.Context) error

	// Schedule returns the cron spec, seconds first
	// e.g. "0 30 18 * * 1-5" (weekdays 18:30), "@daily"
	Schedule() string
}

// JobResult is the outcome of one execution, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// historySize bounds the results kept per job
const historySize = 100

// JobHistory keeps the most recent results of a job
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest past historySize
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historySize {
		h.Results = h.Results[len(h.Results)-historySize:]
	}
}

// GetLatestResults returns up to n most recent results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns every failed result
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns the fraction of successful runs (0 when empty)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	return float64(len(h.Results)-len(h.GetFailedResults())) / float64(len(h.Results))
}
