package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    atomic.Int32
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("transient")
	}
	return ctx.Err()
}

func TestAddJob(t *testing.T) {
	s := New(nil)

	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "0 0 18 * * 1-5"}))
	assert.Error(t, s.AddJob(&stubJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&stubJob{name: "b", schedule: "not a spec"}))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestRunNowRetries(t *testing.T) {
	s := New(nil, WithRetry(2, 0))
	job := &stubJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunNow(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Empty(t, res.Error)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
}

func TestRunNowExhaustsRetries(t *testing.T) {
	s := New(nil, WithRetry(1, 0))
	job := &stubJob{name: "broken", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunNow(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "transient", res.Error)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.Zero(t, stats.SuccessRate)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunNowStopsOnCancel(t *testing.T) {
	s := New(nil, WithRetry(5, time.Hour))
	job := &stubJob{name: "slow", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.RunNow(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
}

func TestRemoveJob(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.RunNow(context.Background(), "a")
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	s.Start()
	stats := s.GetJobStats()["a"]
	require.NotNil(t, stats.NextRun)
	assert.True(t, stats.NextRun.After(time.Now()))
	s.Stop()
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historySize+5; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, historySize)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Empty(t, h.GetLatestResults(0))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Len(t, h.GetFailedResults(), historySize/2)
}
