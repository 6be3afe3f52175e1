package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/marketdata"
	"github.com/wonny/frontier/internal/pipeline"
	"github.com/wonny/frontier/internal/signals"
)

type provider struct {
	fail bool
}

func (p provider) FetchBars(_ context.Context, symbol string, from, _ time.Time) ([]contracts.Bar, error) {
	if p.fail {
		return nil, errors.New("offline")
	}
	return []contracts.Bar{{Date: from, Close: 10}, {Date: from.AddDate(0, 0, 1), Close: 11}}, nil
}

func TestPriceSyncJob(t *testing.T) {
	job := NewPriceSyncJob(marketdata.NewCollector(provider{}, nil, 2, nil), []string{"THYAO", "GARAN"}, 0, "0 0 19 * * 1-5", nil)
	assert.Equal(t, "price_sync", job.Name())
	assert.Equal(t, 7, job.days)
	require.NoError(t, job.Run(context.Background()))

	failing := NewPriceSyncJob(marketdata.NewCollector(provider{fail: true}, nil, 2, nil), []string{"THYAO"}, 3, "@daily", nil)
	assert.Error(t, failing.Run(context.Background()))
}

func TestScanJobName(t *testing.T) {
	scanner := signals.NewScanner(provider{}, nil, nil, 1, nil)
	job := NewScanJob(scanner, contracts.IndicatorAlphaTrend, []string{"THYAO"}, "0 0 10-18 * * 1-5", nil)
	assert.Equal(t, "alphatrend_scan", job.Name())
	assert.Equal(t, "0 0 10-18 * * 1-5", job.Schedule())
}

func TestOptimizeJobRequestError(t *testing.T) {
	job := NewOptimizeJob(nil, func(time.Time) (pipeline.Request, error) {
		return pipeline.Request{}, errors.New("no profile")
	}, "@daily", nil)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no profile")
}
