package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/marketdata"
	"github.com/wonny/frontier/pkg/logger"
)

// PriceSyncJob refreshes the stored price history of the universe
// ⭐ SSOT: scheduled price collection happens only in this job
type PriceSyncJob struct {
	collector *marketdata.Collector
	symbols   []string
	days      int
	schedule  string
	logger    *logger.Logger
}

// NewPriceSyncJob creates a job fetching the last days calendar days
func NewPriceSyncJob(collector *marketdata.Collector, symbols []string, days int, schedule string, log *logger.Logger) *PriceSyncJob {
	if log == nil {
		log = logger.Nop()
	}
	if days <= 0 {
		days = 7
	}
	return &PriceSyncJob{
		collector: collector,
		symbols:   symbols,
		days:      days,
		schedule:  schedule,
		logger:    log,
	}
}

func (j *PriceSyncJob) Name() string     { return "price_sync" }
func (j *PriceSyncJob) Schedule() string { return j.schedule }

// Run fetches and stores recent bars. It fails only when every asset failed.
func (j *PriceSyncJob) Run(ctx context.Context) error {
	universe, err := contracts.NewAssetUniverse(j.symbols)
	if err != nil {
		return err
	}

	res, err := j.collector.Collect(ctx, universe, contracts.Lookback(time.Now(), j.days))
	if err != nil {
		return err
	}
	if len(res.Prices) == 0 {
		return fmt.Errorf("price sync: all %d assets failed", universe.Len())
	}

	j.logger.WithFields(map[string]interface{}{
		"fetched": len(res.Prices),
		"failed":  res.Failed(),
		"saved":   res.Saved,
	}).Info("Price sync completed")
	return nil
}
