// Package marketdata gathers daily bars for a universe from one or more
// price providers.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/logger"
)

// Collector fetches bars for every asset of a universe concurrently
// ⭐ SSOT: price collection orchestration lives only in this package
type Collector struct {
	provider contracts.PriceProvider
	store    contracts.PriceStore
	logger   *logger.Logger
	workers  int
}

// NewCollector creates a collector. store may be nil, in which case
// fetched bars are not persisted.
func NewCollector(provider contracts.PriceProvider, store contracts.PriceStore, workers int, log *logger.Logger) *Collector {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Collector{
		provider: provider,
		store:    store,
		logger:   log.WithComponent("collector"),
		workers:  workers,
	}
}

// Result is the outcome of one collection run
type Result struct {
	Prices   contracts.PriceSeries
	Failures map[string]error // per-asset errors, each matching contracts.ErrDataUnavailable
	Saved    int
}

// Failed returns the failed symbols in sorted order
func (r *Result) Failed() []string {
	out := make([]string, 0, len(r.Failures))
	for s := range r.Failures {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Collect fetches bars for every asset over rng. A failure for one asset
// is recorded in Result.Failures and never aborts the others. Only
// context cancellation is returned as an error.
func (c *Collector) Collect(ctx context.Context, universe *contracts.AssetUniverse, rng contracts.DateRange) (*Result, error) {
	if universe == nil || universe.Len() == 0 {
		return nil, contracts.Preconditionf("empty universe")
	}
	if !rng.Valid() {
		return nil, contracts.Preconditionf("invalid date range %s..%s",
			rng.From.Format("2006-01-02"), rng.To.Format("2006-01-02"))
	}

	c.logger.WithFields(map[string]interface{}{
		"assets":  universe.Len(),
		"from":    rng.From.Format("2006-01-02"),
		"to":      rng.To.Format("2006-01-02"),
		"workers": c.workers,
	}).Info("Starting price collection")

	var (
		mu     sync.Mutex
		result = &Result{
			Prices:   make(contracts.PriceSeries, universe.Len()),
			Failures: make(map[string]error),
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, symbol := range universe.Symbols() {
		g.Go(func() error {
			bars, saved, err := c.fetchOne(gctx, symbol, rng)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				result.Failures[symbol] = err
				return nil
			}
			result.Prices[symbol] = bars
			result.Saved += saved
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect prices: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(result.Prices),
		"failed":  len(result.Failures),
		"saved":   result.Saved,
	}).Info("Price collection completed")

	return result, nil
}

func (c *Collector) fetchOne(ctx context.Context, symbol string, rng contracts.DateRange) ([]contracts.Bar, int, error) {
	start := time.Now()

	bars, err := c.provider.FetchBars(ctx, symbol, rng.From, rng.To)
	if err == nil && len(bars) == 0 {
		err = contracts.NewDataUnavailable(symbol, "no bars in range", nil)
	}
	if err != nil {
		if !errors.Is(err, contracts.ErrDataUnavailable) {
			err = contracts.NewDataUnavailable(symbol, "fetch failed", err)
		}
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to fetch bars")
		return nil, 0, err
	}

	saved := 0
	if c.store != nil {
		n, err := c.store.SaveBars(ctx, symbol, bars)
		if err != nil {
			// persisted history is a side effect; the run keeps the bars
			c.logger.WithError(err).WithField("symbol", symbol).Error("Failed to save bars")
		}
		saved = n
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"count":   len(bars),
		"elapsed": time.Since(start).String(),
	}).Debug("Fetched bars")

	return bars, saved, nil
}
