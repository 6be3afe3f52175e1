// Package signals scans a symbol list with a trend indicator and emits
// the crossovers that happened on the latest bar.
package signals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/indicators"
	"github.com/wonny/frontier/pkg/logger"
)

// DefaultLookbackDays covers the MACD warm-up with room for holidays
const DefaultLookbackDays = 120

// Scanner evaluates an indicator for every symbol
type Scanner struct {
	provider contracts.PriceProvider
	repo     contracts.SignalRepository
	notifier contracts.Notifier
	logger   *logger.Logger
	workers  int
	lookback int
}

// NewScanner creates a scanner. repo and notifier are optional.
func NewScanner(provider contracts.PriceProvider, repo contracts.SignalRepository, notifier contracts.Notifier, workers int, log *logger.Logger) *Scanner {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scanner{
		provider: provider,
		repo:     repo,
		notifier: notifier,
		logger:   log.WithComponent("signal_scanner"),
		workers:  workers,
		lookback: DefaultLookbackDays,
	}
}

// WithLookback sets the calendar-day history fetched per symbol
func (s *Scanner) WithLookback(days int) *Scanner {
	if days > 0 {
		s.lookback = days
	}
	return s
}

// Evaluate computes the latest-bar signal of indicator over bars, if any
func Evaluate(indicator, symbol string, bars []contracts.Bar) (*contracts.IndicatorSignal, error) {
	var (
		state    []int
		readings func(int) map[string]float64
	)

	switch strings.ToUpper(indicator) {
	case contracts.IndicatorMACD:
		series, err := indicators.MACD(indicators.Closes(bars), indicators.MACDFast, indicators.MACDSlow, indicators.MACDSignal)
		if err != nil {
			return nil, err
		}
		state, readings = series.Trend(), series.Readings
	case contracts.IndicatorAlphaTrend:
		series, err := indicators.AlphaTrend(bars, indicators.AlphaTrendPeriod, indicators.AlphaTrendMultiplier)
		if err != nil {
			return nil, err
		}
		state, readings = series.State, series.Readings
	default:
		return nil, contracts.Preconditionf("unknown indicator %q", indicator)
	}

	x, ok := indicators.LastCrossover(state)
	if !ok {
		return nil, nil
	}
	last := bars[x.Index]
	return &contracts.IndicatorSignal{
		Symbol:    symbol,
		Indicator: strings.ToUpper(indicator),
		Date:      contracts.Day(last.Date),
		Action:    x.Action,
		Price:     last.Close,
		Values:    readings(x.Index),
	}, nil
}

// Scan fetches history for every symbol, evaluates indicator and returns
// the signals sorted by symbol. Per-symbol failures are logged and skipped.
// Signals are then saved and sent when a repository or notifier is set.
func (s *Scanner) Scan(ctx context.Context, indicator string, symbols []string, asOf time.Time) ([]contracts.IndicatorSignal, error) {
	if len(symbols) == 0 {
		return nil, contracts.Preconditionf("no symbols to scan")
	}
	rng := contracts.Lookback(asOf, s.lookback)

	var (
		mu      sync.Mutex
		found   []contracts.IndicatorSignal
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, symbol := range symbols {
		g.Go(func() error {
			bars, err := s.provider.FetchBars(gctx, symbol, rng.From, rng.To)
			if err == nil {
				var sig *contracts.IndicatorSignal
				sig, err = Evaluate(indicator, symbol, bars)
				if err == nil && sig != nil {
					mu.Lock()
					found = append(found, *sig)
					mu.Unlock()
				}
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.WithError(err).WithField("symbol", symbol).Warn("Skipping symbol")
				mu.Lock()
				skipped++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", indicator, err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Symbol < found[j].Symbol })

	s.logger.WithFields(map[string]interface{}{
		"indicator": indicator,
		"symbols":   len(symbols),
		"signals":   len(found),
		"skipped":   skipped,
	}).Info("Scan completed")

	if len(found) == 0 {
		return found, nil
	}

	if s.repo != nil {
		if err := s.repo.SaveSignals(ctx, found); err != nil {
			return found, fmt.Errorf("save signals: %w", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifySignals(ctx, found); err != nil {
			s.logger.WithError(err).Error("Failed to send signals")
		}
	}
	return found, nil
}
