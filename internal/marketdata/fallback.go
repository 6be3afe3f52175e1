package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/logger"
)

// FallbackProvider asks each provider in turn and returns the first
// non-empty answer. Typical order: stored history, then the live source.
type FallbackProvider struct {
	providers []contracts.PriceProvider
	minBars   int
	logger    *logger.Logger
}

// NewFallbackProvider chains providers. An answer with fewer than minBars
// bars counts as a miss and the next provider is tried.
func NewFallbackProvider(minBars int, log *logger.Logger, providers ...contracts.PriceProvider) *FallbackProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &FallbackProvider{
		providers: providers,
		minBars:   minBars,
		logger:    log.WithComponent("fallback_provider"),
	}
}

// FetchBars implements contracts.PriceProvider
func (p *FallbackProvider) FetchBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error) {
	var errs []error
	var best []contracts.Bar

	for i, provider := range p.providers {
		bars, err := provider.FetchBars(ctx, symbol, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if len(bars) >= p.minBars && len(bars) > 0 {
			if i > 0 {
				p.logger.WithFields(map[string]interface{}{
					"symbol":   symbol,
					"provider": i,
				}).Debug("Served by fallback provider")
			}
			return bars, nil
		}
		if len(bars) > len(best) {
			best = bars
		}
	}

	if len(best) > 0 {
		return best, nil
	}
	if len(errs) == 0 {
		return nil, contracts.NewDataUnavailable(symbol, "no provider returned bars", nil)
	}
	return nil, contracts.NewDataUnavailable(symbol, "all providers failed", errors.Join(errs...))
}
