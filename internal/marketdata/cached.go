package marketdata

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/logger"
	"github.com/wonny/frontier/pkg/redis"
)

// CachedProvider serves bars from Redis and falls through to the wrapped
// provider on a miss. A disabled Redis client turns it into a pass-through.
// Concurrent misses for the same key share one upstream fetch.
type CachedProvider struct {
	next   contracts.PriceProvider
	cache  *redis.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *logger.Logger
}

// NewCachedProvider wraps next with a msgpack bar cache
func NewCachedProvider(next contracts.PriceProvider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("bar_cache"),
	}
}

// FetchBars implements contracts.PriceProvider
func (p *CachedProvider) FetchBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error) {
	key := redis.BarsKey(symbol, from.Format("20060102"), to.Format("20060102"))

	var cached []contracts.Bar
	hit, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	if hit && len(cached) > 0 {
		p.logger.WithField("symbol", symbol).Debug("Cache hit")
		return cached, nil
	}

	v, err, shared := p.group.Do(key, func() (interface{}, error) {
		bars, err := p.next.FetchBars(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, bars, p.ttl); err != nil {
			p.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		}
		return bars, nil
	})
	if err != nil {
		return nil, err
	}

	bars := v.([]contracts.Bar)
	if shared {
		bars = append([]contracts.Bar(nil), bars...)
	}
	return bars, nil
}
