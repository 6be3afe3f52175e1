package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/external/yahoo"
	"github.com/wonny/frontier/internal/marketdata"
	"github.com/wonny/frontier/internal/notify"
	"github.com/wonny/frontier/internal/pipeline"
	"github.com/wonny/frontier/internal/profile"
	"github.com/wonny/frontier/internal/signals"
	"github.com/wonny/frontier/internal/store"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/database"
	"github.com/wonny/frontier/pkg/httputil"
	"github.com/wonny/frontier/pkg/logger"
	"github.com/wonny/frontier/pkg/redis"
)

// minStoredBars is how much stored history makes the database fallback acceptable
const minStoredBars = 20

// app holds the wired dependencies shared by the commands
type app struct {
	cfg *config.Config
	log *logger.Logger

	db    *database.DB  // nil without DATABASE_URL
	redis *redis.Client // no-op when disabled

	provider contracts.PriceProvider
	prices   *store.PriceRepository
	runs     *store.RunRepository
	signals  *store.SignalRepository
	notifier contracts.Notifier
}

// appOptions selects the optional backends a command needs
type appOptions struct {
	requireDB bool
	notify    bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	if opts.requireDB || cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg)
		if err != nil {
			if opts.requireDB {
				return nil, fmt.Errorf("connect to database: %w", err)
			}
			log.WithError(err).Warn("Database unavailable, continuing without persistence")
		} else {
			if err := store.EnsureSchema(ctx, db.Pool); err != nil {
				db.Close()
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
			a.db = db
			a.prices = store.NewPriceRepository(db.Pool)
			a.runs = store.NewRunRepository(db.Pool)
			a.signals = store.NewSignalRepository(db.Pool)
		}
	}

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rc = redis.Disabled()
	}
	a.redis = rc

	a.provider = a.buildProvider()

	if opts.notify {
		n, err := notify.New(cfg, log)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init notifier: %w", err)
		}
		a.notifier = n
	} else {
		a.notifier = notify.NewLogNotifier(log)
	}

	return a, nil
}

// buildProvider stacks yahoo, the redis cache and the stored history
func (a *app) buildProvider() contracts.PriceProvider {
	httpClient := httputil.New(a.log, a.cfg.Yahoo.Timeout).
		WithRetry(a.cfg.Yahoo.MaxRetries, 500*time.Millisecond).
		WithLocalLimit(a.cfg.Yahoo.RatePerSec)
	if a.redis.Enabled() {
		httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(a.redis, "frontier:ratelimit"), redis.YahooRateLimit)
	}

	var provider contracts.PriceProvider = yahoo.NewClient(httpClient, a.log, a.cfg.Yahoo.BaseURL, a.cfg.Yahoo.SymbolSuffix)
	if a.redis.Enabled() {
		provider = marketdata.NewCachedProvider(provider, redis.NewCache(a.redis, "frontier"), a.cfg.Redis.PriceTTL, a.log)
	}
	if a.prices != nil {
		provider = marketdata.NewFallbackProvider(minStoredBars, a.log, provider, a.prices)
	}
	return provider
}

// collector saves fetched bars when the database is connected
func (a *app) collector() *marketdata.Collector {
	var priceStore contracts.PriceStore
	if a.prices != nil {
		priceStore = a.prices
	}
	return marketdata.NewCollector(a.provider, priceStore, a.cfg.Yahoo.Concurrency, a.log)
}

func (a *app) runner() *pipeline.Runner {
	var runs contracts.RunRepository
	if a.runs != nil {
		runs = a.runs
	}
	return pipeline.NewRunner(a.collector(), runs, a.notifier, a.log)
}

func (a *app) scanner() *signals.Scanner {
	var repo contracts.SignalRepository
	if a.signals != nil {
		repo = a.signals
	}
	return signals.NewScanner(a.provider, repo, a.notifier, a.cfg.Yahoo.Concurrency, a.log)
}

// request resolves the base run request from the profile or the environment
func (a *app) request(now time.Time) (pipeline.Request, error) {
	path := profilePath
	if path == "" {
		path = a.cfg.Portfolio.ProfilePath
	}
	if path == "" {
		return pipeline.FromConfig(a.cfg, now)
	}

	p, _, err := profile.Load(path)
	if err != nil {
		return pipeline.Request{}, err
	}
	for _, w := range profile.Warnings(p) {
		a.log.WithField("code", w.Code).Warn(w.Message)
	}
	return pipeline.FromProfile(a.cfg, p, now)
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
