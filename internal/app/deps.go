package app

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tierscreen/internal/config"
	"github.com/seenimoa/tierscreen/internal/infra"
	"github.com/seenimoa/tierscreen/internal/metrics"
	"github.com/seenimoa/tierscreen/internal/provider"
	"github.com/seenimoa/tierscreen/internal/providers"
	"github.com/seenimoa/tierscreen/internal/screener"
)

// redisKeyPrefix namespaces cached pages in a shared Redis.
const redisKeyPrefix = "tierscreen:"

// NewCache builds the page cache selected by cfg.Backend. An unreachable
// Redis falls back to the in-memory cache. The returned closer is never nil.
func NewCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (infra.Cache, io.Closer) {
	switch cfg.Backend {
	case "none":
		return infra.NopCache{}, nopCloser{}
	case "redis":
		client, err := infra.DialRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-memory cache")
			return infra.NewMemoryCache(), nopCloser{}
		}
		logger.Debug().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("using redis page cache")
		return infra.NewRedisCache(client, redisKeyPrefix), client
	default:
		return infra.NewMemoryCache(), nopCloser{}
	}
}

// NewFetcherDeps assembles the cache, rate limiter and circuit breaker
// shared by the market data fetchers.
func NewFetcherDeps(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (provider.FetcherDeps, io.Closer) {
	cache, closer := NewCache(ctx, cfg.Cache, logger)
	return provider.FetcherDeps{
		Cache:    cache,
		CacheTTL: cfg.Cache.TTL(),
		Limiter:  infra.NewRateLimiter(cfg.Source.RateLimitRPS, cfg.Source.RateBurst),
		Breaker:  infra.NewBreaker(infra.DefaultBreakerConfig("coincap")),
	}, closer
}

// NewRegistry registers every configured provider, reporting page requests
// to m.
func NewRegistry(cfg *config.Config, deps provider.FetcherDeps, m *metrics.Registry) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	err := providers.RegisterAllTo(reg, cfg.Source, providers.Deps{
		Fetcher:  deps,
		Observer: m.ObserveRequest,
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// NewEngine builds the filter engine from the filter and tier settings.
func NewEngine(cfg *config.Config, logger zerolog.Logger) (*screener.Engine, error) {
	minCap, minVol, err := cfg.Filter.Thresholds()
	if err != nil {
		return nil, err
	}
	tiers := screener.DefaultTierTable()
	if len(cfg.Tiers.Tier1) > 0 || len(cfg.Tiers.Tier2) > 0 {
		tier1, tier2 := cfg.Tiers.Tier1, cfg.Tiers.Tier2
		if len(tier1) == 0 {
			tier1 = screener.DefaultTier1
		}
		if len(tier2) == 0 {
			tier2 = screener.DefaultTier2
		}
		tiers = screener.NewTierTable(tier1, tier2)
	}
	return screener.NewEngine(
		screener.Criteria{MinMarketCap: minCap, MinVolume24h: minVol},
		screener.WithTierTable(tiers),
		screener.WithTopN(cfg.Filter.TopN),
		screener.WithLogger(logger),
	), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
