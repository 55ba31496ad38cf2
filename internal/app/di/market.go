// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"market_gateway/internal/feature/marketdata/usecase"
	"market_gateway/internal/platform/cache"
	"market_gateway/internal/platform/config"
	"market_gateway/internal/platform/externalapi/yahoo"
	infrahttp "market_gateway/internal/platform/http"
	"market_gateway/internal/platform/metrics"
	infraredis "market_gateway/internal/platform/redis"
)

var (
	_ usecase.Metrics            = (*metrics.Recorder)(nil)
	_ usecase.CacheStore         = (*cache.RedisStore)(nil)
	_ usecase.MarketDataProvider = (*yahoo.Client)(nil)
)

// NewProvider creates the Yahoo Finance client. Its rate limit comes from YAHOO_RATE_LIMIT.
func NewProvider(cfg *config.Config, log zerolog.Logger) *yahoo.Client {
	yc := yahoo.Config{
		BaseURL:   cfg.Yahoo.BaseURL,
		CookieURL: cfg.Yahoo.CookieURL,
		Timeout:   cfg.Yahoo.GetTimeout(),
		RateLimit: cfg.Yahoo.RateLimit,
	}
	return yahoo.NewClient(yc, infrahttp.NewHTTPClient(yc.Timeout), yahoo.WithLogger(log))
}

// NewCacheStore creates the Redis-backed store. An empty REDIS_HOST yields a
// store that always misses.
func NewCacheStore(cfg *config.Config, log zerolog.Logger) *cache.RedisStore {
	return cache.NewRedisStore(infraredis.NewRedisClient(cfg.Redis),
		cache.WithTimeout(cfg.Cache.GetTimeout()),
		cache.WithLogger(log),
	)
}

// NewService wires the caching gateway.
func NewService(cfg *config.Config, store usecase.CacheStore, provider usecase.MarketDataProvider, rec usecase.Metrics, log zerolog.Logger) (*usecase.Service, error) {
	codec, err := cache.CodecByName(cfg.Cache.Codec)
	if err != nil {
		return nil, fmt.Errorf("cache codec: %w", err)
	}
	return usecase.NewService(store, provider, codec,
		usecase.WithLogger(log),
		usecase.WithProviderTimeout(cfg.Yahoo.GetTimeout()),
		usecase.WithMetrics(rec),
	), nil
}
