// Package usecase implements the caching gateway in front of the market data provider.
package usecase

import (
	"context"
	"time"

	"market_gateway/internal/feature/marketdata/domain/entity"
)

// CacheStore is the external key-value cache.
// Interfaces are defined by the consumer (usecase), not the provider (platform).
type CacheStore interface {
	// Get returns (nil, false, nil) for a missing key. Any error means the store
	// is unavailable and the caller falls through to the provider.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// cacheEvicter is implemented by stores that can drop an undecodable entry.
type cacheEvicter interface {
	Del(ctx context.Context, keys ...string) error
}

// MarketDataProvider is the upstream market data source. Every call may fail or
// return an empty result; the adapter performs no retries.
type MarketDataProvider interface {
	FetchInfo(ctx context.Context, symbol string) (entity.TickerInfo, error)
	FetchHistory(ctx context.Context, symbol, period string, adjust bool) ([]entity.OHLCRow, error)
	FetchBulkHistory(ctx context.Context, symbols []string, period string) (map[string][]entity.OHLCRow, error)
	Search(ctx context.Context, query string) ([]entity.SearchResult, error)
}

// Codec serializes values stored in the cache.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Metrics records cache and upstream outcomes per operation.
type Metrics interface {
	CacheHit(op string)
	CacheMiss(op string)
	CacheError(op string)
	NegativeHit(op string)
	UpstreamCall(op, outcome string)
	SharedFetch(op string)
}

type noopMetrics struct{}

func (noopMetrics) CacheHit(string)             {}
func (noopMetrics) CacheMiss(string)            {}
func (noopMetrics) CacheError(string)           {}
func (noopMetrics) NegativeHit(string)          {}
func (noopMetrics) UpstreamCall(string, string) {}
func (noopMetrics) SharedFetch(string)          {}
