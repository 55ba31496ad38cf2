// Package usecase serves risk and trend metrics over cached market data.
package usecase

import (
	"context"
	"time"

	mdentity "market_gateway/internal/feature/marketdata/domain/entity"
)

// MarketReader is the cached market data gateway. Refresh variants drop the
// cached entry before loading it again.
type MarketReader interface {
	GetInfo(ctx context.Context, symbol string) (mdentity.TickerInfo, error)
	GetHistory(ctx context.Context, symbol, period string, adjust bool) (mdentity.TimeSeries, error)
	RefreshInfo(ctx context.Context, symbol string) (mdentity.TickerInfo, error)
	RefreshHistory(ctx context.Context, symbol, period string, adjust bool) (mdentity.TimeSeries, error)
}

// CacheStore keeps finished analyses. Get returns (nil, false, nil) for a
// missing key; any error is treated as a miss.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Codec serializes cached analyses.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
