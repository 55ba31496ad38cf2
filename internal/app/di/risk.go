package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"market_gateway/internal/feature/marketdata/usecase"
	riskusecase "market_gateway/internal/feature/riskmetrics/usecase"
	"market_gateway/internal/platform/cache"
	"market_gateway/internal/platform/config"
)

var (
	_ riskusecase.MarketReader = (*usecase.Service)(nil)
	_ riskusecase.CacheStore   = (*cache.RedisStore)(nil)
)

// NewRiskUsecase wires risk metrics over the caching gateway. Analyses share
// the cache and codec of the gateway.
func NewRiskUsecase(cfg *config.Config, svc *usecase.Service, store *cache.RedisStore, log zerolog.Logger) (*riskusecase.RiskUsecase, error) {
	codec, err := cache.CodecByName(cfg.Cache.Codec)
	if err != nil {
		return nil, fmt.Errorf("cache codec: %w", err)
	}
	return riskusecase.NewRiskUsecase(svc, store, codec, log), nil
}
