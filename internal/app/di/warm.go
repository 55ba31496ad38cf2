package di

import (
	"time"

	"github.com/rs/zerolog"

	"market_gateway/internal/feature/marketdata/usecase"
	"market_gateway/internal/platform/config"
	"market_gateway/internal/shared/ratelimiter"
)

// warmRequestsPerMinute paces warm runs; each symbol costs two upstream calls.
const warmRequestsPerMinute = 30

// NewWarmUsecase wires the cache warmer. source may be nil.
func NewWarmUsecase(cfg *config.Config, svc *usecase.Service, source usecase.SymbolSource, log zerolog.Logger) *usecase.WarmUsecase {
	return usecase.NewWarmUsecase(svc, source, cfg.Warm.Symbols, cfg.Warm.Period,
		ratelimiter.NewRateLimiter(warmRequestsPerMinute, time.Minute), log)
}
