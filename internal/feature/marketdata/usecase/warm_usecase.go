package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"market_gateway/internal/feature/marketdata/domain"
	"market_gateway/internal/feature/marketdata/domain/entity"
	"market_gateway/internal/shared/ratelimiter"
)

// SymbolSource lists the tracked symbols to keep warm.
type SymbolSource interface {
	ActiveCodes(ctx context.Context) ([]string, error)
}

// cacheRefresher is the subset of Service the warmer drives. Refreshing rather
// than reading means a run restarts every TTL instead of hitting entries that
// are about to lapse.
type cacheRefresher interface {
	RefreshInfo(ctx context.Context, symbol string) (entity.TickerInfo, error)
	RefreshHistory(ctx context.Context, symbol, period string, adjust bool) (entity.TimeSeries, error)
}

// WarmReport summarises one warm run.
type WarmReport struct {
	Symbols int
	Failed  int
}

// WarmUsecase reloads info and history of tracked symbols so that client
// requests between runs are served from Redis. Runs must be scheduled more
// often than InfoTTL for that to hold.
type WarmUsecase struct {
	svc     cacheRefresher
	source  SymbolSource
	extra   []string
	period  string
	limiter ratelimiter.RateLimiterInterface
	log     zerolog.Logger
}

// NewWarmUsecase creates a WarmUsecase. source may be nil, in which case only
// extra symbols are warmed.
func NewWarmUsecase(svc cacheRefresher, source SymbolSource, extra []string, period string, limiter ratelimiter.RateLimiterInterface, log zerolog.Logger) *WarmUsecase {
	if period == "" {
		period = DefaultPeriod
	}
	if limiter == nil {
		limiter = ratelimiter.NewRateLimiter(0, 0)
	}
	return &WarmUsecase{
		svc:     svc,
		source:  source,
		extra:   extra,
		period:  period,
		limiter: limiter,
		log:     log.With().Str("component", "warmer").Logger(),
	}
}

// WarmAll warms every symbol once. Per-symbol failures are logged and counted;
// only a cancelled context stops the run early.
func (w *WarmUsecase) WarmAll(ctx context.Context) (WarmReport, error) {
	symbols := w.symbols(ctx)
	report := WarmReport{Symbols: len(symbols)}

	for _, sym := range symbols {
		if err := w.limiter.Wait(ctx); err != nil {
			return report, err
		}
		if err := w.warmOne(ctx, sym); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			w.log.Error().Err(err).Str("symbol", sym).Msg("failed to warm symbol")
		}
	}

	w.log.Info().Int("symbols", report.Symbols).Int("failed", report.Failed).Msg("warm run finished")
	return report, nil
}

func (w *WarmUsecase) warmOne(ctx context.Context, sym string) error {
	_, infoErr := w.svc.RefreshInfo(ctx, sym)
	ts, histErr := w.svc.RefreshHistory(ctx, sym, w.period, false)
	if histErr == nil && ts.Empty() {
		histErr = errors.New("no history available")
	}
	return errors.Join(infoErr, histErr)
}

// symbols merges tracked and extra symbols, keeping first-seen order. A
// registry failure is logged and the extra symbols are still warmed.
func (w *WarmUsecase) symbols(ctx context.Context) []string {
	var raw []string
	if w.source != nil {
		codes, err := w.source.ActiveCodes(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("failed to load tracked symbols")
		}
		raw = append(raw, codes...)
	}
	raw = append(raw, w.extra...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		up, err := domain.NormalizeSymbol(s)
		if err != nil {
			w.log.Warn().Str("symbol", s).Msg("skipping invalid symbol")
			continue
		}
		if _, dup := seen[up]; dup {
			continue
		}
		seen[up] = struct{}{}
		out = append(out, up)
	}
	return out
}
