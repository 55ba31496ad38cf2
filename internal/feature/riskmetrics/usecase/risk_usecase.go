package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	mddomain "market_gateway/internal/feature/marketdata/domain"
	mdentity "market_gateway/internal/feature/marketdata/domain/entity"
	"market_gateway/internal/feature/riskmetrics/domain"
	"market_gateway/internal/feature/riskmetrics/domain/entity"
)

const (
	// AnalysisPeriod is the history range every ticker metric is computed over.
	AnalysisPeriod = "6mo"

	// TickerDataTTL is how long a finished analysis is served from the cache.
	TickerDataTTL = 600 * time.Second
)

func tickerDataKey(symbol string) string { return "ticker_data:" + symbol }

// RiskUsecase computes risk metrics from raw prices or from the split and
// dividend adjusted closes of a ticker.
type RiskUsecase struct {
	market MarketReader
	cache  CacheStore
	codec  Codec
	log    zerolog.Logger
}

// NewRiskUsecase creates a RiskUsecase.
func NewRiskUsecase(market MarketReader, cache CacheStore, codec Codec, log zerolog.Logger) *RiskUsecase {
	return &RiskUsecase{
		market: market,
		cache:  cache,
		codec:  codec,
		log:    log.With().Str("component", "riskmetrics").Logger(),
	}
}

// FromPrices summarizes a caller supplied price series.
func (u *RiskUsecase) FromPrices(prices []float64) (entity.RiskSummary, error) {
	return domain.Summarize(prices)
}

// FromTicker summarizes the adjusted closes of ticker over AnalysisPeriod.
// A ticker without history yields mddomain.ErrNotFound.
func (u *RiskUsecase) FromTicker(ctx context.Context, ticker string) (entity.TickerRisk, error) {
	ts, err := u.market.GetHistory(ctx, strings.TrimSpace(ticker), AnalysisPeriod, true)
	if err != nil {
		return entity.TickerRisk{}, err
	}
	if ts.Empty() {
		return entity.TickerRisk{}, fmt.Errorf("%w: no data found for %s", mddomain.ErrNotFound, ts.Symbol)
	}

	_, closes := closeSeries(ts.Rows)
	summary, err := domain.Summarize(closes)
	if err != nil {
		return entity.TickerRisk{}, fmt.Errorf("%s: %w", ts.Symbol, err)
	}
	return entity.TickerRisk{Ticker: ts.Symbol, Summary: summary}, nil
}

// TickerMetrics returns the trend and return analysis of symbol. Unknown
// symbols and provider failures produce a result with ErrorMsg set instead
// of an error; only the unknown-symbol result is cached. With refresh the
// cached analysis and the market data under it are reloaded.
func (u *RiskUsecase) TickerMetrics(ctx context.Context, symbol string, refresh bool) (entity.TickerMetrics, error) {
	sym, err := mddomain.NormalizeSymbol(strings.TrimSpace(symbol))
	if err != nil {
		return entity.TickerMetrics{}, err
	}
	key := tickerDataKey(sym)

	if refresh {
		if err := u.cache.Del(ctx, key); err != nil {
			u.log.Warn().Err(err).Str("key", key).Msg("drop cached analysis")
		}
	} else if m, ok := u.lookup(ctx, key); ok {
		return m, nil
	}

	ts, err := u.history(ctx, sym, refresh)
	if err != nil {
		return entity.TickerMetrics{}, err
	}
	if ts.Empty() {
		m := failed(sym, fmt.Sprintf("Symbol '%s' does not exist", sym))
		u.store(ctx, key, m)
		return m, nil
	}

	info, err := u.info(ctx, sym, refresh)
	switch {
	case errors.Is(err, mddomain.ErrNotFound):
		info = nil
	case err != nil:
		u.log.Error().Err(err).Str("symbol", sym).Msg("ticker info unavailable")
		return failed(sym, "Unable to retrieve ticker data for ticker: "+sym), nil
	}

	m, err := domain.Analyze(closeSeries(ts.Rows))
	if err != nil {
		u.log.Warn().Err(err).Str("symbol", sym).Msg("cannot analyze price history")
		m = failed(sym, "Not enough price data for ticker: "+sym)
		u.store(ctx, key, m)
		return m, nil
	}
	m.Ticker = sym
	m.Info = info
	u.store(ctx, key, m)
	return m, nil
}

func (u *RiskUsecase) history(ctx context.Context, sym string, refresh bool) (mdentity.TimeSeries, error) {
	if refresh {
		return u.market.RefreshHistory(ctx, sym, AnalysisPeriod, true)
	}
	return u.market.GetHistory(ctx, sym, AnalysisPeriod, true)
}

func (u *RiskUsecase) info(ctx context.Context, sym string, refresh bool) (mdentity.TickerInfo, error) {
	if refresh {
		return u.market.RefreshInfo(ctx, sym)
	}
	return u.market.GetInfo(ctx, sym)
}

// lookup treats store failures and undecodable entries as a miss.
func (u *RiskUsecase) lookup(ctx context.Context, key string) (entity.TickerMetrics, bool) {
	b, ok, err := u.cache.Get(ctx, key)
	if err != nil {
		u.log.Warn().Err(err).Str("key", key).Msg("cache read failed, recomputing")
		return entity.TickerMetrics{}, false
	}
	if !ok {
		return entity.TickerMetrics{}, false
	}
	var m entity.TickerMetrics
	if err := u.codec.Unmarshal(b, &m); err != nil || m.Ticker == "" {
		u.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		if err := u.cache.Del(ctx, key); err != nil {
			u.log.Debug().Err(err).Str("key", key).Msg("evict cache entry")
		}
		return entity.TickerMetrics{}, false
	}
	return m, true
}

func (u *RiskUsecase) store(ctx context.Context, key string, m entity.TickerMetrics) {
	b, err := u.codec.Marshal(m)
	if err != nil {
		u.log.Error().Err(err).Str("key", key).Msg("encode cache entry")
		return
	}
	if err := u.cache.Set(context.WithoutCancel(ctx), key, b, TickerDataTTL); err != nil {
		u.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func failed(sym, msg string) entity.TickerMetrics {
	return entity.TickerMetrics{Ticker: sym, ErrorMsg: msg}
}

// closeSeries drops sessions without a close.
func closeSeries(rows []mdentity.OHLCRow) ([]time.Time, []float64) {
	dates := make([]time.Time, 0, len(rows))
	closes := make([]float64, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.Close) {
			continue
		}
		dates = append(dates, r.Time)
		closes = append(closes, r.Close)
	}
	return dates, closes
}
