package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"market_gateway/internal/feature/marketdata/domain"
	"market_gateway/internal/feature/marketdata/domain/entity"
)

const (
	// DefaultProviderTimeout bounds a single upstream fetch.
	DefaultProviderTimeout = 10 * time.Second
	// bulkPriceWorkers caps concurrent price lookups in GetBulkPrices.
	bulkPriceWorkers = 8
)

// Service is the caching gateway. It is safe for concurrent use.
type Service struct {
	cache           CacheStore
	provider        MarketDataProvider
	codec           Codec
	providerTimeout time.Duration
	metrics         Metrics
	log             zerolog.Logger
	flights         singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "marketdata").Logger() }
}

// WithProviderTimeout overrides DefaultProviderTimeout.
func WithProviderTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.providerTimeout = d
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService builds the gateway over an explicit cache and provider.
func NewService(cache CacheStore, provider MarketDataProvider, codec Codec, opts ...Option) *Service {
	s := &Service{
		cache:           cache,
		provider:        provider,
		codec:           codec,
		providerTimeout: DefaultProviderTimeout,
		metrics:         noopMetrics{},
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateTickerExists checks the symbol's shape, then whether the upstream knows it.
// It returns nil, domain.ErrInvalidInput or domain.ErrNotFound. Provider failures
// count as "does not exist" and are cached as such for ValidationNegativeTTL.
func (s *Service) ValidateTickerExists(ctx context.Context, symbol string) error {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	key := validationKey(sym)

	if b, ok := s.lookup(ctx, OpValidate, key); ok {
		var exists bool
		if err := s.codec.Unmarshal(b, &exists); err == nil {
			s.metrics.CacheHit(OpValidate)
			return existence(sym, exists)
		}
		s.evict(ctx, OpValidate, key)
	}

	v, err := s.fetch(ctx, OpValidate, key, func(ctx context.Context) (any, error) {
		exists := false
		info, err := s.provider.FetchInfo(ctx, sym)
		if err != nil {
			s.metrics.UpstreamCall(OpValidate, "error")
			s.log.Warn().Err(err).Str("symbol", sym).Msg("ticker validation lookup failed")
		} else {
			s.metrics.UpstreamCall(OpValidate, "ok")
			exists = info.Has(entity.FieldRegularMarketPrice)
		}

		ttl := ValidationNegativeTTL
		if exists {
			ttl = ValidationTTL
		}
		s.store(ctx, OpValidate, key, exists, ttl)
		return exists, nil
	})
	if err != nil {
		return err
	}
	return existence(sym, v.(bool))
}

func existence(sym string, exists bool) error {
	if exists {
		return nil
	}
	return fmt.Errorf("%w: ticker %s", domain.ErrNotFound, sym)
}

// GetInfo returns the cleaned metadata of a ticker. Provider failures map to
// domain.ErrUpstreamUnavailable and are never cached.
func (s *Service) GetInfo(ctx context.Context, symbol string) (entity.TickerInfo, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	key := infoKey(sym)

	if b, ok := s.lookup(ctx, OpInfo, key); ok {
		var info entity.TickerInfo
		if err := s.codec.Unmarshal(b, &info); err == nil && len(info) > 0 {
			s.metrics.CacheHit(OpInfo)
			return info, nil
		}
		s.evict(ctx, OpInfo, key)
	}

	v, err := s.fetch(ctx, OpInfo, key, func(ctx context.Context) (any, error) {
		raw, err := s.provider.FetchInfo(ctx, sym)
		if err != nil {
			s.metrics.UpstreamCall(OpInfo, "error")
			s.log.Warn().Err(err).Str("symbol", sym).Msg("ticker info fetch failed")
			return nil, fmt.Errorf("%w: ticker info for %s", domain.ErrUpstreamUnavailable, sym)
		}
		if len(raw) == 0 {
			s.metrics.UpstreamCall(OpInfo, "empty")
			return nil, fmt.Errorf("%w: no info for ticker %s", domain.ErrNotFound, sym)
		}
		s.metrics.UpstreamCall(OpInfo, "ok")

		info := raw.Clean()
		s.store(ctx, OpInfo, key, info, InfoTTL)
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(entity.TickerInfo).Clone(), nil
}

// GetHistory returns the OHLC series of one ticker. An empty series with a nil
// error means no data is available; upstream failures fold into that outcome.
func (s *Service) GetHistory(ctx context.Context, symbol, period string, adjust bool) (entity.TimeSeries, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return entity.TimeSeries{}, err
	}
	if period == "" {
		period = DefaultPeriod
	}
	if err := domain.ValidatePeriod(period); err != nil {
		return entity.TimeSeries{}, err
	}
	out := entity.TimeSeries{Symbol: sym, Period: period, Adjusted: adjust}
	key := historyKey(sym, period, adjust)

	if b, ok := s.lookup(ctx, OpHistory, key); ok {
		if bytes.Equal(b, negativeMarker) {
			s.metrics.NegativeHit(OpHistory)
			return out, nil
		}
		var p entity.SeriesPayload
		if err := s.codec.Unmarshal(b, &p); err == nil {
			if rows, err := entity.DecodeSeries(p); err == nil {
				s.metrics.CacheHit(OpHistory)
				out.Rows = rows
				return out, nil
			}
		}
		s.evict(ctx, OpHistory, key)
	}

	v, err := s.fetch(ctx, OpHistory, key, func(ctx context.Context) (any, error) {
		rows, err := s.provider.FetchHistory(ctx, sym, period, adjust)
		if err != nil || len(rows) == 0 {
			s.upstreamEmpty(OpHistory, err, sym)
			s.storeRaw(ctx, OpHistory, key, negativeMarker, HistoryNegativeTTL)
			return []entity.OHLCRow(nil), nil
		}
		s.metrics.UpstreamCall(OpHistory, "ok")
		s.store(ctx, OpHistory, key, entity.EncodeSeries(rows), HistoryTTL)
		return rows, nil
	})
	if err != nil {
		return entity.TimeSeries{}, err
	}
	out.Rows = slices.Clone(v.([]entity.OHLCRow))
	return out, nil
}

// RefreshInfo drops the cached metadata of symbol and loads it again from the
// provider, so the entry lives a full InfoTTL from now.
func (s *Service) RefreshInfo(ctx context.Context, symbol string) (entity.TickerInfo, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	s.drop(ctx, infoKey(sym))
	return s.GetInfo(ctx, sym)
}

// RefreshHistory is the GetHistory counterpart of RefreshInfo.
func (s *Service) RefreshHistory(ctx context.Context, symbol, period string, adjust bool) (entity.TimeSeries, error) {
	sym, err := domain.NormalizeSymbol(symbol)
	if err != nil {
		return entity.TimeSeries{}, err
	}
	if period == "" {
		period = DefaultPeriod
	}
	if err := domain.ValidatePeriod(period); err != nil {
		return entity.TimeSeries{}, err
	}
	s.drop(ctx, historyKey(sym, period, adjust))
	return s.GetHistory(ctx, sym, period, adjust)
}

// GetBulkHistory returns one table for several tickers. The symbol order of the
// request does not matter. An empty table with a nil error means no data.
func (s *Service) GetBulkHistory(ctx context.Context, symbols []string, period string) (entity.BulkTimeSeries, error) {
	syms, err := domain.NormalizeSymbols(symbols)
	if err != nil {
		return entity.BulkTimeSeries{}, err
	}
	if period == "" {
		period = DefaultPeriod
	}
	if err := domain.ValidatePeriod(period); err != nil {
		return entity.BulkTimeSeries{}, err
	}
	key := bulkHistoryKey(syms, period)

	if b, ok := s.lookup(ctx, OpBulkHistory, key); ok {
		if bytes.Equal(b, negativeMarker) {
			s.metrics.NegativeHit(OpBulkHistory)
			return entity.BulkTimeSeries{Period: period}, nil
		}
		var p entity.BulkPayload
		if err := s.codec.Unmarshal(b, &p); err == nil {
			if bt, err := entity.DecodeBulk(period, p); err == nil {
				s.metrics.CacheHit(OpBulkHistory)
				return bt, nil
			}
		}
		s.evict(ctx, OpBulkHistory, key)
	}

	v, err := s.fetch(ctx, OpBulkHistory, key, func(ctx context.Context) (any, error) {
		data, err := s.provider.FetchBulkHistory(ctx, syms, period)
		bt := entity.NewBulkTimeSeries(period, data)
		if err != nil || bt.Empty() {
			s.upstreamEmpty(OpBulkHistory, err, strings.Join(syms, ","))
			s.storeRaw(ctx, OpBulkHistory, key, negativeMarker, HistoryNegativeTTL)
			return entity.BulkTimeSeries{Period: period}, nil
		}
		s.metrics.UpstreamCall(OpBulkHistory, "ok")
		s.store(ctx, OpBulkHistory, key, entity.EncodeBulk(bt), BulkHistoryTTL)
		return bt, nil
	})
	if err != nil {
		return entity.BulkTimeSeries{}, err
	}
	return v.(entity.BulkTimeSeries).Clone(), nil
}

// Search finds tickers matching a free-text query. The whole result set is
// cached once per query; limit only truncates what is returned.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]entity.SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}
	key := searchKey(q)

	if b, ok := s.lookup(ctx, OpSearch, key); ok {
		var results []entity.SearchResult
		if err := s.codec.Unmarshal(b, &results); err == nil {
			s.metrics.CacheHit(OpSearch)
			return truncate(results, limit), nil
		}
		s.evict(ctx, OpSearch, key)
	}

	v, err := s.fetch(ctx, OpSearch, key, func(ctx context.Context) (any, error) {
		found, err := s.provider.Search(ctx, q)
		if err != nil {
			s.metrics.UpstreamCall(OpSearch, "error")
			s.log.Warn().Err(err).Str("query", q).Msg("ticker search failed")
			return nil, fmt.Errorf("%w: ticker search", domain.ErrUpstreamUnavailable)
		}
		s.metrics.UpstreamCall(OpSearch, "ok")

		results := make([]entity.SearchResult, 0, len(found))
		for _, r := range found {
			if r.Symbol == "" {
				s.log.Debug().Str("query", q).Str("name", r.Name()).Msg("dropping search result without symbol")
				continue
			}
			results = append(results, r)
		}
		s.store(ctx, OpSearch, key, results, SearchTTL)
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return truncate(v.([]entity.SearchResult), limit), nil
}

func truncate(results []entity.SearchResult, limit int) []entity.SearchResult {
	return slices.Clone(results[:min(limit, len(results))])
}

// GetPrice returns the current price of a ticker. Lookups are best effort:
// any failure yields false.
func (s *Service) GetPrice(ctx context.Context, symbol string) (float64, bool) {
	info, err := s.GetInfo(ctx, symbol)
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("price unavailable")
		return 0, false
	}
	return info.CurrentPrice()
}

// GetBulkPrices looks up each symbol concurrently. Every input symbol gets an
// entry; nil marks a symbol whose price is unavailable.
func (s *Service) GetBulkPrices(ctx context.Context, symbols []string) map[string]*float64 {
	prices := make([]*float64, len(symbols))

	var g errgroup.Group
	g.SetLimit(bulkPriceWorkers)
	for i, sym := range symbols {
		g.Go(func() error {
			if p, ok := s.GetPrice(ctx, sym); ok {
				prices[i] = &p
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*float64, len(symbols))
	for i, sym := range symbols {
		out[sym] = prices[i]
	}
	return out
}

// fetch runs fn at most once per key at a time. The shared call is detached
// from the first caller's cancellation and bounded by the provider timeout;
// each caller stops waiting when its own context is done.
func (s *Service) fetch(ctx context.Context, op, key string, fn func(context.Context) (any, error)) (any, error) {
	s.metrics.CacheMiss(op)

	ch := s.flights.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.providerTimeout)
		defer cancel()
		return fn(fctx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.SharedFetch(op)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lookup reads key from the cache. Store failures are logged and reported as a miss.
func (s *Service) lookup(ctx context.Context, op, key string) ([]byte, bool) {
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.CacheError(op)
		s.log.Warn().Err(err).Str("op", op).Str("key", key).Msg("cache read failed, falling back to provider")
		return nil, false
	}
	return b, ok
}

func (s *Service) store(ctx context.Context, op, key string, v any, ttl time.Duration) {
	b, err := s.codec.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Str("key", key).Msg("encode cache entry")
		return
	}
	s.storeRaw(ctx, op, key, b, ttl)
}

// storeRaw writes even when the fetch context has expired; the store bounds the call itself.
func (s *Service) storeRaw(ctx context.Context, op, key string, b []byte, ttl time.Duration) {
	if err := s.cache.Set(context.WithoutCancel(ctx), key, b, ttl); err != nil {
		s.metrics.CacheError(op)
		s.log.Warn().Err(err).Str("op", op).Str("key", key).Msg("cache write failed")
	}
}

func (s *Service) evict(ctx context.Context, op, key string) {
	s.log.Warn().Str("op", op).Str("key", key).Msg("dropping undecodable cache entry")
	s.drop(ctx, key)
}

func (s *Service) drop(ctx context.Context, key string) {
	ev, ok := s.cache.(cacheEvicter)
	if !ok {
		return
	}
	if err := ev.Del(ctx, key); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("evict cache entry")
	}
}

func (s *Service) upstreamEmpty(op string, err error, subject string) {
	if err != nil {
		s.metrics.UpstreamCall(op, "error")
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.Warn().Str("op", op).Str("subject", subject).Msg("upstream timed out, caching as no data")
			return
		}
		s.log.Warn().Err(err).Str("op", op).Str("subject", subject).Msg("upstream failed, caching as no data")
		return
	}
	s.metrics.UpstreamCall(op, "empty")
}
