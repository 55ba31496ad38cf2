package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_gateway/internal/feature/marketdata/domain"
	"market_gateway/internal/feature/marketdata/domain/entity"
	"market_gateway/internal/feature/marketdata/usecase"
	"market_gateway/internal/platform/cache"
)

// fakeProvider is a MarketDataProvider whose behaviour is set per test.
type fakeProvider struct {
	infoFn    func(ctx context.Context, symbol string) (entity.TickerInfo, error)
	historyFn func(ctx context.Context, symbol, period string, adjust bool) ([]entity.OHLCRow, error)
	bulkFn    func(ctx context.Context, symbols []string, period string) (map[string][]entity.OHLCRow, error)
	searchFn  func(ctx context.Context, query string) ([]entity.SearchResult, error)

	infoCalls    atomic.Int32
	historyCalls atomic.Int32
	bulkCalls    atomic.Int32
	searchCalls  atomic.Int32
}

func (f *fakeProvider) FetchInfo(ctx context.Context, symbol string) (entity.TickerInfo, error) {
	f.infoCalls.Add(1)
	if f.infoFn == nil {
		return nil, nil
	}
	return f.infoFn(ctx, symbol)
}

func (f *fakeProvider) FetchHistory(ctx context.Context, symbol, period string, adjust bool) ([]entity.OHLCRow, error) {
	f.historyCalls.Add(1)
	if f.historyFn == nil {
		return nil, nil
	}
	return f.historyFn(ctx, symbol, period, adjust)
}

func (f *fakeProvider) FetchBulkHistory(ctx context.Context, symbols []string, period string) (map[string][]entity.OHLCRow, error) {
	f.bulkCalls.Add(1)
	if f.bulkFn == nil {
		return nil, nil
	}
	return f.bulkFn(ctx, symbols, period)
}

func (f *fakeProvider) Search(ctx context.Context, query string) ([]entity.SearchResult, error) {
	f.searchCalls.Add(1)
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(ctx, query)
}

func (f *fakeProvider) total() int32 {
	return f.infoCalls.Load() + f.historyCalls.Load() + f.bulkCalls.Load() + f.searchCalls.Load()
}

// countingCache records every access and fails the test if used.
type countingCache struct{ calls atomic.Int32 }

func (c *countingCache) Get(context.Context, string) ([]byte, bool, error) {
	c.calls.Add(1)
	return nil, false, nil
}

func (c *countingCache) Set(context.Context, string, []byte, time.Duration) error {
	c.calls.Add(1)
	return nil
}

func newMiniredisStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewRedisStore(rdb), mr
}

func livePrice(price float64) func(context.Context, string) (entity.TickerInfo, error) {
	return func(_ context.Context, symbol string) (entity.TickerInfo, error) {
		return entity.TickerInfo{"symbol": symbol, "regularMarketPrice": price}, nil
	}
}

func rows(n int) []entity.OHLCRow {
	out := make([]entity.OHLCRow, n)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range out {
		p := 100 + float64(i)
		out[i] = entity.OHLCRow{Time: start.AddDate(0, 0, i), Open: p, High: p + 2, Low: p - 1, Close: p + 1, Volume: int64(1000 + i)}
	}
	return out
}

func TestService_InvalidSymbolNeverTouchesDependencies(t *testing.T) {
	t.Parallel()

	store := &countingCache{}
	provider := &fakeProvider{}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})
	ctx := context.Background()

	for _, sym := range []string{"", "TOOLONGSYMBOL", "AA PL", "BRK-B", "A:B"} {
		assert.ErrorIs(t, svc.ValidateTickerExists(ctx, sym), domain.ErrInvalidInput, sym)

		_, err := svc.GetInfo(ctx, sym)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, sym)

		_, err = svc.GetHistory(ctx, sym, "1y", false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, sym)

		_, err = svc.GetBulkHistory(ctx, []string{"AAPL", sym}, "1y")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, sym)

		_, ok := svc.GetPrice(ctx, sym)
		assert.False(t, ok, sym)
	}
	_, err := svc.GetHistory(ctx, "AAPL", "2w", false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Search(ctx, "   ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Zero(t, store.calls.Load())
	assert.Zero(t, provider.total())
}

func TestService_ValidateTickerExists_WritesPositiveEntry(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("ticker_validation:AAPL").RedisNil()
	mock.ExpectSet("ticker_validation:AAPL", []byte("true"), 3600*time.Second).SetVal("OK")

	provider := &fakeProvider{infoFn: livePrice(189.5)}
	svc := usecase.NewService(cache.NewRedisStore(rdb), provider, cache.JSONCodec{})

	require.NoError(t, svc.ValidateTickerExists(context.Background(), "aapl"))
	assert.Equal(t, int32(1), provider.infoCalls.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ValidateTickerExists_PositiveCachedForAnHour(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	provider := &fakeProvider{infoFn: livePrice(10)}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})
	ctx := context.Background()

	require.NoError(t, svc.ValidateTickerExists(ctx, "MSFT"))
	mr.FastForward(3599 * time.Second)
	require.NoError(t, svc.ValidateTickerExists(ctx, "msft"))
	assert.Equal(t, int32(1), provider.infoCalls.Load())

	mr.FastForward(2 * time.Second)
	require.NoError(t, svc.ValidateTickerExists(ctx, "MSFT"))
	assert.Equal(t, int32(2), provider.infoCalls.Load())
}

func TestService_ValidateTickerExists_NegativeExpiresAfterAMinute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		infoFn func(context.Context, string) (entity.TickerInfo, error)
	}{
		{
			name: "no live price",
			infoFn: func(context.Context, string) (entity.TickerInfo, error) {
				return entity.TickerInfo{"symbol": "ZZZZ", "quoteType": "NONE"}, nil
			},
		},
		{
			name: "provider error",
			infoFn: func(context.Context, string) (entity.TickerInfo, error) {
				return nil, errors.New("429 too many requests")
			},
		},
		{
			name: "provider timeout",
			infoFn: func(ctx context.Context, _ string) (entity.TickerInfo, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, mr := newMiniredisStore(t)
			provider := &fakeProvider{infoFn: tt.infoFn}
			svc := usecase.NewService(store, provider, cache.JSONCodec{}, usecase.WithProviderTimeout(50*time.Millisecond))
			ctx := context.Background()

			assert.ErrorIs(t, svc.ValidateTickerExists(ctx, "ZZZZ"), domain.ErrNotFound)
			assert.Equal(t, 60*time.Second, mr.TTL("ticker_validation:ZZZZ"))

			mr.FastForward(59 * time.Second)
			assert.ErrorIs(t, svc.ValidateTickerExists(ctx, "ZZZZ"), domain.ErrNotFound)
			assert.Equal(t, int32(1), provider.infoCalls.Load())

			mr.FastForward(2 * time.Second)
			assert.ErrorIs(t, svc.ValidateTickerExists(ctx, "ZZZZ"), domain.ErrNotFound)
			assert.Equal(t, int32(2), provider.infoCalls.Load())
		})
	}
}

func TestService_GetInfo(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	provider := &fakeProvider{infoFn: func(context.Context, string) (entity.TickerInfo, error) {
		return entity.TickerInfo{
			"symbol":              "AAPL",
			"regularMarketPrice":  189.5,
			"companyOfficers":     []any{map[string]any{"name": "Tim"}},
			"fullTimeEmployees":   161000,
			"longBusinessSummary": "Apple designs...",
			"sector":              "Technology",
		}, nil
	}}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})
	ctx := context.Background()

	for range 2 {
		info, err := svc.GetInfo(ctx, "aapl")
		require.NoError(t, err)
		assert.NotContains(t, info, "companyOfficers")
		assert.NotContains(t, info, "fullTimeEmployees")
		assert.NotContains(t, info, "longBusinessSummary")
		assert.Equal(t, "Technology", info["sector"])
		price, ok := info.CurrentPrice()
		assert.True(t, ok)
		assert.Equal(t, 189.5, price)
	}
	assert.Equal(t, int32(1), provider.infoCalls.Load())
	assert.Equal(t, 300*time.Second, mr.TTL("ticker_info:AAPL"))

	cached, err := mr.Get("ticker_info:AAPL")
	require.NoError(t, err)
	assert.NotContains(t, cached, "companyOfficers")
}

func TestService_GetInfo_FailuresAreNotCached(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		infoFn  func(context.Context, string) (entity.TickerInfo, error)
		wantErr error
	}{
		{
			name:    "upstream error",
			infoFn:  func(context.Context, string) (entity.TickerInfo, error) { return nil, errors.New("connection refused") },
			wantErr: domain.ErrUpstreamUnavailable,
		},
		{
			name:    "empty payload",
			infoFn:  func(context.Context, string) (entity.TickerInfo, error) { return entity.TickerInfo{}, nil },
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, mr := newMiniredisStore(t)
			provider := &fakeProvider{infoFn: tt.infoFn}
			svc := usecase.NewService(store, provider, cache.JSONCodec{})

			_, err := svc.GetInfo(context.Background(), "AAPL")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotContains(t, err.Error(), "connection refused")
			assert.False(t, mr.Exists("ticker_info:AAPL"))

			_, err = svc.GetInfo(context.Background(), "AAPL")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(2), provider.infoCalls.Load())
		})
	}
}

func TestService_GetHistory_EmptyWritesNegativeMarker(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("historical:MSFT:1y:False").RedisNil()
	mock.ExpectSet("historical:MSFT:1y:False", []byte("!negative"), 300*time.Second).SetVal("OK")

	provider := &fakeProvider{}
	svc := usecase.NewService(cache.NewRedisStore(rdb), provider, cache.JSONCodec{})

	ts, err := svc.GetHistory(context.Background(), "MSFT", "1y", false)
	require.NoError(t, err)
	assert.True(t, ts.Empty())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_GetHistory_NegativeServedFromCache(t *testing.T) {
	t.Parallel()

	for _, failing := range []bool{false, true} {
		store, mr := newMiniredisStore(t)
		provider := &fakeProvider{historyFn: func(context.Context, string, string, bool) ([]entity.OHLCRow, error) {
			if failing {
				return nil, errors.New("upstream 500")
			}
			return []entity.OHLCRow{}, nil
		}}
		svc := usecase.NewService(store, provider, cache.JSONCodec{})
		ctx := context.Background()

		ts, err := svc.GetHistory(ctx, "msft", "1y", false)
		require.NoError(t, err)
		assert.True(t, ts.Empty())
		assert.Equal(t, 300*time.Second, mr.TTL("historical:MSFT:1y:False"))

		mr.FastForward(299 * time.Second)
		ts, err = svc.GetHistory(ctx, "MSFT", "1y", false)
		require.NoError(t, err)
		assert.True(t, ts.Empty())
		assert.Equal(t, int32(1), provider.historyCalls.Load())
	}
}

func TestService_GetHistory_RoundTripThroughCache(t *testing.T) {
	t.Parallel()

	for _, codec := range []cache.Codec{cache.JSONCodec{}, cache.MsgpackCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()

			store, mr := newMiniredisStore(t)
			want := rows(5)
			provider := &fakeProvider{historyFn: func(_ context.Context, symbol, period string, adjust bool) ([]entity.OHLCRow, error) {
				assert.Equal(t, "AAPL", symbol)
				assert.Equal(t, "6mo", period)
				assert.True(t, adjust)
				return want, nil
			}}
			svc := usecase.NewService(store, provider, codec)
			ctx := context.Background()

			first, err := svc.GetHistory(ctx, "AAPL", "6mo", true)
			require.NoError(t, err)
			second, err := svc.GetHistory(ctx, "AAPL", "6mo", true)
			require.NoError(t, err)

			assert.Equal(t, int32(1), provider.historyCalls.Load())
			assert.Equal(t, 600*time.Second, mr.TTL("historical:AAPL:6mo:True"))
			assert.Equal(t, "AAPL", second.Symbol)
			assert.True(t, second.Adjusted)
			require.Len(t, second.Rows, len(first.Rows))
			for i := range first.Rows {
				assert.True(t, first.Rows[i].Time.Equal(second.Rows[i].Time))
				assert.Equal(t, first.Rows[i].Close, second.Rows[i].Close)
				assert.Equal(t, first.Rows[i].Volume, second.Rows[i].Volume)
			}
		})
	}
}

func TestService_GetHistory_MalformedEntryIsAMiss(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	require.NoError(t, mr.Set("historical:AAPL:1y:False", `{"index":["not a date"],"data":{}}`))

	provider := &fakeProvider{historyFn: func(context.Context, string, string, bool) ([]entity.OHLCRow, error) {
		return rows(3), nil
	}}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})

	ts, err := svc.GetHistory(context.Background(), "AAPL", "1y", false)
	require.NoError(t, err)
	assert.Len(t, ts.Rows, 3)
	assert.Equal(t, int32(1), provider.historyCalls.Load())
	assert.Equal(t, 600*time.Second, mr.TTL("historical:AAPL:1y:False"))
}

func bulkFn(calls *[]string, mu *sync.Mutex) func(context.Context, []string, string) (map[string][]entity.OHLCRow, error) {
	return func(_ context.Context, symbols []string, period string) (map[string][]entity.OHLCRow, error) {
		mu.Lock()
		*calls = append(*calls, strings.Join(symbols, ",")+"@"+period)
		mu.Unlock()
		out := make(map[string][]entity.OHLCRow, len(symbols))
		for i, s := range symbols {
			out[s] = rows(3 + i)
		}
		return out, nil
	}
}

func TestService_GetBulkHistory_KeyIgnoresRequestOrder(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	var (
		calls []string
		mu    sync.Mutex
	)
	provider := &fakeProvider{bulkFn: bulkFn(&calls, &mu)}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})
	ctx := context.Background()

	a, err := svc.GetBulkHistory(ctx, []string{"AAPL", "MSFT"}, "6mo")
	require.NoError(t, err)
	b, err := svc.GetBulkHistory(ctx, []string{"MSFT", "aapl", "MSFT"}, "6mo")
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL,MSFT@6mo"}, calls)
	assert.True(t, mr.Exists("bulk_historical:AAPL:MSFT:6mo"))
	assert.Equal(t, 600*time.Second, mr.TTL("bulk_historical:AAPL:MSFT:6mo"))

	// served from cache: same tickers, fields, rows and order
	assert.Equal(t, a.Tickers(), b.Tickers())
	assert.Equal(t, a.Columns, b.Columns)
	require.Len(t, b.Index, len(a.Index))
	for i := range a.Index {
		assert.True(t, a.Index[i].Equal(b.Index[i]))
	}
	for _, tk := range a.Tickers() {
		assert.Equal(t, a.Fields(tk), b.Fields(tk))
	}
}

func TestService_GetBulkHistory_Negative(t *testing.T) {
	t.Parallel()

	for _, failing := range []bool{false, true} {
		store, mr := newMiniredisStore(t)
		provider := &fakeProvider{bulkFn: func(context.Context, []string, string) (map[string][]entity.OHLCRow, error) {
			if failing {
				return nil, errors.New("all symbols failed")
			}
			return map[string][]entity.OHLCRow{"AAPL": nil}, nil
		}}
		svc := usecase.NewService(store, provider, cache.JSONCodec{})
		ctx := context.Background()

		for range 2 {
			bt, err := svc.GetBulkHistory(ctx, []string{"AAPL", "MSFT"}, "1y")
			require.NoError(t, err)
			assert.True(t, bt.Empty())
		}
		assert.Equal(t, int32(1), provider.bulkCalls.Load())
		assert.Equal(t, 300*time.Second, mr.TTL("bulk_historical:AAPL:MSFT:1y"))
	}
}

func TestService_GetBulkHistory_MalformedEntryIsAMiss(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	require.NoError(t, mr.Set("bulk_historical:AAPL:MSFT:6mo", `{"index":["2024-01-02T00:00:00Z"],"columns":[["AAPL","Open"]],"data":[[1,2,3]]}`))

	var (
		calls []string
		mu    sync.Mutex
	)
	provider := &fakeProvider{bulkFn: bulkFn(&calls, &mu)}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})

	bt, err := svc.GetBulkHistory(context.Background(), []string{"MSFT", "AAPL"}, "6mo")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, bt.Tickers())
	assert.Len(t, calls, 1)
}

func TestService_Search(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	matches := []entity.SearchResult{
		{Symbol: "AAPL", ShortName: "Apple Inc.", Exchange: "NMS", QuoteType: "EQUITY"},
		{Symbol: "APLE", ShortName: "Apple Hospitality REIT", Exchange: "NYQ", QuoteType: "EQUITY"},
		{ShortName: "Applied news item"},
		{Symbol: "AAPL.MX", ShortName: "Apple Inc.", Exchange: "MEX", QuoteType: "EQUITY"},
		{Symbol: "APC.F", ShortName: "Apple Inc.", Exchange: "FRA", QuoteType: "EQUITY"},
	}
	valid := []entity.SearchResult{matches[0], matches[1], matches[3], matches[4]}
	payload, err := cache.JSONCodec{}.Marshal(valid)
	require.NoError(t, err)

	mock.ExpectGet("ticker_search:appl").RedisNil()
	mock.ExpectSet("ticker_search:appl", payload, 1800*time.Second).SetVal("OK")

	provider := &fakeProvider{searchFn: func(_ context.Context, q string) ([]entity.SearchResult, error) {
		assert.Equal(t, "appl", q)
		return matches, nil
	}}
	svc := usecase.NewService(cache.NewRedisStore(rdb), provider, cache.JSONCodec{})

	got, err := svc.Search(context.Background(), " APPL ", 3)
	require.NoError(t, err)
	assert.Equal(t, valid[:3], got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Search_LimitDoesNotChangeKey(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	provider := &fakeProvider{searchFn: func(context.Context, string) ([]entity.SearchResult, error) {
		return []entity.SearchResult{{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"}}, nil
	}}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})
	ctx := context.Background()

	got, err := svc.Search(ctx, "a", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.Search(ctx, "A", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, int32(1), provider.searchCalls.Load())
	assert.Equal(t, 1800*time.Second, mr.TTL("ticker_search:a"))
}

func TestService_Search_UpstreamFailureNotCached(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	provider := &fakeProvider{searchFn: func(context.Context, string) ([]entity.SearchResult, error) {
		return nil, errors.New("upstream 503")
	}}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})

	_, err := svc.Search(context.Background(), "appl", 5)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.False(t, mr.Exists("ticker_search:appl"))
}

func TestService_GetPrice(t *testing.T) {
	t.Parallel()

	store, _ := newMiniredisStore(t)
	provider := &fakeProvider{infoFn: func(_ context.Context, symbol string) (entity.TickerInfo, error) {
		switch symbol {
		case "AAPL":
			return entity.TickerInfo{"regularMarketPrice": 189.5}, nil
		case "VFIAX":
			return entity.TickerInfo{"currentPrice": 512.25}, nil
		case "DOWN":
			return nil, errors.New("boom")
		default:
			return entity.TickerInfo{"symbol": symbol}, nil
		}
	}}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})
	ctx := context.Background()

	p, ok := svc.GetPrice(ctx, "AAPL")
	assert.True(t, ok)
	assert.Equal(t, 189.5, p)

	p, ok = svc.GetPrice(ctx, "VFIAX")
	assert.True(t, ok)
	assert.Equal(t, 512.25, p)

	_, ok = svc.GetPrice(ctx, "DOWN")
	assert.False(t, ok)

	prices := svc.GetBulkPrices(ctx, []string{"AAPL", "DOWN", "NOPRICE", "bad symbol", "VFIAX"})
	require.Len(t, prices, 5)
	require.NotNil(t, prices["AAPL"])
	assert.Equal(t, 189.5, *prices["AAPL"])
	require.NotNil(t, prices["VFIAX"])
	assert.Equal(t, 512.25, *prices["VFIAX"])
	assert.Nil(t, prices["DOWN"])
	assert.Nil(t, prices["NOPRICE"])
	assert.Nil(t, prices["bad symbol"])
}

func TestService_UnreachableCacheFallsBackToProvider(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer func() { _ = rdb.Close() }()
	store := cache.NewRedisStore(rdb, cache.WithTimeout(100*time.Millisecond))

	provider := &fakeProvider{
		infoFn: func(_ context.Context, symbol string) (entity.TickerInfo, error) {
			if symbol == "ZZZZ" {
				return entity.TickerInfo{"symbol": symbol}, nil
			}
			return entity.TickerInfo{"regularMarketPrice": 42.0, "companyOfficers": []any{"x"}}, nil
		},
		historyFn: func(context.Context, string, string, bool) ([]entity.OHLCRow, error) { return rows(4), nil },
		bulkFn: func(_ context.Context, symbols []string, _ string) (map[string][]entity.OHLCRow, error) {
			return map[string][]entity.OHLCRow{symbols[0]: rows(2), symbols[1]: rows(2)}, nil
		},
		searchFn: func(context.Context, string) ([]entity.SearchResult, error) {
			return []entity.SearchResult{{Symbol: "AAPL"}}, nil
		},
	}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})
	ctx := context.Background()

	assert.NoError(t, svc.ValidateTickerExists(ctx, "AAPL"))
	assert.ErrorIs(t, svc.ValidateTickerExists(ctx, "ZZZZ"), domain.ErrNotFound)

	info, err := svc.GetInfo(ctx, "AAPL")
	require.NoError(t, err)
	assert.NotContains(t, info, "companyOfficers")

	ts, err := svc.GetHistory(ctx, "AAPL", "1y", false)
	require.NoError(t, err)
	assert.Len(t, ts.Rows, 4)

	bt, err := svc.GetBulkHistory(ctx, []string{"MSFT", "AAPL"}, "1y")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, bt.Tickers())

	found, err := svc.Search(ctx, "apple", 5)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	price, ok := svc.GetPrice(ctx, "AAPL")
	assert.True(t, ok)
	assert.Equal(t, 42.0, price)

	_, err = svc.GetInfo(ctx, "BAD SYMBOL")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_SingleFlight(t *testing.T) {
	t.Parallel()

	store, _ := newMiniredisStore(t)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	provider := &fakeProvider{historyFn: func(context.Context, string, string, bool) ([]entity.OHLCRow, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return rows(2), nil
	}}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})

	const callers = 10
	var wg sync.WaitGroup
	results := make([]entity.TimeSeries, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts, err := svc.GetHistory(context.Background(), "AAPL", "1y", false)
			assert.NoError(t, err)
			results[i] = ts
		}()
	}

	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), provider.historyCalls.Load())
	for _, ts := range results {
		assert.Len(t, ts.Rows, 2)
	}
}

func TestService_CallerCancellationDoesNotAbortSharedFetch(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	release := make(chan struct{})
	provider := &fakeProvider{historyFn: func(ctx context.Context, _ string, _ string, _ bool) ([]entity.OHLCRow, error) {
		<-release
		return rows(2), ctx.Err()
	}}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.GetHistory(ctx, "AAPL", "1y", false)
		done <- err
	}()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool { return mr.Exists("historical:AAPL:1y:False") }, time.Second, 10*time.Millisecond)

	ts, err := svc.GetHistory(context.Background(), "AAPL", "1y", false)
	require.NoError(t, err)
	assert.Len(t, ts.Rows, 2)
	assert.Equal(t, int32(1), provider.historyCalls.Load())
}

func TestService_SharedFetchResultsAreIndependent(t *testing.T) {
	t.Parallel()

	store, _ := newMiniredisStore(t)
	release := make(chan struct{})
	provider := &fakeProvider{
		bulkFn: func(context.Context, []string, string) (map[string][]entity.OHLCRow, error) {
			<-release
			return map[string][]entity.OHLCRow{"AAPL": rows(2), "MSFT": rows(2)}, nil
		},
		infoFn: func(context.Context, string) (entity.TickerInfo, error) {
			<-release
			return entity.TickerInfo{
				"regularMarketPrice": 10.0,
				"officers":           map[string]any{"ceo": "someone"},
			}, nil
		},
	}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})

	var wg sync.WaitGroup
	tables := make([]entity.BulkTimeSeries, 2)
	infos := make([]entity.TickerInfo, 2)
	for i := range 2 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bt, err := svc.GetBulkHistory(context.Background(), []string{"AAPL", "MSFT"}, "1y")
			assert.NoError(t, err)
			tables[i] = bt
		}()
		go func() {
			defer wg.Done()
			info, err := svc.GetInfo(context.Background(), "AAPL")
			assert.NoError(t, err)
			infos[i] = info
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.False(t, tables[0].Empty())
	require.False(t, tables[1].Empty())
	want := tables[1].Values[0][0]
	tables[0].Values[0][0] = -1
	tables[0].Index[0] = time.Time{}
	assert.Equal(t, want, tables[1].Values[0][0])
	assert.False(t, tables[1].Index[0].IsZero())

	infos[0]["officers"].(map[string]any)["ceo"] = "changed"
	assert.Equal(t, "someone", infos[1]["officers"].(map[string]any)["ceo"])
}

func TestService_RefreshReloadsCachedEntries(t *testing.T) {
	t.Parallel()

	store, mr := newMiniredisStore(t)
	var price atomic.Int32
	price.Store(100)
	provider := &fakeProvider{
		infoFn: func(_ context.Context, symbol string) (entity.TickerInfo, error) {
			return entity.TickerInfo{"symbol": symbol, "regularMarketPrice": float64(price.Load())}, nil
		},
		historyFn: func(context.Context, string, string, bool) ([]entity.OHLCRow, error) {
			return rows(int(price.Load()) - 97), nil
		},
	}
	svc := usecase.NewService(store, provider, cache.JSONCodec{})
	ctx := context.Background()

	_, err := svc.GetInfo(ctx, "AAPL")
	require.NoError(t, err)
	_, err = svc.GetHistory(ctx, "AAPL", "", false)
	require.NoError(t, err)

	mr.FastForward(240 * time.Second)
	price.Store(101)

	info, err := svc.RefreshInfo(ctx, "aapl")
	require.NoError(t, err)
	got, ok := info.CurrentPrice()
	require.True(t, ok)
	assert.Equal(t, 101.0, got)

	ts, err := svc.RefreshHistory(ctx, "aapl", "", false)
	require.NoError(t, err)
	assert.Len(t, ts.Rows, 4)
	assert.Equal(t, "1y", ts.Period)

	assert.Equal(t, int32(2), provider.infoCalls.Load())
	assert.Equal(t, int32(2), provider.historyCalls.Load())
	assert.Equal(t, 300*time.Second, mr.TTL("ticker_info:AAPL"))
	assert.Equal(t, 600*time.Second, mr.TTL("historical:AAPL:1y:False"))

	mr.FastForward(240 * time.Second)
	_, err = svc.GetInfo(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.infoCalls.Load(), "refreshed entry still live after another run interval")
}

func TestService_RefreshRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	c := &countingCache{}
	svc := usecase.NewService(c, provider, cache.JSONCodec{})
	ctx := context.Background()

	_, err := svc.RefreshInfo(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.RefreshHistory(ctx, "AAPL", "7w", false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, provider.total())
	assert.Zero(t, c.calls.Load())
}
