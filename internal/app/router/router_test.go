package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_gateway/internal/feature/marketdata/domain/entity"
	mdhandler "market_gateway/internal/feature/marketdata/transport/handler"
	riskentity "market_gateway/internal/feature/riskmetrics/domain/entity"
	riskhandler "market_gateway/internal/feature/riskmetrics/transport/handler"
	"market_gateway/internal/platform/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubMarket answers every call with a fixed price of 1.
type stubMarket struct{}

func (stubMarket) ValidateTickerExists(context.Context, string) error { return nil }
func (stubMarket) GetInfo(context.Context, string) (entity.TickerInfo, error) {
	return entity.TickerInfo{}, nil
}
func (stubMarket) GetHistory(_ context.Context, s, p string, a bool) (entity.TimeSeries, error) {
	return entity.TimeSeries{Symbol: s, Period: p, Adjusted: a}, nil
}
func (stubMarket) GetBulkHistory(_ context.Context, _ []string, p string) (entity.BulkTimeSeries, error) {
	return entity.BulkTimeSeries{Period: p}, nil
}
func (stubMarket) Search(context.Context, string, int) ([]entity.SearchResult, error) {
	return nil, nil
}
func (stubMarket) GetPrice(context.Context, string) (float64, bool) { return 1, true }
func (stubMarket) GetBulkPrices(_ context.Context, symbols []string) map[string]*float64 {
	return map[string]*float64{}
}

type stubRisk struct{}

func (stubRisk) FromPrices([]float64) (riskentity.RiskSummary, error) {
	return riskentity.RiskSummary{Volatility: 0.1}, nil
}
func (stubRisk) FromTicker(_ context.Context, t string) (riskentity.TickerRisk, error) {
	return riskentity.TickerRisk{Ticker: t}, nil
}
func (stubRisk) TickerMetrics(_ context.Context, s string, _ bool) (riskentity.TickerMetrics, error) {
	return riskentity.TickerMetrics{Ticker: s}, nil
}

func newTestRouter(secret string) *gin.Engine {
	return NewRouter(Deps{
		Market:    mdhandler.NewMarketDataHandler(stubMarket{}),
		Metrics:   metrics.New().Handler(),
		JWTSecret: secret,
		Log:       zerolog.Nop(),
	})
}

func get(r *gin.Engine, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	r.ServeHTTP(w, req)
	return w
}

func TestNewRouter_PlatformRoutes(t *testing.T) {
	r := newTestRouter("")

	w := get(r, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(r, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"degraded","cache":"disabled"}`, w.Body.String())

	w = get(r, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewRouter_MarketRoutesOpenWithoutSecret(t *testing.T) {
	r := newTestRouter("")

	w := get(r, "/tickers/AAPL/price", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"symbol":"AAPL","price":1}`, w.Body.String())
}

func TestNewRouter_SymbolsAbsentWithoutRegistry(t *testing.T) {
	r := newTestRouter("")

	w := get(r, "/symbols", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRouter_JWTRequiredWhenSecretSet(t *testing.T) {
	const secret = "test-secret"
	r := newTestRouter(secret)

	w := get(r, "/tickers/AAPL/price", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// platform routes stay public
	w = get(r, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "client-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)

	w = get(r, "/tickers/AAPL/price", http.Header{"Authorization": {"Bearer " + signed}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewRouter_RiskRoutes(t *testing.T) {
	r := NewRouter(Deps{
		Market: mdhandler.NewMarketDataHandler(stubMarket{}),
		Risk:   riskhandler.NewRiskHandler(stubRisk{}),
		Log:    zerolog.Nop(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/risk/metrics", strings.NewReader(`{"prices":[1,2]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"volatility":0.1`)

	w = get(r, "/tickers/AAPL/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ticker":"AAPL"`)

	w = get(newTestRouter(""), "/tickers/AAPL/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
