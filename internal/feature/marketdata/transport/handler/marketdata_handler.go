// Package handler provides the HTTP handlers of the marketdata feature.
package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"market_gateway/internal/feature/marketdata/domain"
	"market_gateway/internal/feature/marketdata/domain/entity"
	"market_gateway/internal/feature/marketdata/transport/http/dto"
)

// MarketDataUsecase is the gateway as seen by the HTTP layer.
type MarketDataUsecase interface {
	ValidateTickerExists(ctx context.Context, symbol string) error
	GetInfo(ctx context.Context, symbol string) (entity.TickerInfo, error)
	GetHistory(ctx context.Context, symbol, period string, adjust bool) (entity.TimeSeries, error)
	GetBulkHistory(ctx context.Context, symbols []string, period string) (entity.BulkTimeSeries, error)
	Search(ctx context.Context, query string, limit int) ([]entity.SearchResult, error)
	GetPrice(ctx context.Context, symbol string) (float64, bool)
	GetBulkPrices(ctx context.Context, symbols []string) map[string]*float64
}

// MarketDataHandler serves the market data routes.
type MarketDataHandler struct {
	uc MarketDataUsecase
}

// NewMarketDataHandler creates a MarketDataHandler.
func NewMarketDataHandler(uc MarketDataUsecase) *MarketDataHandler {
	return &MarketDataHandler{uc: uc}
}

// Validate handles GET /tickers/:symbol/validate.
func (h *MarketDataHandler) Validate(c *gin.Context) {
	symbol := c.Param("symbol")
	if err := h.uc.ValidateTickerExists(c.Request.Context(), symbol); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ValidateResponse{Symbol: strings.ToUpper(symbol), Valid: true})
}

// Info handles GET /tickers/:symbol/info.
func (h *MarketDataHandler) Info(c *gin.Context) {
	info, err := h.uc.GetInfo(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// History handles GET /tickers/:symbol/history?period=1y&adjust=false.
func (h *MarketDataHandler) History(c *gin.Context) {
	adjust, err := strconv.ParseBool(c.DefaultQuery("adjust", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "adjust must be true or false"})
		return
	}

	ts, err := h.uc.GetHistory(c.Request.Context(), c.Param("symbol"), c.Query("period"), adjust)
	if err != nil {
		writeError(c, err)
		return
	}

	out := dto.HistoryResponse{
		Symbol:   ts.Symbol,
		Period:   ts.Period,
		Adjusted: ts.Adjusted,
		Empty:    ts.Empty(),
		Data:     make([]dto.CandleResponse, 0, len(ts.Rows)),
	}
	for _, r := range ts.Rows {
		out.Data = append(out.Data, dto.CandleResponse{
			Time:     r.Time.Format("2006-01-02"),
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			AdjClose: r.AdjClose,
		})
	}
	c.JSON(http.StatusOK, out)
}

// BulkHistory handles GET /history/bulk?symbols=AAPL,MSFT&period=6mo.
func (h *MarketDataHandler) BulkHistory(c *gin.Context) {
	symbols := splitSymbols(c.QueryArray("symbols"))
	bt, err := h.uc.GetBulkHistory(c.Request.Context(), symbols, c.Query("period"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := dto.BulkHistoryResponse{
		Period:  bt.Period,
		Empty:   bt.Empty(),
		Tickers: bt.Tickers(),
		Index:   make([]string, len(bt.Index)),
		Data:    make(map[string]map[string][]*float64),
	}
	if out.Tickers == nil {
		out.Tickers = []string{}
	}
	for i, ts := range bt.Index {
		out.Index[i] = ts.Format("2006-01-02")
	}
	for _, ticker := range bt.Tickers() {
		fields := make(map[string][]*float64)
		for _, f := range bt.Fields(ticker) {
			col, _ := bt.Column(ticker, f)
			fields[f] = nullable(col)
		}
		out.Data[ticker] = fields
	}
	c.JSON(http.StatusOK, out)
}

// Search handles GET /search?q=apple&limit=10.
func (h *MarketDataHandler) Search(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.Query("limit")) // invalid or missing means default

	results, err := h.uc.Search(c.Request.Context(), query, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := dto.SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: make([]dto.SearchResultResponse, 0, len(results)),
	}
	for _, r := range results {
		out.Results = append(out.Results, dto.SearchResultResponse{
			Symbol:   r.Symbol,
			Name:     r.Name(),
			Exchange: r.Exchange,
			Type:     r.QuoteType,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Price handles GET /tickers/:symbol/price. An unavailable price is null, not an error.
func (h *MarketDataHandler) Price(c *gin.Context) {
	symbol := c.Param("symbol")
	if err := domain.ValidateSymbol(symbol); err != nil {
		writeError(c, err)
		return
	}

	out := dto.PriceResponse{Symbol: strings.ToUpper(symbol)}
	if p, ok := h.uc.GetPrice(c.Request.Context(), symbol); ok {
		out.Price = &p
	}
	c.JSON(http.StatusOK, out)
}

// BulkPrices handles GET /prices?symbols=AAPL,MSFT.
func (h *MarketDataHandler) BulkPrices(c *gin.Context) {
	symbols := splitSymbols(c.QueryArray("symbols"))
	switch {
	case len(symbols) == 0:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "at least one ticker symbol is required"})
		return
	case len(symbols) > domain.MaxBulkSymbols:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "too many ticker symbols (max " + strconv.Itoa(domain.MaxBulkSymbols) + ")"})
		return
	}
	c.JSON(http.StatusOK, dto.BulkPriceResponse{Prices: h.uc.GetBulkPrices(c.Request.Context(), symbols)})
}

// writeError maps domain errors onto status codes. Upstream failures get a
// coarse message so provider details never reach the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "market data provider unavailable"})
	}
}

// splitSymbols accepts both ?symbols=A,B and ?symbols=A&symbols=B.
func splitSymbols(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, s := range strings.Split(r, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func nullable(col []float64) []*float64 {
	out := make([]*float64, len(col))
	for i, v := range col {
		if !math.IsNaN(v) {
			out[i] = &v
		}
	}
	return out
}
