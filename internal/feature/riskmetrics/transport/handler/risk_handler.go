// Package handler provides the HTTP handlers of the riskmetrics feature.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	mddomain "market_gateway/internal/feature/marketdata/domain"
	"market_gateway/internal/feature/riskmetrics/domain"
	"market_gateway/internal/feature/riskmetrics/domain/entity"
	"market_gateway/internal/feature/riskmetrics/transport/http/dto"
)

// RiskUsecase is the risk metrics usecase as seen by the HTTP layer.
type RiskUsecase interface {
	FromPrices(prices []float64) (entity.RiskSummary, error)
	FromTicker(ctx context.Context, ticker string) (entity.TickerRisk, error)
	TickerMetrics(ctx context.Context, symbol string, refresh bool) (entity.TickerMetrics, error)
}

// RiskHandler serves the risk metrics routes.
type RiskHandler struct {
	uc RiskUsecase
}

// NewRiskHandler creates a RiskHandler.
func NewRiskHandler(uc RiskUsecase) *RiskHandler {
	return &RiskHandler{uc: uc}
}

// FromPrices handles POST /risk/metrics.
func (h *RiskHandler) FromPrices(c *gin.Context) {
	var req dto.PricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prices is required"})
		return
	}

	s, err := h.uc.FromPrices(req.Prices)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRiskMetricsResponse("", s))
}

// FromTicker handles POST /risk/metrics/ticker.
func (h *RiskHandler) FromTicker(c *gin.Context) {
	var req dto.TickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
		return
	}

	r, err := h.uc.FromTicker(c.Request.Context(), req.Ticker)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRiskMetricsResponse(r.Ticker, r.Summary))
}

// TickerMetrics handles GET /tickers/:symbol/metrics?refresh=false. A failed
// analysis is still a 200 with error_msg set.
func (h *RiskHandler) TickerMetrics(c *gin.Context) {
	refresh, err := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh must be true or false"})
		return
	}

	m, err := h.uc.TickerMetrics(c.Request.Context(), c.Param("symbol"), refresh)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTickerMetricsResponse(m))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mddomain.ErrInvalidInput),
		errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, mddomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data provider unavailable"})
	}
}
