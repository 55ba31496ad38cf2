// Package router assembles the gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	mdhandler "market_gateway/internal/feature/marketdata/transport/handler"
	riskhandler "market_gateway/internal/feature/riskmetrics/transport/handler"
	symbolhandler "market_gateway/internal/feature/symbollist/transport/handler"
	"market_gateway/internal/platform/http/handler"
	"market_gateway/internal/platform/http/middleware"
	jwtmw "market_gateway/internal/platform/jwt"
)

// Deps are the handlers and settings the router needs. Risk, Symbols and
// Metrics may be nil, in which case their routes are not registered.
type Deps struct {
	Market    *mdhandler.MarketDataHandler
	Risk      *riskhandler.RiskHandler
	Symbols   *symbolhandler.SymbolHandler
	Cache     handler.Pinger
	Metrics   http.Handler
	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds the engine. Market and symbol routes require a bearer
// token when JWTSecret is set.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(d.Log), middleware.Recovery(d.Log))

	r.Any("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(d.Cache))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	api := r.Group("/")
	api.Use(jwtmw.AuthRequired(d.JWTSecret))
	{
		api.GET("/tickers/:symbol/validate", d.Market.Validate)
		api.GET("/tickers/:symbol/info", d.Market.Info)
		api.GET("/tickers/:symbol/history", d.Market.History)
		api.GET("/tickers/:symbol/price", d.Market.Price)
		api.GET("/history/bulk", d.Market.BulkHistory)
		api.GET("/search", d.Market.Search)
		api.GET("/prices", d.Market.BulkPrices)

		if d.Risk != nil {
			api.GET("/tickers/:symbol/metrics", d.Risk.TickerMetrics)
			api.POST("/risk/metrics", d.Risk.FromPrices)
			api.POST("/risk/metrics/ticker", d.Risk.FromTicker)
		}

		if d.Symbols != nil {
			api.GET("/symbols", d.Symbols.List)
			api.POST("/symbols", d.Symbols.Create)
		}
	}

	return r
}
