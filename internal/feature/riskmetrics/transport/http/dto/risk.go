package dto

import "market_gateway/internal/feature/riskmetrics/domain/entity"

// PricesRequest is the body of POST /risk/metrics.
type PricesRequest struct {
	Prices []float64 `json:"prices" binding:"required"`
}

// TickerRequest is the body of POST /risk/metrics/ticker.
type TickerRequest struct {
	Ticker string `json:"ticker" binding:"required"`
}

// RiskMetricsResponse is a RiskSummary, named when computed for a ticker.
type RiskMetricsResponse struct {
	Ticker      string  `json:"ticker,omitempty"`
	MeanReturn  float64 `json:"mean_return"`
	Volatility  float64 `json:"volatility"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// NewRiskMetricsResponse maps a summary onto its response.
func NewRiskMetricsResponse(ticker string, s entity.RiskSummary) RiskMetricsResponse {
	return RiskMetricsResponse{
		Ticker:      ticker,
		MeanReturn:  s.MeanReturn,
		Volatility:  s.Volatility,
		SharpeRatio: s.SharpeRatio,
		MaxDrawdown: s.MaxDrawdown,
	}
}

// TickerMetricsResponse is the body of GET /tickers/:symbol/metrics. Metrics
// are null when ErrorMsg is set.
type TickerMetricsResponse struct {
	Ticker                          string                `json:"ticker"`
	Info                            map[string]any        `json:"info"`
	TimeSeriesData                  *entity.SeriesMetrics `json:"time_series_data"`
	ErrorMsg                        *string               `json:"error_msg"`
	CAGR                            *float64              `json:"cagr"`
	CAGRFitted                      *float64              `json:"cagr_fitted"`
	LongTermDeviationRMSE           *float64              `json:"long_term_deviation_rmse"`
	LongTermDeviationRMSENormalized *float64              `json:"long_term_deviation_rmse_normalized"`
	ReturnsMeanAnnualized           *float64              `json:"returns_mean_annualized"`
	ReturnsStdAnnualized            *float64              `json:"returns_std_annualized"`
	ReturnsCV                       *float64              `json:"returns_cv"`
	MaxDrawdown                     *float64              `json:"max_drawdown"`
}

// NewTickerMetricsResponse maps an analysis onto its response.
func NewTickerMetricsResponse(m entity.TickerMetrics) TickerMetricsResponse {
	out := TickerMetricsResponse{
		Ticker:                          m.Ticker,
		Info:                            m.Info,
		TimeSeriesData:                  m.Series,
		CAGR:                            m.CAGR,
		CAGRFitted:                      m.CAGRFitted,
		LongTermDeviationRMSE:           m.LongTermDeviationRMSE,
		LongTermDeviationRMSENormalized: m.LongTermDeviationRMSENormalized,
		ReturnsMeanAnnualized:           m.ReturnsMeanAnnualized,
		ReturnsStdAnnualized:            m.ReturnsStdAnnualized,
		ReturnsCV:                       m.ReturnsCV,
		MaxDrawdown:                     m.MaxDrawdown,
	}
	if m.Failed() {
		out.ErrorMsg = &m.ErrorMsg
	}
	return out
}
