package entity

// RiskSummary holds the return and drawdown statistics of a price series.
// Returns are simple period-over-period changes, not annualized.
type RiskSummary struct {
	MeanReturn  float64
	Volatility  float64
	SharpeRatio float64
	MaxDrawdown float64 // Most negative close relative to its running peak
}

// TickerRisk is the RiskSummary of a named ticker's recent closes.
type TickerRisk struct {
	Ticker  string
	Summary RiskSummary
}

// SeriesMetrics holds the per-session columns of a ticker analysis. Every
// column is aligned with Date; nil marks an undefined value, such as the
// first log return or a rolling window that is not filled yet.
type SeriesMetrics struct {
	Date                  []string   `json:"date" msgpack:"date"`
	Close                 []*float64 `json:"close" msgpack:"close"`
	CloseFitted           []*float64 `json:"close_fitted" msgpack:"close_fitted"`
	LongTermDeviation     []*float64 `json:"long_term_deviation" msgpack:"long_term_deviation"`
	LongTermDeviationZ    []*float64 `json:"long_term_deviation_z" msgpack:"long_term_deviation_z"`
	LogReturns            []*float64 `json:"log_returns" msgpack:"log_returns"`
	RollingReturn1W       []*float64 `json:"rolling_return_1w" msgpack:"rolling_return_1w"`
	RollingReturnZScore1W []*float64 `json:"rolling_return_z_score_1w" msgpack:"rolling_return_z_score_1w"`
	RollingReturn1M       []*float64 `json:"rolling_return_1m" msgpack:"rolling_return_1m"`
	RollingReturnZScore1M []*float64 `json:"rolling_return_z_score_1m" msgpack:"rolling_return_z_score_1m"`
	RollingReturn1Y       []*float64 `json:"rolling_return_1y" msgpack:"rolling_return_1y"`
	RollingReturnZScore1Y []*float64 `json:"rolling_return_z_score_1y" msgpack:"rolling_return_z_score_1y"`
}

// TickerMetrics is the full analysis of one ticker. A non-empty ErrorMsg
// marks a failed analysis; all metric fields are then nil.
type TickerMetrics struct {
	Ticker   string         `json:"ticker" msgpack:"ticker"`
	Info     map[string]any `json:"info" msgpack:"info"`
	Series   *SeriesMetrics `json:"time_series_data" msgpack:"time_series_data"`
	ErrorMsg string         `json:"error_msg" msgpack:"error_msg"`

	CAGR                            *float64 `json:"cagr" msgpack:"cagr"`
	CAGRFitted                      *float64 `json:"cagr_fitted" msgpack:"cagr_fitted"`
	LongTermDeviationRMSE           *float64 `json:"long_term_deviation_rmse" msgpack:"long_term_deviation_rmse"`
	LongTermDeviationRMSENormalized *float64 `json:"long_term_deviation_rmse_normalized" msgpack:"long_term_deviation_rmse_normalized"`
	ReturnsMeanAnnualized           *float64 `json:"returns_mean_annualized" msgpack:"returns_mean_annualized"`
	ReturnsStdAnnualized            *float64 `json:"returns_std_annualized" msgpack:"returns_std_annualized"`
	ReturnsCV                       *float64 `json:"returns_cv" msgpack:"returns_cv"`
	MaxDrawdown                     *float64 `json:"max_drawdown" msgpack:"max_drawdown"`
}

// Failed reports whether the analysis could not be produced.
func (m TickerMetrics) Failed() bool {
	return m.ErrorMsg != ""
}
