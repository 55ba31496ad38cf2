// Package domain computes risk and trend statistics over close price series.
package domain

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"market_gateway/internal/feature/riskmetrics/domain/entity"
)

const (
	// MinPrices is the shortest series any metric is defined for.
	MinPrices = 2

	// FlatRatio replaces a ratio whose denominator, the return deviation, is zero.
	FlatRatio = 999

	daysPerYear = 365.25
)

// Summarize computes mean return, volatility, Sharpe ratio (no risk-free rate)
// and maximum drawdown of prices.
func Summarize(prices []float64) (entity.RiskSummary, error) {
	if err := checkPrices(prices); err != nil {
		return entity.RiskSummary{}, err
	}

	mean, vol := meanStd(pctChange(prices))
	sharpe := float64(FlatRatio)
	if vol != 0 {
		sharpe = mean / vol
	}
	return entity.RiskSummary{
		MeanReturn:  round(mean, 4),
		Volatility:  round(vol, 4),
		SharpeRatio: round(sharpe, 2),
		MaxDrawdown: round(maxDrawdown(prices), 4),
	}, nil
}

// Analyze fits an exponential trend to closes and derives deviation, growth
// and rolling return metrics. dates and closes are parallel and chronological.
// The result carries no ticker or info.
func Analyze(dates []time.Time, closes []float64) (entity.TickerMetrics, error) {
	if len(dates) != len(closes) {
		return entity.TickerMetrics{}, fmt.Errorf("%w: %d dates for %d closes", ErrInvalidPrice, len(dates), len(closes))
	}
	if err := checkPrices(closes); err != nil {
		return entity.TickerMetrics{}, err
	}
	n := len(closes)

	x := make([]float64, n)
	logClose := make([]float64, n)
	for i, p := range closes {
		x[i] = float64(i)
		logClose[i] = math.Log(p)
	}
	alpha, beta := stat.LinearRegression(x, logClose, nil, false)

	fitted := make([]float64, n)
	dev := make([]float64, n)
	sq := make([]float64, n)
	abs := make([]float64, n)
	for i, p := range closes {
		fitted[i] = math.Exp(alpha + beta*x[i])
		dev[i] = p/fitted[i] - 1
		sq[i] = dev[i] * dev[i]
		abs[i] = math.Abs(dev[i])
	}
	rmse := math.Sqrt(stat.Mean(sq, nil))

	totalDays := math.Floor(dates[n-1].Sub(dates[0]).Hours()/24) + 1
	years := totalDays / daysPerYear
	perDay := float64(n) / totalDays
	perYear := perDay * daysPerYear

	logReturns := make([]float64, n)
	logReturns[0] = math.NaN()
	for i := 1; i < n; i++ {
		logReturns[i] = math.Log(closes[i] / closes[i-1])
	}
	r1w, z1w := rollingReturns(logReturns[1:], perDay*7)
	r1m, z1m := rollingReturns(logReturns[1:], perDay*daysPerYear/12)
	r1y, z1y := rollingReturns(logReturns[1:], perYear)

	mean, std := meanStd(pctChange(closes))
	cv := float64(FlatRatio)
	if std != 0 {
		cv = std / mean
	}

	return entity.TickerMetrics{
		Series: &entity.SeriesMetrics{
			Date:                  formatDates(dates),
			Close:                 nullable(closes),
			CloseFitted:           nullable(fitted),
			LongTermDeviation:     nullable(dev),
			LongTermDeviationZ:    nullable(zScores(dev)),
			LogReturns:            nullable(logReturns),
			RollingReturn1W:       nullable(r1w),
			RollingReturnZScore1W: nullable(z1w),
			RollingReturn1M:       nullable(r1m),
			RollingReturnZScore1M: nullable(z1m),
			RollingReturn1Y:       nullable(r1y),
			RollingReturnZScore1Y: nullable(z1y),
		},
		CAGR:                            finite(growthRate(closes[0], closes[n-1], years)),
		CAGRFitted:                      finite(growthRate(fitted[0], fitted[n-1], years)),
		LongTermDeviationRMSE:           finite(rmse),
		LongTermDeviationRMSENormalized: finite(rmse / stat.Mean(abs, nil)),
		ReturnsMeanAnnualized:           finite(round(mean*perYear, 4)),
		ReturnsStdAnnualized:            finite(round(std*math.Sqrt(perYear), 4)),
		ReturnsCV:                       finite(round(cv, 4)),
		MaxDrawdown:                     finite(round(maxDrawdown(closes), 4)),
	}, nil
}

func checkPrices(prices []float64) error {
	if len(prices) < MinPrices {
		return fmt.Errorf("%w: at least %d prices required", ErrInsufficientData, MinPrices)
	}
	for i, p := range prices {
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: price %v at position %d", ErrInvalidPrice, p, i)
		}
	}
	return nil
}

func pctChange(prices []float64) []float64 {
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

// meanStd returns the sample mean and standard deviation. A single
// observation has zero deviation.
func meanStd(x []float64) (mean, std float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

func maxDrawdown(prices []float64) float64 {
	dd := make([]float64, len(prices))
	peak := prices[0]
	for i, p := range prices {
		peak = math.Max(peak, p)
		dd[i] = p/peak - 1
	}
	return floats.Min(dd)
}

func growthRate(first, last, years float64) float64 {
	return math.Pow(last/first, 1/years) - 1
}

// zScores standardizes x, skipping NaN entries. Entries stay NaN when fewer
// than two values are defined or all defined values are equal.
func zScores(x []float64) []float64 {
	defined := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	out := make([]float64, len(x))
	mean, std := meanStd(defined)
	for i, v := range x {
		if math.IsNaN(v) || std == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.StdScore(v, mean, std)
	}
	return out
}

// rollingReturns compounds log returns over a trailing window of
// round(window) points and standardizes the result. Both outputs have one
// leading NaN more than logReturns so they align with the close dates.
func rollingReturns(logReturns []float64, window float64) (returns, z []float64) {
	w := int(math.RoundToEven(window))
	returns = make([]float64, len(logReturns)+1)
	returns[0] = math.NaN()
	for i := range logReturns {
		if w < 1 || i < w-1 {
			returns[i+1] = math.NaN()
			continue
		}
		returns[i+1] = math.Expm1(floats.Sum(logReturns[i-w+1 : i+1]))
	}
	return returns, zScores(returns)
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.DateOnly)
	}
	return out
}

func round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func nullable(x []float64) []*float64 {
	out := make([]*float64, len(x))
	for i, v := range x {
		out[i] = finite(v)
	}
	return out
}
