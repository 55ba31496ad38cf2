package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"market_gateway/internal/feature/marketdata/domain/entity"
	"market_gateway/internal/platform/externalapi/yahoo/dto"
)

// bulkWorkers caps concurrent chart requests in FetchBulkHistory.
const bulkWorkers = 4

// FetchHistory returns daily bars for period. With adjust, OHLC prices are
// scaled by the split/dividend adjustment; without it, AdjClose is filled.
// A symbol Yahoo does not know yields no rows and no error.
func (c *Client) FetchHistory(ctx context.Context, symbol, period string, adjust bool) ([]entity.OHLCRow, error) {
	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", "1d")
	q.Set("includeAdjustedClose", "true")
	q.Set("events", "div,splits")

	var body dto.ChartResponse
	err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), q, false, &body)
	if errors.Is(err, errNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if e := body.Chart.Error; e != nil {
		if isNotFound(e) {
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo api error: %s", e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, nil
	}
	return chartRows(body.Chart.Result[0], adjust), nil
}

// chartRows converts a chart result, skipping bars with a missing price.
func chartRows(res dto.ChartResult, adjust bool) []entity.OHLCRow {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	quote := res.Indicators.Quote[0]
	var adjClose []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adjClose = res.Indicators.AdjClose[0].AdjClose
	}
	loc := exchangeLocation(res)

	rows := make([]entity.OHLCRow, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, h, l, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue
		}
		t := time.Unix(ts, 0).In(loc)
		row := entity.OHLCRow{
			Time:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc),
			Open:  *o,
			High:  *h,
			Low:   *l,
			Close: *cl,
		}
		if v := at(quote.Volume, i); v != nil {
			row.Volume = int64(*v)
		}

		adj := *cl
		if a := at(adjClose, i); a != nil {
			adj = *a
		}
		if adjust {
			if row.Close != 0 {
				ratio := adj / row.Close
				row.Open *= ratio
				row.High *= ratio
				row.Low *= ratio
			}
			row.Close = adj
		} else {
			row.AdjClose = &adj
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b entity.OHLCRow) int { return a.Time.Compare(b.Time) })
	return rows
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func exchangeLocation(res dto.ChartResult) *time.Location {
	if name := res.Meta.ExchangeTimezoneName; name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", res.Meta.GMTOffset)
}

// FetchBulkHistory fetches adjusted daily bars for several symbols concurrently.
// Symbols that fail or have no data are left out; an error is returned only
// when every symbol failed.
func (c *Client) FetchBulkHistory(ctx context.Context, symbols []string, period string) (map[string][]entity.OHLCRow, error) {
	var (
		mu   sync.Mutex
		out  = make(map[string][]entity.OHLCRow, len(symbols))
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(bulkWorkers)
	for _, sym := range symbols {
		g.Go(func() error {
			rows, err := c.FetchHistory(ctx, sym, period, true)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.log.Warn().Err(err).Str("symbol", sym).Msg("bulk history: symbol failed")
				errs = append(errs, fmt.Errorf("%s: %w", sym, err))
				return nil
			}
			if len(rows) > 0 {
				out[sym] = rows
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(symbols) > 0 && len(errs) == len(symbols) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
