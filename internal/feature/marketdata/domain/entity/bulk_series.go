package entity

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// ColumnKey addresses one column of a multi-ticker table.
type ColumnKey struct {
	Ticker string
	Field  string
}

// BulkTimeSeries is a multi-ticker price table with a shared index of trading
// dates (midnight UTC). Values[row][col] is NaN where a ticker has no bar for that date.
type BulkTimeSeries struct {
	Period  string
	Index   []time.Time
	Columns []ColumnKey
	Values  [][]float64
}

// NewBulkTimeSeries aligns per-ticker rows onto the union of their trading
// dates. Rows are matched by the calendar date of their own time zone, so bars
// from exchanges in different zones share one row per session. Tickers with no
// rows are left out of the table.
func NewBulkTimeSeries(period string, byTicker map[string][]OHLCRow) BulkTimeSeries {
	bt := BulkTimeSeries{Period: period}

	tickers := make([]string, 0, len(byTicker))
	for t, rows := range byTicker {
		if len(rows) > 0 {
			tickers = append(tickers, t)
		}
	}
	slices.Sort(tickers)
	if len(tickers) == 0 {
		return bt
	}

	seen := make(map[int64]time.Time)
	for _, t := range tickers {
		for _, r := range byTicker[t] {
			d := sessionDate(r.Time)
			seen[d.Unix()] = d
		}
	}
	for _, ts := range seen {
		bt.Index = append(bt.Index, ts)
	}
	slices.SortFunc(bt.Index, func(a, b time.Time) int { return a.Compare(b) })

	pos := make(map[int64]int, len(bt.Index))
	for i, ts := range bt.Index {
		pos[ts.Unix()] = i
	}

	for _, t := range tickers {
		for _, f := range PriceFields {
			bt.Columns = append(bt.Columns, ColumnKey{Ticker: t, Field: f})
		}
	}

	bt.Values = make([][]float64, len(bt.Index))
	for i := range bt.Values {
		row := make([]float64, len(bt.Columns))
		for j := range row {
			row[j] = math.NaN()
		}
		bt.Values[i] = row
	}

	for ti, t := range tickers {
		base := ti * len(PriceFields)
		for _, r := range byTicker[t] {
			row := bt.Values[pos[sessionDate(r.Time).Unix()]]
			row[base] = r.Open
			row[base+1] = r.High
			row[base+2] = r.Low
			row[base+3] = r.Close
			row[base+4] = float64(r.Volume)
		}
	}
	return bt
}

// sessionDate maps a bar time to its calendar date at midnight UTC.
func sessionDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Clone returns a copy that shares no slices with bt.
func (bt BulkTimeSeries) Clone() BulkTimeSeries {
	out := BulkTimeSeries{
		Period:  bt.Period,
		Index:   slices.Clone(bt.Index),
		Columns: slices.Clone(bt.Columns),
	}
	if bt.Values != nil {
		out.Values = make([][]float64, len(bt.Values))
		for i, row := range bt.Values {
			out.Values[i] = slices.Clone(row)
		}
	}
	return out
}

// Empty reports the "no data available" outcome.
func (bt BulkTimeSeries) Empty() bool {
	return len(bt.Index) == 0 || len(bt.Columns) == 0
}

// Tickers lists the tickers present in the table in column order.
func (bt BulkTimeSeries) Tickers() []string {
	var out []string
	for _, c := range bt.Columns {
		if len(out) == 0 || out[len(out)-1] != c.Ticker {
			out = append(out, c.Ticker)
		}
	}
	return out
}

// Fields lists the fields stored for ticker in column order.
func (bt BulkTimeSeries) Fields(ticker string) []string {
	var out []string
	for _, c := range bt.Columns {
		if c.Ticker == ticker {
			out = append(out, c.Field)
		}
	}
	return out
}

// Column returns one column of the table, or false when it is absent.
func (bt BulkTimeSeries) Column(ticker, field string) ([]float64, bool) {
	idx := slices.Index(bt.Columns, ColumnKey{Ticker: ticker, Field: field})
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(bt.Values))
	for i, row := range bt.Values {
		out[i] = row[idx]
	}
	return out, true
}

// BulkPayload is the cache representation of a BulkTimeSeries.
// Gaps are stored as null.
type BulkPayload struct {
	Index   []string     `json:"index" msgpack:"index"`
	Columns [][2]string  `json:"columns" msgpack:"columns"`
	Data    [][]*float64 `json:"data" msgpack:"data"`
}

// EncodeBulk converts a table into the cache payload.
func EncodeBulk(bt BulkTimeSeries) BulkPayload {
	p := BulkPayload{
		Index:   make([]string, len(bt.Index)),
		Columns: make([][2]string, len(bt.Columns)),
		Data:    make([][]*float64, len(bt.Values)),
	}
	for i, ts := range bt.Index {
		p.Index[i] = ts.Format(time.RFC3339)
	}
	for i, c := range bt.Columns {
		p.Columns[i] = [2]string{c.Ticker, c.Field}
	}
	for i, row := range bt.Values {
		out := make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			out[j] = &v
		}
		p.Data[i] = out
	}
	return p
}

// DecodeBulk rebuilds a table from a cache payload.
func DecodeBulk(period string, p BulkPayload) (BulkTimeSeries, error) {
	index, err := parseIndex(p.Index)
	if err != nil {
		return BulkTimeSeries{}, err
	}
	if len(p.Columns) == 0 {
		return BulkTimeSeries{}, fmt.Errorf("%w: no columns", ErrMalformedPayload)
	}
	if len(p.Data) != len(index) {
		return BulkTimeSeries{}, fmt.Errorf("%w: %d data rows for %d index entries", ErrMalformedPayload, len(p.Data), len(index))
	}

	bt := BulkTimeSeries{
		Period:  period,
		Index:   index,
		Columns: make([]ColumnKey, len(p.Columns)),
		Values:  make([][]float64, len(p.Data)),
	}
	for i, c := range p.Columns {
		bt.Columns[i] = ColumnKey{Ticker: c[0], Field: c[1]}
	}
	for i, row := range p.Data {
		if len(row) != len(bt.Columns) {
			return BulkTimeSeries{}, fmt.Errorf("%w: row %d has %d values for %d columns", ErrMalformedPayload, i, len(row), len(bt.Columns))
		}
		vals := make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				vals[j] = math.NaN()
				continue
			}
			vals[j] = *v
		}
		bt.Values[i] = vals
	}
	return bt, nil
}
