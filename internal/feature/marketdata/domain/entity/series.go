package entity

import (
	"errors"
	"fmt"
	"time"
)

// Field names of a price table column.
const (
	FieldOpen     = "Open"
	FieldHigh     = "High"
	FieldLow      = "Low"
	FieldClose    = "Close"
	FieldVolume   = "Volume"
	FieldAdjClose = "Adj Close"
)

// PriceFields is the canonical column order of a price table.
var PriceFields = []string{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// ErrMalformedPayload is returned when a cached table cannot be reconstructed.
var ErrMalformedPayload = errors.New("malformed series payload")

// OHLCRow is one trading session.
type OHLCRow struct {
	Time     time.Time // Session timestamp in the exchange time zone
	Open     float64   // Opening price
	High     float64   // Highest price in the session
	Low      float64   // Lowest price in the session
	Close    float64   // Closing price
	Volume   int64     // Traded volume
	AdjClose *float64  // Split/dividend adjusted close; nil when prices are already adjusted
}

// TimeSeries is the chronological OHLC history of one ticker for one (period, adjust) pair.
type TimeSeries struct {
	Symbol   string
	Period   string
	Adjusted bool
	Rows     []OHLCRow
}

// Empty reports the "no data available" outcome.
func (ts TimeSeries) Empty() bool {
	return len(ts.Rows) == 0
}

// SeriesPayload is the cache representation of a TimeSeries:
// an ISO-8601 index plus one parallel array per column.
type SeriesPayload struct {
	Index []string             `json:"index" msgpack:"index"`
	Data  map[string][]float64 `json:"data" msgpack:"data"`
}

// EncodeSeries converts rows into the cache payload.
func EncodeSeries(rows []OHLCRow) SeriesPayload {
	p := SeriesPayload{
		Index: make([]string, len(rows)),
		Data:  make(map[string][]float64, len(PriceFields)+1),
	}
	cols := make(map[string][]float64, len(PriceFields)+1)
	for _, f := range PriceFields {
		cols[f] = make([]float64, len(rows))
	}
	hasAdj := len(rows) > 0 && rows[0].AdjClose != nil
	if hasAdj {
		cols[FieldAdjClose] = make([]float64, len(rows))
	}
	for i, r := range rows {
		p.Index[i] = r.Time.Format(time.RFC3339)
		cols[FieldOpen][i] = r.Open
		cols[FieldHigh][i] = r.High
		cols[FieldLow][i] = r.Low
		cols[FieldClose][i] = r.Close
		cols[FieldVolume][i] = float64(r.Volume)
		if hasAdj {
			if r.AdjClose != nil {
				cols[FieldAdjClose][i] = *r.AdjClose
			} else {
				cols[FieldAdjClose][i] = r.Close
			}
		}
	}
	p.Data = cols
	return p
}

// DecodeSeries rebuilds rows from a cache payload. Row count, column set and
// order match the rows passed to EncodeSeries.
func DecodeSeries(p SeriesPayload) ([]OHLCRow, error) {
	index, err := parseIndex(p.Index)
	if err != nil {
		return nil, err
	}
	for _, f := range PriceFields {
		col, ok := p.Data[f]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedPayload, f)
		}
		if len(col) != len(index) {
			return nil, fmt.Errorf("%w: column %q has %d values for %d rows", ErrMalformedPayload, f, len(col), len(index))
		}
	}
	adj, hasAdj := p.Data[FieldAdjClose]
	if hasAdj && len(adj) != len(index) {
		return nil, fmt.Errorf("%w: column %q has %d values for %d rows", ErrMalformedPayload, FieldAdjClose, len(adj), len(index))
	}

	rows := make([]OHLCRow, len(index))
	for i, t := range index {
		rows[i] = OHLCRow{
			Time:   t,
			Open:   p.Data[FieldOpen][i],
			High:   p.Data[FieldHigh][i],
			Low:    p.Data[FieldLow][i],
			Close:  p.Data[FieldClose][i],
			Volume: int64(p.Data[FieldVolume][i]),
		}
		if hasAdj {
			v := adj[i]
			rows[i].AdjClose = &v
		}
	}
	return rows, nil
}

func parseIndex(raw []string) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty index", ErrMalformedPayload)
	}
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%w: index %d: %v", ErrMalformedPayload, i, err)
		}
		out[i] = t
	}
	return out, nil
}
