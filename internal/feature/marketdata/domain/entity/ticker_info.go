// Package entity defines the domain models for the marketdata feature.
package entity

import (
	"encoding/json"
	"strconv"
)

// Field names the gateway reasons about. Everything else in TickerInfo is passed through.
const (
	FieldRegularMarketPrice = "regularMarketPrice"
	FieldCurrentPrice       = "currentPrice"
)

// maxNestedFieldSize is the largest encoded size kept for a list or map value.
const maxNestedFieldSize = 1000

// blockedInfoFields are heavy fields never kept in TickerInfo.
var blockedInfoFields = map[string]struct{}{
	"companyOfficers":     {},
	"fullTimeEmployees":   {},
	"longBusinessSummary": {},
}

// TickerInfo is the open, provider-shaped metadata for a ticker.
type TickerInfo map[string]any

// Clean returns a copy without blocklisted fields and without list/map values
// whose encoded size exceeds the threshold.
func (ti TickerInfo) Clean() TickerInfo {
	out := make(TickerInfo, len(ti))
	for k, v := range ti {
		if _, blocked := blockedInfoFields[k]; blocked {
			continue
		}
		if isNested(v) && encodedSize(v) > maxNestedFieldSize {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a deep copy. Nested maps and slices are copied too, so callers
// sharing one fetch never observe each other's writes.
func (ti TickerInfo) Clone() TickerInfo {
	if ti == nil {
		return nil
	}
	out := make(TickerInfo, len(ti))
	for k, v := range ti {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = cloneValue(e)
		}
		return m
	case TickerInfo:
		return x.Clone()
	case []any:
		s := make([]any, len(x))
		for i, e := range x {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Has reports whether key is present with a non-nil value.
func (ti TickerInfo) Has(key string) bool {
	v, ok := ti[key]
	return ok && v != nil
}

// Float returns the numeric value stored under key.
// Values decoded by JSON, msgpack or built in code are all accepted.
func (ti TickerInfo) Float(key string) (float64, bool) {
	switch n := ti[key].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// String returns the string value stored under key.
func (ti TickerInfo) String(key string) (string, bool) {
	s, ok := ti[key].(string)
	return s, ok
}

// MarketPrice returns the live market price, if the provider reported one.
func (ti TickerInfo) MarketPrice() (float64, bool) {
	return ti.Float(FieldRegularMarketPrice)
}

// CurrentPrice returns the live market price, falling back to the secondary
// current price field. Zero prices are treated as missing.
func (ti TickerInfo) CurrentPrice() (float64, bool) {
	if p, ok := ti.MarketPrice(); ok && p != 0 {
		return p, true
	}
	if p, ok := ti.Float(FieldCurrentPrice); ok && p != 0 {
		return p, true
	}
	return 0, false
}

func isNested(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

func encodedSize(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		// Values that cannot be encoded cannot be cached either.
		return maxNestedFieldSize + 1
	}
	return len(b)
}
