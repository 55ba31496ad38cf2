package usecase

import (
	"strings"
	"time"
)

// Operation names used in logs and metrics.
const (
	OpValidate    = "validate"
	OpInfo        = "info"
	OpHistory     = "history"
	OpBulkHistory = "bulk_history"
	OpSearch      = "search"
)

// Cache lifetimes per operation. Negative validation results expire fast so a
// newly listed or corrected ticker becomes valid again quickly.
const (
	ValidationTTL         = 3600 * time.Second
	ValidationNegativeTTL = 60 * time.Second
	InfoTTL               = 300 * time.Second
	HistoryTTL            = 600 * time.Second
	HistoryNegativeTTL    = 300 * time.Second
	BulkHistoryTTL        = 600 * time.Second
	SearchTTL             = 1800 * time.Second
)

const (
	// DefaultSearchLimit is used when the caller does not pass a limit.
	DefaultSearchLimit = 10
	// MaxSearchLimit caps the number of search results returned.
	MaxSearchLimit = 50
	// DefaultPeriod is the history range used when none is requested.
	DefaultPeriod = "1y"
)

// negativeMarker is stored for "no data" outcomes. No JSON or msgpack
// encoding of a series table can produce these bytes.
var negativeMarker = []byte("!negative")

func validationKey(symbol string) string { return "ticker_validation:" + symbol }

func infoKey(symbol string) string { return "ticker_info:" + symbol }

func historyKey(symbol, period string, adjust bool) string {
	return "historical:" + symbol + ":" + period + ":" + boolToken(adjust)
}

// bulkHistoryKey expects symbols already uppercased and sorted.
func bulkHistoryKey(symbols []string, period string) string {
	return "bulk_historical:" + strings.Join(symbols, ":") + ":" + period
}

func searchKey(query string) string { return "ticker_search:" + query }

func boolToken(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
