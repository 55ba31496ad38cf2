package domain

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// MaxSymbolLength is the longest ticker symbol accepted.
	MaxSymbolLength = 10
	// MaxBulkSymbols caps the number of tickers in a single bulk request.
	MaxBulkSymbols = 25
)

// validPeriods lists the history ranges understood by the upstream.
var validPeriods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidateSymbol checks a ticker symbol purely from its shape.
// Passing only proves the symbol is well formed, not that it exists.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: ticker symbol is required", ErrInvalidInput)
	}
	if len(symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: ticker symbol is too long (max %d characters)", ErrInvalidInput, MaxSymbolLength)
	}
	for _, r := range symbol {
		if !isSymbolRune(r) {
			return fmt.Errorf("%w: invalid ticker symbol format (only alphanumeric, dots and carets allowed)", ErrInvalidInput)
		}
	}
	return nil
}

func isSymbolRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '^':
		return true
	}
	return false
}

// NormalizeSymbol validates a symbol and returns its uppercase form.
func NormalizeSymbol(symbol string) (string, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return "", err
	}
	return strings.ToUpper(symbol), nil
}

// NormalizeSymbols validates every symbol and returns the uppercase, de-duplicated,
// sorted set. The result is independent of the request order.
func NormalizeSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: at least one ticker symbol is required", ErrInvalidInput)
	}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		up, err := NormalizeSymbol(s)
		if err != nil {
			return nil, fmt.Errorf("%w (symbol %q)", err, s)
		}
		out = append(out, up)
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) > MaxBulkSymbols {
		return nil, fmt.Errorf("%w: too many ticker symbols (max %d)", ErrInvalidInput, MaxBulkSymbols)
	}
	return out, nil
}

// ValidatePeriod checks that period is one of the supported history ranges.
func ValidatePeriod(period string) error {
	if !slices.Contains(validPeriods, period) {
		return fmt.Errorf("%w: unsupported period %q (allowed: %s)", ErrInvalidInput, period, strings.Join(validPeriods, ","))
	}
	return nil
}
