// Package domain holds the errors of the symbollist feature.
package domain

import "errors"

var (
	// ErrDuplicateSymbol indicates the code is already tracked.
	ErrDuplicateSymbol = errors.New("symbol already tracked")
	// ErrUnknownSymbol indicates the market data provider does not know the code.
	ErrUnknownSymbol = errors.New("unknown symbol")
)
