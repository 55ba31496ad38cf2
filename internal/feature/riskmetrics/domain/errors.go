package domain

import "errors"

var (
	// ErrInsufficientData means the series has fewer than MinPrices points.
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrInvalidPrice means a price is zero, negative or not a finite number.
	ErrInvalidPrice = errors.New("invalid price")
)
