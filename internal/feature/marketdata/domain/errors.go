// Package domain defines domain-level errors and input rules for the marketdata feature.
package domain

import "errors"

// Domain errors for market data operations.
// Upper layers branch on these with errors.Is; the wrapped message carries the detail.
var (
	// ErrInvalidInput indicates a malformed ticker symbol or parameter.
	// It is detected before any cache or upstream access and is never cached.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that the upstream confirmed the ticker does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable indicates that the upstream provider failed or timed out
	// for reasons unrelated to the ticker's existence.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
