// Package tradeerr defines the sentinel error kinds the core surfaces, per the
// error handling design: validation and insufficient-data are expected runtime
// conditions, invariant violations are bugs, connection failures are fatal.
package tradeerr

import "errors"

var (
	// ErrValidation marks a candle that failed invariant checks. Logged and
	// skipped by the caller; never propagated up the live loop.
	ErrValidation = errors.New("validation error")

	// ErrInsufficientData marks a strategy/indicator call made with too few
	// candles. Not an error at runtime in the live loop (the signal is simply
	// Hold); the backtest runner treats it as a startup error.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvariant marks an operation that would violate a type invariant,
	// e.g. closing an already-closed position. A bug, not a runtime condition.
	ErrInvariant = errors.New("invariant violation")

	// ErrCircuitBreaker marks a Buy converted to Skip by the risk gate. Not an
	// error condition for the caller. The executor reports a trip as a Skip
	// reason rather than this error, and the backtest runner counts trips
	// with circuit.Check.
	ErrCircuitBreaker = errors.New("circuit breaker tripped")
)
