package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSender means no from address was supplied and no signing account
	// is configured. Configuration error, never retried.
	ErrNoSender = errors.New("no sender address available")

	// ErrLengthMismatch means the parallel order slices (sizes, prices,
	// sides, ids) of a batch call differ in length. Programming-contract
	// violation, surfaced before any network call.
	ErrLengthMismatch = errors.New("batch input slices differ in length")
)

// TickAlignmentError reports a size or price that is zero or not an exact
// multiple of the pair's tick granularity. It is raised before any network
// call and must never be retried.
type TickAlignmentError struct {
	Field     string // "size" or "price"
	Value     string // the offending human-readable input
	Orderbook string
	PowTick   int64 // the expected granularity in base units
}

func (e *TickAlignmentError) Error() string {
	return fmt.Sprintf("invalid %s %q for orderbook %s: must be a nonzero multiple of tick %d",
		e.Field, e.Value, e.Orderbook, e.PowTick)
}

// UnknownOrderbookError reports a symbol the client has no metadata for.
type UnknownOrderbookError struct {
	Symbol string
}

func (e *UnknownOrderbookError) Error() string {
	return fmt.Sprintf("orderbook %s is not supported on this chain", e.Symbol)
}

// UnknownTokenError reports a token symbol that no known orderbook
// references.
type UnknownTokenError struct {
	Symbol string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("token %s is not supported on this chain", e.Symbol)
}

// ProviderError reports a failed or malformed market data provider response.
// The core never retries these itself; gas price oracle failures are handled
// separately by falling back to a default.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("provider %s: HTTP %d", e.Endpoint, e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.Err }
