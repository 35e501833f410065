package fallback

import (
	"errors"
	"fmt"
)

// Sentinel errors for chain construction.
var (
	// ErrNoModels is returned when a chain is built without entries.
	ErrNoModels = errors.New("fallback: no models configured")

	// ErrNoInvoker is returned when a chain is built without an invoker.
	ErrNoInvoker = errors.New("fallback: no invoker configured")
)

// ExhaustedError is returned when every model in the chain failed
// with an availability-class error. Attempts holds the per-model
// failure trail in chain order.
type ExhaustedError struct {
	Attempts []Attempt
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "fallback: no models were attempted"
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("fallback: all %d models exhausted, last error from %s: %v",
		len(e.Attempts), last.Model, last.Err)
}

// Unwrap returns the error from the final attempt.
func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
