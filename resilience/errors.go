package resilience

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrRateLimitExceeded is returned when the rate limiter cannot
	// supply the requested tokens within its single post-wait retry.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an operation exceeds its deadline.
	// It wraps context.DeadlineExceeded so classification treats it
	// as a transient failure.
	ErrTimeout = fmt.Errorf("resilience: operation timed out: %w", context.DeadlineExceeded)
)

// RetryExhaustedError is returned when every allowed attempt failed
// with a retryable error. It distinguishes "eventually gave up" from
// a first-attempt terminal failure.
type RetryExhaustedError struct {
	// Attempts is the number of attempts made.
	Attempts int

	// LastErr is the error from the final attempt.
	LastErr error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("resilience: retries exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

// Unwrap returns the error from the final attempt.
func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}

// CircuitOpenError is returned when the circuit breaker rejects a
// call without invoking the wrapped operation.
type CircuitOpenError struct {
	// Name identifies the breaker that rejected the call.
	Name string

	// Metrics is a snapshot of the breaker at rejection time.
	Metrics CircuitBreakerMetrics
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("resilience: circuit breaker %q is open", e.Name)
	}
	return "resilience: circuit breaker is open"
}
