package classify

import (
	"fmt"
	"time"
)

// APIError is the transport-shaped error a provider adapter should
// return so classification can see the status code and any
// Retry-After hint. The message must carry the provider's error text
// verbatim; pattern matching depends on it.
type APIError struct {
	// StatusCode is the HTTP-like status code, 0 when none was observed.
	StatusCode int

	// Message is the provider's error text, unmodified.
	Message string

	// RetryAfter is the provider's Retry-After hint, 0 when absent.
	RetryAfter time.Duration
}

// NewAPIError creates an APIError for the given status and message.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

// statusCoder extracts a status code from foreign error types.
type statusCoder interface {
	StatusCode() int
}

// retryAfterer extracts a Retry-After hint from foreign error types.
type retryAfterer interface {
	RetryAfter() time.Duration
}
