package classify

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// Suggested waits per category when the provider gives no hint.
const (
	transientWait   = 1 * time.Second
	rateLimitedWait = 60 * time.Second
	overloadedWait  = 300 * time.Second
	networkWait     = 2 * time.Second
	unknownWait     = 5 * time.Second
)

// contextPatterns mark an error as context-window exhaustion. Checked
// before any status mapping so a retryable status cannot mask it.
var contextPatterns = []string{
	"context length",
	"too many tokens",
	"maximum tokens",
	"input too long",
}

// networkPatterns mark a status-less error as a network-level fault.
var networkPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"tls handshake",
	"eof",
	"broken pipe",
	"dial tcp",
}

// Classification is the immutable result of classifying one error.
type Classification struct {
	// Category is the error category.
	Category ErrorCategory

	// StatusCode is the observed status code, 0 when none was present.
	StatusCode int

	// Message is the error text the classification was derived from.
	Message string

	// ShouldRetry reports whether retrying the same call may succeed.
	ShouldRetry bool

	// SuggestedWait is how long to wait before the next attempt.
	SuggestedWait time.Duration

	// ReduceInput reports that the request must shrink before retrying.
	ReduceInput bool
}

// Classify maps an error into a Classification.
//
// Priority order: caller cancellation, context-window patterns in the
// message, status-code mapping, network-level faults, then a cautious
// retryable default. A nil error yields the zero Classification.
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}

	msg := err.Error()

	// The caller gave up; no amount of retrying helps.
	if errors.Is(err, context.Canceled) {
		return Classification{Category: CategoryUnknown, Message: msg}
	}

	lower := strings.ToLower(msg)
	for _, p := range contextPatterns {
		if strings.Contains(lower, p) {
			return Classification{
				Category:    CategoryContextExceeded,
				StatusCode:  statusCode(err),
				Message:     msg,
				ShouldRetry: true,
				ReduceInput: true,
			}
		}
	}

	if code := statusCode(err); code > 0 {
		return classifyStatus(code, msg, retryAfter(err))
	}

	// Per-call deadlines and transport faults are retry-worthy.
	if isNetworkError(err, lower) {
		return Classification{
			Category:      CategoryTransient,
			Message:       msg,
			ShouldRetry:   true,
			SuggestedWait: networkWait,
		}
	}

	return Classification{
		Category:      CategoryUnknown,
		Message:       msg,
		ShouldRetry:   true,
		SuggestedWait: unknownWait,
	}
}

func classifyStatus(code int, msg string, hint time.Duration) Classification {
	c := Classification{StatusCode: code, Message: msg}

	switch code {
	case 500, 502, 503, 504:
		c.Category = CategoryTransient
		c.ShouldRetry = true
		c.SuggestedWait = transientWait

	case 429:
		c.Category = CategoryRateLimited
		c.ShouldRetry = true
		// A missing Retry-After falls back to the default, never to 0.
		if hint > 0 {
			c.SuggestedWait = hint
		} else {
			c.SuggestedWait = rateLimitedWait
		}

	case 529:
		c.Category = CategoryOverloaded
		c.ShouldRetry = true
		c.SuggestedWait = overloadedWait

	case 401:
		c.Category = CategoryAuthentication

	case 403:
		c.Category = CategoryPermission

	case 400, 404, 413:
		c.Category = CategoryBadRequest

	default:
		c.Category = CategoryUnknown
		c.ShouldRetry = true
		c.SuggestedWait = unknownWait
	}

	return c
}

// statusCode extracts a status code from the error chain, 0 if none.
func statusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// retryAfter extracts a Retry-After hint from the error chain, 0 if none.
func retryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	var ra retryAfterer
	if errors.As(err, &ra) {
		return ra.RetryAfter()
	}
	return 0
}

func isNetworkError(err error, lower string) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	for _, p := range networkPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
