package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/llmops/resilience"
)

// BreakerChecker reports the health of a downstream model API from its
// circuit breaker state: closed is healthy, half-open is degraded while
// recovery probes run, open is unhealthy.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker over the given circuit breaker.
// If name is empty, the breaker's own name is used.
func NewBreakerChecker(name string, breaker *resilience.CircuitBreaker) *BreakerChecker {
	if name == "" {
		name = breaker.Name()
	}
	if name == "" {
		name = "circuit-breaker"
	}
	return &BreakerChecker{name: name, breaker: breaker}
}

// Name returns the name of this checker.
func (b *BreakerChecker) Name() string {
	return b.name
}

// Check reports health from the breaker's current state and counters.
func (b *BreakerChecker) Check(ctx context.Context) Result {
	// Check context first
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	m := b.breaker.Metrics()

	details := map[string]any{
		"state":              m.State.String(),
		"failures_in_window": m.FailuresInWindow,
		"failures":           m.Failures,
		"successes":          m.Successes,
		"rejected":           m.Rejected,
	}
	if !m.LastStateChange.IsZero() {
		details["last_state_change"] = m.LastStateChange.UTC().Format(time.RFC3339)
	}
	if !m.LastFailure.IsZero() {
		details["last_failure"] = m.LastFailure.UTC().Format(time.RFC3339)
	}

	switch m.State {
	case resilience.StateClosed:
		return Healthy(
			fmt.Sprintf("circuit %s closed", b.name),
		).WithDetails(details)

	case resilience.StateHalfOpen:
		return Degraded(
			fmt.Sprintf("circuit %s half-open, probing recovery", b.name),
		).WithDetails(details)

	default:
		return Unhealthy(
			fmt.Sprintf("circuit %s open", b.name),
			ErrCheckFailed,
		).WithDetails(details)
	}
}
