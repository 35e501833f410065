package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/llmops/resilience"
)

// LimiterCheckerConfig configures the rate limiter health checker.
type LimiterCheckerConfig struct {
	// WarningThreshold is the fraction of bucket capacity that must be
	// consumed before the checker reports degraded status.
	// Value should be between 0 and 1. Default: 0.9 (90%)
	WarningThreshold float64
}

// LimiterChecker reports rate limiter pressure. A nearly drained token
// bucket means callers are about to queue, so the checker degrades
// before calls start blocking. A drained bucket is throttling, not an
// outage, so the checker never reports unhealthy on its own.
type LimiterChecker struct {
	name   string
	bucket *resilience.TokenBucket
	config LimiterCheckerConfig
}

// NewLimiterChecker creates a checker over the given token bucket.
func NewLimiterChecker(name string, bucket *resilience.TokenBucket, config LimiterCheckerConfig) *LimiterChecker {
	if name == "" {
		name = "rate-limiter"
	}
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.9
	}
	return &LimiterChecker{name: name, bucket: bucket, config: config}
}

// Name returns the name of this checker.
func (l *LimiterChecker) Name() string {
	return l.name
}

// Check reports health from current bucket occupancy.
func (l *LimiterChecker) Check(ctx context.Context) Result {
	// Check context first
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	available := l.bucket.Available()
	capacity := l.bucket.Capacity()

	details := map[string]any{
		"available_tokens": available,
		"capacity":         capacity,
		"rate_per_second":  l.bucket.Rate(),
	}

	if capacity <= 0 {
		return Healthy("limiter stats unavailable").WithDetails(details)
	}

	used := 1 - available/capacity
	if used < 0 {
		used = 0
	}
	details["usage_percent"] = used * 100

	if used >= l.config.WarningThreshold {
		return Degraded(
			fmt.Sprintf("rate limiter nearly drained: %.1f%% used", used*100),
		).WithDetails(details)
	}

	return Healthy(
		fmt.Sprintf("rate limiter ok: %.1f%% used", used*100),
	).WithDetails(details)
}
