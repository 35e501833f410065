package resilience

import "sync"

// AdaptiveConfig configures rate adaptation.
type AdaptiveConfig struct {
	// BackoffFactor scales the rate down on a rate-limited response.
	// Default: 0.5
	BackoffFactor float64

	// RecoveryFactor scales the rate up after a run of successes.
	// Default: 1.1
	RecoveryFactor float64

	// MinRate is the floor the rate never shrinks below.
	// Default: one tenth of the configured refill rate
	MinRate float64

	// RecoveryThreshold is the number of consecutive successes that
	// triggers one recovery step.
	// Default: 10
	RecoveryThreshold int
}

// AdaptiveTokenBucket is a token bucket that self-tunes its refill
// rate between the provider's stated quota and the quota it is
// observed to honor: shrink on rate-limited responses, grow back
// slowly on sustained success.
type AdaptiveTokenBucket struct {
	*TokenBucket
	config       AdaptiveConfig
	originalRate float64

	mu        sync.Mutex
	successes int
}

// NewAdaptiveTokenBucket creates an adaptive token bucket.
func NewAdaptiveTokenBucket(bucket TokenBucketConfig, adaptive AdaptiveConfig) *AdaptiveTokenBucket {
	tb := NewTokenBucket(bucket)

	// Apply defaults
	if adaptive.BackoffFactor <= 0 || adaptive.BackoffFactor >= 1 {
		adaptive.BackoffFactor = 0.5
	}
	if adaptive.RecoveryFactor <= 1 {
		adaptive.RecoveryFactor = 1.1
	}
	if adaptive.MinRate <= 0 {
		adaptive.MinRate = tb.Rate() * 0.1
	}
	if adaptive.RecoveryThreshold <= 0 {
		adaptive.RecoveryThreshold = 10
	}

	return &AdaptiveTokenBucket{
		TokenBucket:  tb,
		config:       adaptive,
		originalRate: tb.Rate(),
	}
}

// OnRateLimited shrinks the refill rate down to the floor and resets
// the success run.
func (ab *AdaptiveTokenBucket) OnRateLimited() {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.successes = 0

	rate := ab.Rate() * ab.config.BackoffFactor
	if rate < ab.config.MinRate {
		rate = ab.config.MinRate
	}
	ab.setRate(rate)
}

// OnSuccess counts a successful call, growing the rate back toward
// the original once the recovery threshold is reached.
func (ab *AdaptiveTokenBucket) OnSuccess() {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.successes++
	if ab.successes < ab.config.RecoveryThreshold {
		return
	}
	ab.successes = 0

	rate := ab.Rate() * ab.config.RecoveryFactor
	if rate > ab.originalRate {
		rate = ab.originalRate
	}
	ab.setRate(rate)
}

// OriginalRate returns the configured refill rate before adaptation.
func (ab *AdaptiveTokenBucket) OriginalRate() float64 {
	return ab.originalRate
}

// ConsecutiveSuccesses returns the current success run length.
func (ab *AdaptiveTokenBucket) ConsecutiveSuccesses() int {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	return ab.successes
}
