package resilience

import (
	"context"
	"sync"
	"time"
)

// TokenBucketConfig configures the token bucket.
type TokenBucketConfig struct {
	// Capacity is the maximum number of tokens the bucket holds.
	// The bucket starts full.
	// Default: 100
	Capacity float64

	// RefillRate is the number of tokens added per second.
	// Default: 10
	RefillRate float64
}

// TokenBucket throttles outbound calls against a provider quota.
// Multiple clients may share one bucket to enforce a combined quota.
type TokenBucket struct {
	config TokenBucketConfig
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	tokens     float64
	rate       float64
	lastRefill time.Time
}

// NewTokenBucket creates a token bucket, filled to capacity.
func NewTokenBucket(config TokenBucketConfig) *TokenBucket {
	// Apply defaults
	if config.Capacity <= 0 {
		config.Capacity = 100
	}
	if config.RefillRate <= 0 {
		config.RefillRate = 10
	}

	tb := &TokenBucket{
		config: config,
		now:    time.Now,
		sleep:  sleepContext,
		tokens: config.Capacity,
		rate:   config.RefillRate,
	}
	tb.lastRefill = tb.now()
	return tb
}

// TryAcquire deducts n tokens without waiting.
// It returns false if the bucket holds fewer than n tokens.
func (tb *TokenBucket) TryAcquire(n int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()

	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}

	return false
}

// Acquire deducts n tokens, waiting for refill when short. The wait
// is computed from the deficit and the current rate; after one wait
// the acquire is retried exactly once, and failure surfaces as
// ErrRateLimitExceeded rather than waiting again.
func (tb *TokenBucket) Acquire(ctx context.Context, n int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	need := float64(n)

	tb.mu.Lock()
	tb.refillLocked()
	if tb.tokens >= need {
		tb.tokens -= need
		tb.mu.Unlock()
		return nil
	}
	wait := time.Duration((need - tb.tokens) / tb.rate * float64(time.Second))
	tb.mu.Unlock()

	if err := tb.sleep(ctx, wait); err != nil {
		return err
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	if tb.tokens >= need {
		tb.tokens -= need
		return nil
	}
	return ErrRateLimitExceeded
}

// Execute acquires one token, then runs the operation.
func (tb *TokenBucket) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := tb.Acquire(ctx, 1); err != nil {
		return err
	}
	return op(ctx)
}

// refillLocked credits tokens for the elapsed time, clamped at capacity.
func (tb *TokenBucket) refillLocked() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)
	tb.lastRefill = now

	tb.tokens += elapsed.Seconds() * tb.rate
	if tb.tokens > tb.config.Capacity {
		tb.tokens = tb.config.Capacity
	}
}

// Available returns the current number of tokens.
func (tb *TokenBucket) Available() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refillLocked()
	return tb.tokens
}

// Rate returns the current refill rate in tokens per second.
func (tb *TokenBucket) Rate() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.rate
}

// Capacity returns the bucket capacity.
func (tb *TokenBucket) Capacity() float64 {
	return tb.config.Capacity
}

// Reset refills the bucket to capacity.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tokens = tb.config.Capacity
	tb.lastRefill = tb.now()
}

// setRate changes the refill rate, crediting accrual so far at the
// old rate first.
func (tb *TokenBucket) setRate(rate float64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refillLocked()
	tb.rate = rate
}
