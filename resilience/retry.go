package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonwraymond/llmops/classify"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// BaseDelay is the first backoff delay.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the computed delay between attempts.
	// Default: 60s
	MaxDelay time.Duration

	// ExponentialBase is the backoff growth factor.
	// Default: 2.0
	ExponentialBase float64

	// Jitter scales each delay by a random factor to spread out
	// synchronized retries.
	Jitter bool

	// JitterMin and JitterMax bound the jitter factor.
	// Default: 0.5 and 1.0
	JitterMin float64
	JitterMax float64

	// Classify maps an attempt's error to a retry decision.
	// Default: classify.Classify
	Classify func(err error) classify.Classification

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Retry executes an operation with classification-driven backoff.
// A classification with ShouldRetry=false short-circuits the attempt
// budget; a suggested wait from the provider overrides the computed
// backoff for that attempt.
type Retry struct {
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 60 * time.Second
	}
	if config.MaxDelay < config.BaseDelay {
		config.MaxDelay = config.BaseDelay
	}
	if config.ExponentialBase <= 1 {
		config.ExponentialBase = 2.0
	}
	if config.JitterMin <= 0 || config.JitterMax <= config.JitterMin {
		config.JitterMin = 0.5
		config.JitterMax = 1.0
	}
	if config.Classify == nil {
		config.Classify = classify.Classify
	}

	return &Retry{
		config: config,
		sleep:  sleepContext,
	}
}

// Execute runs the operation with retry logic.
//
// Non-retryable errors propagate unchanged on the attempt they occur.
// Retryable errors exhausting the budget are wrapped in
// *RetryExhaustedError carrying the last error and the attempt count.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)

		if err == nil {
			return nil
		}

		lastErr = err

		c := r.config.Classify(err)
		if !c.ShouldRetry {
			return err
		}

		// Don't sleep after the last attempt
		if attempt >= r.config.MaxAttempts {
			break
		}

		wait := r.calculateWait(attempt-1, c.SuggestedWait)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, wait)
		}

		if serr := r.sleep(ctx, wait); serr != nil {
			return serr
		}
	}

	return &RetryExhaustedError{Attempts: r.config.MaxAttempts, LastErr: lastErr}
}

// calculateWait computes the delay before the next attempt.
// attemptIdx is zero-based: the wait after the first failure uses
// BaseDelay * ExponentialBase^0.
func (r *Retry) calculateWait(attemptIdx int, suggested time.Duration) time.Duration {
	var wait time.Duration
	if suggested > 0 {
		wait = suggested
	} else {
		backoff := float64(r.config.BaseDelay) * math.Pow(r.config.ExponentialBase, float64(attemptIdx))
		wait = time.Duration(backoff)
	}

	// Cap at max delay
	if wait > r.config.MaxDelay {
		wait = r.config.MaxDelay
	}

	// Scale by jitter if enabled
	if r.config.Jitter && wait > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		factor := r.config.JitterMin + rand.Float64()*(r.config.JitterMax-r.config.JitterMin)
		wait = time.Duration(float64(wait) * factor)
	}

	return wait
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
