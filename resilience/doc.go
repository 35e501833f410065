// Package resilience provides the fault-handling building blocks for
// outbound LLM API calls.
//
// # Patterns
//
//   - Retry: re-attempts failed calls with exponential backoff and
//     jitter, letting error classification decide whether an attempt
//     is worth repeating and how long to wait before it.
//
//   - Circuit Breaker: stops calling a failing provider once failure
//     density within a sliding window crosses a threshold, then
//     probes recovery with a bounded number of half-open calls.
//
//   - Token Bucket: throttles outbound call volume against a provider
//     quota; an adaptive variant shrinks its rate on observed 429s and
//     grows it back on sustained success.
//
//   - Bulkhead: caps concurrent in-flight calls.
//
//   - Timeout: enforces a hard per-call deadline.
//
// # Usage
//
// Each component is used on its own or composed by a higher layer.
// Within one logical call, composition is strictly ordered: tokens
// are acquired before the breaker's gate is consulted, and the gate
// is consulted before any retry attempt, so a rejected call never
// consumes a retry slot.
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    Name:             "claude-api",
//	    FailureThreshold: 5,
//	    Window:           time.Minute,
//	    Timeout:          30 * time.Second,
//	})
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts: 3,
//	    BaseDelay:   time.Second,
//	    MaxDelay:    60 * time.Second,
//	    Jitter:      true,
//	})
//
//	bucket := resilience.NewTokenBucket(resilience.TokenBucketConfig{
//	    Capacity:   8000,
//	    RefillRate: 1333, // tokens per second
//	})
//
//	if err := bucket.Acquire(ctx, estimated); err != nil {
//	    return err
//	}
//	err := cb.Execute(ctx, func(ctx context.Context) error {
//	    return retry.Execute(ctx, callModel)
//	})
package resilience
