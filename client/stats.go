package client

import (
	"sync"

	"github.com/jonwraymond/llmops/resilience"
)

// Stats is a point-in-time snapshot of a client's activity, merging
// its own counters with live breaker and limiter readings.
type Stats struct {
	// Requests is the number of Chat calls accepted.
	Requests int64

	// Successes and Failures are terminal Chat outcomes.
	Successes int64
	Failures  int64

	// Retries counts retry sleeps taken across all calls.
	Retries int64

	// Fallbacks counts chain advances past a failed model.
	Fallbacks int64

	// RateLimitedEvents counts limiter shortfalls and rate-limited
	// provider responses.
	RateLimitedEvents int64

	// CircuitOpenEvents counts calls the breaker rejected.
	CircuitOpenEvents int64

	// CacheHits counts responses served from the cache.
	CacheHits int64

	// EstimatedTokens is the total token footprint charged against
	// the rate limiter.
	EstimatedTokens int64

	// CircuitState is the breaker's state at snapshot time.
	CircuitState resilience.State

	// Breaker is the breaker's full metric set at snapshot time.
	Breaker resilience.CircuitBreakerMetrics

	// LimiterAvailable, LimiterCapacity and LimiterRate are the
	// bucket's live occupancy readings.
	LimiterAvailable float64
	LimiterCapacity  float64
	LimiterRate      float64
}

// counters hold the client's own counts under one mutex, separate
// from the breaker and bucket locks.
type counters struct {
	mu sync.Mutex

	requests    int64
	successes   int64
	failures    int64
	retries     int64
	fallbacks   int64
	rateLimited int64
	circuitOpen int64
	cacheHits   int64
	tokens      int64
}

func (c *counters) addRequest() {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()
}

func (c *counters) addSuccess() {
	c.mu.Lock()
	c.successes++
	c.mu.Unlock()
}

func (c *counters) addFailure() {
	c.mu.Lock()
	c.failures++
	c.mu.Unlock()
}

func (c *counters) addRetry() {
	c.mu.Lock()
	c.retries++
	c.mu.Unlock()
}

func (c *counters) addFallback() {
	c.mu.Lock()
	c.fallbacks++
	c.mu.Unlock()
}

func (c *counters) addRateLimited() {
	c.mu.Lock()
	c.rateLimited++
	c.mu.Unlock()
}

func (c *counters) addCircuitOpen() {
	c.mu.Lock()
	c.circuitOpen++
	c.mu.Unlock()
}

func (c *counters) addCacheHit() {
	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
}

func (c *counters) addTokens(n int64) {
	c.mu.Lock()
	c.tokens += n
	c.mu.Unlock()
}

// snapshot copies the counter half of a Stats.
func (c *counters) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Requests:          c.requests,
		Successes:         c.successes,
		Failures:          c.failures,
		Retries:           c.retries,
		Fallbacks:         c.fallbacks,
		RateLimitedEvents: c.rateLimited,
		CircuitOpenEvents: c.circuitOpen,
		CacheHits:         c.cacheHits,
		EstimatedTokens:   c.tokens,
	}
}
