// Package client is the composition root of the module: a resilient
// LLM API client that wires rate limiting, circuit breaking, retry,
// model fallback, response caching and telemetry around one chat
// entry point.
//
// Within one call the layers are strictly nested: the rate limiter
// charges the request's estimated token footprint first, the circuit
// breaker gate is consulted next, and only then does the retry
// controller run the fallback chain (or a single pinned model). A
// breaker rejection therefore never consumes a retry attempt or a
// backoff slot, and no tokens are spent on a call the breaker would
// refuse.
//
// # Usage
//
//	c, err := client.New(client.Config{
//	    Invoker: myInvoker,
//	    Models: []fallback.ModelConfig{
//	        {ModelID: "claude-opus-4", Tier: fallback.TierPrimary, Timeout: 60 * time.Second},
//	        {ModelID: "claude-sonnet-4", Tier: fallback.TierSecondary, Timeout: 30 * time.Second},
//	    },
//	    Breaker:   resilience.CircuitBreakerConfig{Name: "claude-api"},
//	    RateLimit: resilience.TokenBucketConfig{Capacity: 100, RefillRate: 10},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := c.Chat(ctx, client.ChatRequest{
//	    Messages: []fallback.Message{{Role: "user", Content: "Hello"}},
//	})
//
// Terminal failures propagate to the caller after the client's
// counters are updated; the client absorbs only the transient cases
// each inner component is designed to recover from.
//
// NewFromConfig builds the same wiring from a loaded configuration
// file, including the cache backend and observer the file names.
package client
