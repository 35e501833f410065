// Package health provides health checking primitives for the LLM client.
//
// This package implements a generic health checking framework used to
// monitor the availability signals of the call pipeline: circuit breaker
// state, rate limiter pressure, and the reachability of backing services
// such as a Redis cache. It provides interfaces for defining health
// checks, aggregating results from multiple checkers, and exposing
// health status via HTTP endpoints.
//
// # Core Concepts
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy.
//
// # Basic Usage
//
//	// Report breaker state as health
//	check := health.NewBreakerChecker("claude-api", breaker)
//
//	result := check.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("Circuit open: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single composite check:
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register("circuit", health.NewBreakerChecker("claude-api", breaker))
//	agg.Register("limiter", health.NewLimiterChecker("", bucket, health.LimiterCheckerConfig{}))
//	agg.Register("cache", health.NewPingChecker("redis", redisCache.Ping))
//
//	// Check all components
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # Routing Around Unhealthy Models
//
// A Gate turns per-model check results into a skip predicate for the
// fallback chain. Only an unhealthy verdict vetoes a model; degraded
// ones keep taking traffic so recovery probes flow:
//
//	gate := health.NewGate(agg, health.GateConfig{TTL: 5 * time.Second})
//	cfg.SkipUnavailable = gate.Down
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health check patterns:
//
//	// Liveness probe (for Kubernetes)
//	http.Handle("/healthz", health.LivenessHandler())
//
//	// Readiness probe with component checks
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//
//	// Detailed health status
//	http.Handle("/health", health.DetailedHandler(aggregator))
//
// RegisterHandlers mounts all three on a mux in one call.
package health
