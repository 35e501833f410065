package client

import (
	"github.com/jonwraymond/llmops/health"
)

// RegisterHealth registers the client's circuit breaker and rate
// limiter with a health aggregator, named after the provider so
// several clients can share one aggregator without colliding.
//
// The registered checks report an open circuit as unhealthy and a
// nearly drained bucket as degraded. Feeding the aggregator into a
// health.Gate and setting Config.SkipUnavailable to gate.Down makes
// the fallback chain route around a provider whose circuit is open.
func (c *Client) RegisterHealth(agg *health.Aggregator) {
	breakerName := c.checkName("circuit")
	agg.Register(breakerName, health.NewBreakerChecker(breakerName, c.breaker))

	limiterName := c.checkName("limiter")
	agg.Register(limiterName, health.NewLimiterChecker(limiterName, c.bucket, health.LimiterCheckerConfig{}))
}

func (c *Client) checkName(part string) string {
	if c.provider == "" {
		return part
	}
	return c.provider + "-" + part
}
