package health

import (
	"context"
	"sync"
	"time"
)

// GateConfig configures a Gate.
type GateConfig struct {
	// TTL is how long one probe's verdict is trusted before Down
	// re-probes the checker.
	// Default: 5 seconds
	TTL time.Duration

	// Timeout bounds each probe.
	// Default: 1 second
	Timeout time.Duration
}

// Gate adapts aggregated health checks into the per-model veto a
// fallback chain consumes. Register a checker per model id on the
// aggregator; Down answers from a cached verdict, re-probing once per
// TTL. Only an unhealthy check vetoes: a degraded model (half-open
// breaker, draining limiter) still takes traffic, which is what lets
// a recovering endpoint prove itself.
//
// Down has the chain's SkipUnavailable signature:
//
//	cfg.SkipUnavailable = gate.Down
type Gate struct {
	agg    *Aggregator
	config GateConfig
	now    func() time.Time

	mu       sync.Mutex
	verdicts map[string]verdict
}

type verdict struct {
	down    bool
	expires time.Time
}

// NewGate creates a gate over the aggregator's checkers. Zero config
// values take the defaults above.
func NewGate(agg *Aggregator, config GateConfig) *Gate {
	if config.TTL <= 0 {
		config.TTL = 5 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Second
	}

	return &Gate{
		agg:      agg,
		config:   config,
		now:      time.Now,
		verdicts: make(map[string]verdict),
	}
}

// Down reports whether the model's checker currently vetoes it.
// Models without a registered checker are never vetoed, so a chain
// entry nobody monitors is always tried.
func (g *Gate) Down(model string) bool {
	g.mu.Lock()
	if v, ok := g.verdicts[model]; ok && g.now().Before(v.expires) {
		g.mu.Unlock()
		return v.down
	}
	g.mu.Unlock()

	// Probe outside the lock; checkers may block up to the probe
	// timeout. Concurrent probes of one model are harmless, the last
	// verdict wins.
	ctx, cancel := context.WithTimeout(context.Background(), g.config.Timeout)
	result, err := g.agg.Check(ctx, model)
	cancel()

	down := err == nil && result.Status == StatusUnhealthy

	g.mu.Lock()
	g.verdicts[model] = verdict{down: down, expires: g.now().Add(g.config.TTL)}
	g.mu.Unlock()

	return down
}

// Forget drops the cached verdict for a model, forcing the next Down
// to re-probe. Useful after re-registering a checker.
func (g *Gate) Forget(model string) {
	g.mu.Lock()
	delete(g.verdicts, model)
	g.mu.Unlock()
}
