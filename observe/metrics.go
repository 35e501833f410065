package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records telemetry for LLM calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one completed call with duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordRetries records how many retry attempts a call consumed.
	RecordRetries(ctx context.Context, meta CallMeta, retries int)

	// RecordFallback records that a call fell back to the next model in the chain.
	RecordFallback(ctx context.Context, meta CallMeta)

	// RecordTokens records the estimated token count of a request.
	RecordTokens(ctx context.Context, meta CallMeta, tokens int)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	durationHist  metric.Float64Histogram
	retryCount    metric.Int64Counter
	fallbackCount metric.Int64Counter
	tokenCount    metric.Int64Counter
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"llm.call.total",
		metric.WithDescription("Total number of LLM calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"llm.call.errors",
		metric.WithDescription("Total number of failed LLM calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"llm.call.duration_ms",
		metric.WithDescription("LLM call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"llm.call.retries",
		metric.WithDescription("Total number of retry attempts"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	fallbackCount, err := meter.Int64Counter(
		"llm.call.fallbacks",
		metric.WithDescription("Total number of fallbacks to the next model"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, err
	}

	tokenCount, err := meter.Int64Counter(
		"llm.tokens.estimated",
		metric.WithDescription("Estimated tokens submitted across requests"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:         meter,
		totalCount:    totalCount,
		errorCount:    errorCount,
		durationHist:  durationHist,
		retryCount:    retryCount,
		fallbackCount: fallbackCount,
		tokenCount:    tokenCount,
	}, nil
}

// attrs builds the common attribute set for a call.
func (m *metricsImpl) attrs(meta CallMeta) metric.MeasurementOption {
	attrs := []attribute.KeyValue{
		attribute.String("llm.model", meta.Model),
	}
	if meta.Tier != "" {
		attrs = append(attrs, attribute.String("llm.tier", meta.Tier))
	}
	if meta.Provider != "" {
		attrs = append(attrs, attribute.String("llm.provider", meta.Provider))
	}
	return metric.WithAttributes(attrs...)
}

// RecordCall records metrics for one completed call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := m.attrs(meta)

	// Always increment total counter
	m.totalCount.Add(ctx, 1, opt)

	// Increment error counter on failure
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	// Record duration in milliseconds
	durationMs := float64(duration.Milliseconds())
	m.durationHist.Record(ctx, durationMs, opt)
}

// RecordRetries records retry attempts consumed by a call.
func (m *metricsImpl) RecordRetries(ctx context.Context, meta CallMeta, retries int) {
	if retries <= 0 {
		return
	}
	m.retryCount.Add(ctx, int64(retries), m.attrs(meta))
}

// RecordFallback records one fallback to the next model in the chain.
func (m *metricsImpl) RecordFallback(ctx context.Context, meta CallMeta) {
	m.fallbackCount.Add(ctx, 1, m.attrs(meta))
}

// RecordTokens records the estimated token count of a request.
func (m *metricsImpl) RecordTokens(ctx context.Context, meta CallMeta, tokens int) {
	if tokens <= 0 {
		return
	}
	m.tokenCount.Add(ctx, int64(tokens), m.attrs(meta))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordRetries(ctx context.Context, meta CallMeta, retries int) {}
func (m *noopMetrics) RecordFallback(ctx context.Context, meta CallMeta)             {}
func (m *noopMetrics) RecordTokens(ctx context.Context, meta CallMeta, tokens int)   {}
