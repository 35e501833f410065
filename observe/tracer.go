package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta identifies one LLM call for telemetry purposes.
type CallMeta struct {
	RequestID string // Unique request id assigned by the client (required)
	Model     string // Model the call was sent to (required)
	Tier      string // Chain tier of the model: primary, secondary, economy (optional)
	Provider  string // Provider name, e.g. "anthropic" (optional)
}

// SpanName returns the deterministic span name for this call.
// Format: llm.chat.<model> or llm.chat when the model is not yet known.
func (m CallMeta) SpanName() string {
	if m.Model != "" {
		return "llm.chat." + m.Model
	}
	return "llm.chat"
}

// Validate checks that the metadata identifies a call.
func (m CallMeta) Validate() error {
	if m.Model == "" {
		return ErrMissingModel
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with call-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an LLM call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with call metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	// Build attributes
	attrs := []attribute.KeyValue{
		attribute.String("llm.model", meta.Model),
		attribute.Bool("llm.error", false), // Will be updated in EndSpan if error
	}

	if meta.RequestID != "" {
		attrs = append(attrs, attribute.String("llm.request_id", meta.RequestID))
	}
	if meta.Tier != "" {
		attrs = append(attrs, attribute.String("llm.tier", meta.Tier))
	}
	if meta.Provider != "" {
		attrs = append(attrs, attribute.String("llm.provider", meta.Provider))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("llm.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
