package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgraph/engine/internal/ports"
)

// OTelTracer implements ports.Tracer using an OpenTelemetry tracer
// obtained from the global provider. application.Graph calls StartSpan
// once per node when it schedules the node and Ends the returned span when
// that node's run returns.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer constructs an OTelTracer named instrumentationName, the
// value reported to the OpenTelemetry SDK as the tracer's instrumentation
// scope.
func NewOTelTracer(instrumentationName string) *OTelTracer {
	return &OTelTracer{tracer: otel.Tracer(instrumentationName)}
}

// StartSpan begins a span named name as a child of any span already
// present in ctx.
func (t *OTelTracer) StartSpan(ctx context.Context, name string) (context.Context, ports.Span) {
	spanCtx, span := t.tracer.Start(ctx, name)
	return spanCtx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

// SetError marks the span as failed and records err as a span event.
func (s *otelSpan) SetError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End closes the span.
func (s *otelSpan) End() { s.span.End() }

var _ ports.Tracer = (*OTelTracer)(nil)
