package ports

import "context"

// Span is one observed unit of work within a Tracer's backend. Callers
// must call End exactly once.
type Span interface {
	// SetError records that the traced operation failed.
	SetError(err error)
	// End closes the span.
	End()
}

// Tracer starts spans for graph operations without the graph itself
// depending on a concrete tracing backend.
type Tracer interface {
	// StartSpan begins a span named name as a child of any span already
	// present in ctx, returning the updated context and the new span.
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}
