package middleware

import "github.com/flowgraph/engine/internal/application"

// GraphOptionsFor translates opts's name and observability flags into
// the application.GraphOption values application.NewGraph needs to wire
// in a PrometheusMetrics collector and/or an OTelTracer. Routing the
// construction of concrete middleware types through this function keeps
// internal/application free of any import on infrastructure/middleware,
// while still letting a GraphOptions value read from YAML drive which
// backends a Graph actually uses.
func GraphOptionsFor(opts application.GraphOptions) []application.GraphOption {
	graphOpts := []application.GraphOption{application.WithName(opts.Name)}

	if opts.MetricsEnabled {
		graphOpts = append(graphOpts, application.WithMetrics(NewPrometheusMetrics()))
	}
	if opts.TracingEnabled {
		graphOpts = append(graphOpts, application.WithTracer(NewOTelTracer(opts.Name)))
	}

	return graphOpts
}
