// Package middleware provides observability backends for graph
// execution: Prometheus metrics and OpenTelemetry tracing, wired behind
// the ports.MetricsCollector and ports.Tracer interfaces so the engine
// itself never imports either library directly.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/flowgraph/engine/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector using the global
// Prometheus registry, reporting the four metrics application.Graph's
// run path exercises: how many nodes were scheduled, how many finished
// (partitioned by outcome), how many resources are currently available,
// and how long each node run took. One instance is shared across every
// graph run in a process; graph and node names arrive as label values
// rather than as separate metric names, keeping cardinality bounded by
// label, not by metric count.
type PrometheusMetrics struct {
	nodesScheduled     *prometheus.CounterVec
	nodesExecuted      *prometheus.CounterVec
	resourcesAvailable *prometheus.GaugeVec
	nodeDuration       *prometheus.HistogramVec
}

// NewPrometheusMetrics constructs a PrometheusMetrics and registers its
// collectors in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		nodesScheduled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgraph_nodes_scheduled_total",
				Help: "Total exec nodes handed to an executor's ready queue.",
			},
			[]string{"graph"},
		),
		nodesExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowgraph_nodes_executed_total",
				Help: "Total exec node runs, partitioned by outcome.",
			},
			[]string{"graph", "status"},
		),
		resourcesAvailable: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flowgraph_resources_available",
				Help: "Resources currently holding a published value.",
			},
			[]string{"graph"},
		),
		nodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowgraph_node_duration_seconds",
				Help:    "Execution time of a single exec node run.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"graph", "node"},
		),
	}
}

// RecordLatency records a node's run duration against
// flowgraph_node_duration_seconds, with operation reported as the node
// label.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.nodeDuration.WithLabelValues(labels["graph"], operation).Observe(duration.Seconds())
}

// RecordCounter increments one of the two counters application.Graph
// drives: "nodes_scheduled" on every node handed to the ready queue, and
// "nodes_executed" (partitioned by labels["status"], defaulting to "ok")
// on every run that returns.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "nodes_scheduled":
		pm.nodesScheduled.WithLabelValues(labels["graph"]).Add(value)
	case "nodes_executed":
		status := labels["status"]
		if status == "" {
			status = "ok"
		}
		pm.nodesExecuted.WithLabelValues(labels["graph"], status).Add(value)
	}
}

// RecordGauge sets the resources-available gauge. metric is accepted for
// interface symmetry with RecordCounter, but PrometheusMetrics only
// reports one gauge today.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	if metric != "resources_available" {
		return
	}
	pm.resourcesAvailable.WithLabelValues(labels["graph"]).Set(value)
}

// RecordHistogram records value against flowgraph_node_duration_seconds,
// with metric reported as the node label. application.Graph's run path
// uses RecordLatency instead; this exists so ports.MetricsCollector
// implementations remain interchangeable for callers that prefer to
// record a duration as a raw float.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	pm.nodeDuration.WithLabelValues(labels["graph"], metric).Observe(value)
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
