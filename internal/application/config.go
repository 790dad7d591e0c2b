package application

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// GraphOptions configures an executor-level run of a graph: how many
// workers a pool executor may use, whether a run is rate limited, and
// what name to report to the configured observability backends. It does
// not describe graph topology — topology is built in code via AddNode,
// AddOneshotNode, and domain.Node.Declare, the same way the teacher
// builds unit topology in code rather than data.
type GraphOptions struct {
	// Name identifies the graph for logging, tracing, and metrics labels.
	Name string `yaml:"name" validate:"required,min=1,max=255"`

	// MaxWorkers bounds the concurrency of a pool executor's LocalPool.
	// Zero means the executor picks a default (runtime.GOMAXPROCS(0)).
	MaxWorkers int `yaml:"max_workers" validate:"omitempty,min=1,max=4096"`

	// RateLimitPerSecond, if positive, wraps the pool executor's worker
	// pool in a RateLimitedPool admitting at most this many node
	// executions per second.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second" validate:"omitempty,min=0"`

	// MetricsEnabled turns on PrometheusMetrics instrumentation.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// TracingEnabled turns on OTelTracer span emission per node run.
	TracingEnabled bool `yaml:"tracing_enabled"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the options satisfy their struct-tag constraints.
func (o *GraphOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid graph options: %w", err)
	}
	return nil
}

// DefaultGraphOptions returns GraphOptions for name with every optional
// field at its zero-means-default value.
func DefaultGraphOptions(name string) GraphOptions {
	return GraphOptions{Name: name}
}

// LoadGraphOptions reads and validates GraphOptions from a YAML file at
// path. Configuration loading is optional: most callers construct
// GraphOptions directly in code, the way the teacher's examples build
// their units directly in code rather than always reading a config file.
func LoadGraphOptions(path string) (GraphOptions, error) {
	var opts GraphOptions

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read graph options %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse graph options %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
