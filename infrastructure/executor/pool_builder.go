package executor

import (
	"golang.org/x/time/rate"

	"github.com/flowgraph/engine/internal/application"
	"github.com/flowgraph/engine/internal/ports"
)

// BuildPool constructs the ports.WorkerPool a PoolExecutor should drive
// for opts: a LocalPool sized by MaxWorkers (zero defers to
// NewLocalPool's own GOMAXPROCS default), wrapped in a RateLimitedPool
// whenever RateLimitPerSecond is positive. Callers that want a bare
// LocalPool with no rate limiting can still construct one directly;
// BuildPool exists so GraphOptions read from a config file can drive
// pool construction end to end.
func BuildPool(opts application.GraphOptions) ports.WorkerPool {
	pool := ports.WorkerPool(NewLocalPool(opts.MaxWorkers))
	if opts.RateLimitPerSecond <= 0 {
		return pool
	}

	burst := opts.MaxWorkers
	if burst <= 0 {
		burst = 1
	}
	return NewRateLimitedPool(pool, rate.Limit(opts.RateLimitPerSecond), burst)
}
