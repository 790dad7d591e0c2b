package executor

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/flowgraph/engine/internal/ports"
)

// RateLimitedPool decorates a ports.WorkerPool with a token-bucket rate
// limit on submissions, admitting at most limit executions per second
// (with burst allowed above that sustained rate). It is a
// SPEC_FULL.md-only addition: the original engine runs nodes as fast as
// their dependencies allow, but a deployment driving expensive or
// externally rate-limited node bodies benefits from the same pacing the
// teacher applies to its own outbound LLM calls.
//
// Grounded on the teacher's RateLimitMiddleware decorator over CoreLLM,
// translated here to decorate ports.WorkerPool instead.
type RateLimitedPool struct {
	next    ports.WorkerPool
	limiter *rate.Limiter
}

// NewRateLimitedPool wraps next with a limiter admitting limit task
// submissions per second, with burst allowed above that rate.
func NewRateLimitedPool(next ports.WorkerPool, limit rate.Limit, burst int) *RateLimitedPool {
	return &RateLimitedPool{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Submit waits for rate limit permission, then forwards task to the
// wrapped pool.
func (p *RateLimitedPool) Submit(task func()) error {
	if err := p.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("executor: rate limit: %w", err)
	}
	return p.next.Submit(task)
}

// Close forwards to the wrapped pool.
func (p *RateLimitedPool) Close() error { return p.next.Close() }

var _ ports.WorkerPool = (*RateLimitedPool)(nil)
