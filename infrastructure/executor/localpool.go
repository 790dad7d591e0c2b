package executor

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/flowgraph/engine/internal/ports"
)

// ErrPoolClosed is returned by LocalPool.Submit once Close has been
// called.
var ErrPoolClosed = errors.New("executor: pool closed")

// LocalPool is a reference ports.WorkerPool bounded by a weighted
// semaphore: at most maxWorkers submitted tasks run at once, and
// additional submissions block until a slot frees up. It replaces the
// teacher's hand-rolled channel semaphore (internal/application.Layer's
// buffered-channel pattern) with golang.org/x/sync/semaphore, the same
// concurrency-limiting dependency the teacher already reaches for
// elsewhere in its module.
type LocalPool struct {
	sem *semaphore.Weighted

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewLocalPool constructs a LocalPool that runs at most maxWorkers tasks
// concurrently. maxWorkers <= 0 defaults to runtime.GOMAXPROCS(0).
func NewLocalPool(maxWorkers int) *LocalPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	return &LocalPool{sem: semaphore.NewWeighted(int64(maxWorkers))}
}

// Submit blocks until a worker slot is available, then runs task on a
// new goroutine.
func (p *LocalPool) Submit(task func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.mu.Unlock()

	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		task()
	}()
	return nil
}

// Close stops accepting new work and blocks until every already
// submitted task has returned.
func (p *LocalPool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

var _ ports.WorkerPool = (*LocalPool)(nil)
