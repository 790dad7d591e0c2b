package executor

import (
	"fmt"

	"github.com/flowgraph/engine/internal/application"
	"github.com/flowgraph/engine/internal/domain"
	"github.com/flowgraph/engine/internal/ports"
)

// PoolExecutor drives a graph to completion by dispatching every ready
// node onto a ports.WorkerPool, so independent nodes can run
// concurrently. It is the Go-channel rendition of the original's
// threaded_executor: a dispatch loop pulls from the ready queue and
// submits to the pool, and a result channel reports completions so the
// loop knows when no node remains scheduled or running, without busy
// polling.
type PoolExecutor struct {
	graph *application.Graph
	pool  ports.WorkerPool
}

// NewPoolExecutor constructs a PoolExecutor driving graph's nodes through
// pool.
func NewPoolExecutor(graph *application.Graph, pool ports.WorkerPool) *PoolExecutor {
	return &PoolExecutor{graph: graph, pool: pool}
}

// Run seeds the graph, dispatches every node that becomes ready to the
// pool, and blocks until every dispatched node has finished running. Run
// returns the first error any node reported, after every dispatched node
// has completed.
func (e *PoolExecutor) Run() error {
	e.graph.Seed()

	// done is buffered to the graph's total node count so a task's send
	// never blocks waiting for this loop to receive. Without that bound, a
	// worker pool at capacity can deadlock: Submit below blocks until a
	// running task releases its slot, but that task can't return (and
	// release its slot) until its send on done is received, which only
	// happens back here — a cycle an unbuffered channel can't break.
	done := make(chan error, e.graph.NodeCount())
	inFlight := 0
	var firstErr error

	submit := func(node *domain.ExecNode) error {
		inFlight++
		return e.pool.Submit(func() {
			done <- e.graph.Run(node)
		})
	}

	ready := e.graph.Ready()
	for inFlight > 0 || len(ready) > 0 {
		select {
		case node := <-ready:
			if err := submit(node); err != nil {
				return fmt.Errorf("executor: submit node %q: %w", node.Name(), err)
			}
		case err := <-done:
			inFlight--
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
