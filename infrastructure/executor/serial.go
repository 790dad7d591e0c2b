// Package executor provides the two ways to drive an application.Graph
// to completion: SerialExecutor, which runs ready nodes one at a time on
// the calling goroutine, and PoolExecutor, which dispatches them onto a
// ports.WorkerPool. Both expose the same minimal contract: a Run method
// that returns once the run has drained.
package executor

import (
	"github.com/flowgraph/engine/internal/application"
)

// SerialExecutor drives a graph to completion on a single goroutine: it
// seeds the graph, then repeatedly takes the next ready node and invokes
// it in place, letting that invocation's resource publications enqueue
// further nodes before the loop asks for the next one. There is never
// more than one node executing at a time, so SerialExecutor needs no
// worker pool and no synchronization beyond what application.Graph
// already provides.
type SerialExecutor struct {
	graph *application.Graph
}

// NewSerialExecutor constructs a SerialExecutor for graph.
func NewSerialExecutor(graph *application.Graph) *SerialExecutor {
	return &SerialExecutor{graph: graph}
}

// Run seeds the graph and drains its ready queue to completion, running
// every scheduled node in the order it became ready. Run returns the
// first error any node reported; it keeps draining the queue afterward
// so every already-scheduled node still gets a chance to run, matching
// the original's "no partial-failure recovery, but no early abort
// either" execution model.
func (e *SerialExecutor) Run() error {
	e.graph.Seed()

	var firstErr error
	for e.graph.NumToExecute() > 0 {
		node := <-e.graph.Ready()
		if err := e.graph.Run(node); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
