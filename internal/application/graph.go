// Package application contains Graph, the orchestrator that owns a
// registry of resources and exec nodes, propagates readiness between
// them, and implements the reset protocol between runs. Graph is
// executor-agnostic: infrastructure/executor drives it by calling Seed
// and draining Ready, and a ports.WorkerPool decides how a scheduled
// node actually runs.
package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowgraph/engine/internal/domain"
	"github.com/flowgraph/engine/internal/ports"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Graph is the bipartite dataflow graph: named resources and the exec
// nodes that read and write them. Its run path (schedule, Run) is safe for
// concurrent use; most of the concurrency discipline that keeps it so
// lives in domain.ExecNode and domain.Resource, with spansMu guarding the
// span map. AddNode, AddOneshotNode and Reset take no lock and must not run
// concurrently with execution or with each other.
type Graph struct {
	reg *domain.Registry

	// nodeOrder preserves insertion order for Print and for the initial
	// readiness sweep, so node lines in Print and first-run scheduling
	// order are deterministic given a deterministic build sequence.
	nodeOrder []string
	nodes     map[string]*domain.ExecNode

	// ready receives nodes this graph's own readiness propagation (or an
	// initial sweep) has determined can run. An executor drains it.
	ready chan *domain.ExecNode

	numRunning   atomic.Int64
	numToExecute atomic.Int64

	// name identifies this graph in metrics labels and span names. Set
	// via WithName; the zero value is an empty string, which Prometheus
	// and OTel both accept as a valid (if uninformative) label/name.
	name string

	// metrics and tracer are both optional: a Graph built with neither
	// runs exactly as it did before either existed. Set via WithMetrics
	// and WithTracer.
	metrics ports.MetricsCollector
	tracer  ports.Tracer

	// spans holds the span opened for a node at schedule time until Run
	// closes it, so a span's lifetime covers the time a node spends
	// queued as well as the time it spends executing.
	spansMu sync.Mutex
	spans   map[*domain.ExecNode]ports.Span
}

// GraphOption configures optional Graph behavior at construction time:
// an observability backend, a display name, or (in principle) future
// optional collaborators. The functional-option pattern lets NewGraph
// stay backward compatible as new options are added, without every
// caller having to pass a zero value for options it doesn't use.
type GraphOption func(*Graph)

// WithName sets the graph's name, reported as the "graph" label on every
// metric. Spans are named after their node, not the graph.
func WithName(name string) GraphOption {
	return func(g *Graph) { g.name = name }
}

// WithMetrics wires a ports.MetricsCollector into the graph. Once set,
// every node schedule and run records a counter, and every run records a
// latency observation and a resources-available gauge.
func WithMetrics(m ports.MetricsCollector) GraphOption {
	return func(g *Graph) { g.metrics = m }
}

// WithTracer wires a ports.Tracer into the graph. Once set, every node
// run is wrapped in a span opened at schedule time and closed once the
// run returns.
func WithTracer(t ports.Tracer) GraphOption {
	return func(g *Graph) { g.tracer = t }
}

// NewGraph constructs an empty Graph, ready to accept nodes via AddNode
// and AddOneshotNode. By default a Graph records no metrics and opens no
// spans; pass WithMetrics and/or WithTracer to wire in an observability
// backend.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes: make(map[string]*domain.ExecNode),
		spans: make(map[*domain.ExecNode]ports.Span),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.reg = domain.NewRegistry(g.onNodeReady)
	return g
}

// Registry returns the graph's resource registry, for Node.Declare
// implementations and for tests that inspect resource state directly.
func (g *Graph) Registry() *domain.Registry { return g.reg }

// AddNode declares node and adds it to the graph under name, running
// ExecuteMultiple semantics: the node runs at most once per schedule, and
// again after every Reset. AddNode returns ErrDuplicateNode if name is
// already registered.
func (g *Graph) AddNode(name string, node domain.Node) error {
	return g.addNode(name, domain.ExecuteMultiple, node)
}

// AddOneshotNode declares node and adds it to the graph under name,
// running ExecuteOnce semantics: the node runs at most once across the
// entire lifetime of the graph; once it has executed, it stays in the
// graph but no later readiness sweep schedules it again. Every resource
// the node produces must be registered Permanent; otherwise, after Declare
// returns, AddOneshotNode returns a *domain.OneshotWithResetableError
// (errors.Is ErrOneshotWithResetable) and does not add the node.
func (g *Graph) AddOneshotNode(name string, node domain.Node) error {
	return g.addNode(name, domain.ExecuteOnce, node)
}

func (g *Graph) addNode(name string, flags domain.NodeFlag, node domain.Node) error {
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("graph: add node %q: %w", name, domain.ErrDuplicateNode)
	}

	run := func() error { return node.Run() }
	declared := domain.NewExecNode(name, flags, run)

	if err := node.Declare(declared, g.reg); err != nil {
		return fmt.Errorf("graph: declare node %q: %w", name, err)
	}

	if flags == domain.ExecuteOnce {
		for _, r := range declared.Produced() {
			if r.Flags() != domain.Permanent {
				return &domain.OneshotWithResetableError{Node: name, Resource: r.Name()}
			}
		}
	}

	g.nodes[name] = declared
	g.nodeOrder = append(g.nodeOrder, name)
	return nil
}

// GetResource returns the named resource and whether it has been
// registered by some node's Declare call.
func (g *Graph) GetResource(name string) (*domain.Resource, bool) {
	return g.reg.Lookup(name)
}

// GetNode returns the named exec node and whether it exists in the graph.
func (g *Graph) GetNode(name string) (*domain.ExecNode, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// NodeCount returns the number of nodes declared in the graph. Executors
// use it to size their own completion-signaling channels to a bound that
// can never block on a send.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// onNodeReady is the Registry's onReady hook: it schedules node if this
// is the first trigger to find it executable, and feeds it to the ready
// channel the active executor is draining.
func (g *Graph) onNodeReady(node *domain.ExecNode) {
	g.schedule(node)
}

// schedule claims node for execution and publishes it to the ready
// channel exactly once per schedule generation. If an observability
// backend is wired in, schedule also records the nodes-scheduled counter
// and opens this node's span, which Run closes once the node returns —
// so the span's duration covers queue time as well as run time.
func (g *Graph) schedule(node *domain.ExecNode) {
	if !node.MarkScheduled() {
		return
	}
	g.numToExecute.Add(1)

	if g.metrics != nil {
		g.metrics.RecordCounter("nodes_scheduled", 1, map[string]string{"graph": g.name})
	}
	if g.tracer != nil {
		_, span := g.tracer.StartSpan(context.Background(), node.Name())
		g.spansMu.Lock()
		g.spans[node] = span
		g.spansMu.Unlock()
	}

	g.ready <- node
}

// Ready returns the channel of nodes that have become executable. An
// executor (serial or pool) drains this channel until NumToExecute
// returns to zero.
func (g *Graph) Ready() <-chan *domain.ExecNode { return g.ready }

// Run invokes node's body, decrementing the outstanding-execution
// counter whether it succeeds or fails. Executors call Run once per
// value received from Ready; Run itself is what keeps at-most-once
// execution true even if an executor mistakenly dispatches the same node
// twice; domain.ExecNode.Invoke's TryLock and executed check are the
// actual guard.
//
// If an observability backend is wired in, Run also records the node's
// duration and execution-outcome counter, samples the current
// resources-available gauge, and closes the span schedule opened for
// this node.
func (g *Graph) Run(node *domain.ExecNode) error {
	g.numRunning.Add(1)
	start := time.Now()
	defer func() {
		g.numRunning.Add(-1)
		g.numToExecute.Add(-1)
	}()

	err := node.Invoke()

	if g.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		labels := map[string]string{"graph": g.name}
		g.metrics.RecordCounter("nodes_executed", 1, map[string]string{"graph": g.name, "status": status})
		g.metrics.RecordLatency(node.Name(), time.Since(start), labels)
		g.metrics.RecordGauge("resources_available", float64(g.countAvailableResources()), labels)
	}

	if g.tracer != nil {
		g.spansMu.Lock()
		span := g.spans[node]
		delete(g.spans, node)
		g.spansMu.Unlock()

		if span != nil {
			if err != nil {
				span.SetError(err)
			}
			span.End()
		}
	}

	return err
}

// countAvailableResources returns how many of the graph's registered
// resources currently hold a published value, for the
// resources-available gauge.
func (g *Graph) countAvailableResources() int {
	n := 0
	for _, r := range g.reg.Resources() {
		if r.Available() {
			n++
		}
	}
	return n
}

// NumRunning returns the number of node bodies currently executing.
func (g *Graph) NumRunning() int64 { return g.numRunning.Load() }

// NumToExecute returns the number of nodes scheduled but not yet
// finished running. SerialExecutor drains Ready until this reaches zero.
func (g *Graph) NumToExecute() int64 { return g.numToExecute.Load() }

// Seed performs the initial readiness sweep: every node whose declared
// inputs are already satisfied (commonly, nodes with no inputs at all)
// is scheduled. SerialExecutor.Run and PoolExecutor.Run call Seed
// themselves; a caller driving the graph by hand calls it once per run,
// before draining Ready.
//
// Seed (re)allocates the ready channel sized to the current node count.
// Since a node can be scheduled at most once per generation, that bound
// guarantees every send in this generation completes without a reader,
// so an executor may call Seed and only start draining Ready afterward.
func (g *Graph) Seed() {
	g.ready = make(chan *domain.ExecNode, len(g.nodes))
	for _, name := range g.nodeOrder {
		node := g.nodes[name]
		if node.CanExecute() {
			g.schedule(node)
		}
	}
}

// Reset prepares the graph for another run. Every Resetable resource is
// cleared back to unavailable; every Permanent resource keeps its value.
// Every ExecuteMultiple node has its scheduled and executed latches
// cleared so it can run again; ExecuteOnce nodes that have already executed are left
// unclaimable (domain.ExecNode.MarkScheduled enforces this on their
// behalf). Reset does not itself call Seed: callers decide when the next
// run's initial sweep happens.
func (g *Graph) Reset() {
	for _, r := range g.reg.Resources() {
		if r.Flags() != domain.Permanent {
			r.ResetForNextRun()
		}
	}
	for _, name := range g.nodeOrder {
		g.nodes[name].ResetSchedule()
	}
}

// DetectCycle reports whether the declared producer/consumer edges
// between this graph's nodes and resources contain a cycle, which would
// make the graph un-runnable (every node would wait forever on a
// resource no node can ever produce). It walks the bipartite graph with
// Kahn's algorithm over a node-to-node adjacency derived from shared
// resources: an edge producer -> consumer exists whenever producer
// outputs a resource consumer requires.
func (g *Graph) DetectCycle() error {
	adjacency := make(map[string][]string, len(g.nodes))
	inDegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		inDegree[name] = 0
	}

	for name, node := range g.nodes {
		for _, r := range node.Required() {
			producerName, ok := g.producerOf(r)
			if !ok {
				continue
			}
			adjacency[producerName] = append(adjacency[producerName], name)
			inDegree[name]++
		}
	}

	queue := make([]string, 0, len(g.nodes))
	for _, name := range g.nodeOrder {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adjacency[name] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(g.nodes) {
		remaining := make([]string, 0)
		for name, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, name)
			}
		}
		sort.Strings(remaining)
		return &domain.CycleDetectedError{Path: remaining}
	}
	return nil
}

// producerOf returns the name of the node that registered r as an
// output, if any node still holds that registration.
func (g *Graph) producerOf(r *domain.Resource) (string, bool) {
	for name, node := range g.nodes {
		for _, produced := range node.Produced() {
			if produced == r {
				return name, true
			}
		}
	}
	return "", false
}

// Print renders the graph as a Graphviz DOT document: one box per exec
// node, one ellipse per resource (a double octagon for a Permanent one;
// resource lines follow no fixed order), with edges for required and produced
// relationships. Labels are title-cased for readability, matching the
// convention of hand-written DOT diagnostics.
func (g *Graph) Print() string {
	titler := cases.Title(language.English)

	var b strings.Builder
	b.WriteString("digraph flowgraph {\n")
	b.WriteString("  rankdir=LR;\n")

	for _, name := range g.nodeOrder {
		fmt.Fprintf(&b, "  %q [shape=box,label=%q];\n", name, titler.String(strings.ReplaceAll(name, "_", " ")))
	}
	for _, r := range g.reg.Resources() {
		shape := "ellipse"
		if r.Flags() == domain.Permanent {
			shape = "doubleoctagon"
		}
		fmt.Fprintf(&b, "  %q [shape=%s,label=%q];\n", r.Name(), shape, titler.String(strings.ReplaceAll(r.Name(), "_", " ")))
	}

	for _, name := range g.nodeOrder {
		node := g.nodes[name]
		for _, r := range node.Required() {
			fmt.Fprintf(&b, "  %q -> %q;\n", r.Name(), name)
		}
		for _, r := range node.Produced() {
			fmt.Fprintf(&b, "  %q -> %q;\n", name, r.Name())
		}
	}

	b.WriteString("}\n")
	return b.String()
}
