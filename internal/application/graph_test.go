package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/engine/internal/domain"
	"github.com/flowgraph/engine/internal/ports"
)

// intSource produces a constant int with no required inputs.
type intSource struct {
	value  int
	name   string
	output domain.OutputHandle[int]
}

func (n *intSource) Declare(self *domain.ExecNode, reg *domain.Registry) error {
	out, err := domain.RegisterOutput[int](reg, self, n.name, domain.Resetable)
	if err != nil {
		return err
	}
	n.output = out
	return nil
}

func (n *intSource) Run() error {
	n.output.Set(n.value)
	return nil
}

// intDouble reads in and writes out*2.
type intDouble struct {
	inName, outName string
	in              domain.InputHandle[int]
	out             domain.OutputHandle[int]
}

func (n *intDouble) Declare(self *domain.ExecNode, reg *domain.Registry) error {
	in, err := domain.RegisterInput[int](reg, self, n.inName, domain.Resetable)
	if err != nil {
		return err
	}
	out, err := domain.RegisterOutput[int](reg, self, n.outName, domain.Resetable)
	if err != nil {
		return err
	}
	n.in, n.out = in, out
	return nil
}

func (n *intDouble) Run() error {
	v, err := n.in.Get()
	if err != nil {
		return err
	}
	n.out.Set(v * 2)
	return nil
}

func TestGraphFanOutPropagatesReadiness(t *testing.T) {
	g := NewGraph()
	src := &intSource{value: 3, name: "seed"}
	left := &intDouble{inName: "seed", outName: "left"}
	right := &intDouble{inName: "seed", outName: "right"}

	require.NoError(t, g.AddNode("src", src))
	require.NoError(t, g.AddNode("left", left))
	require.NoError(t, g.AddNode("right", right))

	g.Seed()
	ran := 0
	for g.NumToExecute() > 0 {
		node := <-g.Ready()
		require.NoError(t, g.Run(node))
		ran++
	}

	assert.Equal(t, 3, ran)
	leftRes, ok := g.GetResource("left")
	require.True(t, ok)
	v, ok := leftRes.Value()
	require.True(t, ok)
	assert.Equal(t, 6, v)
}

func TestGraphDuplicateNodeRejected(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("a", &intSource{value: 1, name: "x"}))
	err := g.AddNode("a", &intSource{value: 1, name: "y"})
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)
}

func TestGraphResetKeepsPermanentAndOneshotExecuted(t *testing.T) {
	g := NewGraph()
	once := &intSource{value: 5, name: "permanent_val"}
	require.NoError(t, g.AddOneshotNode("once", onceNodeAdapter{once}))

	g.Seed()
	for g.NumToExecute() > 0 {
		node := <-g.Ready()
		require.NoError(t, g.Run(node))
	}

	res, ok := g.GetResource("permanent_val")
	require.True(t, ok)
	assert.True(t, res.Available())

	g.Reset()
	assert.True(t, res.Available(), "permanent resources survive Reset")

	n, ok := g.GetNode("once")
	require.True(t, ok)
	assert.True(t, n.Executed())
}

func TestGraphDetectCycleOnAcyclicGraph(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("src", &intSource{value: 1, name: "seed"}))
	require.NoError(t, g.AddNode("double", &intDouble{inName: "seed", outName: "doubled"}))
	assert.NoError(t, g.DetectCycle())
}

// onceNodeAdapter registers its resource as Permanent, matching an
// ExecuteOnce node's obligation that every produced resource survive
// Reset.
type onceNodeAdapter struct{ *intSource }

func (a onceNodeAdapter) Declare(self *domain.ExecNode, reg *domain.Registry) error {
	out, err := domain.RegisterOutput[int](reg, self, a.name, domain.Permanent)
	if err != nil {
		return err
	}
	a.output = out
	return nil
}

// fakeMetrics is a ports.MetricsCollector that records every call it
// receives, for asserting that Graph's run path records the counters and
// latency the SPEC_FULL expansion promises.
type fakeMetrics struct {
	mu       sync.Mutex
	counters []string
	gauges   []string
	latency  int
}

func (f *fakeMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency++
}

func (f *fakeMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, metric)
}

func (f *fakeMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gauges = append(f.gauges, metric)
}

func (f *fakeMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {}

var _ ports.MetricsCollector = (*fakeMetrics)(nil)

// fakeTracer is a ports.Tracer that records how many spans it opened and
// closed, for asserting Graph opens exactly one span per node run.
type fakeTracer struct {
	mu     sync.Mutex
	opened int
	closed int
}

func (t *fakeTracer) StartSpan(ctx context.Context, name string) (context.Context, ports.Span) {
	t.mu.Lock()
	t.opened++
	t.mu.Unlock()
	return ctx, &fakeSpan{tracer: t}
}

type fakeSpan struct {
	tracer   *fakeTracer
	errorSet bool
}

func (s *fakeSpan) SetError(err error) { s.errorSet = true }

func (s *fakeSpan) End() {
	s.tracer.mu.Lock()
	s.tracer.closed++
	s.tracer.mu.Unlock()
}

var _ ports.Tracer = (*fakeTracer)(nil)

func TestGraphRecordsMetricsAndSpansWhenWired(t *testing.T) {
	metrics := &fakeMetrics{}
	tracer := &fakeTracer{}
	g := NewGraph(WithName("diamond"), WithMetrics(metrics), WithTracer(tracer))

	require.NoError(t, g.AddNode("src", &intSource{value: 3, name: "seed"}))
	require.NoError(t, g.AddNode("left", &intDouble{inName: "seed", outName: "left"}))
	require.NoError(t, g.AddNode("right", &intDouble{inName: "seed", outName: "right"}))

	g.Seed()
	for g.NumToExecute() > 0 {
		node := <-g.Ready()
		require.NoError(t, g.Run(node))
	}

	assert.Len(t, metrics.counters, 6, "3 nodes scheduled + 3 nodes executed counters")
	assert.Equal(t, 3, metrics.latency, "one latency observation per node run")
	assert.Equal(t, 3, len(metrics.gauges), "one resources-available sample per node run")
	assert.Equal(t, 3, tracer.opened, "one span opened per node schedule")
	assert.Equal(t, 3, tracer.closed, "every opened span is closed once its run returns")
}

func TestGraphWithoutObservabilityOptionsRunsUnchanged(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("src", &intSource{value: 1, name: "seed"}))

	g.Seed()
	for g.NumToExecute() > 0 {
		node := <-g.Ready()
		require.NoError(t, g.Run(node))
	}
}
