// Command flowgraph builds a diamond-shaped graph (one source, two
// parallel transforms, one sink) and
// runs it once under the serial executor and once under the pool
// executor, printing each run's output and, if requested, a Graphviz DOT
// rendering of the topology.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/flowgraph/engine/infrastructure/executor"
	"github.com/flowgraph/engine/infrastructure/middleware"
	"github.com/flowgraph/engine/internal/application"
	"github.com/flowgraph/engine/internal/domain"
)

// sourceNode produces a single integer value with no inputs.
type sourceNode struct {
	value  int
	output domain.OutputHandle[int]
}

func (n *sourceNode) Declare(self *domain.ExecNode, reg *domain.Registry) error {
	handle, err := domain.RegisterOutput[int](reg, self, "seed", domain.Resetable)
	if err != nil {
		return err
	}
	n.output = handle
	return nil
}

func (n *sourceNode) Run() error {
	n.output.Set(n.value)
	return nil
}

// transformNode reads one int resource, doubles it, and writes it to a
// named output resource.
type transformNode struct {
	inputName  string
	outputName string
	input      domain.InputHandle[int]
	output     domain.OutputHandle[int]
}

func (n *transformNode) Declare(self *domain.ExecNode, reg *domain.Registry) error {
	in, err := domain.RegisterInput[int](reg, self, n.inputName, domain.Resetable)
	if err != nil {
		return err
	}
	out, err := domain.RegisterOutput[int](reg, self, n.outputName, domain.Resetable)
	if err != nil {
		return err
	}
	n.input, n.output = in, out
	return nil
}

func (n *transformNode) Run() error {
	v, err := n.input.Get()
	if err != nil {
		return err
	}
	n.output.Set(v * 2)
	return nil
}

// sinkNode reads two int resources and sums them.
type sinkNode struct {
	leftName, rightName string
	left, right         domain.InputHandle[int]
	result              int
}

func (n *sinkNode) Declare(self *domain.ExecNode, reg *domain.Registry) error {
	left, err := domain.RegisterInput[int](reg, self, n.leftName, domain.Resetable)
	if err != nil {
		return err
	}
	right, err := domain.RegisterInput[int](reg, self, n.rightName, domain.Resetable)
	if err != nil {
		return err
	}
	n.left, n.right = left, right
	return nil
}

func (n *sinkNode) Run() error {
	left, err := n.left.Get()
	if err != nil {
		return err
	}
	right, err := n.right.Get()
	if err != nil {
		return err
	}
	n.result = left + right
	return nil
}

func buildDiamond(graph *application.Graph, seed int) (*sinkNode, error) {
	src := &sourceNode{value: seed}
	left := &transformNode{inputName: "seed", outputName: "left_out"}
	right := &transformNode{inputName: "seed", outputName: "right_out"}
	sink := &sinkNode{leftName: "left_out", rightName: "right_out"}

	nodes := []struct {
		name string
		node domain.Node
	}{
		{"source", src},
		{"left", left},
		{"right", right},
		{"sink", sink},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, fmt.Errorf("add node %q: %w", n.name, err)
		}
	}
	return sink, nil
}

func main() {
	seed := flag.Int("seed", 21, "seed value fed into the diamond graph's source node")
	printDOT := flag.Bool("dot", false, "print the graph's Graphviz DOT representation")
	configPath := flag.String("config", "", "path to a GraphOptions YAML file (overrides the flags below)")
	workers := flag.Int("workers", 4, "max concurrent node runs for the pool executor (0 picks GOMAXPROCS)")
	rateLimit := flag.Float64("rate-limit", 0, "max node executions per second for the pool executor (0 disables)")
	metricsEnabled := flag.Bool("metrics", false, "record PrometheusMetrics for both runs")
	tracingEnabled := flag.Bool("tracing", false, "open an OTel span per node run for both runs")
	flag.Parse()

	opts := application.GraphOptions{
		Name:               "diamond",
		MaxWorkers:         *workers,
		RateLimitPerSecond: *rateLimit,
		MetricsEnabled:     *metricsEnabled,
		TracingEnabled:     *tracingEnabled,
	}
	if *configPath != "" {
		loaded, err := application.LoadGraphOptions(*configPath)
		if err != nil {
			log.Fatalf("load graph options: %v", err)
		}
		opts = loaded
	}
	if err := opts.Validate(); err != nil {
		log.Fatalf("graph options: %v", err)
	}

	graphOpts := middleware.GraphOptionsFor(opts)

	serialGraph := application.NewGraph(graphOpts...)
	serialSink, err := buildDiamond(serialGraph, *seed)
	if err != nil {
		log.Fatalf("build graph: %v", err)
	}
	if err := executor.NewSerialExecutor(serialGraph).Run(); err != nil {
		log.Fatalf("serial run: %v", err)
	}
	fmt.Printf("serial executor result: %d\n", serialSink.result)

	poolGraph := application.NewGraph(graphOpts...)
	poolSink, err := buildDiamond(poolGraph, *seed)
	if err != nil {
		log.Fatalf("build graph: %v", err)
	}
	pool := executor.BuildPool(opts)
	defer pool.Close()
	if err := executor.NewPoolExecutor(poolGraph, pool).Run(); err != nil {
		log.Fatalf("pool run: %v", err)
	}
	fmt.Printf("pool executor result: %d\n", poolSink.result)

	if *printDOT {
		fmt.Println(poolGraph.Print())
	}
}
