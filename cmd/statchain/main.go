package main

import (
	"fmt"

	"github.com/kegliz/statchain/sc/builder"
	"github.com/kegliz/statchain/sc/dag"
	"github.com/kegliz/statchain/sc/stat"
)

func main() {
	samples := []float64{1.0, 10.0, 3.0, 8.0, 5.0, 12.0}

	fmt.Println("--- Eager fan-out pipeline ---")
	demoFanOut(samples)
	fmt.Println("\n--- Filter and transform edges ---")
	demoFilterTransform(samples)
	fmt.Println("\n--- Lazy evaluation ---")
	demoLazy(samples)
}

// demoFanOut feeds one source into mean, variance and extrema vertices.
func demoFanOut(samples []float64) {
	g, err := builder.New().
		Vertex("ticks", stat.NewMean()).
		Vertex("mean", stat.NewMean()).
		Vertex("variance", stat.NewVariance()).
		Vertex("extrema", stat.NewExtrema()).
		Edge("ticks", "mean").
		Edge("ticks", "variance").
		Edge("ticks", "extrema").
		Build()
	if err != nil {
		fmt.Printf("Error building fan-out graph: %v\n", err)
		return
	}

	if err := g.FitBatch("ticks", samples); err != nil {
		fmt.Printf("Error ingesting samples: %v\n", err)
		return
	}
	printValues(g, "ticks", "mean", "variance", "extrema")
}

// demoFilterTransform shows raw-payload semantics: the filter and the
// transform see the original samples, not the source's running mean.
func demoFilterTransform(samples []float64) {
	g, err := builder.New().
		Vertex("ticks", stat.NewMean()).
		Vertex("spikes", stat.NewCounter()).
		Vertex("scaled", stat.NewMean()).
		EdgeWith("ticks", "spikes", dag.WithFilter(func(x float64) bool { return x > 5 })).
		EdgeWith("ticks", "scaled", dag.WithTransform(func(xs ...float64) float64 { return xs[0] * 10 })).
		Build()
	if err != nil {
		fmt.Printf("Error building filter graph: %v\n", err)
		return
	}

	if err := g.FitBatch("ticks", samples); err != nil {
		fmt.Printf("Error ingesting samples: %v\n", err)
		return
	}
	printValues(g, "ticks", "spikes", "scaled")
}

// demoLazy defers propagation until a value is read.
func demoLazy(samples []float64) {
	g, err := builder.New(builder.Strategy(dag.Lazy)).
		Vertex("ticks", stat.NewMean()).
		Vertex("mean", stat.NewMean()).
		Edge("ticks", "mean").
		Build()
	if err != nil {
		fmt.Printf("Error building lazy graph: %v\n", err)
		return
	}

	if err := g.FitBatch("ticks", samples); err != nil {
		fmt.Printf("Error ingesting samples: %v\n", err)
		return
	}
	dirty, _ := g.IsDirty("mean")
	fmt.Printf("before read: mean dirty=%v\n", dirty)
	printValues(g, "mean")
	dirty, _ = g.IsDirty("mean")
	fmt.Printf("after read:  mean dirty=%v\n", dirty)
}

func printValues(g *dag.Graph, ids ...dag.VertexID) {
	for _, id := range ids {
		v, err := g.Value(id)
		if err != nil {
			fmt.Printf("%-10s error: %v\n", id, err)
			continue
		}
		fmt.Printf("%-10s %8.4f\n", id, v)
	}
}
