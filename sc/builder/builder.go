// Package builder implements a *fluent* declarative DSL for assembling
// accumulator chains on top of the dag package.
package builder

import (
	"fmt"

	"github.com/kegliz/statchain/sc/dag"
	"github.com/kegliz/statchain/sc/stat"
)

// Builder declares vertices and edges and finally yields the graph.
type Builder interface {
	// Vertex adds a vertex holding the given accumulator.
	Vertex(id dag.VertexID, acc stat.Accumulator) Builder
	// VertexNamed adds a vertex resolving the accumulator by name via
	// the stat registry.
	VertexNamed(id dag.VertexID, statName string) Builder

	// Edge adds a plain edge src -> dst.
	Edge(src, dst dag.VertexID) Builder
	// EdgeWith adds an edge with filter/transform options.
	EdgeWith(src, dst dag.VertexID, opts ...dag.EdgeOption) Builder
	// FanIn connects all sources to dst with shared options.
	FanIn(srcs []dag.VertexID, dst dag.VertexID, opts ...dag.EdgeOption) Builder

	// Observe registers an observer on the vertex.
	Observe(id dag.VertexID, fn dag.ObserverFunc) Builder

	// Build returns the assembled graph, or the first recorded error.
	// The builder becomes invalid after this call.
	Build() (*dag.Graph, error)
}

// New returns a fresh Builder.
func New(opts ...Option) Builder { return newBuilder(opts...) }

// ---------------------------- implementation -------------------------

type b struct {
	g     *dag.Graph
	err   error
	built bool
}

func newBuilder(opts ...Option) *b {
	cfg := config{strategy: dag.Eager}
	for _, o := range opts {
		o(&cfg)
	}
	gopts := []dag.Option{dag.WithStrategy(cfg.strategy)}
	if cfg.logger != nil {
		gopts = append(gopts, dag.WithLogger(cfg.logger))
	}
	return &b{g: dag.New(gopts...)}
}

// helper: bail-out pattern
func (b *b) bail(err error) Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *b) checkState() bool {
	return b.built || b.err != nil
}

func (b *b) Vertex(id dag.VertexID, acc stat.Accumulator) Builder {
	if b.checkState() {
		return b
	}
	if err := b.g.AddVertex(id, acc); err != nil {
		return b.bail(err)
	}
	return b
}

func (b *b) VertexNamed(id dag.VertexID, statName string) Builder {
	if b.checkState() {
		return b
	}
	acc, err := stat.Create(statName)
	if err != nil {
		return b.bail(err)
	}
	return b.Vertex(id, acc)
}

func (b *b) Edge(src, dst dag.VertexID) Builder {
	return b.EdgeWith(src, dst)
}

func (b *b) EdgeWith(src, dst dag.VertexID, opts ...dag.EdgeOption) Builder {
	if b.checkState() {
		return b
	}
	if err := b.g.Connect(src, dst, opts...); err != nil {
		return b.bail(err)
	}
	return b
}

func (b *b) FanIn(srcs []dag.VertexID, dst dag.VertexID, opts ...dag.EdgeOption) Builder {
	if b.checkState() {
		return b
	}
	if err := b.g.ConnectMany(srcs, dst, opts...); err != nil {
		return b.bail(err)
	}
	return b
}

func (b *b) Observe(id dag.VertexID, fn dag.ObserverFunc) Builder {
	if b.checkState() {
		return b
	}
	if _, err := b.g.AddObserver(id, fn); err != nil {
		return b.bail(err)
	}
	return b
}

func (b *b) Build() (*dag.Graph, error) {
	if b.built {
		return nil, fmt.Errorf("builder: Build already called")
	}
	if b.err != nil {
		return nil, b.err
	}
	if err := b.g.Validate(); err != nil {
		return nil, err
	}
	b.built = true
	return b.g, nil
}
