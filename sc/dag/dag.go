// Package dag implements a directed acyclic graph of online statistical
// accumulators. Values ingested at source vertices propagate along edges
// to descendant accumulators under one of three evaluation strategies
// (eager, lazy, partial). Edges may carry an optional filter predicate
// and an optional transform applied to the value they transport.
//
// Payload rule: an edge with neither filter nor transform carries the
// source's *computed* statistic; an edge with either carries the *raw*
// sample the source absorbed, so user predicates see original data.
package dag

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kegliz/statchain/internal/logger"
	"github.com/kegliz/statchain/sc/stat"
)

// VertexID identifies a vertex within its graph.
type VertexID string

// FilterFunc is a predicate over the value carried by an edge. A false
// result suppresses propagation along that edge for that sample.
type FilterFunc func(x float64) bool

// TransformFunc maps the value carried by an edge before it is fit into
// the target. It is called with a single argument on ordinary edges and
// with the full ordered payload vector on fan-in edges.
type TransformFunc func(xs ...float64) float64

// Strategy selects how fits propagate through the graph.
type Strategy uint8

const (
	// Eager propagates to every affected descendant as part of each fit.
	Eager Strategy = iota
	// Lazy marks descendants dirty and recomputes on demand from cached
	// parent values. Filter/transform edges receive the parent's cached
	// value as the "raw" payload: the per-sample stream is not buffered.
	Lazy
	// Partial is eager restricted to the subgraph reachable from the
	// fitted source(s).
	Partial
)

func (s Strategy) String() string {
	switch s {
	case Eager:
		return "eager"
	case Lazy:
		return "lazy"
	case Partial:
		return "partial"
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

func (s Strategy) valid() bool { return s <= Partial }

// ParseStrategy resolves a strategy by name.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "eager":
		return Eager, nil
	case "lazy":
		return Lazy, nil
	case "partial":
		return Partial, nil
	}
	return Eager, fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
}

// vertex holds one DAG vertex: the accumulator, its cached value and the
// adjacency lists in edge insertion order.
type vertex struct {
	id       VertexID
	stat     stat.Accumulator
	cached   float64
	computed bool // false until the first successful fit reaches this vertex
	dirty    bool // lazy/partial bookkeeping
	parents  []VertexID
	children []VertexID

	observers []observerEntry
}

// edge carries the optional filter and transform for one (src, dst) pair.
type edge struct {
	filter    FilterFunc
	transform TransformFunc
}

type edgeKey struct{ src, dst VertexID }

// Graph is a mutable DAG of accumulators. All methods serialize on an
// internal mutex; a fit runs to completion, including its propagation
// wave and observer callbacks, before any other call proceeds.
type Graph struct {
	mu       sync.Mutex
	vertices map[VertexID]*vertex
	order    []VertexID // vertex insertion order
	edges    map[edgeKey]*edge

	strategy Strategy
	topo     []VertexID // memoized topological order; nil when invalid

	nextObserverID ObserverID

	// inWave is true while a propagation wave (including observer
	// callbacks) is running. Mutators check it before taking the lock so
	// a reentrant call from an observer fails fast instead of
	// deadlocking. The check is only meaningful on the fitting
	// goroutine, which is where observers run.
	inWave bool

	log *logger.Logger
}

// Option configures a Graph before creation.
type Option func(*Graph)

// WithStrategy sets the initial evaluation strategy (default Eager).
func WithStrategy(s Strategy) Option {
	return func(g *Graph) { g.strategy = s }
}

// WithLogger routes captured observer panics to l. Without it they are
// logged to stderr.
func WithLogger(l *logger.Logger) Option {
	return func(g *Graph) { g.log = l }
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		vertices: make(map[VertexID]*vertex),
		edges:    make(map[edgeKey]*edge),
		strategy: Eager,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// AddVertex creates a vertex with the given accumulator. The vertex
// starts with no relations, an uncomputed cache and dirty set.
func (g *Graph) AddVertex(id VertexID, acc stat.Accumulator) error {
	if g.inWave {
		return ErrReentrantMutation
	}
	if acc == nil {
		return fmt.Errorf("dag: nil accumulator for vertex %q", id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.vertices[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateVertex, id)
	}
	g.vertices[id] = &vertex{id: id, stat: acc, dirty: true}
	g.order = append(g.order, id)
	g.topo = nil
	return nil
}

// EdgeOption configures an edge when it is connected.
type EdgeOption func(*edge)

// WithFilter attaches a predicate evaluated on the edge's payload before
// any transform; a false result suppresses propagation for that sample.
func WithFilter(f FilterFunc) EdgeOption {
	return func(e *edge) { e.filter = f }
}

// WithTransform attaches a transform applied to the edge's payload after
// the filter passes. On fan-in targets the transform receives the whole
// ordered payload vector.
func WithTransform(t TransformFunc) EdgeOption {
	return func(e *edge) { e.transform = t }
}

// Connect adds a directed edge src -> dst. It fails with ErrUnknownVertex
// if either endpoint is missing, ErrDuplicateEdge if the edge exists and
// ErrCycle if the edge would close a cycle. Neither filter nor transform
// is called here.
func (g *Graph) Connect(src, dst VertexID, opts ...EdgeOption) error {
	if g.inWave {
		return ErrReentrantMutation
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connectLocked(src, dst, opts...)
}

// ConnectMany adds one edge per source, all sharing the same options.
// This is the supported way to attach an n-ary transform to a fan-in
// target: the shared transform is applied to the assembled payload
// vector. Sources are connected in slice order; on the first failure the
// edges this call already added are removed and the error is returned,
// so the graph is left unchanged.
func (g *Graph) ConnectMany(srcs []VertexID, dst VertexID, opts ...EdgeOption) error {
	if g.inWave {
		return ErrReentrantMutation
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, src := range srcs {
		if err := g.connectLocked(src, dst, opts...); err != nil {
			for _, done := range srcs[:i] {
				delete(g.edges, edgeKey{done, dst})
				sv := g.vertices[done]
				sv.children = sv.children[:len(sv.children)-1]
			}
			if i > 0 {
				dv := g.vertices[dst]
				dv.parents = dv.parents[:len(dv.parents)-i]
			}
			return err
		}
	}
	return nil
}

func (g *Graph) connectLocked(src, dst VertexID, opts ...EdgeOption) error {
	sv, ok := g.vertices[src]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVertex, src)
	}
	dv, ok := g.vertices[dst]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVertex, dst)
	}
	key := edgeKey{src, dst}
	if _, exists := g.edges[key]; exists {
		return fmt.Errorf("%w: %q -> %q", ErrDuplicateEdge, src, dst)
	}
	if g.wouldCycle(src, dst) {
		return fmt.Errorf("%w: %q -> %q", ErrCycle, src, dst)
	}

	e := &edge{}
	for _, o := range opts {
		o(e)
	}
	g.edges[key] = e
	sv.children = append(sv.children, dst)
	dv.parents = append(dv.parents, src)
	g.topo = nil
	return nil
}

// Strategy returns the current evaluation strategy.
func (g *Graph) Strategy() Strategy {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.strategy
}

// SetStrategy switches the evaluation strategy for subsequent fits.
// Switching away from lazy does not trigger retroactive propagation;
// use Recompute to refresh dirty vertices explicitly.
func (g *Graph) SetStrategy(s Strategy) error {
	if g.inWave {
		return ErrReentrantMutation
	}
	if !s.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStrategy, s)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.strategy = s
	return nil
}

// descendantsLocked returns the set of strict descendants of the given
// roots, by DFS over the successor relation.
func (g *Graph) descendantsLocked(roots ...VertexID) map[VertexID]bool {
	seen := make(map[VertexID]bool)
	var walk func(VertexID)
	walk = func(id VertexID) {
		for _, ch := range g.vertices[id].children {
			if !seen[ch] {
				seen[ch] = true
				walk(ch)
			}
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return seen
}

// ancestorsLocked returns the set of ancestors of id, including id.
func (g *Graph) ancestorsLocked(id VertexID) map[VertexID]bool {
	seen := map[VertexID]bool{id: true}
	var walk func(VertexID)
	walk = func(v VertexID) {
		for _, p := range g.vertices[v].parents {
			if !seen[p] {
				seen[p] = true
				walk(p)
			}
		}
	}
	walk(id)
	return seen
}
