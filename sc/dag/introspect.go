package dag

import "fmt"

// EdgeInfo describes one edge for enumeration and serialization.
type EdgeInfo struct {
	Src, Dst    VertexID
	Filtered    bool
	Transformed bool
}

// Vertices returns all vertex ids in insertion order.
func (g *Graph) Vertices() []VertexID {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]VertexID, len(g.order))
	copy(out, g.order)
	return out
}

// Parents returns a copy of the vertex's parent ids in edge insertion order.
func (g *Graph) Parents(id VertexID) ([]VertexID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	out := make([]VertexID, len(v.parents))
	copy(out, v.parents)
	return out, nil
}

// Children returns a copy of the vertex's child ids in edge insertion order.
func (g *Graph) Children(id VertexID) ([]VertexID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	out := make([]VertexID, len(v.children))
	copy(out, v.children)
	return out, nil
}

// HasEdge reports whether the edge src -> dst exists.
func (g *Graph) HasEdge(src, dst VertexID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.edges[edgeKey{src, dst}]
	return ok
}

// Edges enumerates all edges, ordered by source vertex insertion order
// and then by edge insertion order.
func (g *Graph) Edges() []EdgeInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]EdgeInfo, 0, len(g.edges))
	for _, src := range g.order {
		for _, dst := range g.vertices[src].children {
			e := g.edges[edgeKey{src, dst}]
			out = append(out, EdgeInfo{
				Src:         src,
				Dst:         dst,
				Filtered:    e.filter != nil,
				Transformed: e.transform != nil,
			})
		}
	}
	return out
}

func (g *Graph) edgeLocked(src, dst VertexID) (*edge, error) {
	if _, ok := g.vertices[src]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVertex, src)
	}
	if _, ok := g.vertices[dst]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVertex, dst)
	}
	e, ok := g.edges[edgeKey{src, dst}]
	if !ok {
		return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownEdge, src, dst)
	}
	return e, nil
}

// HasFilter reports whether the edge carries a filter predicate.
func (g *Graph) HasFilter(src, dst VertexID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, err := g.edgeLocked(src, dst)
	if err != nil {
		return false, err
	}
	return e.filter != nil, nil
}

// FilterOf returns the edge's filter predicate, or nil if absent.
func (g *Graph) FilterOf(src, dst VertexID) (FilterFunc, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, err := g.edgeLocked(src, dst)
	if err != nil {
		return nil, err
	}
	return e.filter, nil
}

// HasTransform reports whether the edge carries a transform.
func (g *Graph) HasTransform(src, dst VertexID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, err := g.edgeLocked(src, dst)
	if err != nil {
		return false, err
	}
	return e.transform != nil, nil
}

// TransformOf returns the edge's transform, or nil if absent.
func (g *Graph) TransformOf(src, dst VertexID) (TransformFunc, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, err := g.edgeLocked(src, dst)
	if err != nil {
		return nil, err
	}
	return e.transform, nil
}

// StatName returns the canonical name of the vertex's accumulator.
func (g *Graph) StatName(id VertexID) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	return v.stat.Name(), nil
}

// SampleCount returns how many samples the vertex's accumulator has absorbed.
func (g *Graph) SampleCount(id VertexID) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	return v.stat.N(), nil
}

// IsDirty reports whether the vertex's cached value may be stale.
func (g *Graph) IsDirty(id VertexID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	return v.dirty, nil
}

// CachedValue returns the vertex's cached value without triggering any
// recomputation. The second result is false while the vertex has never
// been computed.
func (g *Graph) CachedValue(id VertexID) (float64, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vertices[id]
	if !ok {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	return v.cached, v.computed, nil
}
