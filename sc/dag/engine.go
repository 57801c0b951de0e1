package dag

import (
	"fmt"

	"github.com/kegliz/statchain/sc/stat"
)

// SourceBatch pairs a source vertex with the samples to ingest there.
// FitMany takes an ordered slice of these rather than a map so the
// observer sequence is deterministic.
type SourceBatch struct {
	Source VertexID
	Values []float64
}

// Fit ingests a single sample at the given vertex and, under eager or
// partial strategy, runs one propagation wave over its descendants.
// Any vertex may be fitted directly, not only zero-parent sources.
func (g *Graph) Fit(id VertexID, x float64) error {
	return g.FitBatch(id, []float64{x})
}

// FitBatch ingests a batch of samples. It is semantically equivalent to
// repeated single-sample fits: under eager and partial each sample runs
// its own wave, so per-sample observer sequences are preserved.
func (g *Graph) FitBatch(id VertexID, xs []float64) error {
	if g.inWave {
		return ErrReentrantMutation
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.vertices[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	if len(xs) == 0 {
		return nil
	}

	g.inWave = true
	defer func() { g.inWave = false }()

	if g.strategy == Lazy {
		for _, x := range xs {
			if err := g.fitDirectLocked(v, x); err != nil {
				return err
			}
		}
		for d := range g.descendantsLocked(id) {
			g.vertices[d].dirty = true
		}
		return nil
	}

	for _, x := range xs {
		if err := g.fitDirectLocked(v, x); err != nil {
			return err
		}
		if err := g.propagateLocked(map[VertexID][]float64{id: {x}}); err != nil {
			return err
		}
	}
	return nil
}

// FitMany ingests batches at multiple sources and then runs a single
// combined propagation wave. Sources are updated in slice order; when
// several sources share a descendant, the descendant is visited once,
// consuming payloads from all updated parents.
func (g *Graph) FitMany(batches []SourceBatch) error {
	if g.inWave {
		return ErrReentrantMutation
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	// validate every id up front so a failure leaves the graph unchanged
	for _, b := range batches {
		if _, ok := g.vertices[b.Source]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVertex, b.Source)
		}
	}

	g.inWave = true
	defer func() { g.inWave = false }()

	sources := make(map[VertexID][]float64, len(batches))
	roots := make([]VertexID, 0, len(batches))
	for _, b := range batches {
		v := g.vertices[b.Source]
		for _, x := range b.Values {
			if err := g.fitDirectLocked(v, x); err != nil {
				return err
			}
		}
		if _, seen := sources[b.Source]; !seen {
			roots = append(roots, b.Source)
		}
		sources[b.Source] = append(sources[b.Source], b.Values...)
	}

	if g.strategy == Lazy {
		for d := range g.descendantsLocked(roots...) {
			g.vertices[d].dirty = true
		}
		return nil
	}
	return g.propagateLocked(sources)
}

// fitDirectLocked absorbs one sample at a vertex, refreshes its cache
// and notifies its observers.
func (g *Graph) fitDirectLocked(v *vertex, x float64) error {
	if err := v.stat.Fit(x); err != nil {
		return &AccumulatorError{Vertex: v.id, Err: err}
	}
	v.cached = v.stat.Value()
	v.computed = true
	v.dirty = false
	g.notifyLocked(v, []float64{x})
	return nil
}

// propagateLocked runs one wave from the already-updated sources. For
// each descendant visited it assembles payloads from its in-wave-updated
// parents, applies the per-edge filter and transform, fits the target
// and notifies observers. Each vertex is visited at most once per wave
// and only if at least one inbound edge produced a payload.
func (g *Graph) propagateLocked(sources map[VertexID][]float64) error {
	order, err := g.topoLocked()
	if err != nil {
		return err
	}

	// absorbed records the values each vertex actually fit this wave;
	// it is the raw stream for filter/transform edges further down.
	absorbed := make(map[VertexID][]float64, len(sources))
	updated := make(map[VertexID]bool, len(sources))
	for id, raw := range sources {
		absorbed[id] = raw
		updated[id] = true
	}

	// partial restricts the walk to the reachable subgraph up front;
	// eager walks the whole order and skips vertices with no payload.
	var reach map[VertexID]bool
	if g.strategy == Partial {
		roots := make([]VertexID, 0, len(sources))
		for id := range sources {
			roots = append(roots, id)
		}
		reach = g.descendantsLocked(roots...)
	}

	for _, id := range order {
		if updated[id] {
			continue
		}
		if reach != nil && !reach[id] {
			continue
		}
		w := g.vertices[id]

		var contrib []VertexID
		for _, p := range w.parents {
			if updated[p] {
				contrib = append(contrib, p)
			}
		}
		if len(contrib) == 0 {
			continue
		}

		var got []float64
		if len(w.parents) > 1 {
			got, err = g.fanInLocked(w, contrib, absorbed)
		} else {
			got, err = g.singleLocked(w, contrib[0], absorbed)
		}
		if err != nil {
			return err
		}
		if got == nil {
			continue // every payload was filtered out
		}

		absorbed[id] = got
		w.cached = w.stat.Value()
		w.computed = true
		w.dirty = false
		updated[id] = true
		g.notifyLocked(w, got)
	}
	return nil
}

// singleLocked propagates along the only inbound edge of w. A plain edge
// carries the parent's computed value; a filter/transform edge carries
// each raw sample the parent absorbed this wave in turn.
func (g *Graph) singleLocked(w *vertex, pid VertexID, absorbed map[VertexID][]float64) ([]float64, error) {
	e := g.edges[edgeKey{pid, w.id}]

	var payloads []float64
	if e.filter == nil && e.transform == nil {
		payloads = []float64{g.vertices[pid].cached}
	} else {
		payloads = absorbed[pid]
	}

	var got []float64
	for _, x := range payloads {
		if e.filter != nil && !e.filter(x) {
			continue
		}
		y := x
		if e.transform != nil {
			y = e.transform(x)
		}
		if err := w.stat.Fit(y); err != nil {
			return nil, &AccumulatorError{Vertex: w.id, Err: err}
		}
		got = append(got, y)
	}
	return got, nil
}

// fanInLocked performs the aggregated fit for a multi-parent vertex: one
// input vector per wave step, ordered by the parents sequence, built
// from the in-wave-updated parents. Filters apply element-wise before
// aggregation and a false on any element suppresses the whole fit. A
// transform (shared via ConnectMany) is applied to the vector as a
// whole; absent that, the vector is fit directly.
func (g *Graph) fanInLocked(w *vertex, contrib []VertexID, absorbed map[VertexID][]float64) ([]float64, error) {
	vec := make([]float64, 0, len(contrib))
	var nary TransformFunc
	for _, pid := range contrib {
		e := g.edges[edgeKey{pid, w.id}]

		var elem float64
		if e.filter == nil && e.transform == nil {
			elem = g.vertices[pid].cached
		} else {
			raw := absorbed[pid]
			elem = raw[len(raw)-1]
		}
		if e.filter != nil && !e.filter(elem) {
			return nil, nil
		}
		if e.transform != nil && nary == nil {
			nary = e.transform
		}
		vec = append(vec, elem)
	}

	if nary != nil {
		y := nary(vec...)
		if err := w.stat.Fit(y); err != nil {
			return nil, &AccumulatorError{Vertex: w.id, Err: err}
		}
		return []float64{y}, nil
	}
	if err := fitVector(w.stat, vec); err != nil {
		return nil, &AccumulatorError{Vertex: w.id, Err: err}
	}
	return vec, nil
}

// fitVector fits an ordered sample vector, using the accumulator's
// native vector support when it has one.
func fitVector(acc stat.Accumulator, vec []float64) error {
	if va, ok := acc.(stat.VectorAccumulator); ok {
		return va.FitVector(vec)
	}
	for _, x := range vec {
		if err := acc.Fit(x); err != nil {
			return err
		}
	}
	return nil
}

// Value returns the vertex's current value. Under lazy and partial it
// first recomputes the dirty ancestor closure of the vertex in
// topological order, feeding each dirty vertex from its parents' cached
// values. Under partial the dirty vertices are those marked by
// Invalidate and those no wave has updated since they were added.
func (g *Graph) Value(id VertexID) (float64, error) {
	if g.inWave {
		return 0, ErrReentrantMutation
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.vertices[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}

	if g.strategy != Eager {
		g.inWave = true
		err := g.recomputeClosureLocked(id)
		g.inWave = false
		if err != nil {
			return 0, err
		}
	}

	if !v.computed {
		return v.stat.Value(), nil
	}
	return v.cached, nil
}

// Recompute forces a refresh of every dirty vertex in topological order.
func (g *Graph) Recompute() error {
	if g.inWave {
		return ErrReentrantMutation
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	order, err := g.topoLocked()
	if err != nil {
		return err
	}
	g.inWave = true
	defer func() { g.inWave = false }()

	for _, id := range order {
		v := g.vertices[id]
		if v.dirty {
			if err := g.refreshLocked(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Invalidate marks the vertex and all its descendants dirty so the next
// Value or Recompute refreshes them. Only meaningful under lazy and
// partial strategies.
func (g *Graph) Invalidate(id VertexID) error {
	if g.inWave {
		return ErrReentrantMutation
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.strategy == Eager {
		return fmt.Errorf("%w: invalidate is a lazy/partial operation", ErrInvalidStrategy)
	}
	v, ok := g.vertices[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	v.dirty = true
	for d := range g.descendantsLocked(id) {
		g.vertices[d].dirty = true
	}
	return nil
}

// recomputeClosureLocked refreshes the dirty ancestors of id (including
// id itself) in topological order.
func (g *Graph) recomputeClosureLocked(id VertexID) error {
	anc := g.ancestorsLocked(id)
	order, err := g.topoLocked()
	if err != nil {
		return err
	}
	for _, u := range order {
		if !anc[u] {
			continue
		}
		v := g.vertices[u]
		if v.dirty {
			if err := g.refreshLocked(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// refreshLocked re-derives one dirty vertex from its parents' cached
// values. The per-sample raw stream was not buffered, so filter and
// transform edges receive the cached value as the payload here; this
// asymmetry with eager propagation is inherent to lazy evaluation.
// On an accumulator error the vertex stays dirty so a later Value call
// retries.
func (g *Graph) refreshLocked(v *vertex) error {
	if len(v.parents) == 0 {
		if v.stat.N() > 0 {
			v.cached = v.stat.Value()
			v.computed = true
		}
		v.dirty = false
		return nil
	}

	if len(v.parents) == 1 {
		p := g.vertices[v.parents[0]]
		if !p.computed {
			v.dirty = false
			return nil
		}
		e := g.edges[edgeKey{p.id, v.id}]
		x := p.cached
		if e.filter != nil && !e.filter(x) {
			v.dirty = false
			return nil
		}
		y := x
		if e.transform != nil {
			y = e.transform(x)
		}
		if err := v.stat.Fit(y); err != nil {
			return &AccumulatorError{Vertex: v.id, Err: err}
		}
		v.cached = v.stat.Value()
		v.computed = true
		v.dirty = false
		g.notifyLocked(v, []float64{y})
		return nil
	}

	vec := make([]float64, 0, len(v.parents))
	var nary TransformFunc
	for _, pid := range v.parents {
		p := g.vertices[pid]
		if !p.computed {
			continue
		}
		e := g.edges[edgeKey{pid, v.id}]
		x := p.cached
		if e.filter != nil && !e.filter(x) {
			v.dirty = false
			return nil
		}
		if e.transform != nil && nary == nil {
			nary = e.transform
		}
		vec = append(vec, x)
	}
	if len(vec) == 0 {
		v.dirty = false
		return nil
	}

	var got []float64
	if nary != nil {
		y := nary(vec...)
		if err := v.stat.Fit(y); err != nil {
			return &AccumulatorError{Vertex: v.id, Err: err}
		}
		got = []float64{y}
	} else {
		if err := fitVector(v.stat, vec); err != nil {
			return &AccumulatorError{Vertex: v.id, Err: err}
		}
		got = vec
	}
	v.cached = v.stat.Value()
	v.computed = true
	v.dirty = false
	g.notifyLocked(v, got)
	return nil
}
