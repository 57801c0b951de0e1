package dag

import "fmt"

// topoLocked returns the memoized topological order, recomputing it with
// Kahn's algorithm when a structural mutation has invalidated the cache.
// Ties are broken by vertex insertion order so the result is
// deterministic.
func (g *Graph) topoLocked() ([]VertexID, error) {
	if g.topo != nil {
		return g.topo, nil
	}

	index := make(map[VertexID]int, len(g.order))
	for i, id := range g.order {
		index[id] = i
	}

	inDeg := make(map[VertexID]int, len(g.vertices))
	for id, v := range g.vertices {
		inDeg[id] = len(v.parents)
	}

	var queue []VertexID
	for _, id := range g.order {
		if inDeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]VertexID, 0, len(g.vertices))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, ch := range g.vertices[id].children {
			inDeg[ch]--
			if inDeg[ch] == 0 {
				queue = insertByIndex(queue, ch, index)
			}
		}
	}

	if len(order) != len(g.vertices) {
		// Connect's cycle check should make this impossible.
		return nil, fmt.Errorf("%w: topological sort emitted %d of %d vertices",
			ErrStructural, len(order), len(g.vertices))
	}

	g.topo = order
	return order, nil
}

// insertByIndex keeps the pending queue sorted by vertex insertion order.
func insertByIndex(queue []VertexID, id VertexID, index map[VertexID]int) []VertexID {
	at := len(queue)
	for i, q := range queue {
		if index[id] < index[q] {
			at = i
			break
		}
	}
	queue = append(queue, "")
	copy(queue[at+1:], queue[at:])
	queue[at] = id
	return queue
}

// TopologicalOrder returns a topological order of the current graph.
func (g *Graph) TopologicalOrder() ([]VertexID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order, err := g.topoLocked()
	if err != nil {
		return nil, err
	}
	out := make([]VertexID, len(order))
	copy(out, order)
	return out, nil
}
