// Package snapshot materializes the read surface of a chain graph into a
// serializable form shaped as Cytoscape-style elements, ready for
// dashboards and visualizers.
package snapshot

import "github.com/kegliz/statchain/sc/dag"

type (
	// NodeData is the per-vertex payload of one snapshot element.
	NodeData struct {
		ID       string  `json:"id"`
		Stat     string  `json:"stat"`
		Value    float64 `json:"value"`
		Computed bool    `json:"computed"`
		Dirty    bool    `json:"dirty"`
		Samples  uint64  `json:"samples"`
	}

	// EdgeData is the per-edge payload of one snapshot element.
	EdgeData struct {
		ID          string `json:"id"`
		Source      string `json:"source"`
		Target      string `json:"target"`
		Filtered    bool   `json:"filtered"`
		Transformed bool   `json:"transformed"`
	}

	Node struct {
		Data NodeData `json:"data"`
	}

	Edge struct {
		Data EdgeData `json:"data"`
	}

	Elements struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}

	// Snapshot is a point-in-time view of a graph.
	Snapshot struct {
		Strategy string   `json:"strategy"`
		Order    []string `json:"order"`
		Elements Elements `json:"elements"`
	}
)

// Take reads the graph into a Snapshot. It uses cached values only and
// never triggers recomputation, so it is safe under any strategy.
func Take(g *dag.Graph) (*Snapshot, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Strategy: g.Strategy().String(),
		Order:    make([]string, len(order)),
	}
	for i, id := range order {
		s.Order[i] = string(id)
	}

	for _, id := range g.Vertices() {
		name, err := g.StatName(id)
		if err != nil {
			return nil, err
		}
		value, computed, err := g.CachedValue(id)
		if err != nil {
			return nil, err
		}
		dirty, err := g.IsDirty(id)
		if err != nil {
			return nil, err
		}
		samples, err := g.SampleCount(id)
		if err != nil {
			return nil, err
		}
		s.Elements.Nodes = append(s.Elements.Nodes, Node{Data: NodeData{
			ID:       string(id),
			Stat:     name,
			Value:    value,
			Computed: computed,
			Dirty:    dirty,
			Samples:  samples,
		}})
	}

	for _, e := range g.Edges() {
		s.Elements.Edges = append(s.Elements.Edges, Edge{Data: EdgeData{
			ID:          string(e.Src) + "->" + string(e.Dst),
			Source:      string(e.Src),
			Target:      string(e.Dst),
			Filtered:    e.Filtered,
			Transformed: e.Transformed,
		}})
	}
	return s, nil
}
