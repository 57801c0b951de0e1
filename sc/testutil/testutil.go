// Package testutil provides shared constants and graph fixtures for the
// sc and service tests.
package testutil

import (
	"testing"

	"github.com/kegliz/statchain/sc/builder"
	"github.com/kegliz/statchain/sc/dag"
	"github.com/kegliz/statchain/sc/stat"
	"github.com/stretchr/testify/require"
)

const (
	// Numeric tolerances
	ExactTolerance = 1e-9
	StatTolerance  = 0.1 // for estimator convergence checks

	// Fixture vertex ids
	SourceID = dag.VertexID("source")
	MeanID   = dag.VertexID("mean")
	VarID    = dag.VertexID("variance")
)

// SampleStream is a small deterministic stream used across tests.
var SampleStream = []float64{4, 1, 7, 7, 2, 9, 3}

// BuildFanOut builds source -> {mean, variance} with plain edges.
func BuildFanOut(t *testing.T, s dag.Strategy) *dag.Graph {
	t.Helper()
	g, err := builder.New(builder.Strategy(s)).
		Vertex(SourceID, stat.NewMean()).
		Vertex(MeanID, stat.NewMean()).
		Vertex(VarID, stat.NewVariance()).
		Edge(SourceID, MeanID).
		Edge(SourceID, VarID).
		Build()
	require.NoError(t, err)
	return g
}
