package builder

import (
	"testing"

	"github.com/kegliz/statchain/sc/dag"
	"github.com/kegliz/statchain/sc/stat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChain(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	g, err := New(Strategy(dag.Partial)).
		Vertex("a", stat.NewMean()).
		VertexNamed("b", "variance").
		Edge("a", "b").
		Build()
	require.NoError(err)
	assert.Equal(dag.Partial, g.Strategy())
	assert.Equal([]dag.VertexID{"a", "b"}, g.Vertices())
	assert.True(g.HasEdge("a", "b"))

	name, err := g.StatName("b")
	require.NoError(err)
	assert.Equal("Variance", name)
}

func TestBuildFanInAndObserve(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fired := 0
	g, err := New().
		Vertex("x", stat.NewMean()).
		Vertex("y", stat.NewMean()).
		Vertex("z", stat.NewMean()).
		FanIn([]dag.VertexID{"x", "y"}, "z",
			dag.WithTransform(func(xs ...float64) float64 {
				var s float64
				for _, x := range xs {
					s += x
				}
				return s
			})).
		Observe("z", func(dag.VertexID, float64, []float64) { fired++ }).
		Build()
	require.NoError(err)

	require.NoError(g.FitMany([]dag.SourceBatch{
		{Source: "x", Values: []float64{1}},
		{Source: "y", Values: []float64{2}},
	}))
	assert.Equal(1, fired)
	v, err := g.Value("z")
	require.NoError(err)
	assert.InDelta(3.0, v, 1e-12)
}

// The first error sticks and Build reports it; later calls are no-ops.
func TestBuilderBailsOnFirstError(t *testing.T) {
	assert := assert.New(t)

	_, err := New().
		Vertex("a", stat.NewMean()).
		Vertex("a", stat.NewMean()). // duplicate
		Edge("a", "missing").        // would be another error
		Build()
	assert.ErrorIs(err, dag.ErrDuplicateVertex)

	_, err = New().
		VertexNamed("a", "bogus").
		Build()
	var unknown stat.ErrUnknownStat
	assert.ErrorAs(err, &unknown)

	_, err = New().
		Vertex("a", stat.NewMean()).
		Vertex("b", stat.NewMean()).
		Edge("a", "b").
		Edge("b", "a").
		Build()
	assert.ErrorIs(err, dag.ErrCycle)
}

func TestBuildTwice(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	b := New().Vertex("a", stat.NewMean())
	_, err := b.Build()
	require.NoError(err)
	_, err = b.Build()
	assert.Error(err)
}
