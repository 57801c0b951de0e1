package dag

import (
	"testing"

	"github.com/kegliz/statchain/sc/stat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)
	g := New()
	assert.NotNil(g)
	assert.Equal(Eager, g.Strategy())
	assert.Empty(g.Vertices())
	assert.Empty(g.Edges())

	g = New(WithStrategy(Lazy))
	assert.Equal(Lazy, g.Strategy())
}

func TestAddVertex(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()

	require.NoError(g.AddVertex("a", stat.NewMean()))
	require.NoError(g.AddVertex("b", stat.NewSum()))
	assert.Equal([]VertexID{"a", "b"}, g.Vertices())

	err := g.AddVertex("a", stat.NewMean())
	assert.ErrorIs(err, ErrDuplicateVertex)
	assert.Len(g.Vertices(), 2)

	assert.Error(g.AddVertex("c", nil))

	dirty, err := g.IsDirty("a")
	require.NoError(err)
	assert.True(dirty)
	_, computed, err := g.CachedValue("a")
	require.NoError(err)
	assert.False(computed)
}

func TestConnect(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.AddVertex("a", stat.NewMean()))
	require.NoError(g.AddVertex("b", stat.NewMean()))

	require.NoError(g.Connect("a", "b"))
	assert.True(g.HasEdge("a", "b"))
	assert.False(g.HasEdge("b", "a"))

	parents, err := g.Parents("b")
	require.NoError(err)
	assert.Equal([]VertexID{"a"}, parents)
	children, err := g.Children("a")
	require.NoError(err)
	assert.Equal([]VertexID{"b"}, children)

	assert.ErrorIs(g.Connect("a", "b"), ErrDuplicateEdge)
	assert.ErrorIs(g.Connect("a", "nope"), ErrUnknownVertex)
	assert.ErrorIs(g.Connect("nope", "b"), ErrUnknownVertex)
	assert.ErrorIs(g.Connect("a", "a"), ErrCycle)
}

func TestConnectCycleRejected(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	for _, id := range []VertexID{"a", "b", "c"} {
		require.NoError(g.AddVertex(id, stat.NewMean()))
	}
	require.NoError(g.Connect("a", "b"))
	require.NoError(g.Connect("b", "c"))

	before := g.Edges()
	assert.ErrorIs(g.Connect("c", "a"), ErrCycle)
	assert.Equal(before, g.Edges())
	require.NoError(g.Validate())
}

func TestConnectMany(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	for _, id := range []VertexID{"x", "y", "z"} {
		require.NoError(g.AddVertex(id, stat.NewMean()))
	}
	sum := func(xs ...float64) float64 {
		var s float64
		for _, x := range xs {
			s += x
		}
		return s
	}
	require.NoError(g.ConnectMany([]VertexID{"x", "y"}, "z", WithTransform(sum)))

	parents, err := g.Parents("z")
	require.NoError(err)
	assert.Equal([]VertexID{"x", "y"}, parents)
	for _, src := range []VertexID{"x", "y"} {
		has, err := g.HasTransform(src, "z")
		require.NoError(err)
		assert.True(has)
	}
}

func TestTopologicalOrder(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	// diamond with an isolated extra vertex
	for _, id := range []VertexID{"a", "b", "c", "d", "e"} {
		require.NoError(g.AddVertex(id, stat.NewMean()))
	}
	require.NoError(g.Connect("a", "b"))
	require.NoError(g.Connect("a", "c"))
	require.NoError(g.Connect("b", "d"))
	require.NoError(g.Connect("c", "d"))

	order, err := g.TopologicalOrder()
	require.NoError(err)
	assert.Equal([]VertexID{"a", "b", "c", "d", "e"}, order)

	// structural mutation invalidates the memoized order
	require.NoError(g.AddVertex("f", stat.NewMean()))
	require.NoError(g.Connect("d", "f"))
	order, err = g.TopologicalOrder()
	require.NoError(err)
	assert.Equal([]VertexID{"a", "b", "c", "d", "e", "f"}, order)
}

func TestEdgesEnumeration(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	for _, id := range []VertexID{"a", "b", "c"} {
		require.NoError(g.AddVertex(id, stat.NewMean()))
	}
	require.NoError(g.Connect("a", "b", WithFilter(func(x float64) bool { return x > 0 })))
	require.NoError(g.Connect("a", "c", WithTransform(func(xs ...float64) float64 { return xs[0] * 2 })))

	assert.Equal([]EdgeInfo{
		{Src: "a", Dst: "b", Filtered: true},
		{Src: "a", Dst: "c", Transformed: true},
	}, g.Edges())

	has, err := g.HasFilter("a", "b")
	require.NoError(err)
	assert.True(has)
	has, err = g.HasTransform("a", "b")
	require.NoError(err)
	assert.False(has)

	f, err := g.FilterOf("a", "b")
	require.NoError(err)
	require.NotNil(f)
	assert.True(f(1))
	assert.False(f(-1))

	tr, err := g.TransformOf("a", "c")
	require.NoError(err)
	require.NotNil(tr)
	assert.Equal(6.0, tr(3))

	_, err = g.FilterOf("b", "c")
	assert.ErrorIs(err, ErrUnknownEdge)
	_, err = g.FilterOf("a", "nope")
	assert.ErrorIs(err, ErrUnknownVertex)
}

func TestStatReflection(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.AddVertex("a", stat.NewVariance()))

	name, err := g.StatName("a")
	require.NoError(err)
	assert.Equal("Variance", name)

	n, err := g.SampleCount("a")
	require.NoError(err)
	assert.Zero(n)

	_, err = g.StatName("nope")
	assert.ErrorIs(err, ErrUnknownVertex)
}

func TestParseStrategy(t *testing.T) {
	assert := assert.New(t)
	for name, want := range map[string]Strategy{
		"eager": Eager, "Lazy": Lazy, " partial ": Partial,
	} {
		got, err := ParseStrategy(name)
		assert.NoError(err, name)
		assert.Equal(want, got, name)
	}
	_, err := ParseStrategy("bogus")
	assert.ErrorIs(err, ErrInvalidStrategy)
}

func TestSetStrategy(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.SetStrategy(Partial))
	assert.Equal(Partial, g.Strategy())
	assert.ErrorIs(g.SetStrategy(Strategy(42)), ErrInvalidStrategy)
	assert.Equal(Partial, g.Strategy())
	assert.Equal("partial", Partial.String())
}
