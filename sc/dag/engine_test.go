package dag

import (
	"errors"
	"testing"

	"github.com/kegliz/statchain/sc/stat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing is a test accumulator whose Fit starts erroring after a number
// of successful calls.
type failing struct {
	n         uint64
	failAfter uint64
}

func (f *failing) Name() string { return "Failing" }
func (f *failing) N() uint64    { return f.n }

func (f *failing) Fit(_ float64) error {
	if f.n >= f.failAfter {
		return errors.New("boom")
	}
	f.n++
	return nil
}

func (f *failing) Value() float64 { return float64(f.n) }

func meanChain(t *testing.T, g *Graph, ids ...VertexID) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, g.AddVertex(id, stat.NewMean()))
	}
	for i := 1; i < len(ids); i++ {
		require.NoError(t, g.Connect(ids[i-1], ids[i]))
	}
}

func value(t *testing.T, g *Graph, id VertexID) float64 {
	t.Helper()
	v, err := g.Value(id)
	require.NoError(t, err)
	return v
}

func TestFitUnknownVertex(t *testing.T) {
	g := New()
	assert.ErrorIs(t, g.Fit("nope", 1), ErrUnknownVertex)
	assert.ErrorIs(t, g.FitBatch("nope", []float64{1}), ErrUnknownVertex)
	_, err := g.Value("nope")
	assert.ErrorIs(t, err, ErrUnknownVertex)
}

// Plain edges carry the source's computed statistic, not the raw sample:
// b absorbs the running mean of a after each fit.
func TestComputedPayloadOnPlainEdge(t *testing.T) {
	assert := assert.New(t)
	g := New()
	meanChain(t, g, "a", "b")

	require.NoError(t, g.FitBatch("a", []float64{1, 2, 3}))
	assert.InDelta(2.0, value(t, g, "a"), 1e-12)
	// b saw 1, 1.5, 2 - the per-step means of a - not 1, 2, 3
	assert.InDelta(1.5, value(t, g, "b"), 1e-12)
}

// A filter edge carries raw samples, so the predicate sees original data.
func TestFilterSuppression(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.AddVertex("a", stat.NewMean()))
	require.NoError(g.AddVertex("b", stat.NewMean()))
	require.NoError(g.Connect("a", "b", WithFilter(func(x float64) bool { return x > 5 })))

	require.NoError(g.FitBatch("a", []float64{1.0, 10.0, 3.0, 8.0}))
	assert.InDelta(5.5, value(t, g, "a"), 1e-12)
	assert.InDelta(9.0, value(t, g, "b"), 1e-12) // mean of 10 and 8 only

	n, err := g.SampleCount("b")
	require.NoError(err)
	assert.Equal(uint64(2), n)
}

func TestTransformEdge(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.AddVertex("celsius", stat.NewMean()))
	require.NoError(g.AddVertex("fahrenheit", stat.NewMean()))
	require.NoError(g.Connect("celsius", "fahrenheit",
		WithTransform(func(xs ...float64) float64 { return xs[0]*9/5 + 32 })))

	require.NoError(g.FitBatch("celsius", []float64{0, 10, 20, 30}))
	assert.InDelta(15.0, value(t, g, "celsius"), 1e-12)
	assert.InDelta(59.0, value(t, g, "fahrenheit"), 1e-12)
}

func TestFilterThenTransform(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.AddVertex("a", stat.NewMean()))
	require.NoError(g.AddVertex("b", stat.NewSum()))
	require.NoError(g.Connect("a", "b",
		WithFilter(func(x float64) bool { return x > 0 }),
		WithTransform(func(xs ...float64) float64 { return xs[0] * 10 })))

	require.NoError(g.FitBatch("a", []float64{1, -2, 3}))
	// -2 is filtered before the transform runs; b sums 10 and 30
	assert.InDelta(40.0, value(t, g, "b"), 1e-12)
}

// Diamond fan-in: d is fit once per wave with the ordered payload vector
// of its updated parents.
func TestDiamondFanIn(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	for _, id := range []VertexID{"a", "b", "c", "d"} {
		require.NoError(g.AddVertex(id, stat.NewMean()))
	}
	require.NoError(g.Connect("a", "b"))
	require.NoError(g.Connect("a", "c"))
	require.NoError(g.Connect("b", "d"))
	require.NoError(g.Connect("c", "d"))

	var vectors [][]float64
	_, err := g.AddObserver("d", func(_ VertexID, _ float64, raw []float64) {
		cp := make([]float64, len(raw))
		copy(cp, raw)
		vectors = append(vectors, cp)
	})
	require.NoError(err)

	require.NoError(g.FitBatch("a", []float64{1, 2, 3}))

	assert.InDelta(2.0, value(t, g, "a"), 1e-12)
	assert.InDelta(1.5, value(t, g, "b"), 1e-12)
	assert.InDelta(1.5, value(t, g, "c"), 1e-12)

	// per-sample vectors presented to d: the running means of b and c
	assert.Equal([][]float64{{1, 1}, {1.25, 1.25}, {1.5, 1.5}}, vectors)
	// d absorbed all six elements
	assert.InDelta(1.25, value(t, g, "d"), 1e-12)
	n, err := g.SampleCount("d")
	require.NoError(err)
	assert.Equal(uint64(6), n)
}

func TestFanInNAryTransform(t *testing.T) {
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

	require.NoError(g.FitMany([]SourceBatch{
		{Source: "x", Values: []float64{2}},
		{Source: "y", Values: []float64{4}},
	}))

	// z was fit once with sum(2, 4)
	assert.InDelta(6.0, value(t, g, "z"), 1e-12)
	n, err := g.SampleCount("z")
	require.NoError(err)
	assert.Equal(uint64(1), n)
}

func TestFanInFilterSuppressesWholeFit(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	for _, id := range []VertexID{"x", "y", "z"} {
		require.NoError(g.AddVertex(id, stat.NewMean()))
	}
	require.NoError(g.ConnectMany([]VertexID{"x", "y"}, "z",
		WithFilter(func(x float64) bool { return x > 0 })))

	require.NoError(g.FitMany([]SourceBatch{
		{Source: "x", Values: []float64{5}},
		{Source: "y", Values: []float64{-1}},
	}))

	// y's element fails the predicate, so z is not fit at all
	n, err := g.SampleCount("z")
	require.NoError(err)
	assert.Zero(n)
	dirty, err := g.IsDirty("z")
	require.NoError(err)
	assert.True(dirty) // never updated since creation
}

func TestFitManySharedDescendantVisitedOnce(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	for _, id := range []VertexID{"a", "b", "c"} {
		require.NoError(g.AddVertex(id, stat.NewMean()))
	}
	require.NoError(g.Connect("a", "c"))
	require.NoError(g.Connect("b", "c"))

	visits := 0
	_, err := g.AddObserver("c", func(VertexID, float64, []float64) { visits++ })
	require.NoError(err)

	require.NoError(g.FitMany([]SourceBatch{
		{Source: "a", Values: []float64{1}},
		{Source: "b", Values: []float64{3}},
	}))

	assert.Equal(1, visits)
	assert.InDelta(2.0, value(t, g, "c"), 1e-12)
	n, err := g.SampleCount("c")
	require.NoError(err)
	assert.Equal(uint64(2), n) // vector fit of [1, 3]
}

func TestFitManyUnknownSourceLeavesGraphUnchanged(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.AddVertex("a", stat.NewMean()))

	err := g.FitMany([]SourceBatch{
		{Source: "a", Values: []float64{1}},
		{Source: "nope", Values: []float64{2}},
	})
	assert.ErrorIs(err, ErrUnknownVertex)

	n, err := g.SampleCount("a")
	require.NoError(err)
	assert.Zero(n)
}

// Batch ingestion is equivalent to repeated scalar fits under eager and
// partial.
func TestBatchEquivalence(t *testing.T) {
	assert := assert.New(t)
	samples := []float64{4, 1, 7, 7, 2, 9}

	for _, strategy := range []Strategy{Eager, Partial} {
		batch := New(WithStrategy(strategy))
		meanChain(t, batch, "a", "b", "c")
		require.NoError(t, batch.FitBatch("a", samples))

		scalar := New(WithStrategy(strategy))
		meanChain(t, scalar, "a", "b", "c")
		for _, x := range samples {
			require.NoError(t, scalar.Fit("a", x))
		}

		for _, id := range []VertexID{"a", "b", "c"} {
			assert.InDelta(value(t, batch, id), value(t, scalar, id), 1e-12, strategy.String())
		}
	}
}

// Partial behaves like eager on the reachable subgraph and skips the rest.
func TestPartialMatchesEagerOnReachableSubgraph(t *testing.T) {
	assert := assert.New(t)
	build := func(s Strategy) *Graph {
		g := New(WithStrategy(s))
		meanChain(t, g, "a", "b")
		meanChain(t, g, "x", "y") // disconnected chain
		return g
	}

	eager, partial := build(Eager), build(Partial)
	for _, g := range []*Graph{eager, partial} {
		require.NoError(t, g.FitBatch("a", []float64{1, 2, 3}))
	}

	assert.Equal(value(t, eager, "b"), value(t, partial, "b"))
	for _, g := range []*Graph{eager, partial} {
		n, err := g.SampleCount("y")
		require.NoError(t, err)
		assert.Zero(n)
	}
}

func TestAccumulatorErrorAbortsWave(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.AddVertex("a", stat.NewMean()))
	require.NoError(g.AddVertex("f", &failing{}))
	require.NoError(g.AddVertex("z", stat.NewMean()))
	require.NoError(g.Connect("a", "f"))
	require.NoError(g.Connect("f", "z"))

	fired := false
	_, err := g.AddObserver("f", func(VertexID, float64, []float64) { fired = true })
	require.NoError(err)

	err = g.Fit("a", 1)
	var accErr *AccumulatorError
	require.ErrorAs(err, &accErr)
	assert.Equal(VertexID("f"), accErr.Vertex)

	// the failing vertex was not cached, its observers did not fire and
	// the wave stopped before z
	_, computed, err := g.CachedValue("f")
	require.NoError(err)
	assert.False(computed)
	assert.False(fired)
	n, err := g.SampleCount("z")
	require.NoError(err)
	assert.Zero(n)

	// the source itself was updated before the wave aborted
	assert.InDelta(1.0, value(t, g, "a"), 1e-12)
}

func TestInvalidateRequiresLazyOrPartial(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := New()
	require.NoError(g.AddVertex("a", stat.NewMean()))
	assert.ErrorIs(g.Invalidate("a"), ErrInvalidStrategy)

	require.NoError(g.SetStrategy(Partial))
	assert.ErrorIs(g.Invalidate("nope"), ErrUnknownVertex)
	require.NoError(g.Invalidate("a"))
	dirty, err := g.IsDirty("a")
	require.NoError(err)
	assert.True(dirty)
}
