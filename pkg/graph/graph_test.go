package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptGraph_Empty(t *testing.T) {
	var g AdaptGraph

	assert.Equal(t, 0, g.Size())
	assert.Equal(t, 0, g.NumEdges())
	assert.True(t, g.IsEmpty())
	assert.Empty(t, g.Verts())
	assert.Equal(t, "[||]", g.String())
}

func TestAdaptGraph_NewVertex(t *testing.T) {
	var g AdaptGraph

	a := g.NewVertex()
	b := g.NewVertex()
	c := g.NewVertex()

	assert.Equal(t, VertID(0), a)
	assert.Equal(t, VertID(1), b)
	assert.Equal(t, VertID(2), c)
	assert.Equal(t, 3, g.Size())
	assert.Equal(t, []VertID{0, 1, 2}, g.Verts())
}

func TestAdaptGraph_VertexRecycling(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(4)
	g.AddEdge(0, 5, 1)
	g.AddEdge(1, 3, 2)

	g.Forget(1)

	assert.Equal(t, []VertID{0, 2, 3}, g.Verts())
	assert.Equal(t, 0, g.NumEdges())

	// The freed id comes back, with no incident edges.
	v := g.NewVertex()
	assert.Equal(t, VertID(1), v)
	assert.Empty(t, g.Succs(v))
	assert.Empty(t, g.Preds(v))
	assert.Equal(t, 4, g.Size())
}

func TestAdaptGraph_AddEdge(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(3)

	g.AddEdge(0, 5, 1)
	g.AddEdge(1, 3, 2)

	assert.Equal(t, 2, g.NumEdges())
	assert.False(t, g.IsEmpty())
	assert.True(t, g.Elem(0, 1))
	assert.False(t, g.Elem(1, 0))

	w, err := g.EdgeVal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Weight(5), w)
}

func TestAdaptGraph_EdgeVal_Missing(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(2)

	_, err := g.EdgeVal(0, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEdge)
}

func TestAdaptGraph_UpdateEdge(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(3)
	g.AddEdge(0, 5, 1)
	g.AddEdge(1, 3, 2)

	// Tightens: min(5, 2) = 2.
	g.UpdateEdge(0, 2, 1)
	w, err := g.EdgeVal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Weight(2), w)

	// Looser bound is ignored.
	g.UpdateEdge(0, 10, 1)
	w, err = g.EdgeVal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Weight(2), w)

	// Absent edge is inserted.
	g.UpdateEdge(2, 7, 0)
	assert.Equal(t, 3, g.NumEdges())
	w, err = g.EdgeVal(2, 0)
	require.NoError(t, err)
	assert.Equal(t, Weight(7), w)
}

func TestAdaptGraph_SetEdge(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(2)
	g.AddEdge(0, 5, 1)

	// Overwrites unconditionally, even upward.
	g.SetEdge(0, 9, 1)
	w, err := g.EdgeVal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Weight(9), w)
	assert.Equal(t, 1, g.NumEdges())

	g.SetEdge(1, 4, 0)
	assert.Equal(t, 2, g.NumEdges())
}

func TestAdaptGraph_Lookup(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(2)
	g.AddEdge(0, 5, 1)

	ref, ok := g.Lookup(0, 1)
	require.True(t, ok)
	assert.Equal(t, Weight(5), ref.Get())

	ref.Set(2)
	w, err := g.EdgeVal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Weight(2), w)

	_, ok = g.Lookup(1, 0)
	assert.False(t, ok)
}

// TestAdaptGraph_AdjacencySymmetry checks that the successor and predecessor
// views always agree, including on weights, after a mixed workload.
func TestAdaptGraph_AdjacencySymmetry(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(10)

	for s := VertID(0); s < 10; s++ {
		for d := VertID(0); d < 10; d++ {
			if (int(s)+int(d)*3)%4 == 0 {
				g.UpdateEdge(s, Weight(int64(s)*10+int64(d)), d)
			}
		}
	}
	g.Forget(4)
	g.Forget(7)

	total := 0
	for _, v := range g.Verts() {
		for _, e := range g.ESuccs(v) {
			total++
			assert.True(t, g.Elem(v, e.Vert))
			found := false
			for _, p := range g.EPreds(e.Vert) {
				if p.Vert == v {
					found = true
					assert.Equal(t, e.Weight, p.Weight)
				}
			}
			assert.True(t, found, "edge %d->%d missing from pred view", v, e.Vert)
		}
	}
	assert.Equal(t, g.NumEdges(), total)
}

func TestAdaptGraph_Forget_SelfLoop(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(3)
	g.AddEdge(1, 4, 1)
	g.AddEdge(0, 2, 1)
	g.AddEdge(1, 3, 2)

	g.Forget(1)

	assert.Equal(t, 0, g.NumEdges())
	assert.Empty(t, g.Succs(0))
	assert.Empty(t, g.Preds(2))
}

func TestAdaptGraph_Forget_Idempotent(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(2)
	g.AddEdge(0, 1, 1)

	g.Forget(0)
	g.Forget(0)

	assert.Equal(t, 0, g.NumEdges())
	// Only one recycled id is handed out.
	assert.Equal(t, VertID(0), g.NewVertex())
	assert.Equal(t, VertID(2), g.NewVertex())
}

func TestAdaptGraph_WeightSlotReuse(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(4)
	g.AddEdge(0, 10, 1)
	g.AddEdge(0, 20, 2)

	g.Forget(1)
	g.AddEdge(2, 30, 3)

	// The surviving edge keeps its weight after the slot recycling.
	w, err := g.EdgeVal(0, 2)
	require.NoError(t, err)
	assert.Equal(t, Weight(20), w)
	w, err = g.EdgeVal(2, 3)
	require.NoError(t, err)
	assert.Equal(t, Weight(30), w)
}

func TestAdaptGraph_Copy(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(4)
	g.AddEdge(0, 5, 1)
	g.AddEdge(1, 3, 2)
	g.Forget(3)

	cp := Copy(&g)

	assert.Equal(t, g.Size(), cp.Size())
	assert.Equal(t, g.Verts(), cp.Verts())
	assert.Equal(t, g.NumEdges(), cp.NumEdges())
	w, err := cp.EdgeVal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Weight(5), w)

	// Mutating the copy leaves the original untouched.
	cp.SetEdge(0, 99, 1)
	w, err = g.EdgeVal(0, 1)
	require.NoError(t, err)
	assert.Equal(t, Weight(5), w)

	// Freed ids carry over: the copy recycles the same id next.
	assert.Equal(t, VertID(3), cp.NewVertex())
}

func TestAdaptGraph_ClearEdges(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(3)
	g.AddEdge(0, 1, 1)
	g.AddEdge(1, 2, 2)

	g.ClearEdges()

	assert.Equal(t, 3, g.Size())
	assert.Equal(t, 0, g.NumEdges())
	assert.True(t, g.IsEmpty())
	assert.False(t, g.Elem(0, 1))

	// Still usable afterwards.
	g.AddEdge(0, 7, 2)
	w, err := g.EdgeVal(0, 2)
	require.NoError(t, err)
	assert.Equal(t, Weight(7), w)
}

func TestAdaptGraph_Clear(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(3)
	g.AddEdge(0, 1, 1)

	g.Clear()

	assert.Equal(t, 0, g.Size())
	assert.Equal(t, 0, g.NumEdges())
	assert.Equal(t, VertID(0), g.NewVertex())
}

func TestAdaptGraph_String(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(3)
	g.AddEdge(0, 5, 1)
	g.AddEdge(0, 3, 2)

	assert.Equal(t, "[|[v0 -> (5:1), (3:2)]|]", g.String())
}

// TestAdaptGraph_HighDegree pushes a single vertex past the adjacency
// indexing threshold and checks the edge set stays intact.
func TestAdaptGraph_HighDegree(t *testing.T) {
	var g AdaptGraph
	g.GrowTo(64)

	for d := VertID(1); d < 64; d++ {
		g.AddEdge(0, Weight(d), d)
	}

	assert.Equal(t, 63, g.NumEdges())
	assert.Len(t, g.Succs(0), 63)
	for d := VertID(1); d < 64; d++ {
		w, err := g.EdgeVal(0, d)
		require.NoError(t, err)
		assert.Equal(t, Weight(d), w)
		assert.Equal(t, []VertID{0}, g.Preds(d))
	}
}
