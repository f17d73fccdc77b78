package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickCao/ebpf-verifier/pkg/lin"
)

func TestCFG_New(t *testing.T) {
	c := New("entry")

	assert.Equal(t, Label("entry"), c.Entry())
	assert.False(t, c.HasExit())
	assert.Equal(t, 1, c.Size())

	_, err := c.Exit()
	assert.ErrorIs(t, err, ErrNoExit)

	b, err := c.GetNode("entry")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestCFG_NewWithExit(t *testing.T) {
	c := NewWithExit("entry", "exit")

	assert.True(t, c.HasExit())
	exit, err := c.Exit()
	require.NoError(t, err)
	assert.Equal(t, Label("exit"), exit)

	// The exit block is designated but not created until inserted.
	assert.Equal(t, 1, c.Size())
	c.Insert("exit")
	assert.Equal(t, 2, c.Size())
}

func TestCFG_SetExit(t *testing.T) {
	c := New("entry")
	c.Insert("done")
	c.SetExit("done")

	exit, err := c.Exit()
	require.NoError(t, err)
	assert.Equal(t, Label("done"), exit)
}

func TestCFG_Insert_Idempotent(t *testing.T) {
	c := New("entry")
	x := lin.Variable{Name: "x", Kind: lin.Int}

	b1 := c.Insert("a")
	b1.Assign(x, lin.Const(1))
	b2 := c.Insert("a")

	assert.Same(t, b1, b2)
	assert.Equal(t, 1, b2.Len())
	assert.Equal(t, 2, c.Size())
}

func TestCFG_GetNode_Missing(t *testing.T) {
	c := New("entry")

	_, err := c.GetNode("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingBlock)

	_, err = c.NextNodes("nope")
	assert.ErrorIs(t, err, ErrMissingBlock)
	_, err = c.PrevNodes("nope")
	assert.ErrorIs(t, err, ErrMissingBlock)
}

func TestCFG_Connect(t *testing.T) {
	c := New("entry")
	c.Insert("a")
	c.Insert("b")

	require.NoError(t, c.Connect("entry", "a"))
	require.NoError(t, c.Connect("entry", "b"))
	require.NoError(t, c.Connect("a", "b"))

	next, err := c.NextNodes("entry")
	require.NoError(t, err)
	assert.Equal(t, []Label{"a", "b"}, next)

	prev, err := c.PrevNodes("b")
	require.NoError(t, err)
	assert.Equal(t, []Label{"entry", "a"}, prev)

	// Connecting twice is a no-op.
	require.NoError(t, c.Connect("entry", "a"))
	next, err = c.NextNodes("entry")
	require.NoError(t, err)
	assert.Equal(t, []Label{"a", "b"}, next)

	err = c.Connect("entry", "nope")
	assert.ErrorIs(t, err, ErrMissingBlock)
}

func TestCFG_Disconnect(t *testing.T) {
	c := New("entry")
	c.Insert("a")
	require.NoError(t, c.Connect("entry", "a"))

	require.NoError(t, c.Disconnect("entry", "a"))

	next, err := c.NextNodes("entry")
	require.NoError(t, err)
	assert.Empty(t, next)
	prev, err := c.PrevNodes("a")
	require.NoError(t, err)
	assert.Empty(t, prev)

	// Disconnecting an absent edge is a no-op.
	require.NoError(t, c.Disconnect("entry", "a"))
}

// TestCFG_AdjacencySymmetry drives a small graph through connects,
// disconnects, and a removal, checking after each step that the successor
// and predecessor views mirror each other exactly.
func TestCFG_AdjacencySymmetry(t *testing.T) {
	c := New("entry")
	labels := []Label{"entry", "a", "b", "c", "d"}
	for _, l := range labels[1:] {
		c.Insert(l)
	}

	check := func() {
		t.Helper()
		for _, l := range c.Labels() {
			next, err := c.NextNodes(l)
			require.NoError(t, err)
			for _, n := range next {
				prev, err := c.PrevNodes(n)
				require.NoError(t, err)
				assert.Contains(t, prev, l, "edge %s->%s missing from pred view", l, n)
			}
			prev, err := c.PrevNodes(l)
			require.NoError(t, err)
			for _, p := range prev {
				next, err := c.NextNodes(p)
				require.NoError(t, err)
				assert.Contains(t, next, l, "edge %s->%s missing from succ view", p, l)
			}
		}
	}

	require.NoError(t, c.Connect("entry", "a"))
	require.NoError(t, c.Connect("entry", "b"))
	require.NoError(t, c.Connect("a", "c"))
	require.NoError(t, c.Connect("b", "c"))
	require.NoError(t, c.Connect("c", "d"))
	require.NoError(t, c.Connect("d", "a"))
	check()

	require.NoError(t, c.Disconnect("entry", "b"))
	check()

	require.NoError(t, c.Remove("c"))
	check()
	assert.Equal(t, 4, c.Size())
}

func TestCFG_Remove(t *testing.T) {
	c := NewWithExit("entry", "exit")
	c.Insert("mid")
	c.Insert("exit")
	require.NoError(t, c.Connect("entry", "mid"))
	require.NoError(t, c.Connect("mid", "exit"))

	require.NoError(t, c.Remove("mid"))

	assert.Equal(t, 2, c.Size())
	next, err := c.NextNodes("entry")
	require.NoError(t, err)
	assert.Empty(t, next)
	prev, err := c.PrevNodes("exit")
	require.NoError(t, err)
	assert.Empty(t, prev)
}

func TestCFG_Remove_Protected(t *testing.T) {
	c := NewWithExit("entry", "exit")
	c.Insert("exit")

	assert.Error(t, c.Remove("entry"))
	assert.Error(t, c.Remove("exit"))
	assert.ErrorIs(t, c.Remove("nope"), ErrMissingBlock)
	assert.Equal(t, 2, c.Size())
}

func TestCFG_Remove_SelfLoop(t *testing.T) {
	c := New("entry")
	c.Insert("loop")
	require.NoError(t, c.Connect("entry", "loop"))
	require.NoError(t, c.Connect("loop", "loop"))

	require.NoError(t, c.Remove("loop"))

	assert.Equal(t, 1, c.Size())
	next, err := c.NextNodes("entry")
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestCFG_Labels_Order(t *testing.T) {
	c := New("entry")
	c.Insert("b")
	c.Insert("a")
	c.Insert("c")

	assert.Equal(t, []Label{"entry", "b", "a", "c"}, c.Labels())

	require.NoError(t, c.Remove("a"))
	assert.Equal(t, []Label{"entry", "b", "c"}, c.Labels())

	// The returned slice is a copy.
	labels := c.Labels()
	labels[0] = "mutated"
	assert.Equal(t, []Label{"entry", "b", "c"}, c.Labels())
}

func TestCFG_String(t *testing.T) {
	c := New("entry")
	x := lin.Variable{Name: "x", Kind: lin.Int}

	c.Insert("entry").Assign(x, lin.Const(1))
	c.Insert("next").Havoc(x)
	require.NoError(t, c.Connect("entry", "next"))

	out := c.String()
	assert.Contains(t, out, "entry:\n  x = 1;\n  goto next;\n")
	assert.Contains(t, out, "next:\n  havoc(x);\n")
}

func TestBasicBlock_Builders(t *testing.T) {
	c := New("entry")
	b := c.Insert("entry")

	x := lin.Variable{Name: "x", Kind: lin.Int}
	y := lin.Variable{Name: "y", Kind: lin.Int}
	arr := lin.Variable{Name: "m", Kind: lin.ArrayInt}

	b.Add(x, lin.Var(y), lin.Const(1))
	b.Assign(y, lin.Var(x))
	b.Assume(lin.NewConstraint(lin.Var(x), lin.Leq))
	b.Havoc(y)
	b.SelectVar(x, y, lin.Const(1), lin.Const(0))
	b.Assertion(lin.NewConstraint(lin.Var(x), lin.Eq), DebugInfo{Line: 3, Col: 1})
	b.ArrayInit(arr, lin.Const(0), lin.Const(512), lin.Const(0), lin.Const(8))
	b.ArrayStore(arr, lin.Var(x), lin.Const(7), lin.Const(8), true)
	b.ArrayLoad(y, arr, lin.Var(x), lin.Const(8))

	stmts := b.Statements()
	require.Len(t, stmts, 9)
	assert.IsType(t, BinaryOp{}, stmts[0])
	assert.IsType(t, Assign{}, stmts[1])
	assert.IsType(t, Assume{}, stmts[2])
	assert.IsType(t, Havoc{}, stmts[3])
	assert.IsType(t, Select{}, stmts[4])
	assert.IsType(t, Assert{}, stmts[5])
	assert.IsType(t, ArrayInit{}, stmts[6])
	assert.IsType(t, ArrayStore{}, stmts[7])
	assert.IsType(t, ArrayLoad{}, stmts[8])

	assert.Equal(t, "x = y+1", stmts[0].String())
	assert.Equal(t, "assert(x==0) // line=3 column=1", stmts[5].String())
	assert.True(t, stmts[7].(ArrayStore).Singleton)
}

func TestDebugInfo_HasDebug(t *testing.T) {
	tests := []struct {
		name string
		d    DebugInfo
		want bool
	}{
		{"empty", DebugInfo{}, false},
		{"line and column only", DebugInfo{Line: 3, Col: 1}, true},
		{"line only", DebugInfo{Line: 7}, true},
		{"file only", DebugInfo{File: "prog.o"}, true},
		{"column only", DebugInfo{Col: 2}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.d.HasDebug())
		})
	}
}
