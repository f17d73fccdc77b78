package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickCao/ebpf-verifier/pkg/lin"
)

func TestCFG_CollectStats_Empty(t *testing.T) {
	c := New("entry")
	assert.Equal(t, Stats{}, c.CollectStats())
}

func TestCFG_CollectStats(t *testing.T) {
	c := NewWithExit("entry", "exit")
	x := lin.Variable{Name: "x", Kind: lin.Int}
	arr := lin.Variable{Name: "m", Kind: lin.ArrayInt}

	entry := c.Insert("entry")
	entry.Assign(x, lin.Const(0))
	entry.ArrayLoad(x, arr, lin.Const(0), lin.Const(8))

	then := c.Insert("then")
	then.ArrayStore(arr, lin.Const(0), lin.Var(x), lin.Const(8), true)

	els := c.Insert("else")
	els.ArrayStoreRange(arr, lin.Const(0), lin.Const(16), lin.Const(0), lin.Const(8))
	els.ArrayLoad(x, arr, lin.Const(8), lin.Const(8))

	c.Insert("exit")
	require.NoError(t, c.Connect("entry", "then"))
	require.NoError(t, c.Connect("entry", "else"))
	require.NoError(t, c.Connect("then", "exit"))
	require.NoError(t, c.Connect("else", "exit"))

	got := c.CollectStats()
	assert.Equal(t, Stats{
		Statements: 5,
		Loads:      2,
		Stores:     2,
		Branches:   1,
		Joins:      1,
	}, got)
}

func TestCFG_CollectStats_SelfLoopCountsBothWays(t *testing.T) {
	c := New("entry")
	c.Insert("spin")
	c.Insert("other")
	require.NoError(t, c.Connect("entry", "spin"))
	require.NoError(t, c.Connect("spin", "spin"))
	require.NoError(t, c.Connect("spin", "other"))

	// spin has two successors and two predecessors.
	got := c.CollectStats()
	assert.Equal(t, 1, got.Branches)
	assert.Equal(t, 1, got.Joins)
}
