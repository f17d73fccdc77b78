package cache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickCao/ebpf-verifier/pkg/cfg"
	"github.com/NickCao/ebpf-verifier/pkg/lin"
)

func sampleCFG(t *testing.T) *cfg.CFG {
	t.Helper()
	c := cfg.NewWithExit("entry", "exit")
	x := lin.Variable{Name: "x", Kind: lin.Int}
	c.Insert("entry").Assign(x, lin.Const(1))
	c.Insert("exit")
	require.NoError(t, c.Connect("entry", "exit"))
	return c
}

func TestDigest_Deterministic(t *testing.T) {
	a := sampleCFG(t)
	b := sampleCFG(t)

	assert.Equal(t, Digest(a), Digest(b))
	assert.Len(t, Digest(a), 64)
}

func TestDigest_SensitiveToContent(t *testing.T) {
	a := sampleCFG(t)
	b := sampleCFG(t)
	y := lin.Variable{Name: "y", Kind: lin.Int}
	blk, err := b.GetNode("entry")
	require.NoError(t, err)
	blk.Havoc(y)

	assert.NotEqual(t, Digest(a), Digest(b))
}

func TestDigest_SensitiveToExit(t *testing.T) {
	branching := func(exit cfg.Label) *cfg.CFG {
		c := cfg.NewWithExit("entry", exit)
		c.Insert("entry")
		c.Insert("a")
		c.Insert("b")
		require.NoError(t, c.Connect("entry", "a"))
		require.NoError(t, c.Connect("entry", "b"))
		return c
	}
	a := branching("a")
	b := branching("b")

	// Same reachable structure, different exit designation. Simplify prunes
	// different blocks, so the cached verdicts must not be shared.
	assert.NotEqual(t, Digest(a), Digest(b))
}

func TestDigest_SensitiveToUnreachableBlocks(t *testing.T) {
	a := cfg.New("entry")
	b := cfg.New("entry")
	x := lin.Variable{Name: "x", Kind: lin.Int}
	b.Insert("junk").Havoc(x)

	assert.NotEqual(t, Digest(a), Digest(b))
}

func TestStore_GetPut(t *testing.T) {
	s := NewStore(0)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	rec := Record{Digest: "d1", Blocks: 3, AnalyzedAt: time.Now()}
	s.Put(rec)

	assert.Equal(t, 1, s.Len())
	got, ok := s.Get("d1")
	require.True(t, ok)
	assert.Equal(t, 3, got.Blocks)

	// Put with the same digest replaces the record.
	rec.Blocks = 5
	s.Put(rec)
	assert.Equal(t, 1, s.Len())
	got, _ = s.Get("d1")
	assert.Equal(t, 5, got.Blocks)
}

func TestStore_LRUEviction(t *testing.T) {
	s := NewStore(2)
	s.Put(Record{Digest: "a"})
	s.Put(Record{Digest: "b"})

	// Touch a so b becomes the eviction candidate.
	_, ok := s.Get("a")
	require.True(t, ok)

	s.Put(Record{Digest: "c"})

	assert.Equal(t, 2, s.Len())
	_, ok = s.Get("a")
	assert.True(t, ok)
	_, ok = s.Get("b")
	assert.False(t, ok)
	_, ok = s.Get("c")
	assert.True(t, ok)
}

func TestStore_Unlimited(t *testing.T) {
	s := NewStore(0)
	for i := 0; i < 100; i++ {
		s.Put(Record{Digest: string(rune('a' + i%26)) + string(rune('0' + i/26))})
	}
	assert.Equal(t, 100, s.Len())
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(0)
	s.Put(Record{Digest: "a"})
	s.Put(Record{Digest: "b"})

	s.Delete("a")
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("a")
	assert.False(t, ok)

	// Deleting twice is a no-op.
	s.Delete("a")
	assert.Equal(t, 1, s.Len())
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(0)
	s.Put(Record{Digest: "a"})
	s.Put(Record{Digest: "b"})

	s.Clear()
	assert.Equal(t, 0, s.Len())

	s.Put(Record{Digest: "c"})
	assert.Equal(t, 1, s.Len())
}

func TestStore_SaveLoad(t *testing.T) {
	s := NewStore(0)
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	s.Put(Record{Digest: "old", Blocks: 1, AnalyzedAt: at})
	s.Put(Record{
		Digest:   "new",
		Blocks:   2,
		Stats:    cfg.Stats{Statements: 4, Loads: 1},
		Simplify: cfg.SimplifyResult{Merged: 2, ExitUnreachable: true},
	})

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	loaded := NewStore(0)
	require.NoError(t, loaded.Load(&buf))

	assert.Equal(t, 2, loaded.Len())
	got, ok := loaded.Get("new")
	require.True(t, ok)
	assert.Equal(t, 2, got.Blocks)
	assert.Equal(t, 4, got.Stats.Statements)
	assert.True(t, got.Simplify.ExitUnreachable)

	got, ok = loaded.Get("old")
	require.True(t, ok)
	assert.True(t, got.AnalyzedAt.Equal(at))
}

// TestStore_SaveLoad_RecencyPreserved checks that the eviction order
// survives a persistence round trip.
func TestStore_SaveLoad_RecencyPreserved(t *testing.T) {
	s := NewStore(0)
	s.Put(Record{Digest: "a"})
	s.Put(Record{Digest: "b"})
	s.Put(Record{Digest: "c"})
	_, _ = s.Get("a") // a is now most recent; b is least

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	loaded := NewStore(3)
	require.NoError(t, loaded.Load(&buf))
	loaded.Put(Record{Digest: "d"})

	_, ok := loaded.Get("b")
	assert.False(t, ok, "least recently used record should be evicted")
	for _, d := range []string{"a", "c", "d"} {
		_, ok := loaded.Get(d)
		assert.True(t, ok, "record %s should survive", d)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	s := NewStore(0)
	err := s.Load(bytes.NewReader([]byte("not msgpack at all")))
	assert.Error(t, err)
}

func TestPersistToFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verdicts.msgpack")

	s := NewStore(0)
	s.Put(Record{Digest: "a", Blocks: 7})
	require.NoError(t, PersistToFile(s, path))

	loaded := NewStore(0)
	require.NoError(t, LoadFromFile(loaded, path))
	got, ok := loaded.Get("a")
	require.True(t, ok)
	assert.Equal(t, 7, got.Blocks)
}

func TestLoadFromFile_Missing(t *testing.T) {
	s := NewStore(0)
	require.NoError(t, LoadFromFile(s, filepath.Join(t.TempDir(), "absent.msgpack")))
	assert.Equal(t, 0, s.Len())
}
