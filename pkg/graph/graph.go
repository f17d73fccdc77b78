// Package graph implements an adaptive sparse/dense weighted directed graph.
// It is the storage substrate for relational numeric abstract domains:
// a difference-bound constraint "A - B <= w" is the weighted edge A->B.
// Vertex ids are recycled, and each vertex's adjacency switches between a
// dense scan and a sparse index depending on its degree, so operations stay
// amortized constant time under adversarial inputs.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingEdge is returned when an operation requires an edge that does
// not exist. This indicates a caller bug, not a recoverable input error.
var ErrMissingEdge = errors.New("edge not found")

// VertID is a handle into an AdaptGraph. Ids are small non-negative
// integers allocated by NewVertex and recycled by Forget.
type VertID uint16

// Edge is one (neighbor, weight) pair produced when iterating a vertex's
// incident edges.
type Edge struct {
	Vert   VertID
	Weight Weight
}

// AdaptGraph is an edge-weighted directed graph with recyclable vertices.
// Each edge's weight lives in a shared slot array indexed from both
// endpoints' adjacency maps, so the two directions always agree.
//
// The zero value is an empty graph ready for use. An AdaptGraph is owned by
// a single analysis session and is not safe for concurrent use.
type AdaptGraph struct {
	succs []AdaptMap
	preds []AdaptMap
	ws    []Weight

	edgeCount int

	isFree   []bool
	freeID   []VertID
	freeWidx []int
}

// Copy builds an independent graph with the same vertices and edges as o.
// Freed vertex ids are allocated but left free, so ids carry over unchanged.
func Copy(o *AdaptGraph) *AdaptGraph {
	g := &AdaptGraph{}
	g.GrowTo(o.Size())
	for i := range o.isFree {
		if o.isFree[i] {
			g.Forget(VertID(i))
		}
	}
	for _, s := range o.Verts() {
		for _, e := range o.ESuccs(s) {
			g.AddEdge(s, e.Weight, e.Vert)
		}
	}
	return g
}

// Size returns the number of vertex slots, live or free.
func (g *AdaptGraph) Size() int {
	return len(g.succs)
}

// NumEdges returns the number of edges.
func (g *AdaptGraph) NumEdges() int {
	return g.edgeCount
}

// IsEmpty reports whether the graph has no edges.
func (g *AdaptGraph) IsEmpty() bool {
	return g.edgeCount == 0
}

// NewVertex returns a fresh or recycled vertex id. A recycled id has no
// incident edges.
func (g *AdaptGraph) NewVertex() VertID {
	if n := len(g.freeID); n > 0 {
		v := g.freeID[n-1]
		g.freeID = g.freeID[:n-1]
		g.isFree[v] = false
		return v
	}
	v := VertID(len(g.succs))
	g.succs = append(g.succs, AdaptMap{})
	g.preds = append(g.preds, AdaptMap{})
	g.isFree = append(g.isFree, false)
	return v
}

// GrowTo ensures at least n vertex slots exist.
func (g *AdaptGraph) GrowTo(n int) {
	for g.Size() < n {
		g.NewVertex()
	}
}

// Forget removes every edge incident to v, releases their weight slots, and
// marks v free for reuse by a later NewVertex. No-op if v is already free.
func (g *AdaptGraph) Forget(v VertID) {
	if g.isFree[v] {
		return
	}

	for _, e := range g.succs[v].Entries() {
		g.freeWidx = append(g.freeWidx, e.Val)
		g.preds[e.Key].Remove(uint16(v))
	}
	g.edgeCount -= g.succs[v].Len()
	g.succs[v].Clear()

	for _, k := range g.preds[v].Keys() {
		g.succs[k].Remove(uint16(v))
	}
	g.edgeCount -= g.preds[v].Len()
	g.preds[v].Clear()

	g.isFree[v] = true
	g.freeID = append(g.freeID, v)
}

// Verts returns the live vertex ids in ascending order.
func (g *AdaptGraph) Verts() []VertID {
	verts := make([]VertID, 0, len(g.isFree)-len(g.freeID))
	for v := range g.isFree {
		if !g.isFree[v] {
			verts = append(verts, VertID(v))
		}
	}
	return verts
}

// Succs returns the successors of v.
func (g *AdaptGraph) Succs(v VertID) []VertID {
	return vertIDs(g.succs[v].Keys())
}

// Preds returns the predecessors of v.
func (g *AdaptGraph) Preds(v VertID) []VertID {
	return vertIDs(g.preds[v].Keys())
}

// ESuccs returns the outgoing edges of v as (neighbor, weight) pairs.
func (g *AdaptGraph) ESuccs(v VertID) []Edge {
	return g.edges(&g.succs[v])
}

// EPreds returns the incoming edges of v as (neighbor, weight) pairs.
func (g *AdaptGraph) EPreds(v VertID) []Edge {
	return g.edges(&g.preds[v])
}

func (g *AdaptGraph) edges(m *AdaptMap) []Edge {
	entries := m.Entries()
	out := make([]Edge, len(entries))
	for i, e := range entries {
		out[i] = Edge{Vert: VertID(e.Key), Weight: g.ws[e.Val]}
	}
	return out
}

func vertIDs(keys []uint16) []VertID {
	out := make([]VertID, len(keys))
	for i, k := range keys {
		out[i] = VertID(k)
	}
	return out
}

// Elem reports whether the edge s->d exists.
func (g *AdaptGraph) Elem(s, d VertID) bool {
	return g.succs[s].Elem(uint16(d))
}

// EdgeVal returns the weight of s->d. The edge must exist.
func (g *AdaptGraph) EdgeVal(s, d VertID) (Weight, error) {
	idx, ok := g.succs[s].Lookup(uint16(d))
	if !ok {
		return 0, fmt.Errorf("%w: %d->%d", ErrMissingEdge, s, d)
	}
	return g.ws[idx], nil
}

// WtRef is a mutable handle to one edge's weight slot. It stays valid as
// long as the edge it was obtained for exists.
type WtRef struct {
	g    *AdaptGraph
	slot int
}

// Get returns the current weight.
func (r WtRef) Get() Weight {
	return r.g.ws[r.slot]
}

// Set overwrites the weight.
func (r WtRef) Set(w Weight) {
	r.g.ws[r.slot] = w
}

// Lookup returns a mutable handle to the weight of s->d if the edge exists.
func (g *AdaptGraph) Lookup(s, d VertID) (WtRef, bool) {
	idx, ok := g.succs[s].Lookup(uint16(d))
	if !ok {
		return WtRef{}, false
	}
	return WtRef{g: g, slot: idx}, true
}

// AddEdge inserts the edge s->d with weight w. It performs no duplicate
// check: inserting an edge that already exists violates the adjacency
// invariants and is the caller's responsibility to avoid. Use UpdateEdge or
// SetEdge when the edge may already be present.
func (g *AdaptGraph) AddEdge(s VertID, w Weight, d VertID) {
	var idx int
	if n := len(g.freeWidx); n > 0 {
		idx = g.freeWidx[n-1]
		g.freeWidx = g.freeWidx[:n-1]
		g.ws[idx] = w
	} else {
		idx = len(g.ws)
		g.ws = append(g.ws, w)
	}

	g.succs[s].Add(uint16(d), idx)
	g.preds[d].Add(uint16(s), idx)
	g.edgeCount++
}

// UpdateEdge tightens the weight of s->d to min(old, w), inserting the edge
// if absent. Minimum rather than overwrite: a difference-bound edge only
// ever gets more precise.
func (g *AdaptGraph) UpdateEdge(s VertID, w Weight, d VertID) {
	if idx, ok := g.succs[s].Lookup(uint16(d)); ok {
		g.ws[idx] = minWeight(g.ws[idx], w)
		return
	}
	g.AddEdge(s, w, d)
}

// SetEdge unconditionally sets the weight of s->d, inserting the edge if
// absent.
func (g *AdaptGraph) SetEdge(s VertID, w Weight, d VertID) {
	if idx, ok := g.succs[s].Lookup(uint16(d)); ok {
		g.ws[idx] = w
		return
	}
	g.AddEdge(s, w, d)
}

// ClearEdges drops all edges, keeping the vertices.
func (g *AdaptGraph) ClearEdges() {
	g.ws = g.ws[:0]
	g.freeWidx = g.freeWidx[:0]
	for v := range g.succs {
		g.succs[v].Clear()
		g.preds[v].Clear()
	}
	g.edgeCount = 0
}

// Clear drops all edges and vertices.
func (g *AdaptGraph) Clear() {
	g.succs = nil
	g.preds = nil
	g.ws = nil
	g.isFree = nil
	g.freeID = nil
	g.freeWidx = nil
	g.edgeCount = 0
}

// String renders the graph for debugging: [|[v0 -> (w:d), ...], ...|].
// Not a stable, parseable format.
func (g *AdaptGraph) String() string {
	var sb strings.Builder
	sb.WriteString("[|")
	first := true
	for _, v := range g.Verts() {
		edges := g.ESuccs(v)
		if len(edges) == 0 {
			continue
		}
		if first {
			first = false
		} else {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "[v%d -> ", v)
		for i, e := range edges {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "(%d:%d)", e.Weight, e.Vert)
		}
		sb.WriteString("]")
	}
	sb.WriteString("|]")
	return sb.String()
}
