package fixpoint

import (
	"github.com/NickCao/ebpf-verifier/pkg/cfg"
	"github.com/NickCao/ebpf-verifier/pkg/lin"
)

// varSet is a definitely-assigned variable set. nil is the unvisited state
// and acts as the identity of Join.
type varSet map[lin.Variable]struct{}

// Assigned is a definite-assignment domain: the state at a block is the set
// of variables written on every path from the entry. Join is set
// intersection. States form finite decreasing chains, so widening has
// nothing to extrapolate.
type Assigned struct {
	c *cfg.CFG
}

// NewAssigned builds the domain over c. The CFG must not be mutated while
// the domain is in use.
func NewAssigned(c *cfg.CFG) *Assigned {
	return &Assigned{c: c}
}

func (d *Assigned) Bottom() State {
	return varSet(nil)
}

func (d *Assigned) Initial() State {
	return varSet{}
}

func (d *Assigned) Transfer(label cfg.Label, in State) State {
	set := in.(varSet)
	out := make(varSet, len(set))
	for v := range set {
		out[v] = struct{}{}
	}
	b, err := d.c.GetNode(label)
	if err != nil {
		return out
	}
	for _, s := range b.Statements() {
		if v, ok := definedVar(s); ok {
			out[v] = struct{}{}
		}
	}
	return out
}

func (d *Assigned) Join(a, b State) State {
	as := a.(varSet)
	bs := b.(varSet)
	if as == nil {
		return bs
	}
	if bs == nil {
		return as
	}
	out := make(varSet)
	for v := range as {
		if _, ok := bs[v]; ok {
			out[v] = struct{}{}
		}
	}
	return out
}

func (d *Assigned) Widen(prev, next State) State {
	return next
}

func (d *Assigned) Equal(a, b State) bool {
	as := a.(varSet)
	bs := b.(varSet)
	if (as == nil) != (bs == nil) || len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}

// UnassignedUse is a statement reading a variable that some path from the
// entry reaches without assigning.
type UnassignedUse struct {
	Block     cfg.Label
	Statement cfg.Statement
	Var       lin.Variable
}

// UnassignedUses replays each visited block over its stable pre-state and
// collects reads of variables outside the definitely-assigned set, in block
// insertion order. states is the result of Solve over the same CFG; blocks
// absent from it are unreachable and skipped.
func (d *Assigned) UnassignedUses(states map[cfg.Label]State) []UnassignedUse {
	var uses []UnassignedUse
	for _, label := range d.c.Labels() {
		st, ok := states[label]
		if !ok {
			continue
		}
		set := st.(varSet)
		cur := make(varSet, len(set))
		for v := range set {
			cur[v] = struct{}{}
		}
		b, err := d.c.GetNode(label)
		if err != nil {
			continue
		}
		for _, s := range b.Statements() {
			for _, v := range usedVars(s) {
				if _, ok := cur[v]; !ok {
					uses = append(uses, UnassignedUse{Block: label, Statement: s, Var: v})
				}
			}
			if v, ok := definedVar(s); ok {
				cur[v] = struct{}{}
			}
		}
	}
	return uses
}

// definedVar returns the variable a statement writes, if any. Havoc counts
// as a write: the variable holds an arbitrary value, not an absent one.
func definedVar(s cfg.Statement) (lin.Variable, bool) {
	switch st := s.(type) {
	case cfg.Assign:
		return st.LHS, true
	case cfg.BinaryOp:
		return st.LHS, true
	case cfg.Select:
		return st.LHS, true
	case cfg.ArrayLoad:
		return st.LHS, true
	case cfg.Havoc:
		return st.Var, true
	case cfg.ArrayInit:
		return st.Array, true
	default:
		return lin.Variable{}, false
	}
}

// usedVars returns the variables a statement reads, deduplicated, in
// occurrence order.
func usedVars(s cfg.Statement) []lin.Variable {
	var vars []lin.Variable
	add := func(es ...lin.Expression) {
		for _, e := range es {
			vars = append(vars, e.Variables()...)
		}
	}
	switch st := s.(type) {
	case cfg.Assign:
		add(st.RHS)
	case cfg.BinaryOp:
		add(st.Left, st.Right)
	case cfg.Assume:
		add(st.Constraint.Expr)
	case cfg.Assert:
		add(st.Constraint.Expr)
	case cfg.Select:
		add(st.Cond.Expr, st.IfTrue, st.IfFalse)
	case cfg.ArrayLoad:
		vars = append(vars, st.Array)
		add(st.Index, st.ElemSize)
	case cfg.ArrayStore:
		vars = append(vars, st.Array)
		add(st.Lo, st.Hi, st.Value, st.ElemSize)
	case cfg.ArrayInit:
		add(st.Lo, st.Hi, st.Value, st.ElemSize)
	}
	seen := make(map[lin.Variable]bool, len(vars))
	out := vars[:0]
	for _, v := range vars {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
