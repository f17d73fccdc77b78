package cfg

import (
	"fmt"
	"strings"

	"github.com/NickCao/ebpf-verifier/pkg/lin"
)

// Label is the opaque identity of a basic block. Labels are assigned by the
// builder and stay stable for the lifetime of the CFG they belong to.
type Label string

// BasicBlock is a straight-line run of statements plus explicit successor
// and predecessor label sets. Blocks are created and owned exclusively by a
// CFG; edges are maintained through the CFG's Connect and Disconnect so the
// two directions never drift apart.
//
// The statement sequence is append-only, except for the whole-sequence
// concatenation performed by block merging, which never reorders statements.
type BasicBlock struct {
	label Label
	stmts []Statement
	prev  []Label
	next  []Label
}

func newBasicBlock(label Label) *BasicBlock {
	return &BasicBlock{label: label}
}

// Label returns the block's identity.
func (b *BasicBlock) Label() Label {
	return b.label
}

// Len returns the number of statements.
func (b *BasicBlock) Len() int {
	return len(b.stmts)
}

// Statements returns the block's statements in order. The returned slice is
// the block's own storage; callers must treat it as read-only.
func (b *BasicBlock) Statements() []Statement {
	return b.stmts
}

// Append adds statements at the end of the block.
func (b *BasicBlock) Append(stmts ...Statement) {
	b.stmts = append(b.stmts, stmts...)
}

// NextBlocks returns the successor labels in insertion order.
func (b *BasicBlock) NextBlocks() []Label {
	return b.next
}

// PrevBlocks returns the predecessor labels in insertion order.
func (b *BasicBlock) PrevBlocks() []Label {
	return b.prev
}

// moveBack appends all of other's statements onto b, in order, emptying
// other. Used only by block merging.
func (b *BasicBlock) moveBack(other *BasicBlock) {
	b.stmts = append(b.stmts, other.stmts...)
	other.stmts = nil
}

// insertAdjacent adds e to the set with insertion-order-preserving set
// semantics: a no-op when already present.
func insertAdjacent(set []Label, e Label) []Label {
	for _, l := range set {
		if l == e {
			return set
		}
	}
	return append(set, e)
}

func removeAdjacent(set []Label, e Label) []Label {
	for i, l := range set {
		if l == e {
			return append(set[:i], set[i+1:]...)
		}
	}
	return set
}

// String renders the block and its outgoing edges for debugging.
func (b *BasicBlock) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", b.label)
	for _, s := range b.stmts {
		fmt.Fprintf(&sb, "  %s;\n", s)
	}
	if len(b.next) > 0 {
		sb.WriteString("  goto ")
		for i, n := range b.next {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(string(n))
		}
		sb.WriteString(";\n")
	}
	return sb.String()
}

// Statement builders. These mirror the shapes a bytecode front end emits
// and keep call sites terse.

func (b *BasicBlock) binary(lhs lin.Variable, op BinaryOperator, left, right lin.Expression) {
	b.Append(BinaryOp{LHS: lhs, Op: op, Left: left, Right: right})
}

// Add appends "lhs = left + right".
func (b *BasicBlock) Add(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpAdd, left, right)
}

// Sub appends "lhs = left - right".
func (b *BasicBlock) Sub(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpSub, left, right)
}

// Mul appends "lhs = left * right".
func (b *BasicBlock) Mul(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpMul, left, right)
}

// Div appends a signed division.
func (b *BasicBlock) Div(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpSDiv, left, right)
}

// UDiv appends an unsigned division.
func (b *BasicBlock) UDiv(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpUDiv, left, right)
}

// Rem appends a signed remainder.
func (b *BasicBlock) Rem(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpSRem, left, right)
}

// URem appends an unsigned remainder.
func (b *BasicBlock) URem(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpURem, left, right)
}

// BitwiseAnd appends "lhs = left & right".
func (b *BasicBlock) BitwiseAnd(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpAnd, left, right)
}

// BitwiseOr appends "lhs = left | right".
func (b *BasicBlock) BitwiseOr(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpOr, left, right)
}

// BitwiseXor appends "lhs = left ^ right".
func (b *BasicBlock) BitwiseXor(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpXor, left, right)
}

// Shl appends "lhs = left << right".
func (b *BasicBlock) Shl(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpShl, left, right)
}

// LShr appends a logical right shift.
func (b *BasicBlock) LShr(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpLShr, left, right)
}

// AShr appends an arithmetic right shift.
func (b *BasicBlock) AShr(lhs lin.Variable, left, right lin.Expression) {
	b.binary(lhs, OpAShr, left, right)
}

// Assign appends "lhs = rhs".
func (b *BasicBlock) Assign(lhs lin.Variable, rhs lin.Expression) {
	b.Append(Assign{LHS: lhs, RHS: rhs})
}

// Assume appends "assume(cst)".
func (b *BasicBlock) Assume(cst lin.Constraint) {
	b.Append(Assume{Constraint: cst})
}

// Havoc appends "havoc(v)".
func (b *BasicBlock) Havoc(v lin.Variable) {
	b.Append(Havoc{Var: v})
}

// Select appends "lhs = ite(cond, ifTrue, ifFalse)".
func (b *BasicBlock) Select(lhs lin.Variable, cond lin.Constraint, ifTrue, ifFalse lin.Expression) {
	b.Append(Select{LHS: lhs, Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse})
}

// SelectVar appends a select over the truthiness of v, "v >= 1".
func (b *BasicBlock) SelectVar(lhs, v lin.Variable, ifTrue, ifFalse lin.Expression) {
	b.Select(lhs, lin.GreaterEqualOne(v), ifTrue, ifFalse)
}

// Assertion appends "assert(cst)".
func (b *BasicBlock) Assertion(cst lin.Constraint, debug DebugInfo) {
	b.Append(Assert{Constraint: cst, Debug: debug})
}

// ArrayInit appends an array initialization over [lo, hi).
func (b *BasicBlock) ArrayInit(arr lin.Variable, lo, hi, value, elemSize lin.Expression) {
	b.Append(ArrayInit{Array: arr, ElemSize: elemSize, Lo: lo, Hi: hi, Value: value})
}

// ArrayStore appends a single-cell array store.
func (b *BasicBlock) ArrayStore(arr lin.Variable, idx, value, elemSize lin.Expression, singleton bool) {
	b.Append(ArrayStore{Array: arr, ElemSize: elemSize, Lo: idx, Hi: idx, Value: value, Singleton: singleton})
}

// ArrayStoreRange appends an array store over [lo, hi].
func (b *BasicBlock) ArrayStoreRange(arr lin.Variable, lo, hi, value, elemSize lin.Expression) {
	b.Append(ArrayStore{Array: arr, ElemSize: elemSize, Lo: lo, Hi: hi, Value: value})
}

// ArrayLoad appends "lhs = arr[idx]".
func (b *BasicBlock) ArrayLoad(lhs, arr lin.Variable, idx, elemSize lin.Expression) {
	b.Append(ArrayLoad{LHS: lhs, Array: arr, ElemSize: elemSize, Index: idx})
}
