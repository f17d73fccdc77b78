package cfg

import (
	"fmt"

	"github.com/NickCao/ebpf-verifier/pkg/lin"
)

// Statement is one abstract CFG instruction. The set of kinds is closed:
// only the nine types in this file implement it. Statements are immutable
// value types owned by their basic block; they carry no graph structure.
type Statement interface {
	fmt.Stringer
	isStatement()
}

// BinaryOperator identifies the operation of a BinaryOp statement.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr
)

func (op BinaryOperator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpSDiv:
		return "/"
	case OpUDiv:
		return "/u"
	case OpSRem:
		return "%"
	case OpURem:
		return "%u"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpShl:
		return "<<"
	case OpLShr:
		return ">>u"
	case OpAShr:
		return ">>"
	default:
		return "?"
	}
}

// DebugInfo ties an assertion back to a source position, when known.
type DebugInfo struct {
	File string
	Line int
	Col  int
}

// HasDebug reports whether the position is populated. A file name is
// optional; program descriptions carry line and column only.
func (d DebugInfo) HasDebug() bool {
	return d.File != "" || d.Line > 0
}

// BinaryOp is "LHS = Left op Right".
type BinaryOp struct {
	LHS   lin.Variable
	Op    BinaryOperator
	Left  lin.Expression
	Right lin.Expression
}

// Assign is "LHS = RHS".
type Assign struct {
	LHS lin.Variable
	RHS lin.Expression
}

// Assume constrains the abstract state along a branch.
type Assume struct {
	Constraint lin.Constraint
}

// Havoc forgets everything known about a variable.
type Havoc struct {
	Var lin.Variable
}

// Select is "LHS = ite(Cond, IfTrue, IfFalse)". A select could be simulated
// by splitting blocks, but supporting it natively avoids a blow up in CFG
// size when the front end emits many of them.
type Select struct {
	LHS     lin.Variable
	Cond    lin.Constraint
	IfTrue  lin.Expression
	IfFalse lin.Expression
}

// Assert is a safety check the analysis must prove.
type Assert struct {
	Constraint lin.Constraint
	Debug      DebugInfo
}

// ArrayInit initializes every element of Array in [Lo, Hi) to Value.
// ElemSize is the access width in bytes; for bytecode front ends it may be
// a variable rather than a compile-time constant, hence an expression.
type ArrayInit struct {
	Array    lin.Variable
	ElemSize lin.Expression
	Lo       lin.Expression
	Hi       lin.Expression
	Value    lin.Expression
}

// ArrayStore writes Value to Array over the index range [Lo, Hi].
// Singleton marks a store to a single known cell; it only makes sense when
// Lo equals Hi.
type ArrayStore struct {
	Array     lin.Variable
	ElemSize  lin.Expression
	Lo        lin.Expression
	Hi        lin.Expression
	Value     lin.Expression
	Singleton bool
}

// ArrayLoad is "LHS = Array[Index]".
type ArrayLoad struct {
	LHS      lin.Variable
	Array    lin.Variable
	ElemSize lin.Expression
	Index    lin.Expression
}

func (BinaryOp) isStatement()   {}
func (Assign) isStatement()     {}
func (Assume) isStatement()     {}
func (Havoc) isStatement()      {}
func (Select) isStatement()     {}
func (Assert) isStatement()     {}
func (ArrayInit) isStatement()  {}
func (ArrayStore) isStatement() {}
func (ArrayLoad) isStatement()  {}

func (s BinaryOp) String() string {
	return fmt.Sprintf("%s = %s%s%s", s.LHS, s.Left, s.Op, s.Right)
}

func (s Assign) String() string {
	return fmt.Sprintf("%s = %s", s.LHS, s.RHS)
}

func (s Assume) String() string {
	return fmt.Sprintf("assume(%s)", s.Constraint)
}

func (s Havoc) String() string {
	return fmt.Sprintf("havoc(%s)", s.Var)
}

func (s Select) String() string {
	return fmt.Sprintf("%s = ite(%s,%s,%s)", s.LHS, s.Cond, s.IfTrue, s.IfFalse)
}

func (s Assert) String() string {
	if s.Debug.HasDebug() {
		return fmt.Sprintf("assert(%s) // line=%d column=%d", s.Constraint, s.Debug.Line, s.Debug.Col)
	}
	return fmt.Sprintf("assert(%s)", s.Constraint)
}

func (s ArrayInit) String() string {
	return fmt.Sprintf("%s[%s...%s] := %s", s.Array, s.Lo, s.Hi, s.Value)
}

func (s ArrayStore) String() string {
	if s.Lo.String() == s.Hi.String() {
		return fmt.Sprintf("array_store(%s,%s,%s,sz=%s)", s.Array, s.Lo, s.Value, s.ElemSize)
	}
	return fmt.Sprintf("array_store(%s,%s..%s,%s,sz=%s)", s.Array, s.Lo, s.Hi, s.Value, s.ElemSize)
}

func (s ArrayLoad) String() string {
	return fmt.Sprintf("%s = array_load(%s,%s,sz=%s)", s.LHS, s.Array, s.Index, s.ElemSize)
}
