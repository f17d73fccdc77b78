// Package lin defines typed variables, linear expressions, and linear
// constraints. These are the operands of the CFG statement language: every
// statement refers to its variables through this package, and the relational
// domains consume constraints of the form "expression REL 0".
package lin

import (
	"fmt"
	"strings"
)

// Kind is the type of a variable. Types form a flat lattice: booleans,
// integers, reals, pointers, and uni-dimensional arrays of each.
type Kind int

const (
	Bool Kind = iota
	Int
	Real
	Ptr
	ArrayBool
	ArrayInt
	ArrayReal
	ArrayPtr
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Real:
		return "real"
	case Ptr:
		return "ptr"
	case ArrayBool:
		return "arr(bool)"
	case ArrayInt:
		return "arr(int)"
	case ArrayReal:
		return "arr(real)"
	case ArrayPtr:
		return "arr(ptr)"
	default:
		return "unknown"
	}
}

// KindFromString parses a kind name as it appears in program descriptions.
func KindFromString(s string) (Kind, error) {
	switch s {
	case "bool":
		return Bool, nil
	case "int":
		return Int, nil
	case "real":
		return Real, nil
	case "ptr":
		return Ptr, nil
	case "arr(bool)":
		return ArrayBool, nil
	case "arr(int)":
		return ArrayInt, nil
	case "arr(real)":
		return ArrayReal, nil
	case "arr(ptr)":
		return ArrayPtr, nil
	default:
		return 0, fmt.Errorf("unknown variable kind %q", s)
	}
}

// Variable is a named, typed variable. Comparable value type; two variables
// are the same variable iff name and kind match.
type Variable struct {
	Name string
	Kind Kind
}

func (v Variable) String() string {
	return v.Name
}

// Term is one coefficient*variable product inside a linear expression.
type Term struct {
	Coeff int64
	Var   Variable
}

// Expression is a linear expression: a constant plus a sum of terms.
// Expressions are immutable; the builder methods return fresh values and
// never alias the receiver's term list.
type Expression struct {
	Const int64
	Terms []Term
}

// Const builds a constant expression.
func Const(n int64) Expression {
	return Expression{Const: n}
}

// Var builds the expression consisting of a single variable.
func Var(v Variable) Expression {
	return Expression{Terms: []Term{{Coeff: 1, Var: v}}}
}

// Mul builds the expression coeff*v.
func Mul(coeff int64, v Variable) Expression {
	return Expression{Terms: []Term{{Coeff: coeff, Var: v}}}
}

// Add returns e + o.
func (e Expression) Add(o Expression) Expression {
	terms := make([]Term, 0, len(e.Terms)+len(o.Terms))
	terms = append(terms, e.Terms...)
	for _, t := range o.Terms {
		terms = mergeTerm(terms, t)
	}
	return Expression{Const: e.Const + o.Const, Terms: terms}
}

// Sub returns e - o.
func (e Expression) Sub(o Expression) Expression {
	return e.Add(o.Scale(-1))
}

// Scale returns k*e.
func (e Expression) Scale(k int64) Expression {
	if k == 0 {
		return Expression{}
	}
	terms := make([]Term, len(e.Terms))
	for i, t := range e.Terms {
		terms[i] = Term{Coeff: k * t.Coeff, Var: t.Var}
	}
	return Expression{Const: k * e.Const, Terms: terms}
}

// IsConstant reports whether the expression has no variable terms.
func (e Expression) IsConstant() bool {
	return len(e.Terms) == 0
}

// Variables returns the variables occurring in the expression, in term order.
func (e Expression) Variables() []Variable {
	vars := make([]Variable, len(e.Terms))
	for i, t := range e.Terms {
		vars[i] = t.Var
	}
	return vars
}

// mergeTerm adds t into terms, combining with an existing term over the same
// variable and dropping terms whose coefficient cancels to zero.
func mergeTerm(terms []Term, t Term) []Term {
	for i := range terms {
		if terms[i].Var == t.Var {
			terms[i].Coeff += t.Coeff
			if terms[i].Coeff == 0 {
				return append(terms[:i], terms[i+1:]...)
			}
			return terms
		}
	}
	return append(terms, t)
}

func (e Expression) String() string {
	if len(e.Terms) == 0 {
		return fmt.Sprintf("%d", e.Const)
	}
	var sb strings.Builder
	for i, t := range e.Terms {
		switch {
		case i == 0 && t.Coeff == 1:
			sb.WriteString(t.Var.Name)
		case i == 0 && t.Coeff == -1:
			sb.WriteString("-" + t.Var.Name)
		case i == 0:
			fmt.Fprintf(&sb, "%d*%s", t.Coeff, t.Var.Name)
		case t.Coeff == 1:
			sb.WriteString("+" + t.Var.Name)
		case t.Coeff == -1:
			sb.WriteString("-" + t.Var.Name)
		case t.Coeff < 0:
			fmt.Fprintf(&sb, "%d*%s", t.Coeff, t.Var.Name)
		default:
			fmt.Fprintf(&sb, "+%d*%s", t.Coeff, t.Var.Name)
		}
	}
	if e.Const > 0 {
		fmt.Fprintf(&sb, "+%d", e.Const)
	} else if e.Const < 0 {
		fmt.Fprintf(&sb, "%d", e.Const)
	}
	return sb.String()
}

// Relation is the comparison of a constraint's expression against zero.
type Relation int

const (
	Eq  Relation = iota // expr == 0
	Neq                 // expr != 0
	Leq                 // expr <= 0
	Lt                  // expr < 0
)

func (r Relation) String() string {
	switch r {
	case Eq:
		return "=="
	case Neq:
		return "!="
	case Leq:
		return "<="
	case Lt:
		return "<"
	default:
		return "?"
	}
}

// RelationFromString parses a relation symbol.
func RelationFromString(s string) (Relation, error) {
	switch s {
	case "==":
		return Eq, nil
	case "!=":
		return Neq, nil
	case "<=":
		return Leq, nil
	case "<":
		return Lt, nil
	default:
		return 0, fmt.Errorf("unknown relation %q", s)
	}
}

// Constraint is a linear constraint of the form "Expr Rel 0".
type Constraint struct {
	Expr Expression
	Rel  Relation
}

// NewConstraint builds the constraint "e Rel 0".
func NewConstraint(e Expression, rel Relation) Constraint {
	return Constraint{Expr: e, Rel: rel}
}

// GreaterEqualOne builds "v >= 1", the canonical truthiness test used by
// select statements, expressed in normal form as "1 - v <= 0".
func GreaterEqualOne(v Variable) Constraint {
	return Constraint{Expr: Const(1).Sub(Var(v)), Rel: Leq}
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s%s0", c.Expr, c.Rel)
}
