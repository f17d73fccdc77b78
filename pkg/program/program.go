// Package program loads YAML program descriptions and builds CFGs from
// them through the public engine API. This is the input fixture format used
// by the CLI and the test corpus; it stands in for the external decoder that
// would normally hand the engine an already-built statement sequence.
package program

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NickCao/ebpf-verifier/pkg/cfg"
	"github.com/NickCao/ebpf-verifier/pkg/lin"
)

// File is the top-level YAML document.
type File struct {
	Name   string            `yaml:"name"`
	Entry  string            `yaml:"entry"`
	Exit   string            `yaml:"exit"`
	Vars   map[string]string `yaml:"vars"`
	Blocks []BlockSpec       `yaml:"blocks"`
}

// BlockSpec describes one basic block.
type BlockSpec struct {
	Label      string          `yaml:"label"`
	Statements []StatementSpec `yaml:"statements"`
	Next       []string        `yaml:"next"`
}

// StatementSpec is the union of all statement shapes; Op selects which
// fields are meaningful.
type StatementSpec struct {
	Op string `yaml:"op"`

	LHS   string          `yaml:"lhs"`
	Var   string          `yaml:"var"`
	BinOp string          `yaml:"binop"`
	RHS   *ExprSpec       `yaml:"rhs"`
	Left  *ExprSpec       `yaml:"left"`
	Right *ExprSpec       `yaml:"right"`
	Cond  *ConstraintSpec `yaml:"cond"`

	Array     string    `yaml:"array"`
	ElemSize  *ExprSpec `yaml:"elem_size"`
	Lo        *ExprSpec `yaml:"lo"`
	Hi        *ExprSpec `yaml:"hi"`
	Index     *ExprSpec `yaml:"index"`
	Value     *ExprSpec `yaml:"value"`
	Singleton bool      `yaml:"singleton"`

	File string `yaml:"file"`
	Line int    `yaml:"line"`
	Col  int    `yaml:"col"`
}

// ExprSpec is a linear expression: a constant plus coefficient*variable
// terms.
type ExprSpec struct {
	Const int64      `yaml:"const"`
	Terms []TermSpec `yaml:"terms"`
}

// TermSpec is one coefficient*variable product.
type TermSpec struct {
	Coeff int64  `yaml:"coeff"`
	Var   string `yaml:"var"`
}

// ConstraintSpec is "expr REL 0" with REL one of ==, !=, <=, <.
type ConstraintSpec struct {
	Expr ExprSpec `yaml:"expr"`
	Rel  string   `yaml:"rel"`
}

// LoadFile reads a program description from disk and builds its CFG.
func LoadFile(path string) (*cfg.CFG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening program %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a YAML program description and builds its CFG.
func Load(r io.Reader) (*cfg.CFG, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	return Build(&file)
}

// Build constructs the CFG described by file.
func Build(file *File) (*cfg.CFG, error) {
	if file.Entry == "" {
		return nil, fmt.Errorf("program has no entry label")
	}

	vars := make(map[string]lin.Variable, len(file.Vars))
	for name, kind := range file.Vars {
		k, err := lin.KindFromString(kind)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		vars[name] = lin.Variable{Name: name, Kind: k}
	}

	b := &builder{vars: vars}

	var c *cfg.CFG
	if file.Exit != "" {
		c = cfg.NewWithExit(cfg.Label(file.Entry), cfg.Label(file.Exit))
	} else {
		c = cfg.New(cfg.Label(file.Entry))
	}

	for _, bs := range file.Blocks {
		if bs.Label == "" {
			return nil, fmt.Errorf("block with empty label")
		}
		block := c.Insert(cfg.Label(bs.Label))
		for i, ss := range bs.Statements {
			stmt, err := b.statement(&ss)
			if err != nil {
				return nil, fmt.Errorf("block %q statement %d: %w", bs.Label, i, err)
			}
			block.Append(stmt)
		}
	}

	// connect after all blocks exist so forward references resolve
	for _, bs := range file.Blocks {
		for _, next := range bs.Next {
			if _, err := c.GetNode(cfg.Label(next)); err != nil {
				return nil, fmt.Errorf("block %q: successor %q does not exist", bs.Label, next)
			}
			if err := c.Connect(cfg.Label(bs.Label), cfg.Label(next)); err != nil {
				return nil, err
			}
		}
	}

	if file.Exit != "" {
		if _, err := c.GetNode(cfg.Label(file.Exit)); err != nil {
			return nil, fmt.Errorf("exit block %q does not exist", file.Exit)
		}
	}
	return c, nil
}

type builder struct {
	vars map[string]lin.Variable
}

func (b *builder) variable(name string) (lin.Variable, error) {
	if name == "" {
		return lin.Variable{}, fmt.Errorf("missing variable name")
	}
	if v, ok := b.vars[name]; ok {
		return v, nil
	}
	return lin.Variable{}, fmt.Errorf("undeclared variable %q", name)
}

func (b *builder) expr(spec *ExprSpec, field string) (lin.Expression, error) {
	if spec == nil {
		return lin.Expression{}, fmt.Errorf("missing %s expression", field)
	}
	e := lin.Const(spec.Const)
	for _, t := range spec.Terms {
		v, err := b.variable(t.Var)
		if err != nil {
			return lin.Expression{}, err
		}
		e = e.Add(lin.Mul(t.Coeff, v))
	}
	return e, nil
}

func (b *builder) constraint(spec *ConstraintSpec, field string) (lin.Constraint, error) {
	if spec == nil {
		return lin.Constraint{}, fmt.Errorf("missing %s constraint", field)
	}
	e, err := b.expr(&spec.Expr, field)
	if err != nil {
		return lin.Constraint{}, err
	}
	rel, err := lin.RelationFromString(spec.Rel)
	if err != nil {
		return lin.Constraint{}, err
	}
	return lin.NewConstraint(e, rel), nil
}

var binaryOps = map[string]cfg.BinaryOperator{
	"add":  cfg.OpAdd,
	"sub":  cfg.OpSub,
	"mul":  cfg.OpMul,
	"sdiv": cfg.OpSDiv,
	"udiv": cfg.OpUDiv,
	"srem": cfg.OpSRem,
	"urem": cfg.OpURem,
	"and":  cfg.OpAnd,
	"or":   cfg.OpOr,
	"xor":  cfg.OpXor,
	"shl":  cfg.OpShl,
	"lshr": cfg.OpLShr,
	"ashr": cfg.OpAShr,
}

func (b *builder) statement(spec *StatementSpec) (cfg.Statement, error) {
	switch spec.Op {
	case "binop":
		lhs, err := b.variable(spec.LHS)
		if err != nil {
			return nil, err
		}
		op, ok := binaryOps[spec.BinOp]
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %q", spec.BinOp)
		}
		left, err := b.expr(spec.Left, "left")
		if err != nil {
			return nil, err
		}
		right, err := b.expr(spec.Right, "right")
		if err != nil {
			return nil, err
		}
		return cfg.BinaryOp{LHS: lhs, Op: op, Left: left, Right: right}, nil

	case "assign":
		lhs, err := b.variable(spec.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := b.expr(spec.RHS, "rhs")
		if err != nil {
			return nil, err
		}
		return cfg.Assign{LHS: lhs, RHS: rhs}, nil

	case "assume":
		cst, err := b.constraint(spec.Cond, "cond")
		if err != nil {
			return nil, err
		}
		return cfg.Assume{Constraint: cst}, nil

	case "havoc":
		v, err := b.variable(spec.Var)
		if err != nil {
			return nil, err
		}
		return cfg.Havoc{Var: v}, nil

	case "select":
		lhs, err := b.variable(spec.LHS)
		if err != nil {
			return nil, err
		}
		cond, err := b.constraint(spec.Cond, "cond")
		if err != nil {
			return nil, err
		}
		left, err := b.expr(spec.Left, "left")
		if err != nil {
			return nil, err
		}
		right, err := b.expr(spec.Right, "right")
		if err != nil {
			return nil, err
		}
		return cfg.Select{LHS: lhs, Cond: cond, IfTrue: left, IfFalse: right}, nil

	case "assert":
		cst, err := b.constraint(spec.Cond, "cond")
		if err != nil {
			return nil, err
		}
		debug := cfg.DebugInfo{File: spec.File, Line: spec.Line, Col: spec.Col}
		return cfg.Assert{Constraint: cst, Debug: debug}, nil

	case "array_init":
		arr, err := b.variable(spec.Array)
		if err != nil {
			return nil, err
		}
		elemSize, err := b.expr(spec.ElemSize, "elem_size")
		if err != nil {
			return nil, err
		}
		lo, err := b.expr(spec.Lo, "lo")
		if err != nil {
			return nil, err
		}
		hi, err := b.expr(spec.Hi, "hi")
		if err != nil {
			return nil, err
		}
		value, err := b.expr(spec.Value, "value")
		if err != nil {
			return nil, err
		}
		return cfg.ArrayInit{Array: arr, ElemSize: elemSize, Lo: lo, Hi: hi, Value: value}, nil

	case "array_store":
		arr, err := b.variable(spec.Array)
		if err != nil {
			return nil, err
		}
		elemSize, err := b.expr(spec.ElemSize, "elem_size")
		if err != nil {
			return nil, err
		}
		lo, err := b.expr(spec.Lo, "lo")
		if err != nil {
			return nil, err
		}
		hi := lo
		if spec.Hi != nil {
			hi, err = b.expr(spec.Hi, "hi")
			if err != nil {
				return nil, err
			}
		}
		value, err := b.expr(spec.Value, "value")
		if err != nil {
			return nil, err
		}
		return cfg.ArrayStore{Array: arr, ElemSize: elemSize, Lo: lo, Hi: hi, Value: value, Singleton: spec.Singleton}, nil

	case "array_load":
		lhs, err := b.variable(spec.LHS)
		if err != nil {
			return nil, err
		}
		arr, err := b.variable(spec.Array)
		if err != nil {
			return nil, err
		}
		elemSize, err := b.expr(spec.ElemSize, "elem_size")
		if err != nil {
			return nil, err
		}
		index, err := b.expr(spec.Index, "index")
		if err != nil {
			return nil, err
		}
		return cfg.ArrayLoad{LHS: lhs, Array: arr, ElemSize: elemSize, Index: index}, nil

	default:
		return nil, fmt.Errorf("unknown statement op %q", spec.Op)
	}
}
