package cfg

import (
	"fmt"
	"strings"
)

// RevBlock views a basic block with its statements reversed. It borrows the
// underlying block and never mutates it.
type RevBlock struct {
	bb *BasicBlock
}

// Label returns the underlying block's identity.
func (b RevBlock) Label() Label {
	return b.bb.Label()
}

// Len returns the number of statements.
func (b RevBlock) Len() int {
	return b.bb.Len()
}

// Statements returns the block's statements back to front. The returned
// slice is freshly allocated; the underlying block is untouched.
func (b RevBlock) Statements() []Statement {
	stmts := b.bb.Statements()
	out := make([]Statement, len(stmts))
	for i, s := range stmts {
		out[len(stmts)-1-i] = s
	}
	return out
}

// NextBlocks returns the underlying block's predecessors.
func (b RevBlock) NextBlocks() []Label {
	return b.bb.PrevBlocks()
}

// PrevBlocks returns the underlying block's successors.
func (b RevBlock) PrevBlocks() []Label {
	return b.bb.NextBlocks()
}

// RevCFG views a CFG with all edges reversed and every block's statements
// iterated back to front, which is exactly what a backward analysis wants to
// walk. It is a zero-copy borrow: it never mutates the underlying CFG and
// must not outlive it or be used across structural mutations of it.
type RevCFG struct {
	cfg *CFG
}

// Reverse builds the backward view of c. The CFG must have a designated
// exit block, which becomes the view's entry.
func (c *CFG) Reverse() (*RevCFG, error) {
	if c.exit == nil {
		return nil, fmt.Errorf("cannot reverse: %w", ErrNoExit)
	}
	return &RevCFG{cfg: c}, nil
}

// Entry returns the view's root: the underlying CFG's exit.
func (r *RevCFG) Entry() Label {
	return *r.cfg.exit
}

// HasExit always reports true; the underlying entry is the view's exit.
func (r *RevCFG) HasExit() bool {
	return true
}

// Exit returns the underlying CFG's entry.
func (r *RevCFG) Exit() (Label, error) {
	return r.cfg.entry, nil
}

// Size returns the number of blocks.
func (r *RevCFG) Size() int {
	return r.cfg.Size()
}

// Labels returns all block labels in the underlying insertion order.
func (r *RevCFG) Labels() []Label {
	return r.cfg.Labels()
}

// GetNode returns the reversed view of the block for label.
func (r *RevCFG) GetNode(label Label) (RevBlock, error) {
	b, err := r.cfg.GetNode(label)
	if err != nil {
		return RevBlock{}, err
	}
	return RevBlock{bb: b}, nil
}

// NextNodes returns the underlying block's predecessors.
func (r *RevCFG) NextNodes(label Label) ([]Label, error) {
	return r.cfg.PrevNodes(label)
}

// PrevNodes returns the underlying block's successors.
func (r *RevCFG) PrevNodes(label Label) ([]Label, error) {
	return r.cfg.NextNodes(label)
}

// String renders the reversed blocks reachable from the view's entry.
func (r *RevCFG) String() string {
	var sb strings.Builder
	visited := make(map[Label]bool, r.cfg.Size())
	stack := []Label{r.Entry()}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		b, err := r.GetNode(cur)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "%s:\n", b.Label())
		for _, s := range b.Statements() {
			fmt.Fprintf(&sb, "  %s;\n", s)
		}
		next := b.NextBlocks()
		sb.WriteString("--> [")
		for _, n := range next {
			sb.WriteString(string(n) + ";")
		}
		sb.WriteString("]\n")
		for i := len(next) - 1; i >= 0; i-- {
			if !visited[next[i]] {
				stack = append(stack, next[i])
			}
		}
	}
	return sb.String()
}
