// Package cfg implements the strongly-typed control-flow graph a fixpoint
// driver walks to compute abstract states: basic blocks of statements keyed
// by label, explicit successor/predecessor edges, structural simplification
// passes, and a cost-free reversed view for backward analyses.
//
// A CFG is exclusively owned by the analysis session that created it.
// Nothing in this package is safe for concurrent use; verifying many
// programs in parallel means one independent CFG per program.
package cfg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingBlock is returned when a label is not present in the CFG.
// Hitting it indicates a caller bug, not a recoverable input error: the run
// for the current program should be aborted.
var ErrMissingBlock = errors.New("basic block not found in the CFG")

// ErrNoExit is returned when the exit block is requested but was never set.
var ErrNoExit = errors.New("CFG does not have an exit block")

// CFG is the control-flow graph of one analyzed unit: a set of basic blocks
// keyed by label, an entry label, and an optional exit label. The entry
// block always exists and is never removable; the exit block, once set, is
// never removable either.
type CFG struct {
	entry  Label
	exit   *Label
	blocks map[Label]*BasicBlock
	// order keeps block labels in insertion order so iteration and
	// printing are deterministic.
	order []Label
}

// New creates a CFG rooted at entry. The entry block is created empty.
func New(entry Label) *CFG {
	c := &CFG{
		entry:  entry,
		blocks: make(map[Label]*BasicBlock),
	}
	c.Insert(entry)
	return c
}

// NewWithExit creates a CFG with both roots designated up front. The exit
// block itself is created when the builder inserts it.
func NewWithExit(entry, exit Label) *CFG {
	c := New(entry)
	c.exit = &exit
	return c
}

// Entry returns the entry label.
func (c *CFG) Entry() Label {
	return c.entry
}

// HasExit reports whether an exit label has been designated.
func (c *CFG) HasExit() bool {
	return c.exit != nil
}

// Exit returns the designated exit label.
func (c *CFG) Exit() (Label, error) {
	if c.exit == nil {
		return "", ErrNoExit
	}
	return *c.exit, nil
}

// SetExit marks the exit block after the CFG has been created.
func (c *CFG) SetExit(exit Label) {
	c.exit = &exit
}

// Size returns the number of blocks.
func (c *CFG) Size() int {
	return len(c.blocks)
}

// Labels returns all block labels in insertion order.
func (c *CFG) Labels() []Label {
	out := make([]Label, len(c.order))
	copy(out, c.order)
	return out
}

// Insert returns the block for label, creating an empty one if absent.
// Idempotent: a second call with the same label returns the existing block
// unchanged.
func (c *CFG) Insert(label Label) *BasicBlock {
	if b, ok := c.blocks[label]; ok {
		return b
	}
	b := newBasicBlock(label)
	c.blocks[label] = b
	c.order = append(c.order, label)
	return b
}

// GetNode returns the block for label.
func (c *CFG) GetNode(label Label) (*BasicBlock, error) {
	b, ok := c.blocks[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingBlock, label)
	}
	return b, nil
}

// NextNodes returns the successor labels of the block.
func (c *CFG) NextNodes(label Label) ([]Label, error) {
	b, err := c.GetNode(label)
	if err != nil {
		return nil, err
	}
	return b.NextBlocks(), nil
}

// PrevNodes returns the predecessor labels of the block.
func (c *CFG) PrevNodes(label Label) ([]Label, error) {
	b, err := c.GetNode(label)
	if err != nil {
		return nil, err
	}
	return b.PrevBlocks(), nil
}

// Connect adds the edge a->b: b joins a's successors and a joins b's
// predecessors. No-op if already connected.
func (c *CFG) Connect(a, b Label) error {
	ba, err := c.GetNode(a)
	if err != nil {
		return err
	}
	bb, err := c.GetNode(b)
	if err != nil {
		return err
	}
	ba.next = insertAdjacent(ba.next, b)
	bb.prev = insertAdjacent(bb.prev, a)
	return nil
}

// Disconnect removes the edge a->b. No-op if not connected.
func (c *CFG) Disconnect(a, b Label) error {
	ba, err := c.GetNode(a)
	if err != nil {
		return err
	}
	bb, err := c.GetNode(b)
	if err != nil {
		return err
	}
	ba.next = removeAdjacent(ba.next, b)
	bb.prev = removeAdjacent(bb.prev, a)
	return nil
}

// Remove deletes a block and all its incident edges. The entry block and a
// designated exit block cannot be removed.
func (c *CFG) Remove(label Label) error {
	if label == c.entry {
		return fmt.Errorf("cannot remove entry block %q", label)
	}
	if c.exit != nil && *c.exit == label {
		return fmt.Errorf("cannot remove exit block %q", label)
	}
	b, err := c.GetNode(label)
	if err != nil {
		return err
	}

	for _, p := range b.PrevBlocks() {
		if p == label {
			continue
		}
		pb := c.blocks[p]
		pb.next = removeAdjacent(pb.next, label)
	}
	for _, n := range b.NextBlocks() {
		if n == label {
			continue
		}
		nb := c.blocks[n]
		nb.prev = removeAdjacent(nb.prev, label)
	}

	delete(c.blocks, label)
	for i, l := range c.order {
		if l == label {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// String renders the blocks reachable from the entry, depth first, for
// debugging. Not a stable, parseable format.
func (c *CFG) String() string {
	var sb strings.Builder
	visited := make(map[Label]bool, len(c.blocks))
	stack := []Label{c.entry}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		b := c.blocks[cur]
		sb.WriteString(b.String())
		next := b.NextBlocks()
		// push in reverse so the leftmost successor is visited first
		for i := len(next) - 1; i >= 0; i-- {
			if !visited[next[i]] {
				stack = append(stack, next[i])
			}
		}
	}
	return sb.String()
}
