// Package fixpoint runs chaotic iteration over a control-flow graph until
// the abstract states stop changing. The abstract domain itself (the join,
// widening, and transfer mathematics) is supplied by the caller; this
// package only orchestrates the worklist.
package fixpoint

import (
	"errors"
	"fmt"

	"github.com/NickCao/ebpf-verifier/pkg/cfg"
)

// ErrDiverged is returned when the iteration budget is exhausted before a
// fixpoint is reached.
var ErrDiverged = errors.New("fixpoint iteration budget exhausted")

// Graph is the exact traversal surface a fixpoint driver is written
// against. Both *cfg.CFG and *cfg.RevCFG satisfy it, so the same solver
// runs forward and backward analyses.
type Graph interface {
	Entry() cfg.Label
	NextNodes(cfg.Label) ([]cfg.Label, error)
	PrevNodes(cfg.Label) ([]cfg.Label, error)
}

var (
	_ Graph = (*cfg.CFG)(nil)
	_ Graph = (*cfg.RevCFG)(nil)
)

// State is an opaque abstract state owned by the Domain that produced it.
type State interface{}

// Domain supplies the abstract-interpretation mathematics. Implementations
// live outside this module; tests use trivial set domains.
type Domain interface {
	// Bottom is the state of a block not yet visited.
	Bottom() State
	// Initial is the state at the graph's entry.
	Initial() State
	// Transfer applies one block's statements to an incoming state.
	Transfer(label cfg.Label, in State) State
	// Join merges states at control-flow joins.
	Join(a, b State) State
	// Widen extrapolates after repeated visits so loops terminate.
	Widen(prev, next State) State
	// Equal decides whether propagation has stabilized.
	Equal(a, b State) bool
}

// Options tunes the solver.
type Options struct {
	// WideningDelay is the number of joins applied at a block before
	// widening kicks in. Zero widens immediately.
	WideningDelay int
	// MaxIterations bounds total worklist pops. Zero means 10000.
	MaxIterations int
}

// Solve iterates to a fixpoint and returns the stable pre-state of every
// visited block.
func Solve(g Graph, d Domain, opts Options) (map[cfg.Label]State, error) {
	in := map[cfg.Label]State{g.Entry(): d.Initial()}
	visits := make(map[cfg.Label]int)

	worklist := []cfg.Label{g.Entry()}
	queued := map[cfg.Label]bool{g.Entry(): true}

	budget := opts.MaxIterations
	if budget == 0 {
		budget = 10000
	}

	for iter := 0; len(worklist) > 0; iter++ {
		if iter >= budget {
			return nil, fmt.Errorf("%w after %d iterations", ErrDiverged, iter)
		}

		cur := worklist[0]
		worklist = worklist[1:]
		queued[cur] = false

		out := d.Transfer(cur, in[cur])

		succs, err := g.NextNodes(cur)
		if err != nil {
			return nil, err
		}
		for _, s := range succs {
			old, seen := in[s]
			if !seen {
				old = d.Bottom()
			}
			next := d.Join(old, out)
			visits[s]++
			if visits[s] > opts.WideningDelay {
				next = d.Widen(old, next)
			}
			if seen && d.Equal(old, next) {
				continue
			}
			in[s] = next
			if !queued[s] {
				worklist = append(worklist, s)
				queued[s] = true
			}
		}
	}
	return in, nil
}
