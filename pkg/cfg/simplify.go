package cfg

// SimplifyResult reports what the simplification passes did. The two flags
// mark structurally suspicious programs the caller should reject or inspect:
// the never-removable entry and exit blocks cannot be pruned even when the
// reachability walks find them dead.
type SimplifyResult struct {
	// Merged counts blocks folded into their predecessor.
	Merged int
	// UnreachableRemoved counts blocks unreachable from the entry.
	UnreachableRemoved int
	// DeadEndRemoved counts blocks that cannot reach the exit.
	DeadEndRemoved int
	// ExitUnreachable is set when the designated exit block is not
	// reachable from the entry. The exit is kept regardless.
	ExitUnreachable bool
	// EntryStranded is set when the entry block cannot reach the
	// designated exit. The entry is kept regardless.
	EntryStranded bool
}

// Changed reports whether simplification altered the graph at all.
func (r SimplifyResult) Changed() bool {
	return r.Merged > 0 || r.UnreachableRemoved > 0 || r.DeadEndRemoved > 0
}

// SimplifyOptions selects which simplification passes run.
type SimplifyOptions struct {
	// Merge enables straight-line block merging.
	Merge bool
	// Prune enables removal of blocks unreachable from the entry and of
	// blocks that cannot reach the exit.
	Prune bool
}

// Simplify runs all structural simplification passes: straight-line block
// merging, removal of blocks unreachable from the entry, removal of blocks
// that cannot reach the exit (when an exit is set), then merging again to
// catch opportunities the pruning exposed. The passes operate purely on
// labels, edges, and statement lists; statement semantics are never
// consulted.
func (c *CFG) Simplify() SimplifyResult {
	return c.SimplifyWith(SimplifyOptions{Merge: true, Prune: true})
}

// SimplifyWith runs the passes selected by opts.
func (c *CFG) SimplifyWith(opts SimplifyOptions) SimplifyResult {
	var res SimplifyResult
	if opts.Merge {
		res.Merged = c.mergeBlocks()
	}
	if opts.Prune {
		res.UnreachableRemoved, res.ExitUnreachable = c.removeUnreachable()
		if c.exit != nil {
			if _, ok := c.blocks[*c.exit]; ok {
				res.DeadEndRemoved, res.EntryStranded = c.removeDeadEnds()
			}
		}
	}
	if opts.Merge {
		res.Merged += c.mergeBlocks()
	}
	return res
}

// mergeBlocks folds every basic block that has exactly one predecessor and
// one successor into its predecessor, provided the predecessor has no other
// successor. Statements are concatenated in original order. Passes repeat
// until nothing changes, so chains of any length collapse fully.
func (c *CFG) mergeBlocks() int {
	merged := 0
	for {
		n := c.mergePass()
		if n == 0 {
			return merged
		}
		merged += n
	}
}

// mergePass performs one depth-first sweep from the entry, merging as it
// goes. The explicit stack and the visited set bound memory on adversarial
// inputs: arbitrarily deep chains and back edges both terminate.
func (c *CFG) mergePass() int {
	merged := 0
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
		if parent, child, ok := c.mergeCandidate(cur, b); ok {
			pb := c.blocks[parent]
			pb.moveBack(b)
			// Remove cannot fail: cur is neither entry nor exit.
			if err := c.Remove(cur); err != nil {
				panic(err)
			}
			if err := c.Connect(parent, child); err != nil {
				panic(err)
			}
			merged++
			stack = append(stack, child)
			continue
		}

		next := b.NextBlocks()
		for i := len(next) - 1; i >= 0; i-- {
			if !visited[next[i]] {
				stack = append(stack, next[i])
			}
		}
	}
	return merged
}

// mergeCandidate decides whether cur can be folded into its sole
// predecessor, and if so returns that predecessor and cur's sole successor.
func (c *CFG) mergeCandidate(cur Label, b *BasicBlock) (parent, child Label, ok bool) {
	if cur == c.entry || (c.exit != nil && *c.exit == cur) {
		return "", "", false
	}
	if len(b.prev) != 1 || len(b.next) != 1 {
		return "", "", false
	}
	parent, child = b.prev[0], b.next[0]
	// self loops are not mergeable
	if parent == cur || child == cur {
		return "", "", false
	}
	if len(c.blocks[parent].next) != 1 {
		return "", "", false
	}
	return parent, child, true
}

// removeUnreachable deletes every block a forward walk from the entry does
// not reach. The designated exit block is kept even when unreachable; the
// returned flag tells the caller the program is structurally suspect.
func (c *CFG) removeUnreachable() (removed int, exitUnreachable bool) {
	alive := c.reach(c.entry, func(b *BasicBlock) []Label { return b.next })

	for _, label := range c.Labels() {
		if alive[label] {
			continue
		}
		if c.exit != nil && *c.exit == label {
			exitUnreachable = true
			continue
		}
		if err := c.Remove(label); err != nil {
			panic(err)
		}
		removed++
	}
	return removed, exitUnreachable
}

// removeDeadEnds deletes every block a backward walk from the exit does not
// reach, i.e. blocks that cannot reach the exit. The entry block is kept
// even when stranded; the returned flag tells the caller.
func (c *CFG) removeDeadEnds() (removed int, entryStranded bool) {
	alive := c.reach(*c.exit, func(b *BasicBlock) []Label { return b.prev })

	for _, label := range c.Labels() {
		if alive[label] {
			continue
		}
		if label == c.entry {
			entryStranded = true
			continue
		}
		if err := c.Remove(label); err != nil {
			panic(err)
		}
		removed++
	}
	return removed, entryStranded
}

// reach marks every block reachable from root following the given edge
// direction, using an explicit worklist.
func (c *CFG) reach(root Label, edges func(*BasicBlock) []Label) map[Label]bool {
	alive := make(map[Label]bool, len(c.blocks))
	stack := []Label{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if alive[cur] {
			continue
		}
		alive[cur] = true
		for _, n := range edges(c.blocks[cur]) {
			if !alive[n] {
				stack = append(stack, n)
			}
		}
	}
	return alive
}
