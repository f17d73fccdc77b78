package cfg

// Stats summarizes a CFG for reporting: statement and memory-access counts
// plus the branch/join structure that drives fixpoint cost.
type Stats struct {
	Statements int `json:"statements"`
	Loads      int `json:"loads"`
	Stores     int `json:"stores"`
	// Branches counts blocks with more than one successor.
	Branches int `json:"branches"`
	// Joins counts blocks with more than one predecessor.
	Joins int `json:"joins"`
}

// CollectStats walks every block once and tallies the statistics.
func (c *CFG) CollectStats() Stats {
	var res Stats
	for _, label := range c.order {
		b := c.blocks[label]
		for _, s := range b.Statements() {
			res.Statements++
			switch s.(type) {
			case ArrayLoad:
				res.Loads++
			case ArrayStore:
				res.Stores++
			}
		}
		if len(b.prev) > 1 {
			res.Joins++
		}
		if len(b.next) > 1 {
			res.Branches++
		}
	}
	return res
}
