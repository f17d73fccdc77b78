package graph

// sparseThreshold is the element count beyond which an AdaptMap builds its
// sparse position index. Below it a linear scan over the dense array is
// cheaper than maintaining the index.
const sparseThreshold = 8

// Entry is one (key, value) pair in an AdaptMap. The value is a
// machine-width index into a caller-owned slot array.
type Entry struct {
	Key uint16
	Val int
}

// AdaptMap is an adaptive small map from 16-bit keys to slot indices.
//
// It starts as an unsorted dense array with linear-scan lookup. Once the
// element count exceeds sparseThreshold it additionally maintains a sparse
// index: a position array where sparse[key] holds a candidate dense slot.
// A lookup is then a single indexed read plus a back-pointer check
// (dense[sparse[key]].Key == key), which tolerates stale positions for keys
// that were never inserted or have been removed. Removal swaps the last
// dense element into the vacated slot, keeping the dense array packed.
//
// This gives O(1) amortized insert/remove/lookup once hot and O(n) only
// while the map is still small.
type AdaptMap struct {
	dense  []Entry
	sparse []uint16
}

// Len returns the number of entries.
func (m *AdaptMap) Len() int {
	return len(m.dense)
}

// Elem reports whether k is present.
func (m *AdaptMap) Elem(k uint16) bool {
	_, ok := m.Lookup(k)
	return ok
}

// Lookup returns the value stored under k.
func (m *AdaptMap) Lookup(k uint16) (int, bool) {
	if m.sparse != nil {
		if int(k) >= len(m.sparse) {
			return 0, false
		}
		idx := int(m.sparse[k])
		if idx < len(m.dense) && m.dense[idx].Key == k {
			return m.dense[idx].Val, true
		}
		return 0, false
	}
	for i := range m.dense {
		if m.dense[i].Key == k {
			return m.dense[i].Val, true
		}
	}
	return 0, false
}

// Add inserts k with value v. The key must not already be present; the
// deduplicating entry points live on AdaptGraph, not here.
func (m *AdaptMap) Add(k uint16, v int) {
	if m.sparse == nil && len(m.dense) >= sparseThreshold {
		m.buildSparse(k)
	}
	if m.sparse != nil && int(k) >= len(m.sparse) {
		m.growSparse(int(k) + 1)
	}
	m.dense = append(m.dense, Entry{Key: k, Val: v})
	if m.sparse != nil {
		m.sparse[k] = uint16(len(m.dense) - 1)
	}
}

// Remove deletes k. The key must be present.
func (m *AdaptMap) Remove(k uint16) {
	last := len(m.dense) - 1
	repl := m.dense[last]
	if m.sparse != nil {
		idx := int(m.sparse[k])
		m.dense[idx] = repl
		m.sparse[repl.Key] = uint16(idx)
	} else {
		for i := range m.dense {
			if m.dense[i].Key == k {
				m.dense[i] = repl
				break
			}
		}
	}
	m.dense = m.dense[:last]
}

// Clear drops all entries. The sparse index, if built, is retained; its now
// stale positions are rejected by the back-pointer check.
func (m *AdaptMap) Clear() {
	m.dense = m.dense[:0]
}

// Keys returns the keys in dense-array order. The result is a fresh slice.
func (m *AdaptMap) Keys() []uint16 {
	keys := make([]uint16, len(m.dense))
	for i, e := range m.dense {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a read-only view of the packed entries. The returned
// slice aliases the map's storage and is invalidated by any mutation.
func (m *AdaptMap) Entries() []Entry {
	return m.dense
}

// buildSparse switches the map to indexed lookups. The index is sized to
// cover the largest key seen so far plus the key about to be inserted, and
// grows by doubling from there.
func (m *AdaptMap) buildSparse(pending uint16) {
	max := int(pending)
	for _, e := range m.dense {
		if int(e.Key) > max {
			max = int(e.Key)
		}
	}
	m.sparse = make([]uint16, max+1)
	for i, e := range m.dense {
		m.sparse[e.Key] = uint16(i)
	}
}

// growSparse doubles the sparse index until it covers ub keys and
// reinstalls the back-pointers for all live entries.
func (m *AdaptMap) growSparse(ub int) {
	n := len(m.sparse)
	for n < ub {
		n *= 2
	}
	m.sparse = make([]uint16, n)
	for i, e := range m.dense {
		m.sparse[e.Key] = uint16(i)
	}
}
