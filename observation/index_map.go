package observation

// Inserted marks an index map slot whose element has no prior identity.
const Inserted = -2

// IndexMap describes how the positions of a collection moved since the last
// flush. Indices[i] >= 0 means the element now at i came from position
// Indices[i]; Inserted means it is new. DeletedItems holds removed elements
// that had a prior identity.
type IndexMap struct {
	Indices      []int
	DeletedItems []any
}

// NewIndexMap returns the identity map for a collection of n elements.
func NewIndexMap(n int) *IndexMap {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return &IndexMap{Indices: indices}
}

func (m *IndexMap) Len() int {
	return len(m.Indices)
}

// IsIdentity reports whether nothing moved, was inserted or was deleted.
func (m *IndexMap) IsIdentity() bool {
	if len(m.DeletedItems) > 0 {
		return false
	}
	for i, v := range m.Indices {
		if v != i {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (m *IndexMap) Clone() *IndexMap {
	c := &IndexMap{Indices: make([]int, len(m.Indices))}
	copy(c.Indices, m.Indices)
	if len(m.DeletedItems) > 0 {
		c.DeletedItems = make([]any, len(m.DeletedItems))
		copy(c.DeletedItems, m.DeletedItems)
	}
	return c
}

func (m *IndexMap) push(vals ...int) {
	m.Indices = append(m.Indices, vals...)
}

func (m *IndexMap) unshift(vals ...int) {
	next := make([]int, 0, len(vals)+len(m.Indices))
	next = append(next, vals...)
	m.Indices = append(next, m.Indices...)
}

func (m *IndexMap) splice(start, deleteCount int, vals ...int) {
	next := make([]int, 0, len(m.Indices)-deleteCount+len(vals))
	next = append(next, m.Indices[:start]...)
	next = append(next, vals...)
	m.Indices = append(next, m.Indices[start+deleteCount:]...)
}

// forget records removed, if it had an identity before this flush cycle.
func (m *IndexMap) forget(slot int, removed any) {
	if slot >= 0 {
		m.DeletedItems = append(m.DeletedItems, removed)
	}
}

func insertedSlots(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = Inserted
	}
	return s
}
