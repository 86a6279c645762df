package observation

// Set is the observable insertion-ordered set. Comparable members are
// matched by value, while slices, maps and funcs are matched by identity.
// Adding any other non-comparable value, such as a struct holding a
// slice, panics.
type Set struct {
	values []any
	index  map[any]int
	obs    *CollectionObserver
}

// NewSet panics when a value cannot be a member.
func NewSet(values ...any) *Set {
	s := &Set{index: map[any]int{}}
	for _, v := range values {
		if k := indexKey(v); !s.has(k) {
			s.index[k] = len(s.values)
			s.values = append(s.values, v)
		}
	}
	return s
}

func (s *Set) Kind() CollectionKind              { return SetKind }
func (s *Set) observer() *CollectionObserver     { return s.obs }
func (s *Set) setObserver(o *CollectionObserver) { s.obs = o }
func (s *Set) Len() int                          { return len(s.values) }

func (s *Set) Has(v any) bool { return s.has(indexKey(v)) }

func (s *Set) has(k any) bool {
	_, ok := s.index[k]
	return ok
}

// Values returns the members in insertion order.
func (s *Set) Values() []any {
	out := make([]any, len(s.values))
	copy(out, s.values)
	return out
}

// Add inserts v. Adding a present member changes nothing. Add panics
// when v cannot be a member.
func (s *Set) Add(v any) *Set {
	k := indexKey(v)
	if s.has(k) {
		return s
	}
	s.index[k] = len(s.values)
	s.values = append(s.values, v)
	if o := s.obs; o != nil {
		o.indexMap.push(Inserted)
		o.notify("add", []any{v})
	}
	return s
}

// Delete removes v and reports whether it was present.
func (s *Set) Delete(v any) bool {
	i, ok := s.index[indexKey(v)]
	if !ok {
		return false
	}
	s.values = append(s.values[:i:i], s.values[i+1:]...)
	delete(s.index, indexKey(v))
	for j := i; j < len(s.values); j++ {
		s.index[indexKey(s.values[j])] = j
	}
	if o := s.obs; o != nil {
		im := o.indexMap
		im.forget(im.Indices[i], v)
		im.splice(i, 1)
		o.notify("delete", []any{v})
	}
	return true
}

func (s *Set) Clear() {
	if len(s.values) == 0 {
		return
	}
	removed := s.values
	s.values = nil
	s.index = map[any]int{}
	if o := s.obs; o != nil {
		im := o.indexMap
		for i, v := range removed {
			im.forget(im.Indices[i], v)
		}
		im.Indices = im.Indices[:0]
		o.notify("clear", nil)
	}
}
