package observation

// MapEntry is one key value pair of a Map, also used for deleted items in
// a map's index map.
type MapEntry struct {
	Key   any
	Value any
}

// Map is the observable insertion-ordered map. Comparable keys are
// matched by value, while slices, maps and funcs are matched by identity.
// Any other non-comparable key panics.
type Map struct {
	entries []MapEntry
	index   map[any]int
	obs     *CollectionObserver
}

// NewMap panics on a key Map cannot hold.
func NewMap(entries ...MapEntry) *Map {
	m := &Map{index: map[any]int{}}
	for _, e := range entries {
		m.put(e.Key, e.Value)
	}
	return m
}

func (m *Map) Kind() CollectionKind              { return MapKind }
func (m *Map) observer() *CollectionObserver     { return m.obs }
func (m *Map) setObserver(o *CollectionObserver) { m.obs = o }
func (m *Map) Len() int                          { return len(m.entries) }

func (m *Map) Get(key any) (any, bool) {
	i, ok := m.index[indexKey(key)]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

func (m *Map) Has(key any) bool {
	_, ok := m.index[indexKey(key)]
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	out := make([]any, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}
	return out
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []MapEntry {
	out := make([]MapEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Set stores value under key. Replacing a value with the same value is a
// no-op. Set panics on a key Map cannot hold.
func (m *Map) Set(key, value any) *Map {
	if i, ok := m.index[indexKey(key)]; ok {
		old := m.entries[i].Value
		if SameValue(old, value) {
			return m
		}
		m.entries[i].Value = value
		if o := m.obs; o != nil {
			im := o.indexMap
			im.forget(im.Indices[i], MapEntry{Key: key, Value: old})
			im.Indices[i] = Inserted
			o.notify("set", []any{key, value})
		}
		return m
	}
	m.put(key, value)
	if o := m.obs; o != nil {
		o.indexMap.push(Inserted)
		o.notify("set", []any{key, value})
	}
	return m
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key any) bool {
	i, ok := m.index[indexKey(key)]
	if !ok {
		return false
	}
	removed := m.entries[i]
	m.entries = append(m.entries[:i:i], m.entries[i+1:]...)
	delete(m.index, indexKey(key))
	for j := i; j < len(m.entries); j++ {
		m.index[indexKey(m.entries[j].Key)] = j
	}
	if o := m.obs; o != nil {
		im := o.indexMap
		im.forget(im.Indices[i], removed)
		im.splice(i, 1)
		o.notify("delete", []any{key})
	}
	return true
}

func (m *Map) Clear() {
	if len(m.entries) == 0 {
		return
	}
	removed := m.entries
	m.entries = nil
	m.index = map[any]int{}
	if o := m.obs; o != nil {
		im := o.indexMap
		for i, e := range removed {
			im.forget(im.Indices[i], e)
		}
		im.Indices = im.Indices[:0]
		o.notify("clear", nil)
	}
}

func (m *Map) put(key, value any) {
	m.index[indexKey(key)] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
}
