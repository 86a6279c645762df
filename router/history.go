package router

// HistoryEntry is one URL the router committed.
type HistoryEntry struct {
	URL          string
	Title        string
	NavigationID uint64
}

// History is where committed navigations are recorded.
type History interface {
	Push(e HistoryEntry)
	Replace(e HistoryEntry)
	// Current returns the entry the router is at, the zero entry when
	// none was recorded.
	Current() HistoryEntry
	Len() int
	// Back moves one entry back and returns it. It reports false at the
	// first entry.
	Back() (HistoryEntry, bool)
}

// MemoryHistory is a History kept in a slice.
type MemoryHistory struct {
	entries []HistoryEntry
	index   int
}

// NewMemoryHistory starts a history at initial, or at no entry when
// initial is empty.
func NewMemoryHistory(initial string) *MemoryHistory {
	h := &MemoryHistory{index: -1}
	if initial != "" {
		h.Push(HistoryEntry{URL: initial})
	}
	return h
}

func (h *MemoryHistory) Push(e HistoryEntry) {
	h.entries = append(h.entries[:h.index+1], e)
	h.index++
}

func (h *MemoryHistory) Replace(e HistoryEntry) {
	if h.index < 0 {
		h.Push(e)
		return
	}
	h.entries[h.index] = e
}

func (h *MemoryHistory) Current() HistoryEntry {
	if h.index < 0 {
		return HistoryEntry{}
	}
	return h.entries[h.index]
}

func (h *MemoryHistory) Len() int { return len(h.entries) }

func (h *MemoryHistory) Back() (HistoryEntry, bool) {
	if h.index <= 0 {
		return HistoryEntry{}, false
	}
	h.index--
	return h.entries[h.index], true
}

// Entries returns the recorded entries, oldest first.
func (h *MemoryHistory) Entries() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}
