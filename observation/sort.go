package observation

// insertionSortThreshold is the partition size at or below which the
// tracked sort switches to insertion sort.
const insertionSortThreshold = 10

type sortEntry struct {
	value any
	slot  int
	pos   int
}

// trackedSort sorts items in place and applies the same permutation to
// indices, which may be nil. Ties keep their original order.
func trackedSort(items []any, indices []int, less func(x, y any) bool) {
	entries := make([]sortEntry, len(items))
	for i, v := range items {
		entries[i] = sortEntry{value: v, pos: i}
		if indices != nil {
			entries[i].slot = indices[i]
		}
	}
	before := func(a, b *sortEntry) bool {
		if less(a.value, b.value) {
			return true
		}
		if less(b.value, a.value) {
			return false
		}
		return a.pos < b.pos
	}
	quickSort(entries, before)
	for i := range entries {
		items[i] = entries[i].value
		if indices != nil {
			indices[i] = entries[i].slot
		}
	}
}

func quickSort(e []sortEntry, before func(a, b *sortEntry) bool) {
	for len(e) > insertionSortThreshold {
		p := partition(e, before)
		// recurse into the smaller half to bound the stack
		if p < len(e)-p-1 {
			quickSort(e[:p], before)
			e = e[p+1:]
		} else {
			quickSort(e[p+1:], before)
			e = e[:p]
		}
	}
	insertionSort(e, before)
}

func insertionSort(e []sortEntry, before func(a, b *sortEntry) bool) {
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && before(&e[j], &e[j-1]); j-- {
			e[j], e[j-1] = e[j-1], e[j]
		}
	}
}

// partition orders e around a median-of-three pivot and returns the pivot's
// final position.
func partition(e []sortEntry, before func(a, b *sortEntry) bool) int {
	lo, mid, hi := 0, len(e)/2, len(e)-1
	if before(&e[mid], &e[lo]) {
		e[mid], e[lo] = e[lo], e[mid]
	}
	if before(&e[hi], &e[lo]) {
		e[hi], e[lo] = e[lo], e[hi]
	}
	if before(&e[hi], &e[mid]) {
		e[hi], e[mid] = e[mid], e[hi]
	}
	e[mid], e[hi] = e[hi], e[mid]
	pivot := hi
	store := lo
	for i := lo; i < hi; i++ {
		if before(&e[i], &e[pivot]) {
			e[i], e[store] = e[store], e[i]
			store++
		}
	}
	e[store], e[pivot] = e[pivot], e[store]
	return store
}
