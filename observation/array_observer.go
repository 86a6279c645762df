package observation

import (
	"fmt"
	"strings"
)

// Array is the observable list. Its mutators mirror the native list
// operations of the binding language; every mutation made while an
// observer is attached is recorded in that observer's index map.
type Array struct {
	items []any
	obs   *CollectionObserver
}

func NewArray(items ...any) *Array {
	a := &Array{items: make([]any, len(items))}
	copy(a.items, items)
	return a
}

func (a *Array) Kind() CollectionKind              { return ArrayKind }
func (a *Array) observer() *CollectionObserver     { return a.obs }
func (a *Array) setObserver(o *CollectionObserver) { a.obs = o }
func (a *Array) Len() int                          { return len(a.items) }

// At returns the element at i, or nil when i is out of range.
func (a *Array) At(i int) any {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Values returns a copy of the elements.
func (a *Array) Values() []any {
	out := make([]any, len(a.items))
	copy(out, a.items)
	return out
}

func (a *Array) IndexOf(v any) int {
	for i, x := range a.items {
		if SameValue(x, v) {
			return i
		}
	}
	return -1
}

func (a *Array) Includes(v any) bool {
	return a.IndexOf(v) >= 0
}

// Push appends items and returns the new length.
func (a *Array) Push(items ...any) int {
	a.items = append(a.items, items...)
	if o := a.obs; o != nil && len(items) > 0 {
		o.indexMap.push(insertedSlots(len(items))...)
		o.notify("push", items)
	}
	return len(a.items)
}

// Pop removes and returns the last element.
func (a *Array) Pop() any {
	n := len(a.items)
	if n == 0 {
		return nil
	}
	v := a.items[n-1]
	a.items[n-1] = nil
	a.items = a.items[:n-1]
	if o := a.obs; o != nil {
		im := o.indexMap
		im.forget(im.Indices[n-1], v)
		im.Indices = im.Indices[:n-1]
		o.notify("pop", nil)
	}
	return v
}

// Shift removes and returns the first element.
func (a *Array) Shift() any {
	if len(a.items) == 0 {
		return nil
	}
	v := a.items[0]
	a.items = append(a.items[:0:0], a.items[1:]...)
	if o := a.obs; o != nil {
		im := o.indexMap
		im.forget(im.Indices[0], v)
		im.Indices = append(im.Indices[:0:0], im.Indices[1:]...)
		o.notify("shift", nil)
	}
	return v
}

// Unshift prepends items and returns the new length.
func (a *Array) Unshift(items ...any) int {
	if len(items) == 0 {
		return len(a.items)
	}
	next := make([]any, 0, len(items)+len(a.items))
	next = append(next, items...)
	a.items = append(next, a.items...)
	if o := a.obs; o != nil {
		o.indexMap.unshift(insertedSlots(len(items))...)
		o.notify("unshift", items)
	}
	return len(a.items)
}

// Splice removes deleteCount elements at start, inserts items in their
// place and returns the removed elements. A negative start counts from the
// end; both arguments are clamped to the array bounds.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	n := len(a.items)
	switch {
	case start < 0:
		start = max(n+start, 0)
	case start > n:
		start = n
	}
	deleteCount = min(max(deleteCount, 0), n-start)

	removed := make([]any, deleteCount)
	copy(removed, a.items[start:start+deleteCount])
	next := make([]any, 0, n-deleteCount+len(items))
	next = append(next, a.items[:start]...)
	next = append(next, items...)
	a.items = append(next, a.items[start+deleteCount:]...)

	if o := a.obs; o != nil && (deleteCount > 0 || len(items) > 0) {
		im := o.indexMap
		for i, v := range removed {
			im.forget(im.Indices[start+i], v)
		}
		im.splice(start, deleteCount, insertedSlots(len(items))...)
		args := append([]any{start, deleteCount}, items...)
		o.notify("splice", args)
	}
	return removed
}

// Reverse reverses the array in place.
func (a *Array) Reverse() *Array {
	n := len(a.items)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		a.items[i], a.items[j] = a.items[j], a.items[i]
	}
	if o := a.obs; o != nil && n > 1 {
		im := o.indexMap.Indices
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			im[i], im[j] = im[j], im[i]
		}
		o.notify("reverse", nil)
	}
	return a
}

// Sort sorts the array in place with a stable sort. A nil less orders by
// string form with nil elements last.
func (a *Array) Sort(less func(x, y any) bool) *Array {
	if less == nil {
		less = defaultLess
	}
	if len(a.items) < 2 {
		return a
	}
	if o := a.obs; o != nil {
		trackedSort(a.items, o.indexMap.Indices, less)
		o.notify("sort", nil)
		return a
	}
	trackedSort(a.items, nil, less)
	return a
}

// SetAt assigns v at index i, growing the array with nil elements when i is
// past the end.
func (a *Array) SetAt(i int, v any) {
	if i < 0 {
		return
	}
	n := len(a.items)
	if i >= n {
		grow := i + 1 - n
		a.items = append(a.items, make([]any, grow)...)
		a.items[i] = v
		if o := a.obs; o != nil {
			o.indexMap.push(insertedSlots(grow)...)
			o.notify("set", []any{i, v})
		}
		return
	}
	old := a.items[i]
	if SameValue(old, v) {
		return
	}
	a.items[i] = v
	if o := a.obs; o != nil {
		im := o.indexMap
		im.forget(im.Indices[i], old)
		im.Indices[i] = Inserted
		o.notify("set", []any{i, v})
	}
}

// SetLength truncates or extends the array to n elements.
func (a *Array) SetLength(n int) {
	switch cur := len(a.items); {
	case n < 0 || n == cur:
	case n < cur:
		a.Splice(n, cur-n)
	default:
		a.Push(make([]any, n-cur)...)
	}
}

func (a *Array) String() string {
	parts := make([]string, len(a.items))
	for i, v := range a.items {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func defaultLess(x, y any) bool {
	switch {
	case x == nil:
		return false
	case y == nil:
		return true
	}
	return fmt.Sprint(x) < fmt.Sprint(y)
}
