// Package router maps URLs onto a tree of viewports. A navigation is a
// Transition that moves every affected ViewportAgent through its guard,
// load and swap steps in a fixed order; guard hooks may veto or redirect
// it.
package router

// Batch counts outstanding work. Every step calls Push before it starts
// and Pop when it is done; the callback of a batch fires once its count
// returns to zero. Batches chained with ContinueWith share the counts of
// the batches before them, so a continuation only runs after all earlier
// work in the chain has finished.
type Batch struct {
	stack int
	cb    func(b *Batch)
	done  bool
	head  *Batch
	next  *Batch
}

// StartBatch creates the head of a chain. Nothing runs until Start.
func StartBatch(cb func(b *Batch)) *Batch {
	b := &Batch{cb: cb}
	b.head = b
	return b
}

// Push adds one pending operation to b and every batch after it.
func (b *Batch) Push() {
	for cur := b; cur != nil; cur = cur.next {
		cur.stack++
	}
}

// Pop finishes one pending operation, invoking each batch whose count
// reaches zero.
func (b *Batch) Pop() {
	for cur := b; cur != nil; cur = cur.next {
		cur.stack--
		if cur.stack == 0 {
			cur.invoke()
		}
	}
}

func (b *Batch) invoke() {
	cb := b.cb
	if cb == nil {
		return
	}
	b.cb = nil
	cb(b)
	b.done = true
}

// ContinueWith appends cb to the end of the chain and returns the new tail.
func (b *Batch) ContinueWith(cb func(b *Batch)) *Batch {
	cur := b
	for cur.next != nil {
		cur = cur.next
	}
	cur.next = &Batch{stack: cur.stack, cb: cb, head: b.head}
	return cur.next
}

// Start runs the chain from its head.
func (b *Batch) Start() *Batch {
	b.head.Push()
	b.head.Pop()
	return b
}

// Done reports whether the callback of b has run.
func (b *Batch) Done() bool { return b.done }

// Pending returns the outstanding count of b.
func (b *Batch) Pending() int { return b.stack }
