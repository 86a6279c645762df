package observation

import mapset "github.com/deckarep/golang-set/v2"

// Subscriber receives per-change notifications from a property observer.
type Subscriber interface {
	HandleChange(newValue, previousValue any, flags Flags)
}

// CollectionSubscriber receives one notification per collection mutator call
// with the mutator name and its raw arguments.
type CollectionSubscriber interface {
	HandleCollectionChange(method string, args []any, flags Flags)
}

// BatchedSubscriber receives one notification per flush with the index map
// accumulated since the previous flush.
type BatchedSubscriber interface {
	HandleBatchedChange(indexMap *IndexMap, flags Flags)
}

// Subscribers is an ordered registry of listeners without duplicates.
//
// Notification always iterates a snapshot: a listener added while a
// notification is running is not called in that pass, a listener removed
// while it is running still is.
type Subscribers[T comparable] struct {
	members mapset.Set[T]
	order   []T
}

// Add inserts s and reports whether it was absent.
func (c *Subscribers[T]) Add(s T) bool {
	if c.members == nil {
		c.members = mapset.NewThreadUnsafeSet[T]()
	}
	if !c.members.Add(s) {
		return false
	}
	c.order = append(c.order, s)
	return true
}

// Remove deletes s and reports whether it was present.
func (c *Subscribers[T]) Remove(s T) bool {
	if c.members == nil || !c.members.Contains(s) {
		return false
	}
	c.members.Remove(s)
	for i, o := range c.order {
		if o == s {
			// copy-on-write so snapshots handed out earlier stay intact
			next := make([]T, 0, len(c.order)-1)
			next = append(next, c.order[:i]...)
			c.order = append(next, c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *Subscribers[T]) Has(s T) bool {
	return c.members != nil && c.members.Contains(s)
}

// Any reports whether at least one subscriber is registered.
func (c *Subscribers[T]) Any() bool {
	return len(c.order) > 0
}

func (c *Subscribers[T]) Len() int {
	return len(c.order)
}

// Snapshot returns the subscribers registered right now. Later mutations of
// the registry never show through the returned slice.
func (c *Subscribers[T]) Snapshot() []T {
	if len(c.order) == 0 {
		return nil
	}
	// Add appends in place, so cap the slice to keep appends off our copy.
	return c.order[:len(c.order):len(c.order)]
}

// Clear drops every subscriber.
func (c *Subscribers[T]) Clear() {
	c.members = nil
	c.order = nil
}

func callSubscribers(subs *Subscribers[Subscriber], newValue, previousValue any, flags Flags) {
	for _, s := range subs.Snapshot() {
		s.HandleChange(newValue, previousValue, flags)
	}
}
