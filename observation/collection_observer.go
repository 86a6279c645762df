package observation

import "fmt"

// CollectionKind tells the three observable collection types apart.
type CollectionKind uint8

const (
	ArrayKind CollectionKind = iota
	MapKind
	SetKind
)

func (k CollectionKind) String() string {
	switch k {
	case ArrayKind:
		return "array"
	case MapKind:
		return "map"
	case SetKind:
		return "set"
	default:
		return fmt.Sprintf("CollectionKind(%d)", uint8(k))
	}
}

// Collection is implemented by Array, Map and Set. Mutations are tracked
// only once an observer has been attached through an ObserverLocator.
type Collection interface {
	Len() int
	Kind() CollectionKind

	observer() *CollectionObserver
	setObserver(o *CollectionObserver)
}

// CollectionObserver owns the index map of one collection. Mutators notify
// collection subscribers immediately with the method name and raw
// arguments; batched subscribers are notified once per flush with the
// accumulated index map.
type CollectionObserver struct {
	kind      CollectionKind
	coll      Collection
	changeSet *ChangeSet
	indexMap  *IndexMap

	subs    Subscribers[CollectionSubscriber]
	batched Subscribers[BatchedSubscriber]

	length  *CollectionLengthObserver
	lastLen int
}

func newCollectionObserver(cs *ChangeSet, c Collection) *CollectionObserver {
	if o := c.observer(); o != nil {
		return o
	}
	o := &CollectionObserver{
		kind:      c.Kind(),
		coll:      c,
		changeSet: cs,
		indexMap:  NewIndexMap(c.Len()),
		lastLen:   c.Len(),
	}
	c.setObserver(o)
	return o
}

func (o *CollectionObserver) Kind() CollectionKind {
	return o.kind
}

func (o *CollectionObserver) Collection() Collection {
	return o.coll
}

// IndexMap returns the map accumulated since the last flush.
func (o *CollectionObserver) IndexMap() *IndexMap {
	return o.indexMap
}

func (o *CollectionObserver) SubscribeCollection(s CollectionSubscriber) bool {
	return o.subs.Add(s)
}

func (o *CollectionObserver) UnsubscribeCollection(s CollectionSubscriber) bool {
	return o.subs.Remove(s)
}

func (o *CollectionObserver) SubscribeBatched(s BatchedSubscriber) bool {
	return o.batched.Add(s)
}

func (o *CollectionObserver) UnsubscribeBatched(s BatchedSubscriber) bool {
	return o.batched.Remove(s)
}

// LengthObserver returns the observer of length (arrays) or size (maps and
// sets).
func (o *CollectionObserver) LengthObserver() *CollectionLengthObserver {
	if o.length == nil {
		o.length = &CollectionLengthObserver{collection: o}
	}
	return o.length
}

// FlushChanges hands the accumulated index map to batched subscribers and
// starts a fresh identity map for the next cycle.
func (o *CollectionObserver) FlushChanges() {
	im := o.indexMap
	o.indexMap = NewIndexMap(o.coll.Len())
	for _, s := range o.batched.Snapshot() {
		s.HandleBatchedChange(im, FromFlush|UpdateTargetInstance)
	}
	if n := o.coll.Len(); n != o.lastLen {
		previous := o.lastLen
		o.lastLen = n
		if o.length != nil {
			callSubscribers(&o.length.subs, n, previous, FromFlush|UpdateTargetInstance)
		}
	}
}

func (o *CollectionObserver) notify(method string, args []any) {
	for _, s := range o.subs.Snapshot() {
		s.HandleCollectionChange(method, args, IsCollectionMutation)
	}
	if o.changeSet == nil {
		o.FlushChanges()
		return
	}
	o.changeSet.Add(o)
}

// CollectionLengthObserver observes the element count of a collection.
// Writing it truncates or extends an Array; maps and sets ignore writes.
type CollectionLengthObserver struct {
	subs       Subscribers[Subscriber]
	collection *CollectionObserver
}

func (o *CollectionLengthObserver) GetValue() any {
	return o.collection.coll.Len()
}

func (o *CollectionLengthObserver) SetValue(v any, flags Flags) {
	a, ok := o.collection.coll.(*Array)
	if !ok {
		return
	}
	if n, err := toIndex(v); err == nil && n >= 0 {
		a.SetLength(n)
	}
}

func (o *CollectionLengthObserver) Subscribe(s Subscriber) {
	o.subs.Add(s)
}

func (o *CollectionLengthObserver) Unsubscribe(s Subscriber) {
	o.subs.Remove(s)
}
