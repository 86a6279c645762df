package observation

// Connectable is what expressions and computed getters report their
// dependencies to.
type Connectable interface {
	ObserveProperty(obj any, key string)
	ObserveCollection(c Collection)
}

// ConnectableOwner receives the notifications of the observers an
// ObserverRecord subscribed it to.
type ConnectableOwner interface {
	Subscriber
	BatchedSubscriber
}

// ObserverRecord remembers which observers an owner subscribed to and in
// which version. Owners bump the version, re-run their dependency
// collection, then call Unobserve(false) to drop whatever the new run did
// not touch.
type ObserverRecord struct {
	owner   ConnectableOwner
	version uint32

	props     map[PropertyObserver]uint32
	propOrder []PropertyObserver
	colls     map[*CollectionObserver]uint32
	collOrder []*CollectionObserver
}

func NewObserverRecord(owner ConnectableOwner) *ObserverRecord {
	return &ObserverRecord{owner: owner}
}

func (r *ObserverRecord) Version() uint32 {
	return r.version
}

// Bump starts a new collection round.
func (r *ObserverRecord) Bump() {
	r.version++
}

// Len reports how many observers are currently held.
func (r *ObserverRecord) Len() int {
	return len(r.props) + len(r.colls)
}

func (r *ObserverRecord) AddProperty(o PropertyObserver) {
	if r.props == nil {
		r.props = map[PropertyObserver]uint32{}
	}
	if _, ok := r.props[o]; !ok {
		r.propOrder = append(r.propOrder, o)
		o.Subscribe(r.owner)
	}
	r.props[o] = r.version
}

func (r *ObserverRecord) AddCollection(o *CollectionObserver) {
	if r.colls == nil {
		r.colls = map[*CollectionObserver]uint32{}
	}
	if _, ok := r.colls[o]; !ok {
		r.collOrder = append(r.collOrder, o)
		o.SubscribeBatched(r.owner)
	}
	r.colls[o] = r.version
}

// Unobserve unsubscribes from stale observers, or from every observer when
// all is set.
func (r *ObserverRecord) Unobserve(all bool) {
	if len(r.propOrder) > 0 {
		kept := r.propOrder[:0]
		for _, o := range r.propOrder {
			if all || r.props[o] != r.version {
				o.Unsubscribe(r.owner)
				delete(r.props, o)
				continue
			}
			kept = append(kept, o)
		}
		r.propOrder = kept
	}
	if len(r.collOrder) > 0 {
		kept := r.collOrder[:0]
		for _, o := range r.collOrder {
			if all || r.colls[o] != r.version {
				o.UnsubscribeBatched(r.owner)
				delete(r.colls, o)
				continue
			}
			kept = append(kept, o)
		}
		r.collOrder = kept
	}
}
