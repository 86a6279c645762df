package observation

// Tracker is handed to computed getters. Every read made through it is
// recorded as a dependency of the computed property. A nil Tracker reads
// without recording.
type Tracker struct {
	connect Connectable
}

// NewTracker returns a tracker reporting reads to c.
func NewTracker(c Connectable) *Tracker {
	return &Tracker{connect: c}
}

// Get reads obj.key.
func (t *Tracker) Get(obj any, key string) any {
	if t != nil && t.connect != nil && obj != nil && !isPrimitive(obj) {
		if c, ok := obj.(Collection); ok && key != "length" && key != "size" {
			t.connect.ObserveCollection(c)
		} else {
			t.connect.ObserveProperty(obj, key)
		}
	}
	return GetProperty(obj, key)
}

// Len reads the element count of a collection.
func (t *Tracker) Len(c Collection) int {
	if t != nil && t.connect != nil {
		t.connect.ObserveCollection(c)
	}
	return c.Len()
}

// At reads obj[key].
func (t *Tracker) At(obj any, key any) any {
	if t != nil && t.connect != nil {
		if c, ok := obj.(Collection); ok {
			t.connect.ObserveCollection(c)
		} else if obj != nil && !isPrimitive(obj) {
			t.connect.ObserveProperty(obj, keyString(key))
		}
	}
	return GetKeyed(obj, key)
}

// ComputedObserver observes a Record property defined by a Descriptor.
// While it has subscribers it caches the getter result and subscribes to
// exactly the dependencies read by the latest evaluation.
type ComputedObserver struct {
	subs    Subscribers[Subscriber]
	locator *ObserverLocator
	obj     *Record
	key     string
	desc    *Descriptor
	deps    *ObserverRecord

	value     any
	observing bool
	collected bool
}

func newComputedObserver(l *ObserverLocator, obj *Record, key string, desc *Descriptor) *ComputedObserver {
	o := &ComputedObserver{locator: l, obj: obj, key: key, desc: desc}
	o.deps = NewObserverRecord(o)
	if desc.Set != nil {
		obj.intercept(key, o)
	}
	return o
}

func (o *ComputedObserver) GetValue() any {
	if o.observing {
		return o.value
	}
	return o.desc.Get(o.obj, nil)
}

// SetValue runs the descriptor setter. Getter-only properties ignore writes.
func (o *ComputedObserver) SetValue(v any, flags Flags) {
	if o.desc.Set == nil {
		return
	}
	o.desc.Set(o.obj, v)
	if o.observing {
		o.recompute(flags)
	}
}

func (o *ComputedObserver) Subscribe(s Subscriber) {
	if o.subs.Add(s) && o.subs.Len() == 1 {
		o.observing = true
		o.value = o.evaluate()
	}
}

func (o *ComputedObserver) Unsubscribe(s Subscriber) {
	if o.subs.Remove(s) && !o.subs.Any() {
		o.observing = false
		o.collected = false
		o.deps.Unobserve(true)
	}
}

func (o *ComputedObserver) HandleChange(_, _ any, flags Flags) {
	o.recompute(flags)
}

func (o *ComputedObserver) HandleBatchedChange(_ *IndexMap, flags Flags) {
	o.recompute(flags)
}

func (o *ComputedObserver) ObserveProperty(obj any, key string) {
	o.deps.AddProperty(o.locator.GetObserver(obj, key))
}

func (o *ComputedObserver) ObserveCollection(c Collection) {
	o.deps.AddCollection(o.locator.CollectionObserver(c))
}

// Dependencies reports how many observers the last evaluation subscribed to.
func (o *ComputedObserver) Dependencies() int {
	return o.deps.Len()
}

func (o *ComputedObserver) recompute(flags Flags) {
	if !o.observing {
		return
	}
	previous := o.value
	o.value = o.evaluate()
	if !SameValue(previous, o.value) {
		callSubscribers(&o.subs, o.value, previous, flags|UpdateTargetInstance)
	}
}

func (o *ComputedObserver) evaluate() any {
	if o.desc.Static && o.collected {
		return o.desc.Get(o.obj, nil)
	}
	o.deps.Bump()
	v := o.desc.Get(o.obj, NewTracker(o))
	o.deps.Unobserve(false)
	o.collected = true
	return v
}
