package observation

// Accessor reads and writes one property without change notification.
type Accessor interface {
	GetValue() any
	SetValue(v any, flags Flags)
}

// Subscribable is the subscription half of an observer.
type Subscribable interface {
	Subscribe(s Subscriber)
	Unsubscribe(s Subscriber)
}

// PropertyObserver tracks one property of one object.
type PropertyObserver interface {
	Accessor
	Subscribable
}

// SetterObserver intercepts writes to a Record property and defers the
// write-through and notification to the change set. With a callback it is
// the observer of a property that declared a change handler.
type SetterObserver struct {
	subs      Subscribers[Subscriber]
	changeSet *ChangeSet
	obj       *Record
	key       string
	callback  ChangeHandler

	currentValue any
	oldValue     any
	flushed      <-chan struct{}
}

func newSetterObserver(cs *ChangeSet, obj *Record, key string, callback ChangeHandler) *SetterObserver {
	v := obj.getRaw(key)
	o := &SetterObserver{
		changeSet:    cs,
		obj:          obj,
		key:          key,
		callback:     callback,
		currentValue: v,
		oldValue:     v,
	}
	obj.intercept(key, o)
	return o
}

func (o *SetterObserver) GetValue() any {
	return o.currentValue
}

// SetValue records v. Bind-time and flush-time writes go through
// synchronously; anything else waits for the change set.
func (o *SetterObserver) SetValue(v any, flags Flags) {
	if SameValue(v, o.currentValue) {
		return
	}
	o.currentValue = v
	if flags&(FromFlush|FromBind) != 0 || o.changeSet == nil {
		o.flush(flags | FromFlush)
		return
	}
	o.flushed = o.changeSet.Add(o)
}

// Flushed returns a channel closed once the pending write has flushed.
func (o *SetterObserver) Flushed() <-chan struct{} {
	if o.flushed == nil {
		return closedChan
	}
	return o.flushed
}

func (o *SetterObserver) FlushChanges() {
	if !SameValue(o.oldValue, o.currentValue) {
		o.flush(FromFlush | UpdateTargetInstance)
	}
}

func (o *SetterObserver) flush(flags Flags) {
	previous := o.oldValue
	current := o.currentValue
	o.oldValue = current
	o.obj.setRaw(o.key, current)
	if o.callback != nil {
		o.callback(current, previous, flags)
	}
	callSubscribers(&o.subs, current, previous, flags|UpdateTargetInstance)
}

func (o *SetterObserver) Subscribe(s Subscriber) {
	o.subs.Add(s)
}

func (o *SetterObserver) Unsubscribe(s Subscriber) {
	o.subs.Remove(s)
}

func (o *SetterObserver) HasSubscribers() bool {
	return o.subs.Any()
}

// Dispose stops intercepting the property and drops all subscribers.
func (o *SetterObserver) Dispose() {
	o.obj.release(o.key)
	o.obj.setRaw(o.key, o.currentValue)
	o.subs.Clear()
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// PropertyAccessor is the generic passthrough accessor.
type PropertyAccessor struct {
	Obj any
	Key string
	// OnError receives write failures; nil drops them.
	OnError func(err error)
}

func (a *PropertyAccessor) GetValue() any {
	return GetProperty(a.Obj, a.Key)
}

func (a *PropertyAccessor) SetValue(v any, flags Flags) {
	if err := SetProperty(a.Obj, a.Key, v); err != nil && a.OnError != nil {
		a.OnError(err)
	}
}

// PrimitiveObserver observes a property of a primitive value. Only the
// length of a string reads as something; nothing ever changes.
type PrimitiveObserver struct {
	obj any
	key string
}

func (o *PrimitiveObserver) GetValue() any {
	if s, ok := o.obj.(string); ok && o.key == "length" {
		return GetProperty(s, "length")
	}
	return nil
}

func (o *PrimitiveObserver) SetValue(any, Flags)    {}
func (o *PrimitiveObserver) Subscribe(Subscriber)   {}
func (o *PrimitiveObserver) Unsubscribe(Subscriber) {}

func isPrimitive(obj any) bool {
	switch obj.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
