package observation

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotConfigurable is returned when redefining a property whose
// descriptor is not configurable.
var ErrNotConfigurable = errors.New("observation: property is not configurable")

// Getter computes a property. Reads that should count as dependencies must
// go through t; t is nil when nobody is tracking.
type Getter func(r *Record, t *Tracker) any

// Descriptor defines a computed property on a Record.
type Descriptor struct {
	Get Getter
	Set func(r *Record, v any)
	// NonConfigurable properties cannot be redefined and are observed by
	// dirty checking.
	NonConfigurable bool
	// Static collects dependencies once instead of after every evaluation.
	Static bool
}

// ChangeHandler is a per-property change callback.
type ChangeHandler func(newValue, oldValue any, flags Flags)

type interceptor interface {
	GetValue() any
	SetValue(v any, flags Flags)
}

// Record is the observable object of the runtime: an ordered property bag
// whose writes can be intercepted by observers. Structs and maps can be
// bound too, but only a Record gets push-based change notification for
// plain properties.
type Record struct {
	keys         []string
	values       map[string]any
	descriptors  map[string]*Descriptor
	handlers     map[string]ChangeHandler
	interceptors map[string]interceptor
	observers    map[string]PropertyObserver
}

func NewRecord() *Record {
	return &Record{values: map[string]any{}}
}

// RecordOf builds a record from alternating key, value pairs.
func RecordOf(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("observation: RecordOf needs key value pairs")
	}
	r := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("observation: RecordOf key %v is not a string", kv[i]))
		}
		r.setRaw(key, kv[i+1])
	}
	return r
}

// RecordFromMap copies m into a new record, keys in sorted order.
func RecordFromMap(m map[string]any) *Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	r := NewRecord()
	for _, k := range keys {
		r.setRaw(k, m[k])
	}
	return r
}

func (r *Record) Get(key string) any {
	if ic, ok := r.interceptors[key]; ok {
		return ic.GetValue()
	}
	if d, ok := r.descriptors[key]; ok && d.Get != nil {
		return d.Get(r, nil)
	}
	return r.values[key]
}

// Set writes key, routing through an installed observer or a descriptor
// setter. Writing a getter-only property is a no-op.
func (r *Record) Set(key string, v any) {
	if ic, ok := r.interceptors[key]; ok {
		ic.SetValue(v, FlagsNone)
		return
	}
	if d, ok := r.descriptors[key]; ok {
		if d.Set != nil {
			d.Set(r, v)
		}
		return
	}
	r.setRaw(key, v)
}

func (r *Record) Has(key string) bool {
	if _, ok := r.values[key]; ok {
		return true
	}
	_, ok := r.descriptors[key]
	return ok
}

// Delete removes a plain property. Observed or computed properties keep
// their observer; their value becomes nil.
func (r *Record) Delete(key string) {
	if ic, ok := r.interceptors[key]; ok {
		ic.SetValue(nil, FlagsNone)
		return
	}
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the property names in definition order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Record) Len() int {
	return len(r.keys)
}

// Define installs a computed property.
func (r *Record) Define(key string, d Descriptor) error {
	if old, ok := r.descriptors[key]; ok && old.NonConfigurable {
		return fmt.Errorf("%w: %q", ErrNotConfigurable, key)
	}
	if r.descriptors == nil {
		r.descriptors = map[string]*Descriptor{}
	}
	r.descriptors[key] = &d
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = nil
	return nil
}

// Descriptor returns the computed definition of key, if any.
func (r *Record) Descriptor(key string) (*Descriptor, bool) {
	d, ok := r.descriptors[key]
	return d, ok
}

// OnChange registers a callback run whenever key is flushed with a new
// value. It must be called before the property is first observed.
func (r *Record) OnChange(key string, h ChangeHandler) {
	if r.handlers == nil {
		r.handlers = map[string]ChangeHandler{}
	}
	r.handlers[key] = h
}

func (r *Record) changeHandler(key string) ChangeHandler {
	return r.handlers[key]
}

func (r *Record) getRaw(key string) any {
	return r.values[key]
}

func (r *Record) setRaw(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r *Record) intercept(key string, ic interceptor) {
	if r.interceptors == nil {
		r.interceptors = map[string]interceptor{}
	}
	r.interceptors[key] = ic
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
		r.values[key] = nil
	}
}

func (r *Record) release(key string) {
	delete(r.interceptors, key)
}

func (r *Record) cachedObserver(key string) (PropertyObserver, bool) {
	o, ok := r.observers[key]
	return o, ok
}

func (r *Record) cacheObserver(key string, o PropertyObserver) {
	if r.observers == nil {
		r.observers = map[string]PropertyObserver{}
	}
	r.observers[key] = o
}

func (r *Record) String() string {
	return fmt.Sprintf("Record%v", r.keys)
}
