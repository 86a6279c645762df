package observation

import (
	"log"
	"reflect"

	"github.com/delaneyj/viewparty/internal/logutil"
)

// ObjectObservationAdapter can supply an observer for properties the
// locator would otherwise dirty check.
type ObjectObservationAdapter interface {
	GetObserver(obj any, key string, desc *Descriptor) (PropertyObserver, bool)
}

// TargetObserverLocator supplies observers for rendering targets, such as
// the value of an input node.
type TargetObserverLocator interface {
	GetObserver(l *ObserverLocator, obj any, key string) (PropertyObserver, bool)
}

// TargetAccessorLocator supplies write-mostly accessors for rendering
// targets, such as attributes or style properties.
type TargetAccessorLocator interface {
	GetAccessor(l *ObserverLocator, obj any, key string) (Accessor, bool)
}

type ObserverLocatorOptions struct {
	ChangeSet       *ChangeSet
	DirtyChecker    *DirtyChecker
	Adapters        []ObjectObservationAdapter
	TargetObservers TargetObserverLocator
	TargetAccessors TargetAccessorLocator
	Logger          *log.Logger
}

type cacheKey struct {
	ptr uintptr
	typ reflect.Type
	key string
}

type cacheEntry struct {
	obj      any
	observer PropertyObserver
}

// ObserverLocator decides how a property is observed and hands out at most
// one observer per object and property.
type ObserverLocator struct {
	changeSet       *ChangeSet
	dirtyChecker    *DirtyChecker
	adapters        []ObjectObservationAdapter
	targetObservers TargetObserverLocator
	targetAccessors TargetAccessorLocator
	logger          *log.Logger

	cache map[cacheKey]cacheEntry
}

// NewObserverLocator creates a locator. Without a dirty checker a manual
// one is created; it only checks when its Check method is called.
func NewObserverLocator(opts ObserverLocatorOptions) *ObserverLocator {
	logger := logutil.OrDiscard(opts.Logger)
	dc := opts.DirtyChecker
	if dc == nil {
		dc = NewDirtyChecker(nil, DirtyCheckerOptions{Logger: logger})
	}
	return &ObserverLocator{
		changeSet:       opts.ChangeSet,
		dirtyChecker:    dc,
		adapters:        opts.Adapters,
		targetObservers: opts.TargetObservers,
		targetAccessors: opts.TargetAccessors,
		logger:          logger,
		cache:           map[cacheKey]cacheEntry{},
	}
}

func (l *ObserverLocator) ChangeSet() *ChangeSet {
	return l.changeSet
}

func (l *ObserverLocator) DirtyChecker() *DirtyChecker {
	return l.dirtyChecker
}

// AddAdapter registers an adapter consulted before dirty checking.
func (l *ObserverLocator) AddAdapter(a ObjectObservationAdapter) {
	l.adapters = append(l.adapters, a)
}

// SetTargetLocators installs the rendering layer hooks.
func (l *ObserverLocator) SetTargetLocators(o TargetObserverLocator, a TargetAccessorLocator) {
	l.targetObservers = o
	l.targetAccessors = a
}

// GetObserver returns the cached observer of obj.key, creating one on
// first use.
func (l *ObserverLocator) GetObserver(obj any, key string) PropertyObserver {
	if r, ok := obj.(*Record); ok {
		if o, ok := r.cachedObserver(key); ok {
			return o
		}
		o := l.createObserver(obj, key)
		r.cacheObserver(key, o)
		return o
	}
	ck, cacheable := l.cacheKey(obj, key)
	if cacheable {
		if e, ok := l.cache[ck]; ok {
			return e.observer
		}
	}
	o := l.createObserver(obj, key)
	if cacheable {
		l.cache[ck] = cacheEntry{obj: obj, observer: o}
	}
	return o
}

// GetAccessor returns an accessor for obj.key. Accessors are never cached.
func (l *ObserverLocator) GetAccessor(obj any, key string) Accessor {
	if l.targetAccessors != nil {
		if a, ok := l.targetAccessors.GetAccessor(l, obj, key); ok {
			return a
		}
	}
	return &PropertyAccessor{Obj: obj, Key: key, OnError: func(err error) {
		l.logger.Printf("observation: %v", err)
	}}
}

// CollectionObserver returns the observer attached to c, attaching one on
// first use.
func (l *ObserverLocator) CollectionObserver(c Collection) *CollectionObserver {
	return newCollectionObserver(l.changeSet, c)
}

// Forget drops every cached observer of a non-Record object.
func (l *ObserverLocator) Forget(obj any) {
	for k, e := range l.cache {
		if SameValue(e.obj, obj) {
			delete(l.cache, k)
		}
	}
}

func (l *ObserverLocator) createObserver(obj any, key string) PropertyObserver {
	if l.targetObservers != nil {
		if o, ok := l.targetObservers.GetObserver(l, obj, key); ok {
			return o
		}
	}
	switch c := obj.(type) {
	case *Array:
		if key == "length" {
			return l.CollectionObserver(c).LengthObserver()
		}
	case *Map:
		if key == "size" {
			return l.CollectionObserver(c).LengthObserver()
		}
	case *Set:
		if key == "size" {
			return l.CollectionObserver(c).LengthObserver()
		}
	}
	if isPrimitive(obj) {
		return &PrimitiveObserver{obj: obj, key: key}
	}
	r, isRecord := obj.(*Record)
	var desc *Descriptor
	if isRecord {
		desc, _ = r.Descriptor(key)
		if desc != nil && desc.Get != nil {
			if desc.NonConfigurable {
				return l.dirtyCheck(obj, key)
			}
			return newComputedObserver(l, r, key, desc)
		}
	}
	for _, a := range l.adapters {
		if o, ok := a.GetObserver(obj, key, desc); ok {
			return o
		}
	}
	if isRecord {
		return newSetterObserver(l.changeSet, r, key, r.changeHandler(key))
	}
	return l.dirtyCheck(obj, key)
}

func (l *ObserverLocator) dirtyCheck(obj any, key string) PropertyObserver {
	l.logger.Printf("observation: dirty checking %T.%s", obj, key)
	return l.dirtyChecker.CreateProperty(obj, key)
}

func (l *ObserverLocator) cacheKey(obj any, key string) (cacheKey, bool) {
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return cacheKey{}, false
		}
		return cacheKey{ptr: v.Pointer(), typ: v.Type(), key: key}, true
	}
	return cacheKey{}, false
}
