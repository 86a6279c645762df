package observation

import (
	"fmt"
	"math"
	"reflect"
)

// SameValue is the identity comparison used to decide whether a value
// changed. Comparable values compare with ==, reference kinds (maps,
// slices, funcs) compare by address, and NaN equals NaN.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Comparable() && vb.Comparable() {
		if fa, ok := a.(float64); ok {
			fb := b.(float64)
			if math.IsNaN(fa) && math.IsNaN(fb) {
				return true
			}
		}
		return a == b
	}
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}

type refKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// indexKey is the Go map key for v. Comparable values key as themselves
// and reference kinds key by address, matching SameValue. Any other
// value cannot be a key and panics.
func indexKey(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Comparable() {
		return v
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Func:
		return refKey{typ: rv.Type(), ptr: rv.Pointer()}
	case reflect.Slice:
		return refKey{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}
	}
	panic(fmt.Sprintf("observation: %T cannot be used as a key", v))
}
