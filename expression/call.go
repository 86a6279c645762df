package expression

import (
	"errors"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/delaneyj/viewparty/observation"
)

// ErrNotFunction is returned when a call expression targets a value that
// cannot be called.
var ErrNotFunction = errors.New("expression: not a function")

// Func is the preferred shape of functions placed in a binding context.
type Func func(args ...any) (any, error)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// call invokes fn with args. Besides Func, any Go function is accepted;
// arguments are converted to the parameter types and a trailing error
// result is returned as the call error.
func call(fn any, args []any) (any, error) {
	switch f := fn.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrNotFunction)
	case Func:
		return f(args...)
	case func(args ...any) (any, error):
		return f(args...)
	case func(args ...any) any:
		return f(args...), nil
	case func():
		f()
		return nil, nil
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrNotFunction, fn)
	}
	return callReflect(rv, args)
}

func callReflect(rv reflect.Value, args []any) (any, error) {
	t := rv.Type()
	in := make([]reflect.Value, 0, len(args))
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		var a any
		if i < len(args) {
			a = args[i]
		}
		v, err := convertArg(a, t.In(i))
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}
	if t.IsVariadic() {
		elem := t.In(fixed).Elem()
		for i := fixed; i < len(args); i++ {
			v, err := convertArg(args[i], elem)
			if err != nil {
				return nil, err
			}
			in = append(in, v)
		}
	}
	out := rv.Call(in)
	if n := len(out); n > 0 && t.Out(n-1) == errorType {
		var err error
		if !out[n-1].IsNil() {
			err = out[n-1].Interface().(error)
		}
		if n == 1 {
			return nil, err
		}
		return out[0].Interface(), err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if f, ok := asNumber(a); ok {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return reflect.ValueOf(int64(f)).Convert(t), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return reflect.ValueOf(uint64(f)).Convert(t), nil
		case reflect.Float32, reflect.Float64:
			return reflect.ValueOf(f).Convert(t), nil
		}
	}
	if t.Kind() == reflect.String {
		return reflect.ValueOf(ToString(a)).Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("expression: cannot pass %T as %s", a, t)
}

// method finds a callable member of obj: a function-valued property first,
// then a Go method, tried as written and capitalized.
func method(obj any, name string) (any, bool) {
	if v := observation.GetProperty(obj, name); v != nil {
		if reflect.ValueOf(v).Kind() == reflect.Func {
			return v, true
		}
	}
	if obj == nil {
		return nil, false
	}
	rv := reflect.ValueOf(obj)
	if m := rv.MethodByName(name); m.IsValid() {
		return m.Interface(), true
	}
	r, size := utf8.DecodeRuneInString(name)
	if m := rv.MethodByName(string(unicode.ToUpper(r)) + name[size:]); m.IsValid() {
		return m.Interface(), true
	}
	return nil, false
}
