package observation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// ErrNotSettable is returned when a property cannot be written.
var ErrNotSettable = errors.New("observation: property is not settable")

// PropertyHost is implemented by targets that expose their own dynamic
// properties, such as rendered nodes.
type PropertyHost interface {
	GetProperty(key string) any
	SetProperty(key string, v any) error
}

// HasProperty reports whether obj carries key.
func HasProperty(obj any, key string) bool {
	switch o := obj.(type) {
	case nil:
		return false
	case *Record:
		return o.Has(key)
	case map[string]any:
		_, ok := o[key]
		return ok
	case *Array:
		if key == "length" {
			return true
		}
		i, err := strconv.Atoi(key)
		return err == nil && i >= 0 && i < o.Len()
	case *Map:
		return key == "size"
	case *Set:
		return key == "size"
	case PropertyHost:
		return o.GetProperty(key) != nil
	}
	_, ok := structField(reflect.ValueOf(obj), key)
	return ok
}

// GetProperty reads key from obj. Missing properties read as nil.
func GetProperty(obj any, key string) any {
	switch o := obj.(type) {
	case nil:
		return nil
	case *Record:
		return o.Get(key)
	case map[string]any:
		return o[key]
	case *Array:
		if key == "length" {
			return o.Len()
		}
		if i, err := strconv.Atoi(key); err == nil {
			return o.At(i)
		}
		return nil
	case *Map:
		if key == "size" {
			return o.Len()
		}
		return nil
	case *Set:
		if key == "size" {
			return o.Len()
		}
		return nil
	case string:
		if key == "length" {
			return utf8.RuneCountInString(o)
		}
		return nil
	case PropertyHost:
		return o.GetProperty(key)
	}
	v := reflect.ValueOf(obj)
	if f, ok := structField(v, key); ok {
		return f.Interface()
	}
	if m, ok := mapValue(v); ok {
		mv := m.MapIndex(reflect.ValueOf(key))
		if mv.IsValid() {
			return mv.Interface()
		}
	}
	return nil
}

// SetProperty writes v to key on obj.
func SetProperty(obj any, key string, v any) error {
	switch o := obj.(type) {
	case nil:
		return fmt.Errorf("%w: %q on nil", ErrNotSettable, key)
	case *Record:
		o.Set(key, v)
		return nil
	case map[string]any:
		o[key] = v
		return nil
	case *Array:
		if key == "length" {
			n, err := toIndex(v)
			if err != nil {
				return err
			}
			o.SetLength(n)
			return nil
		}
		i, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: %q on array", ErrNotSettable, key)
		}
		o.SetAt(i, v)
		return nil
	case PropertyHost:
		return o.SetProperty(key, v)
	}
	rv := reflect.ValueOf(obj)
	if f, ok := structField(rv, key); ok {
		if !f.CanSet() {
			return fmt.Errorf("%w: %q on %T", ErrNotSettable, key, obj)
		}
		return assignReflect(f, v)
	}
	if m, ok := mapValue(rv); ok && m.Type().Key().Kind() == reflect.String {
		ev, err := convertReflect(v, m.Type().Elem())
		if err != nil {
			return err
		}
		m.SetMapIndex(reflect.ValueOf(key).Convert(m.Type().Key()), ev)
		return nil
	}
	return fmt.Errorf("%w: %q on %T", ErrNotSettable, key, obj)
}

// GetKeyed reads obj[key], picking index access for arrays and slices.
func GetKeyed(obj any, key any) any {
	switch o := obj.(type) {
	case *Array:
		if i, err := toIndex(key); err == nil {
			return o.At(i)
		}
	case *Map:
		v, _ := o.Get(key)
		return v
	case string:
		if i, err := toIndex(key); err == nil {
			r := []rune(o)
			if i >= 0 && i < len(r) {
				return string(r[i])
			}
			return nil
		}
	}
	if rv := reflect.ValueOf(obj); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if i, err := toIndex(key); err == nil {
			if i >= 0 && i < rv.Len() {
				return rv.Index(i).Interface()
			}
			return nil
		}
	}
	return GetProperty(obj, keyString(key))
}

// SetKeyed writes obj[key] = v.
func SetKeyed(obj any, key any, v any) error {
	switch o := obj.(type) {
	case *Array:
		if i, err := toIndex(key); err == nil {
			o.SetAt(i, v)
			return nil
		}
	case *Map:
		o.Set(key, v)
		return nil
	}
	if rv := reflect.ValueOf(obj); rv.Kind() == reflect.Slice {
		i, err := toIndex(key)
		if err != nil {
			return err
		}
		if i < 0 || i >= rv.Len() {
			return fmt.Errorf("%w: index %d out of range", ErrNotSettable, i)
		}
		return assignReflect(rv.Index(i), v)
	}
	return SetProperty(obj, keyString(key), v)
}

func keyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	default:
		return fmt.Sprint(k)
	}
}

func toIndex(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("observation: %v is not an index", v)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	}
	return 0, fmt.Errorf("observation: %v (%T) is not an index", v, v)
}

func structField(v reflect.Value, key string) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct || key == "" {
		return reflect.Value{}, false
	}
	if f := v.FieldByName(key); f.IsValid() && v.Type().Kind() == reflect.Struct {
		if sf, ok := v.Type().FieldByName(key); ok && sf.IsExported() {
			return f, true
		}
	}
	r, size := utf8.DecodeRuneInString(key)
	exported := string(unicode.ToUpper(r)) + key[size:]
	if sf, ok := v.Type().FieldByName(exported); ok && sf.IsExported() {
		return v.FieldByName(exported), true
	}
	return reflect.Value{}, false
}

func mapValue(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Map || v.IsNil() {
		return reflect.Value{}, false
	}
	return v, true
}

func assignReflect(dst reflect.Value, v any) error {
	cv, err := convertReflect(v, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(cv)
	return nil
}

func convertReflect(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) && isNumberKind(rv.Kind()) == isNumberKind(t.Kind()) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot assign %T to %s", ErrNotSettable, v, t)
}

func isNumberKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}
