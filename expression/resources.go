package expression

import (
	"errors"

	"github.com/delaneyj/viewparty/observation"
)

var (
	ErrUnknownConverter = errors.New("expression: unknown value converter")
	ErrUnknownBehavior  = errors.New("expression: unknown binding behavior")
)

// Binding is what expressions connect to and binding behaviors act on.
type Binding interface {
	observation.Connectable
}

// ValueConverter transforms a value on its way to the view.
type ValueConverter interface {
	ToView(value any, args ...any) (any, error)
}

// FromViewConverter is implemented by converters that also transform
// values written back from the view.
type FromViewConverter interface {
	FromView(value any, args ...any) (any, error)
}

// BindingBehavior adjusts a binding for as long as it is bound.
type BindingBehavior interface {
	Bind(flags observation.Flags, scope *observation.Scope, b Binding, args ...any) error
	Unbind(flags observation.Flags, scope *observation.Scope, b Binding) error
}

// ResourceLocator resolves named resources referenced by expressions.
type ResourceLocator interface {
	ValueConverter(name string) (ValueConverter, bool)
	BindingBehavior(name string) (BindingBehavior, bool)
}

// ConverterFuncs adapts plain functions to a ValueConverter. From may be
// nil.
type ConverterFuncs struct {
	To   func(value any, args ...any) (any, error)
	From func(value any, args ...any) (any, error)
}

func (c ConverterFuncs) ToView(value any, args ...any) (any, error) {
	if c.To == nil {
		return value, nil
	}
	return c.To(value, args...)
}

func (c ConverterFuncs) FromView(value any, args ...any) (any, error) {
	if c.From == nil {
		return value, nil
	}
	return c.From(value, args...)
}

// Resources is a name keyed resource registry. Lookups that miss fall back
// to the parent.
type Resources struct {
	parent     ResourceLocator
	converters map[string]ValueConverter
	behaviors  map[string]BindingBehavior
}

func NewResources(parent ResourceLocator) *Resources {
	return &Resources{
		parent:     parent,
		converters: map[string]ValueConverter{},
		behaviors:  map[string]BindingBehavior{},
	}
}

func (r *Resources) RegisterValueConverter(name string, c ValueConverter) {
	r.converters[name] = c
}

func (r *Resources) RegisterBindingBehavior(name string, b BindingBehavior) {
	r.behaviors[name] = b
}

func (r *Resources) ValueConverter(name string) (ValueConverter, bool) {
	if r == nil {
		return nil, false
	}
	if c, ok := r.converters[name]; ok {
		return c, true
	}
	if r.parent != nil {
		return r.parent.ValueConverter(name)
	}
	return nil, false
}

func (r *Resources) BindingBehavior(name string) (BindingBehavior, bool) {
	if r == nil {
		return nil, false
	}
	if b, ok := r.behaviors[name]; ok {
		return b, true
	}
	if r.parent != nil {
		return r.parent.BindingBehavior(name)
	}
	return nil, false
}

func lookupConverter(r ResourceLocator, name string) (ValueConverter, bool) {
	if r == nil {
		return nil, false
	}
	return r.ValueConverter(name)
}

func lookupBehavior(r ResourceLocator, name string) (BindingBehavior, bool) {
	if r == nil {
		return nil, false
	}
	return r.BindingBehavior(name)
}
