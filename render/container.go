package render

import (
	"errors"
	"fmt"

	"github.com/delaneyj/viewparty/binding"
	"github.com/delaneyj/viewparty/expression"
)

var (
	// ErrNotRegistered is returned for keys nothing was registered under.
	ErrNotRegistered = errors.New("render: not registered")
	// ErrUnknownResource is returned when an instruction names a custom
	// element or attribute that is not registered.
	ErrUnknownResource = errors.New("render: unknown resource")
)

// Container is the keyed instance registry views resolve resources from.
type Container interface {
	Get(key string) (any, error)
	GetAll(key string) []any
	Register(key string, v any)
}

const (
	elementPrefix   = "element:"
	attributePrefix = "attribute:"
	converterPrefix = "valueConverter:"
	behaviorPrefix  = "bindingBehavior:"
)

// MapContainer is a Container backed by a map, falling back to a parent.
// It is also the expression resource locator of the views it serves.
type MapContainer struct {
	parent  Container
	entries map[string][]any
}

var _ expression.ResourceLocator = (*MapContainer)(nil)

func NewContainer(parent Container) *MapContainer {
	return &MapContainer{parent: parent, entries: map[string][]any{}}
}

// Child returns a container that resolves through c.
func (c *MapContainer) Child() *MapContainer {
	return NewContainer(c)
}

// Get returns the last value registered under key.
func (c *MapContainer) Get(key string) (any, error) {
	if vs := c.entries[key]; len(vs) > 0 {
		return vs[len(vs)-1], nil
	}
	if c.parent != nil {
		return c.parent.Get(key)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotRegistered, key)
}

// GetAll returns every value registered under key, parents first.
func (c *MapContainer) GetAll(key string) []any {
	var out []any
	if c.parent != nil {
		out = c.parent.GetAll(key)
	}
	return append(out, c.entries[key]...)
}

func (c *MapContainer) Register(key string, v any) {
	c.entries[key] = append(c.entries[key], v)
}

func (c *MapContainer) RegisterElement(def *CustomElementDefinition) {
	c.Register(elementPrefix+def.Name, def)
}

func (c *MapContainer) RegisterAttribute(def *CustomAttributeDefinition) {
	c.Register(attributePrefix+def.Name, def)
}

func (c *MapContainer) RegisterValueConverter(name string, vc expression.ValueConverter) {
	c.Register(converterPrefix+name, vc)
}

func (c *MapContainer) RegisterBindingBehavior(name string, bb expression.BindingBehavior) {
	c.Register(behaviorPrefix+name, bb)
}

func (c *MapContainer) ValueConverter(name string) (expression.ValueConverter, bool) {
	v, err := c.Get(converterPrefix + name)
	if err != nil {
		return nil, false
	}
	vc, ok := v.(expression.ValueConverter)
	return vc, ok
}

func (c *MapContainer) BindingBehavior(name string) (expression.BindingBehavior, bool) {
	v, err := c.Get(behaviorPrefix + name)
	if err != nil {
		return nil, false
	}
	bb, ok := v.(expression.BindingBehavior)
	return bb, ok
}

// LookupElement resolves the custom element registered as name.
func LookupElement(c Container, name string) (*CustomElementDefinition, error) {
	v, err := c.Get(elementPrefix + name)
	if err != nil {
		return nil, fmt.Errorf("%w: element %s", ErrUnknownResource, name)
	}
	def, ok := v.(*CustomElementDefinition)
	if !ok {
		return nil, fmt.Errorf("%w: element %s is a %T", ErrUnknownResource, name, v)
	}
	return def, nil
}

func lookupAttribute(c Container, name string) (*CustomAttributeDefinition, error) {
	v, err := c.Get(attributePrefix + name)
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %s", ErrUnknownResource, name)
	}
	def, ok := v.(*CustomAttributeDefinition)
	if !ok {
		return nil, fmt.Errorf("%w: attribute %s is a %T", ErrUnknownResource, name, v)
	}
	return def, nil
}

// RegisterStandardResources adds the mode binding behaviors and the if and
// repeat template controllers.
func RegisterStandardResources(c *MapContainer) {
	for _, m := range []binding.Mode{binding.OneTime, binding.ToView, binding.FromView, binding.TwoWay} {
		c.RegisterBindingBehavior(m.String(), binding.NewModeBehavior(m))
	}
	c.RegisterAttribute(IfDefinition)
	c.RegisterAttribute(RepeatDefinition)
}
