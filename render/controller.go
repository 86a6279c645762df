package render

import (
	"errors"
	"fmt"

	"github.com/delaneyj/viewparty/binding"
	"github.com/delaneyj/viewparty/observation"
)

type ControllerKind uint8

const (
	// ViewKind controllers own a synthetic view created by a ViewFactory.
	ViewKind ControllerKind = iota
	CustomElementKind
	CustomAttributeKind
)

func (k ControllerKind) String() string {
	switch k {
	case ViewKind:
		return "view"
	case CustomElementKind:
		return "customElement"
	case CustomAttributeKind:
		return "customAttribute"
	}
	return fmt.Sprintf("ControllerKind(%d)", uint8(k))
}

// CustomElementDefinition describes a custom element. Create returns a
// fresh view model; nil creates a Record.
type CustomElementDefinition struct {
	Name     string
	Template *Definition
	Create   func(ctx *HydrationContext) any
}

// CustomAttributeDefinition describes a custom attribute. Template
// controllers receive a view factory and a location in the context.
type CustomAttributeDefinition struct {
	Name               string
	TemplateController bool
	Create             func(ctx *HydrationContext) any
}

// HydrationContext is what custom elements and attributes are created
// with.
type HydrationContext struct {
	Renderer  *Renderer
	Container Container
	Host      *Node
	// Location and Factory are set for template controllers.
	Location *Node
	Factory  *ViewFactory
}

// View model hooks, called by the controller when implemented.
type (
	BindingHook interface {
		Binding(c *Controller, flags observation.Flags) error
	}
	BoundHook interface {
		Bound(c *Controller, flags observation.Flags) error
	}
	UnbindingHook interface {
		Unbinding(c *Controller, flags observation.Flags) error
	}
	UnboundHook interface {
		Unbound(c *Controller, flags observation.Flags) error
	}
	AttachedHook interface {
		Attached(c *Controller)
	}
	DetachedHook interface {
		Detached(c *Controller)
	}
)

// Controller drives the lifecycle of a view, custom element or custom
// attribute: its bindings, its child controllers and its nodes.
type Controller struct {
	Kind      ControllerKind
	Name      string
	ViewModel any
	// Scope is what the bindings of the controller evaluate against.
	// Custom elements and attributes have their own; views take the
	// scope they are bound with.
	Scope *observation.Scope
	// ParentScope is the scope a custom element or attribute was bound
	// within.
	ParentScope *observation.Scope
	Host        *Node
	Factory     *ViewFactory

	container Container
	fragment  *Node
	nodes     []*Node
	location  *Node

	bindings []binding.Binding
	children []*Controller
	hydrated map[*Node]map[string]any

	bound    bool
	attached bool
}

func newController(kind ControllerKind, name string, vm any) *Controller {
	c := &Controller{Kind: kind, Name: name, ViewModel: vm}
	if kind != ViewKind {
		c.Scope = observation.CreateScope(vm)
	}
	return c
}

func (c *Controller) AddBinding(b binding.Binding) { c.bindings = append(c.bindings, b) }
func (c *Controller) AddChild(child *Controller)   { c.children = append(c.children, child) }

func (c *Controller) Bindings() []binding.Binding { return c.bindings }
func (c *Controller) Children() []*Controller     { return c.children }
func (c *Controller) IsBound() bool               { return c.bound }
func (c *Controller) IsAttached() bool            { return c.attached }

// Container is what resources of the controller resolve from.
func (c *Controller) Container() Container { return c.container }

// Nodes returns the top level nodes of a view.
func (c *Controller) Nodes() []*Node { return c.nodes }

// SetLocation sets the marker a view is attached in front of.
func (c *Controller) SetLocation(location *Node) { c.location = location }

func (c *Controller) remember(n *Node, res string, vm any) {
	if c.hydrated == nil {
		c.hydrated = map[*Node]map[string]any{}
	}
	if c.hydrated[n] == nil {
		c.hydrated[n] = map[string]any{}
	}
	c.hydrated[n][res] = vm
}

func (c *Controller) hydratedOn(n *Node, res string) (any, bool) {
	vm, ok := c.hydrated[n][res]
	return vm, ok
}

// Bind binds the bindings then the children. Views bind to scope; custom
// elements and attributes keep their own scope and remember scope as
// their parent. Binding again to the same scope is a no-op.
func (c *Controller) Bind(flags observation.Flags, scope *observation.Scope) error {
	if c.bound {
		if c.ParentScope == scope {
			return nil
		}
		if err := c.Unbind(flags); err != nil {
			return err
		}
	}
	flags |= observation.FromBind
	if c.Kind == ViewKind {
		c.Scope = scope
	}
	c.ParentScope = scope
	if h, ok := c.ViewModel.(BindingHook); ok {
		if err := h.Binding(c, flags); err != nil {
			return err
		}
	}
	for _, b := range c.bindings {
		if err := b.Bind(flags, c.Scope); err != nil {
			return fmt.Errorf("render: bind %s: %w", c.describe(), err)
		}
	}
	for _, child := range c.children {
		if err := child.Bind(flags, c.Scope); err != nil {
			return err
		}
	}
	c.bound = true
	if h, ok := c.ViewModel.(BoundHook); ok {
		if err := h.Bound(c, flags); err != nil {
			return err
		}
	}
	return nil
}

// Unbind runs in reverse: children first, then bindings. Every error is
// collected.
func (c *Controller) Unbind(flags observation.Flags) error {
	if !c.bound {
		return nil
	}
	flags |= observation.FromUnbind
	var errs []error
	if h, ok := c.ViewModel.(UnbindingHook); ok {
		errs = append(errs, h.Unbinding(c, flags))
	}
	for i := len(c.children) - 1; i >= 0; i-- {
		errs = append(errs, c.children[i].Unbind(flags))
	}
	for i := len(c.bindings) - 1; i >= 0; i-- {
		errs = append(errs, c.bindings[i].Unbind(flags))
	}
	c.bound = false
	if c.Kind == ViewKind {
		c.Scope = nil
	}
	c.ParentScope = nil
	if h, ok := c.ViewModel.(UnboundHook); ok {
		errs = append(errs, h.Unbound(c, flags))
	}
	return errors.Join(errs...)
}

// Attach inserts the nodes of a view in front of its location and
// attaches the children.
func (c *Controller) Attach() {
	if c.attached {
		return
	}
	if c.location != nil && c.location.parent != nil {
		for _, n := range c.nodes {
			c.location.parent.InsertBefore(n, c.location)
		}
	}
	for _, child := range c.children {
		child.Attach()
	}
	c.attached = true
	if h, ok := c.ViewModel.(AttachedHook); ok {
		h.Attached(c)
	}
}

// Detach removes the nodes of a view from the tree, keeping them for a
// later Attach.
func (c *Controller) Detach() {
	if !c.attached {
		return
	}
	for i := len(c.children) - 1; i >= 0; i-- {
		c.children[i].Detach()
	}
	if c.location != nil {
		for _, n := range c.nodes {
			c.fragment.InsertBefore(n, nil)
		}
	}
	c.attached = false
	if h, ok := c.ViewModel.(DetachedHook); ok {
		h.Detached(c)
	}
}

func (c *Controller) moveBefore(ref *Node) {
	if ref == nil || ref.parent == nil {
		return
	}
	for _, n := range c.nodes {
		ref.parent.InsertBefore(n, ref)
	}
}

// Activate binds and attaches.
func (c *Controller) Activate(flags observation.Flags, scope *observation.Scope) error {
	if err := c.Bind(flags, scope); err != nil {
		return err
	}
	c.Attach()
	return nil
}

// Deactivate detaches and unbinds.
func (c *Controller) Deactivate(flags observation.Flags) error {
	c.Detach()
	return c.Unbind(flags)
}

func (c *Controller) describe() string {
	if c.Name == "" {
		return c.Kind.String()
	}
	return c.Kind.String() + " " + c.Name
}
