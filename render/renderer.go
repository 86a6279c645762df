package render

import (
	"errors"
	"fmt"
	"log"

	"github.com/delaneyj/viewparty/binding"
	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/internal/logutil"
	"github.com/delaneyj/viewparty/observation"
)

var (
	// ErrUnknownInstruction is returned for an instruction type the
	// renderer has no handler for.
	ErrUnknownInstruction = errors.New("render: unknown instruction")
	// ErrTargetMismatch is returned when a definition has a different
	// number of targets and instruction rows.
	ErrTargetMismatch = errors.New("render: targets and instruction rows differ")
	// ErrBadTarget is returned when an instruction meets a target it
	// cannot work with.
	ErrBadTarget = errors.New("render: instruction cannot apply to target")
)

type RendererOptions struct {
	Container Container
	Locator   *observation.ObserverLocator
	// Events defaults to an event manager without a delegation root.
	Events binding.EventManager
	// Expressions defaults to expression.DefaultCache.
	Expressions *expression.Cache
	Logger      *log.Logger
}

type instructionRenderer func(r *Renderer, c *Controller, target any, ins Instruction) error

// Renderer turns instructions into bindings and controllers.
type Renderer struct {
	container Container
	locator   *observation.ObserverLocator
	services  *binding.Services
	exprs     *expression.Cache
	logger    *log.Logger
	handlers  map[InstructionType]instructionRenderer
	factories map[uint64]*ViewFactory
}

// NewRenderer creates a renderer. The target locator for nodes is
// installed on the observer locator.
func NewRenderer(opts RendererOptions) *Renderer {
	logger := logutil.OrDiscard(opts.Logger)
	container := opts.Container
	if container == nil {
		container = NewContainer(nil)
	}
	locator := opts.Locator
	if locator == nil {
		locator = observation.NewObserverLocator(observation.ObserverLocatorOptions{Logger: logger})
	}
	TargetLocator{}.Install(locator)
	events := opts.Events
	if events == nil {
		events = NewEventManager(nil)
	}
	exprs := opts.Expressions
	if exprs == nil {
		exprs = expression.DefaultCache
	}
	var resources expression.ResourceLocator
	if rl, ok := container.(expression.ResourceLocator); ok {
		resources = rl
	}
	return &Renderer{
		container: container,
		locator:   locator,
		services: &binding.Services{
			Locator:   locator,
			Resources: resources,
			Events:    events,
			Logger:    logger,
		},
		exprs:     exprs,
		logger:    logger,
		handlers:  defaultHandlers(),
		factories: map[uint64]*ViewFactory{},
	}
}

func defaultHandlers() map[InstructionType]instructionRenderer {
	return map[InstructionType]instructionRenderer{
		TextBinding:               renderTextBinding,
		PropertyBinding:           renderPropertyBinding,
		ListenerBinding:           renderListener,
		CallBinding:               renderCallBinding,
		RefBinding:                renderRefBinding,
		StylePropertyBinding:      renderStylePropertyBinding,
		SetProperty:               renderSetProperty,
		SetAttribute:              renderSetAttribute,
		HydrateElement:            renderHydrateElement,
		HydrateAttribute:          renderHydrateAttribute,
		HydrateTemplateController: renderHydrateTemplateController,
		HydrateLetElement:         renderHydrateLetElement,
	}
}

func (r *Renderer) Container() Container                   { return r.container }
func (r *Renderer) Locator() *observation.ObserverLocator { return r.locator }
func (r *Renderer) Services() *binding.Services           { return r.services }

// Factory returns the view factory of def. Definitions with the same
// fingerprint share one factory.
func (r *Renderer) Factory(def *Definition) (*ViewFactory, error) {
	fp := def.Fingerprint()
	if f, ok := r.factories[fp]; ok {
		return f, nil
	}
	f, err := newViewFactory(r, def, fp)
	if err != nil {
		return nil, err
	}
	r.factories[fp] = f
	return f, nil
}

// Factories returns how many distinct definitions have been compiled.
func (r *Renderer) Factories() int {
	return len(r.factories)
}

// Hydrate renders the custom element def into host with vm as its view
// model. A nil vm is created by the definition.
func (r *Renderer) Hydrate(host *Node, def *CustomElementDefinition, vm any) (*Controller, error) {
	return r.HydrateIn(r.container, host, def, vm)
}

// HydrateIn is Hydrate with resources resolved from container.
func (r *Renderer) HydrateIn(container Container, host *Node, def *CustomElementDefinition, vm any) (*Controller, error) {
	if vm == nil {
		vm = createElement(def, &HydrationContext{Renderer: r, Container: container, Host: host})
	}
	c := newController(CustomElementKind, def.Name, vm)
	c.Host = host
	c.container = container
	if def.Template == nil {
		return c, nil
	}
	f, err := r.Factory(def.Template)
	if err != nil {
		return nil, err
	}
	frag, err := f.render(c)
	if err != nil {
		return nil, err
	}
	host.Append(frag)
	return c, nil
}

func createElement(def *CustomElementDefinition, ctx *HydrationContext) any {
	if def.Create == nil {
		return observation.NewRecord()
	}
	return def.Create(ctx)
}

func (r *Renderer) containerOf(c *Controller) Container {
	if c != nil && c.container != nil {
		return c.container
	}
	return r.container
}

// Render applies the rows of instructions to targets.
func (r *Renderer) Render(c *Controller, targets []*Node, rows [][]Instruction) error {
	if len(targets) != len(rows) {
		return fmt.Errorf("%w: %d targets, %d rows", ErrTargetMismatch, len(targets), len(rows))
	}
	for i, row := range rows {
		for _, ins := range row {
			if err := r.renderInstruction(c, targets[i], ins); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) renderInstruction(c *Controller, target any, ins Instruction) error {
	h, ok := r.handlers[ins.Type()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstruction, ins.Type())
	}
	return h(r, c, target, ins)
}

func (r *Renderer) parse(raw string, bt expression.BindingType) (expression.Expression, error) {
	e, err := r.exprs.Parse(raw, bt)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return e, nil
}

func nodeTarget(target any, ins Instruction) (*Node, error) {
	n, ok := target.(*Node)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %T", ErrBadTarget, ins.Type(), target)
	}
	return n, nil
}

func renderTextBinding(r *Renderer, c *Controller, target any, ins Instruction) error {
	n, err := nodeTarget(target, ins)
	if err != nil {
		return err
	}
	i := ins.(TextBindingInstruction)
	text := n
	if n.Type == CommentNode {
		text = NewText("")
		n.ReplaceWith(text)
	}
	e, err := r.parse(i.From, expression.IsInterpolation)
	if err != nil {
		return err
	}
	interp, ok := e.(*expression.Interpolation)
	if !ok || interp == nil {
		text.SetTextContent(i.From)
		return nil
	}
	c.AddBinding(binding.NewInterpolationBinding(r.services, interp, text, "textContent"))
	return nil
}

func renderPropertyBinding(r *Renderer, c *Controller, target any, ins Instruction) error {
	i := ins.(PropertyBindingInstruction)
	if !i.Iterator {
		e, err := r.parse(i.From, expression.IsInterpolation)
		if err != nil {
			return err
		}
		if interp, ok := e.(*expression.Interpolation); ok && interp != nil {
			c.AddBinding(binding.NewInterpolationBinding(r.services, interp, target, i.To))
			return nil
		}
	}
	bt := expression.IsProperty
	if i.Iterator {
		bt = expression.IsIterator
	}
	e, err := r.parse(i.From, bt)
	if err != nil {
		return err
	}
	if forOf, ok := e.(*expression.ForOf); ok {
		if it, ok := target.(IteratorTarget); ok {
			it.SetLocal(forOf.Declaration.Name)
		}
	}
	c.AddBinding(binding.NewPropertyBinding(r.services, e, target, i.To, i.Mode))
	return nil
}

func renderListener(r *Renderer, c *Controller, target any, ins Instruction) error {
	i := ins.(ListenerInstruction)
	e, err := r.parse(i.From, expression.IsFunction)
	if err != nil {
		return err
	}
	c.AddBinding(binding.NewListener(r.services, i.To, i.Strategy, e, target, i.PreventDefault))
	return nil
}

func renderCallBinding(r *Renderer, c *Controller, target any, ins Instruction) error {
	i := ins.(CallBindingInstruction)
	e, err := r.parse(i.From, expression.IsFunction)
	if err != nil {
		return err
	}
	c.AddBinding(binding.NewCallBinding(r.services, e, target, i.To))
	return nil
}

func renderRefBinding(r *Renderer, c *Controller, target any, ins Instruction) error {
	i := ins.(RefBindingInstruction)
	e, err := r.parse(i.From, expression.IsProperty)
	if err != nil {
		return err
	}
	ref := target
	if i.To != "" && i.To != "element" {
		n, err := nodeTarget(target, ins)
		if err != nil {
			return err
		}
		vm, ok := c.hydratedOn(n, i.To)
		if !ok {
			return fmt.Errorf("%w: ref to %s", ErrUnknownResource, i.To)
		}
		ref = vm
	}
	c.AddBinding(binding.NewRefBinding(r.services, e, ref))
	return nil
}

func renderStylePropertyBinding(r *Renderer, c *Controller, target any, ins Instruction) error {
	n, err := nodeTarget(target, ins)
	if err != nil {
		return err
	}
	i := ins.(StylePropertyBindingInstruction)
	e, err := r.parse(i.From, expression.IsProperty)
	if err != nil {
		return err
	}
	c.AddBinding(binding.NewPropertyBinding(r.services, e, n.Style(), i.To, binding.ToView))
	return nil
}

func renderSetProperty(_ *Renderer, _ *Controller, target any, ins Instruction) error {
	i := ins.(SetPropertyInstruction)
	if err := observation.SetProperty(target, i.To, i.Value); err != nil {
		return fmt.Errorf("render: set %s: %w", i.To, err)
	}
	return nil
}

func renderSetAttribute(_ *Renderer, _ *Controller, target any, ins Instruction) error {
	n, err := nodeTarget(target, ins)
	if err != nil {
		return err
	}
	i := ins.(SetAttributeInstruction)
	n.SetAttr(i.To, i.Value)
	return nil
}

func renderHydrateElement(r *Renderer, c *Controller, target any, ins Instruction) error {
	host, err := nodeTarget(target, ins)
	if err != nil {
		return err
	}
	i := ins.(HydrateElementInstruction)
	container := r.containerOf(c)
	def, err := LookupElement(container, i.Res)
	if err != nil {
		return err
	}
	vm := createElement(def, &HydrationContext{Renderer: r, Container: container, Host: host})
	for _, sub := range i.Instructions {
		if err := r.renderInstruction(c, vm, sub); err != nil {
			return err
		}
	}
	child, err := r.HydrateIn(container, host, def, vm)
	if err != nil {
		return err
	}
	c.remember(host, i.Res, vm)
	c.AddChild(child)
	return nil
}

func renderHydrateAttribute(r *Renderer, c *Controller, target any, ins Instruction) error {
	host, err := nodeTarget(target, ins)
	if err != nil {
		return err
	}
	i := ins.(HydrateAttributeInstruction)
	container := r.containerOf(c)
	def, err := lookupAttribute(container, i.Res)
	if err != nil {
		return err
	}
	vm := def.Create(&HydrationContext{Renderer: r, Container: container, Host: host})
	for _, sub := range i.Instructions {
		if err := r.renderInstruction(c, vm, sub); err != nil {
			return err
		}
	}
	child := newController(CustomAttributeKind, def.Name, vm)
	child.Host = host
	child.container = container
	c.remember(host, i.Res, vm)
	c.AddChild(child)
	return nil
}

func renderHydrateTemplateController(r *Renderer, c *Controller, target any, ins Instruction) error {
	location, err := nodeTarget(target, ins)
	if err != nil {
		return err
	}
	i := ins.(HydrateTemplateControllerInstruction)
	container := r.containerOf(c)
	def, err := lookupAttribute(container, i.Res)
	if err != nil {
		return err
	}
	if !def.TemplateController {
		return fmt.Errorf("%w: %s is not a template controller", ErrUnknownResource, i.Res)
	}
	f, err := r.Factory(i.Def)
	if err != nil {
		return err
	}
	vm := def.Create(&HydrationContext{
		Renderer:  r,
		Container: container,
		Host:      location,
		Location:  location,
		Factory:   f,
	})
	for _, sub := range i.Instructions {
		if err := r.renderInstruction(c, vm, sub); err != nil {
			return err
		}
	}
	child := newController(CustomAttributeKind, def.Name, vm)
	child.Host = location
	child.Factory = f
	child.container = container
	c.remember(location, i.Res, vm)
	c.AddChild(child)
	return nil
}

func renderHydrateLetElement(r *Renderer, c *Controller, target any, ins Instruction) error {
	i := ins.(HydrateLetElementInstruction)
	for _, let := range i.Instructions {
		e, err := r.parse(let.From, expression.IsProperty)
		if err != nil {
			return err
		}
		c.AddBinding(binding.NewLetBinding(r.services, e, let.To, i.ToBindingContext))
	}
	if n, ok := target.(*Node); ok {
		n.Remove()
	}
	return nil
}
