package router

import (
	"fmt"
	"log"

	"github.com/delaneyj/viewparty/observation"
	"github.com/delaneyj/viewparty/render"
)

const DefaultViewport = "default"

// ViewportDefinition registers the viewport custom element.
var ViewportDefinition = &render.CustomElementDefinition{
	Name:   "viewport",
	Create: func(ctx *render.HydrationContext) any { return NewViewport(ctx) },
}

// Register adds the custom elements of the router to c.
func Register(c *render.MapContainer) {
	c.RegisterElement(ViewportDefinition)
}

// Viewport is where a routed component renders. It registers with the
// route context of the component whose template contains it.
type Viewport struct {
	Name string
	// Default is the component loaded when no instruction targets the
	// viewport.
	Default string
	// UsedBy restricts the viewport to a comma separated list of
	// components.
	UsedBy string

	container render.Container
	host      *render.Node
	ctx       *RouteContext
	agent     *ViewportAgent
	logger    *log.Logger
}

func NewViewport(ctx *render.HydrationContext) *Viewport {
	return &Viewport{Name: DefaultViewport, host: ctx.Host, container: ctx.Container}
}

// Agent returns the agent of the viewport, nil while it is unbound.
func (vp *Viewport) Agent() *ViewportAgent { return vp.agent }

// Host returns the element routed components are appended to.
func (vp *Viewport) Host() *render.Node { return vp.host }

func (vp *Viewport) GetProperty(key string) any {
	switch key {
	case "name":
		return vp.Name
	case "default":
		return vp.Default
	case "usedBy":
		return vp.UsedBy
	}
	return nil
}

func (vp *Viewport) SetProperty(key string, v any) error {
	s, ok := v.(string)
	if !ok && v != nil {
		s = fmt.Sprint(v)
	}
	switch key {
	case "name":
		if s == "" {
			s = DefaultViewport
		}
		vp.Name = s
	case "default":
		vp.Default = s
	case "usedBy":
		vp.UsedBy = s
	default:
		return fmt.Errorf("router: viewport has no property %s: %w", key, observation.ErrNotSettable)
	}
	return nil
}

func (vp *Viewport) Binding(_ *render.Controller, _ observation.Flags) error {
	if vp.container == nil {
		return fmt.Errorf("router: viewport %s has no container", vp.Name)
	}
	ctx, err := ContextOf(vp.container)
	if err != nil {
		return err
	}
	vp.ctx = ctx
	vp.logger = ctx.router.logger
	vp.agent = ctx.registerViewport(vp)
	return nil
}

func (vp *Viewport) Attached(*render.Controller) {
	if vp.agent == nil {
		return
	}
	if err := vp.agent.activateFromViewport(); err != nil && vp.logger != nil {
		vp.logger.Printf("router: activate viewport %s: %v", vp.Name, err)
	}
}

func (vp *Viewport) Detached(*render.Controller) {
	if vp.agent == nil {
		return
	}
	if err := vp.agent.deactivateFromViewport(); err != nil && vp.logger != nil {
		vp.logger.Printf("router: deactivate viewport %s: %v", vp.Name, err)
	}
}

func (vp *Viewport) Unbound(_ *render.Controller, _ observation.Flags) error {
	if vp.ctx != nil {
		vp.ctx.unregisterViewport(vp)
	}
	vp.ctx = nil
	vp.agent = nil
	return nil
}

func (vp *Viewport) String() string {
	return fmt.Sprintf("viewport(%s)", vp.Name)
}
