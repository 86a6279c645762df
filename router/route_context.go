package router

import (
	"fmt"
	"slices"
	"strings"

	"github.com/delaneyj/viewparty/render"
)

const routeContextKey = "router:context"

// ViewportRequest asks for a viewport to load a component into. An empty
// ViewportName accepts any viewport.
type ViewportRequest struct {
	ViewportName  string
	ComponentName string
}

// RouteContext belongs to one routed component in one viewport. It holds
// the viewports that component rendered and recognizes its child routes.
type RouteContext struct {
	Config *RouteConfig

	router    *Router
	parent    *RouteContext
	vpa       *ViewportAgent
	container *render.MapContainer
	rec       *recognizer
	agents    []*ViewportAgent
}

func newRouteContext(r *Router, parent *RouteContext, vpa *ViewportAgent, cfg *RouteConfig, container render.Container) *RouteContext {
	ctx := &RouteContext{
		Config:    cfg,
		router:    r,
		parent:    parent,
		vpa:       vpa,
		container: render.NewContainer(container),
		rec:       newRecognizer(cfg.Children),
	}
	ctx.container.Register(routeContextKey, ctx)
	return ctx
}

// ContextOf returns the route context a container was created for.
func ContextOf(c render.Container) (*RouteContext, error) {
	v, err := c.Get(routeContextKey)
	if err != nil {
		return nil, fmt.Errorf("router: no route context: %w", err)
	}
	ctx, ok := v.(*RouteContext)
	if !ok {
		return nil, fmt.Errorf("router: %s is a %T", routeContextKey, v)
	}
	return ctx, nil
}

func (ctx *RouteContext) Parent() *RouteContext { return ctx.parent }
func (ctx *RouteContext) IsRoot() bool          { return ctx.parent == nil }
func (ctx *RouteContext) Router() *Router       { return ctx.router }

func (ctx *RouteContext) Root() *RouteContext {
	for ctx.parent != nil {
		ctx = ctx.parent
	}
	return ctx
}

// Container is what the component of the context is hydrated in.
func (ctx *RouteContext) Container() *render.MapContainer { return ctx.container }

// ViewportAgents returns the agents of the viewports registered here.
func (ctx *RouteContext) ViewportAgents() []*ViewportAgent { return slices.Clone(ctx.agents) }

// Agent returns the agent of the viewport hosting the component of the
// context, nil for the root.
func (ctx *RouteContext) Agent() *ViewportAgent { return ctx.vpa }

func (ctx *RouteContext) String() string {
	var parts []string
	for c := ctx; c != nil; c = c.parent {
		name := c.Config.Component
		if c.vpa != nil {
			name += "@" + c.vpa.Viewport.Name
		}
		parts = append(parts, name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

func (ctx *RouteContext) registerViewport(vp *Viewport) *ViewportAgent {
	for _, a := range ctx.agents {
		if a.Viewport == vp {
			return a
		}
	}
	a := newViewportAgent(vp, ctx)
	ctx.agents = append(ctx.agents, a)
	return a
}

func (ctx *RouteContext) unregisterViewport(vp *Viewport) {
	i := slices.IndexFunc(ctx.agents, func(a *ViewportAgent) bool { return a.Viewport == vp })
	if i < 0 {
		return
	}
	a := ctx.agents[i]
	ctx.agents = slices.Delete(ctx.agents, i, i+1)
	ctx.router.forgetContexts(a)
}

func (ctx *RouteContext) availableViewportAgents() []*ViewportAgent {
	var out []*ViewportAgent
	for _, a := range ctx.agents {
		if a.isAvailable() {
			out = append(out, a)
		}
	}
	return out
}

func (ctx *RouteContext) resolveViewportAgent(req ViewportRequest) (*ViewportAgent, error) {
	for _, a := range ctx.agents {
		if a.handles(req) {
			return a, nil
		}
	}
	name := req.ViewportName
	if name == "" {
		name = "*"
	}
	return nil, fmt.Errorf("%w: %s@%s at %s", ErrNoViewport, req.ComponentName, name, ctx)
}

// createComponentAgent hydrates a fresh instance of the component of the
// context for node.
func (ctx *RouteContext) createComponentAgent(node *RouteNode) (*ComponentAgent, error) {
	def, err := render.LookupElement(ctx.container, ctx.Config.Component)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	host := render.NewElement(def.Name)
	c, err := ctx.router.renderer.HydrateIn(ctx.container, host, def, nil)
	if err != nil {
		return nil, err
	}
	return newComponentAgent(c, host, node, ctx), nil
}
