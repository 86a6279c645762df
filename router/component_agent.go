package router

import (
	"github.com/delaneyj/viewparty/observation"
	"github.com/delaneyj/viewparty/render"
)

// Params are the route parameters of a RouteNode.
type Params = map[string]string

// Routing hooks a routed view model may implement. current is the node the
// component is loaded for; next is the node that replaces it, nil when the
// viewport is emptied.
type (
	CanLoadHook interface {
		CanLoad(params Params, next, current *RouteNode) (GuardResult, error)
	}
	LoadingHook interface {
		Loading(params Params, next, current *RouteNode) error
	}
	CanUnloadHook interface {
		CanUnload(next, current *RouteNode) (bool, error)
	}
	UnloadingHook interface {
		Unloading(next, current *RouteNode) error
	}
)

// Deferred forms of the routing hooks. The hook reports through done,
// once, either before it returns or later from the goroutine that drives
// the router. The navigation waits for every outstanding done.
type (
	DeferredCanLoadHook interface {
		CanLoadDeferred(params Params, next, current *RouteNode, done func(GuardResult, error))
	}
	DeferredLoadingHook interface {
		LoadingDeferred(params Params, next, current *RouteNode, done func(error))
	}
	DeferredCanUnloadHook interface {
		CanUnloadDeferred(next, current *RouteNode, done func(bool, error))
	}
	DeferredUnloadingHook interface {
		UnloadingDeferred(next, current *RouteNode, done func(error))
	}
)

// ComponentAgent is one instance of a routed component and its
// controller.
type ComponentAgent struct {
	Controller *render.Controller
	ViewModel  any

	host     *render.Node
	node     *RouteNode
	ctx      *RouteContext
	disposed bool
}

func newComponentAgent(c *render.Controller, host *render.Node, node *RouteNode, ctx *RouteContext) *ComponentAgent {
	return &ComponentAgent{Controller: c, ViewModel: c.ViewModel, host: host, node: node, ctx: ctx}
}

// Node returns the route node the component is loaded for.
func (ca *ComponentAgent) Node() *RouteNode { return ca.node }

// Host is the element the component renders into.
func (ca *ComponentAgent) Host() *render.Node { return ca.host }

func (ca *ComponentAgent) Disposed() bool { return ca.disposed }

func (ca *ComponentAgent) activate() error {
	if vpa := ca.ctx.vpa; vpa != nil && vpa.Viewport.host != nil && ca.host.Parent() == nil {
		vpa.Viewport.host.Append(ca.host)
	}
	return ca.Controller.Activate(observation.FlagsNone, nil)
}

func (ca *ComponentAgent) deactivate() error {
	err := ca.Controller.Deactivate(observation.FlagsNone)
	ca.host.Remove()
	return err
}

func (ca *ComponentAgent) dispose() { ca.disposed = true }

func (ca *ComponentAgent) canUnload(tr *Transition, next *RouteNode, b *Batch) {
	if tr.Err != nil || !tr.guardsOK() {
		return
	}
	deny := func(allow bool) {
		if !allow && tr.guardsOK() {
			tr.GuardsResult = DenyNavigation
		}
	}
	switch h := ca.ViewModel.(type) {
	case DeferredCanUnloadHook:
		tr.await(b, func(finish func(error)) {
			h.CanUnloadDeferred(next, ca.node, func(allow bool, err error) {
				if err == nil {
					deny(allow)
				}
				finish(err)
			})
		})
	case CanUnloadHook:
		tr.run(b, func() error {
			allow, err := h.CanUnload(next, ca.node)
			if err != nil {
				return err
			}
			deny(allow)
			return nil
		})
	}
}

func (ca *ComponentAgent) canLoad(tr *Transition, next *RouteNode, b *Batch) {
	if tr.Err != nil || !tr.guardsOK() {
		return
	}
	reject := func(res GuardResult) {
		if !res.OK() && tr.guardsOK() {
			tr.GuardsResult = res
		}
	}
	switch h := ca.ViewModel.(type) {
	case DeferredCanLoadHook:
		tr.await(b, func(finish func(error)) {
			h.CanLoadDeferred(next.Params, next, ca.node, func(res GuardResult, err error) {
				if err == nil {
					reject(res)
				}
				finish(err)
			})
		})
	case CanLoadHook:
		tr.run(b, func() error {
			res, err := h.CanLoad(next.Params, next, ca.node)
			if err != nil {
				return err
			}
			reject(res)
			return nil
		})
	}
}

func (ca *ComponentAgent) unloading(tr *Transition, next *RouteNode, b *Batch) {
	if tr.Err != nil || !tr.guardsOK() {
		return
	}
	switch h := ca.ViewModel.(type) {
	case DeferredUnloadingHook:
		tr.await(b, func(finish func(error)) { h.UnloadingDeferred(next, ca.node, finish) })
	case UnloadingHook:
		tr.run(b, func() error { return h.Unloading(next, ca.node) })
	}
}

func (ca *ComponentAgent) loading(tr *Transition, next *RouteNode, b *Batch) {
	if tr.Err != nil || !tr.guardsOK() {
		return
	}
	switch h := ca.ViewModel.(type) {
	case DeferredLoadingHook:
		tr.await(b, func(finish func(error)) {
			h.LoadingDeferred(next.Params, next, ca.node, func(err error) {
				ca.node = next
				finish(err)
			})
		})
	case LoadingHook:
		tr.run(b, func() error {
			err := h.Loading(next.Params, next, ca.node)
			ca.node = next
			return err
		})
	default:
		ca.node = next
	}
}
