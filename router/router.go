package router

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/delaneyj/viewparty/internal/logutil"
	"github.com/delaneyj/viewparty/observation"
	"github.com/delaneyj/viewparty/render"
)

const defaultMaxRedirects = 10

// Options configure a Router.
type Options struct {
	Renderer *render.Renderer
	// Root is the custom element rendered into the host given to Start.
	// Its template holds the top level viewports.
	Root   *render.CustomElementDefinition
	Routes []*RouteConfig

	HistoryStrategy HistoryStrategy
	SameURLStrategy SameURLStrategy
	// TransitionPlan applies to navigations that do not set their own.
	TransitionPlan Plan
	// UseURLFragmentHash writes URLs as #/path instead of /path.
	UseURLFragmentHash bool
	// History defaults to an empty MemoryHistory.
	History History
	Logger  *log.Logger
	// MaxRedirects bounds the guard redirects one Load may follow.
	MaxRedirects int
}

type contextKey struct {
	vpa *ViewportAgent
	cfg *RouteConfig
}

// Router runs navigations against the viewports of a rendered root
// component. It is not safe for concurrent use; hooks that call Load
// queue a navigation behind the one running.
type Router struct {
	opts     Options
	renderer *render.Renderer
	logger   *log.Logger
	history  History
	events   EventBus

	host           *render.Node
	root           *RouteContext
	rootController *render.Controller
	contexts       map[contextKey]*RouteContext

	routeTree    *RouteTree
	instructions *ViewportInstructionTree
	navigated    bool

	lastID  uint64
	next    *Transition
	running bool
	started bool
}

func New(opts Options) (*Router, error) {
	if opts.Renderer == nil {
		return nil, errors.New("router: a renderer is required")
	}
	if opts.Root == nil {
		return nil, errors.New("router: a root component is required")
	}
	if opts.History == nil {
		opts.History = NewMemoryHistory("")
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	return &Router{
		opts:         opts,
		renderer:     opts.Renderer,
		logger:       logutil.OrDiscard(opts.Logger),
		history:      opts.History,
		contexts:     map[contextKey]*RouteContext{},
		instructions: &ViewportInstructionTree{},
	}, nil
}

// Start renders the root component into host and navigates to the current
// history entry.
func (r *Router) Start(host *render.Node) error {
	if r.started {
		return nil
	}
	root := &RouteConfig{Component: r.opts.Root.Name, Children: r.opts.Routes}
	r.root = newRouteContext(r, nil, nil, root, r.renderer.Container())
	Register(r.root.container)
	r.routeTree = newRouteTree(r.root)

	c, err := r.renderer.HydrateIn(r.root.container, host, r.opts.Root, nil)
	if err != nil {
		return fmt.Errorf("router: hydrate root: %w", err)
	}
	if err := c.Activate(observation.FlagsNone, nil); err != nil {
		return fmt.Errorf("router: activate root: %w", err)
	}
	r.host, r.rootController = host, c
	r.started = true

	initial := r.stripURL(r.history.Current().URL)
	r.logger.Printf("router: started at %q", initial)
	_, err = r.Load(initial, NavigationOptions{HistoryStrategy: HistoryReplace})
	if errors.Is(err, ErrNavigationPending) {
		return nil
	}
	return err
}

// Stop deactivates the root component and every routed component below it.
func (r *Router) Stop() error {
	if !r.started {
		return nil
	}
	r.started = false
	r.next = nil
	err := r.rootController.Deactivate(observation.FlagsNone)
	r.rootController = nil
	return err
}

// Load navigates to an instruction string. It reports false with a nil
// error when guards rejected the navigation or a newer one replaced it.
func (r *Router) Load(instructions string, opts NavigationOptions) (bool, error) {
	vit, err := ParseInstructions(instructions)
	if err != nil {
		return false, err
	}
	return r.LoadTree(vit, opts)
}

// LoadTree is Load with parsed instructions.
func (r *Router) LoadTree(vit *ViewportInstructionTree, opts NavigationOptions) (bool, error) {
	if !r.started {
		return false, ErrNotStarted
	}
	vit = vit.Clone()
	if opts.QueryParams != nil {
		vit.Query = opts.QueryParams
	}
	if opts.Fragment != "" {
		vit.Fragment = opts.Fragment
	}
	if opts.TransitionPlan == PlanDefault {
		opts.TransitionPlan = r.opts.TransitionPlan
	}
	return r.enqueue(r.newTransition(vit, TriggerAPI, opts))
}

// Back navigates to the previous history entry. It reports false when
// there is none.
func (r *Router) Back() (bool, error) {
	if !r.started {
		return false, ErrNotStarted
	}
	e, ok := r.history.Back()
	if !ok {
		return false, nil
	}
	vit, err := ParseInstructions(r.stripURL(e.URL))
	if err != nil {
		return false, err
	}
	opts := NavigationOptions{HistoryStrategy: HistoryReplace, TransitionPlan: r.opts.TransitionPlan}
	return r.enqueue(r.newTransition(vit, TriggerPopState, opts))
}

func (r *Router) RouteTree() *RouteTree                  { return r.routeTree }
func (r *Router) Instructions() *ViewportInstructionTree { return r.instructions }
func (r *Router) RootContext() *RouteContext             { return r.root }
func (r *Router) Events() *EventBus                      { return &r.events }
func (r *Router) History() History                       { return r.history }
func (r *Router) IsNavigating() bool                     { return r.running }

// Agents returns the agents of the top level viewports.
func (r *Router) Agents() []*ViewportAgent {
	if r.root == nil {
		return nil
	}
	return r.root.ViewportAgents()
}

// URL returns the URL of the instructions loaded last.
func (r *Router) URL() string { return r.urlOf(r.instructions) }

// Title joins the titles of the loaded routes, outermost first.
func (r *Router) Title() string {
	if r.routeTree == nil {
		return ""
	}
	if t := r.routeTree.Options.Title; t != "" {
		return t
	}
	var titles []string
	var walk func(n *RouteNode)
	walk = func(n *RouteNode) {
		if n.Title != "" {
			titles = append(titles, n.Title)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(r.routeTree.Root)
	return strings.Join(titles, " | ")
}

func (r *Router) urlOf(vit *ViewportInstructionTree) string {
	if r.opts.UseURLFragmentHash {
		return "#/" + vit.String()
	}
	return "/" + vit.String()
}

func (r *Router) stripURL(u string) string {
	if r.opts.UseURLFragmentHash {
		u = strings.TrimPrefix(u, "#")
	}
	return strings.TrimPrefix(u, "/")
}

func (r *Router) routeContextFor(vpa *ViewportAgent, cfg *RouteConfig, parent *RouteContext) *RouteContext {
	key := contextKey{vpa: vpa, cfg: cfg}
	if ctx, ok := r.contexts[key]; ok {
		return ctx
	}
	ctx := newRouteContext(r, parent, vpa, cfg, parent.container)
	r.contexts[key] = ctx
	return ctx
}

func (r *Router) forgetContexts(vpa *ViewportAgent) {
	for k := range r.contexts {
		if k.vpa == vpa {
			delete(r.contexts, k)
		}
	}
}

func (r *Router) newTransition(vit *ViewportInstructionTree, trigger Trigger, opts NavigationOptions) *Transition {
	r.lastID++
	return &Transition{ID: r.lastID, Trigger: trigger, Instructions: vit, Options: opts}
}

// enqueue makes tr the next navigation, superseding one already waiting,
// and runs the queue unless a navigation is running.
func (r *Router) enqueue(tr *Transition) (bool, error) {
	r.queue(tr)
	if r.running {
		return false, ErrNavigationQueued
	}
	r.runLoop()
	if !tr.Settled() {
		return false, ErrNavigationPending
	}
	return tr.Result()
}

func (r *Router) queue(tr *Transition) {
	if prev := r.next; prev != nil {
		r.logger.Printf("router: %s superseded by %d", prev, tr.ID)
		prev.settle(false, nil)
		r.events.Publish(NavigationCancelEvent{ID: prev.ID, Instructions: prev.Instructions, Reason: "superseded"})
	}
	r.next = tr
}

// runLoop runs queued navigations until the queue is empty or one waits
// on deferred hooks. A waiting navigation calls runLoop again once it
// concludes.
func (r *Router) runLoop() {
	r.running = true
	for r.next != nil {
		tr := r.next
		r.next = nil
		if !r.run(tr) {
			return
		}
	}
	r.running = false
}

// run reports false when tr is left waiting on deferred hooks.
func (r *Router) run(tr *Transition) bool {
	tr.PreviousRouteTree = r.routeTree
	tr.PrevInstructions = r.instructions
	tr.InstructionsChanged = !r.navigated || r.instructions.Fingerprint() != tr.Instructions.Fingerprint()
	if !tr.InstructionsChanged && r.opts.SameURLStrategy == SameURLIgnore {
		r.logger.Printf("router: %s ignored, already at %q", tr, r.instructions)
		tr.settle(true, nil)
		return true
	}
	r.logger.Printf("router: run %s", tr)
	r.events.Publish(NavigationStartEvent{ID: tr.ID, Instructions: tr.Instructions, Trigger: tr.Trigger})

	tr.RouteTree = r.routeTree.Clone()
	if err := updateRouteTree(tr.RouteTree, tr.Instructions, tr.Options); err != nil {
		r.fail(tr, err)
		return true
	}

	prev := tr.PreviousRouteTree.Root.Children
	next := tr.RouteTree.Root.Children
	all := mergeDistinct(prev, next)

	// A checkpoint holds the rest of the chain once guards fail or a newer
	// navigation is waiting.
	checkpoint := func(b *Batch) {
		if tr.Err == nil && tr.guardsOK() && r.next == nil {
			return
		}
		b.Push()
	}
	completed := false
	StartBatch(func(b *Batch) {
		for _, n := range all {
			n.context.vpa.canUnload(tr, b)
		}
	}).ContinueWith(checkpoint).ContinueWith(func(b *Batch) {
		for _, n := range next {
			n.context.vpa.canLoad(tr, b)
		}
	}).ContinueWith(checkpoint).ContinueWith(func(b *Batch) {
		for _, n := range all {
			n.context.vpa.unloading(tr, b)
		}
	}).ContinueWith(func(b *Batch) {
		for _, n := range next {
			n.context.vpa.loading(tr, b)
		}
	}).ContinueWith(func(b *Batch) {
		for _, n := range all {
			n.context.vpa.swap(tr, b)
		}
	}).ContinueWith(func(*Batch) {
		completed = true
	}).Start()

	conclude := func() {
		switch {
		case !tr.guardsOK():
			r.cancelNavigation(tr, all, "guards rejected the navigation")
		case tr.Err != nil:
			r.fail(tr, tr.Err)
		case r.next != nil:
			r.cancelNavigation(tr, all, "superseded")
		case !completed:
			r.fail(tr, fmt.Errorf("router: %s did not complete", tr))
		default:
			r.finish(tr, all)
		}
	}
	if tr.pending > 0 {
		r.logger.Printf("router: %s waits on %d deferred hooks", tr, tr.pending)
		tr.waiting = true
		tr.resume = func() {
			conclude()
			r.runLoop()
		}
		return false
	}
	conclude()
	return true
}

func (r *Router) rollback(nodes []*RouteNode) {
	for _, n := range nodes {
		n.context.vpa.cancelUpdate()
	}
}

// cancelNavigation rolls back every agent of tr. A guard redirect queues
// the navigation it asked for, which settles tr when it settles.
func (r *Router) cancelNavigation(tr *Transition, nodes []*RouteNode, reason string) {
	r.rollback(nodes)
	r.logger.Printf("router: cancel %s: %s", tr, reason)
	r.events.Publish(NavigationCancelEvent{ID: tr.ID, Instructions: tr.Instructions, Reason: reason})

	target := tr.GuardsResult.Redirect
	if target == "" || r.next != nil {
		tr.settle(false, nil)
		return
	}
	if tr.redirects >= r.opts.MaxRedirects {
		r.fail(tr, fmt.Errorf("%w: %s", ErrRedirectLoop, target))
		return
	}
	vit, err := ParseInstructions(target)
	if err != nil {
		r.fail(tr, err)
		return
	}
	ntr := r.newTransition(vit, tr.Trigger, tr.Options)
	ntr.redirects = tr.redirects + 1
	ntr.origin = tr
	r.queue(ntr)
}

func (r *Router) fail(tr *Transition, err error) {
	nodes := tr.PreviousRouteTree.Root.Children
	if tr.RouteTree != nil {
		nodes = mergeDistinct(nodes, tr.RouteTree.Root.Children)
	}
	r.rollback(nodes)
	nerr := &NavigationError{ID: tr.ID, Instructions: tr.Instructions.String(), Err: err}
	r.logger.Printf("%v", nerr)
	r.events.Publish(NavigationErrorEvent{ID: tr.ID, Instructions: tr.Instructions, Err: nerr})
	tr.settle(false, nerr)
}

func (r *Router) finish(tr *Transition, all []*RouteNode) {
	for _, n := range all {
		n.context.vpa.endTransition()
	}
	if tr.Err != nil {
		r.fail(tr, tr.Err)
		return
	}
	tr.FinalInstructions = tr.RouteTree.FinalInstructions()
	r.routeTree = tr.RouteTree
	r.instructions = tr.FinalInstructions
	r.navigated = true
	r.applyHistory(tr)
	r.logger.Printf("router: %s done at %q", tr, tr.FinalInstructions)
	r.events.Publish(NavigationEndEvent{ID: tr.ID, Instructions: tr.Instructions, FinalInstructions: tr.FinalInstructions})
	tr.settle(true, nil)
}

func (r *Router) applyHistory(tr *Transition) {
	strategy := tr.Options.HistoryStrategy
	if strategy == HistoryDefault {
		strategy = r.opts.HistoryStrategy
	}
	if strategy == HistoryDefault {
		strategy = HistoryPush
	}
	e := HistoryEntry{URL: r.urlOf(tr.FinalInstructions), Title: r.Title(), NavigationID: tr.ID}
	if strategy == HistoryPush && r.history.Len() > 0 && r.history.Current().URL == e.URL {
		strategy = HistoryReplace
	}
	switch strategy {
	case HistoryPush:
		r.history.Push(e)
	case HistoryReplace:
		r.history.Replace(e)
	}
}
