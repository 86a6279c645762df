package router

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/delaneyj/viewparty/internal/logutil"
)

// CurrState is the phase of the component currently in a viewport.
type CurrState uint8

const (
	CurrIsEmpty CurrState = iota
	CurrIsActive
	CurrCanUnload
	CurrCanUnloadDone
	CurrUnload
	CurrUnloadDone
	CurrDeactivate
)

var currStateNames = []string{
	"currIsEmpty", "currIsActive", "currCanUnload", "currCanUnloadDone",
	"currUnload", "currUnloadDone", "currDeactivate",
}

func (s CurrState) String() string {
	if int(s) < len(currStateNames) {
		return currStateNames[s]
	}
	return fmt.Sprintf("CurrState(%d)", uint8(s))
}

// NextState is the phase of the component scheduled into a viewport.
type NextState uint8

const (
	NextIsEmpty NextState = iota
	NextIsScheduled
	NextCanLoad
	NextCanLoadDone
	NextLoad
	NextLoadDone
	NextActivate
)

var nextStateNames = []string{
	"nextIsEmpty", "nextIsScheduled", "nextCanLoad", "nextCanLoadDone",
	"nextLoad", "nextLoadDone", "nextActivate",
}

func (s NextState) String() string {
	if int(s) < len(nextStateNames) {
		return nextStateNames[s]
	}
	return fmt.Sprintf("NextState(%d)", uint8(s))
}

// Allowed moves of each phase. Rolling back always lands on an empty or
// active state.
var (
	currMoves = map[CurrState][]CurrState{
		CurrIsEmpty:       {CurrIsActive},
		CurrIsActive:      {CurrCanUnload, CurrCanUnloadDone},
		CurrCanUnload:     {CurrCanUnloadDone, CurrIsActive},
		CurrCanUnloadDone: {CurrUnload, CurrUnloadDone, CurrIsActive},
		CurrUnload:        {CurrUnloadDone, CurrIsEmpty},
		CurrUnloadDone:    {CurrDeactivate, CurrIsEmpty},
		CurrDeactivate:    {CurrIsEmpty, CurrIsActive},
	}
	nextMoves = map[NextState][]NextState{
		NextIsEmpty:     {NextIsScheduled},
		NextIsScheduled: {NextCanLoad, NextIsEmpty},
		NextCanLoad:     {NextCanLoadDone, NextIsEmpty},
		NextCanLoadDone: {NextLoad, NextIsEmpty},
		NextLoad:        {NextLoadDone, NextIsEmpty},
		NextLoadDone:    {NextActivate, NextIsEmpty},
		NextActivate:    {NextIsEmpty},
	}
)

// ViewportAgent moves the components of one viewport through a
// transition: the current one out, the next one in.
type ViewportAgent struct {
	Viewport *Viewport

	ctx    *RouteContext
	logger *log.Logger
	active bool

	curr CurrState
	next NextState
	plan Plan

	currCA, nextCA     *ComponentAgent
	currNode, nextNode *RouteNode
	currTransition     *Transition
}

func newViewportAgent(vp *Viewport, ctx *RouteContext) *ViewportAgent {
	return &ViewportAgent{
		Viewport: vp,
		ctx:      ctx,
		logger:   logutil.OrDiscard(ctx.router.logger),
		plan:     PlanReplace,
	}
}

func (a *ViewportAgent) CurrState() CurrState { return a.curr }
func (a *ViewportAgent) NextState() NextState { return a.next }
func (a *ViewportAgent) Plan() Plan           { return a.plan }
func (a *ViewportAgent) IsActive() bool       { return a.active }

// Component returns the active component, nil when the viewport is empty.
func (a *ViewportAgent) Component() *ComponentAgent { return a.currCA }

// Node returns the route node of the active component.
func (a *ViewportAgent) Node() *RouteNode { return a.currNode }

// Context returns the route context owning the viewport.
func (a *ViewportAgent) Context() *RouteContext { return a.ctx }

// State formats both phases as curr|next.
func (a *ViewportAgent) State() string { return a.curr.String() + "|" + a.next.String() }

func (a *ViewportAgent) String() string {
	comp := "<empty>"
	if a.currCA != nil {
		comp = a.currCA.node.Component
	}
	return fmt.Sprintf("VPA(viewport:%s,state:%s,component:%s)", a.Viewport.Name, a.State(), comp)
}

func (a *ViewportAgent) unexpected(tr *Transition, step string) error {
	err := &UnexpectedStateError{Agent: a.String(), Step: step, Curr: a.curr, Next: a.next}
	a.logger.Printf("router: %v", err)
	if tr != nil {
		tr.handleError(err)
	}
	return err
}

func (a *ViewportAgent) setCurr(tr *Transition, to CurrState, step string) bool {
	if !slices.Contains(currMoves[a.curr], to) {
		_ = a.unexpected(tr, step+" -> "+to.String())
		return false
	}
	a.curr = to
	return true
}

func (a *ViewportAgent) setNext(tr *Transition, to NextState, step string) bool {
	if !slices.Contains(nextMoves[a.next], to) {
		_ = a.unexpected(tr, step+" -> "+to.String())
		return false
	}
	a.next = to
	return true
}

// proceed reports whether a step of tr may do work: the transition has
// not failed and its guards passed.
func (a *ViewportAgent) proceed(tr *Transition, step string) bool {
	if tr.Err != nil {
		return false
	}
	if !tr.guardsOK() {
		tr.handleError(fmt.Errorf("%w: %s at %s (%s)", ErrGuardsFailed, step, a, tr.GuardsResult))
		return false
	}
	return true
}

func (a *ViewportAgent) activateFromViewport() error {
	tr := a.currTransition
	if tr != nil && tr.Err != nil {
		return tr.Err
	}
	a.active = true
	switch a.next {
	case NextIsEmpty:
		switch a.curr {
		case CurrIsEmpty:
			return nil
		case CurrIsActive:
			return a.currCA.activate()
		}
		return a.unexpected(tr, "activateFromViewport")
	case NextLoadDone:
		if tr == nil {
			return a.unexpected(nil, "activateFromViewport")
		}
		b := StartBatch(func(*Batch) {})
		b.Push()
		a.activate(tr, b)
		b.Pop()
		return tr.Err
	}
	return a.unexpected(tr, "activateFromViewport")
}

func (a *ViewportAgent) deactivateFromViewport() error {
	tr := a.currTransition
	if tr != nil && tr.Err != nil {
		return tr.Err
	}
	a.active = false
	switch a.curr {
	case CurrIsEmpty, CurrDeactivate:
		return nil
	case CurrIsActive:
		return a.currCA.deactivate()
	}
	if tr == nil {
		return a.unexpected(nil, "deactivateFromViewport")
	}
	b := StartBatch(func(*Batch) {})
	b.Push()
	a.deactivate(tr, b)
	b.Pop()
	return tr.Err
}

// handles reports whether the agent can take req.
func (a *ViewportAgent) handles(req ViewportRequest) bool {
	if !a.isAvailable() {
		return false
	}
	if req.ViewportName != "" && req.ViewportName != a.Viewport.Name {
		return false
	}
	if used := a.Viewport.UsedBy; used != "" && !slices.Contains(strings.Split(used, ","), req.ComponentName) {
		return false
	}
	return true
}

func (a *ViewportAgent) isAvailable() bool {
	return a.active && a.next == NextIsEmpty
}

// canUnload asks the current component, after its children, whether it
// may go.
func (a *ViewportAgent) canUnload(tr *Transition, b *Batch) {
	if a.currTransition == nil {
		a.currTransition = tr
	}
	if tr.Err != nil || !tr.guardsOK() {
		return
	}
	b.Push()
	StartBatch(func(b1 *Batch) {
		if a.currNode != nil {
			for _, n := range a.currNode.Children {
				n.context.vpa.canUnload(tr, b1)
			}
		}
	}).ContinueWith(func(b1 *Batch) {
		// A child may have vetoed.
		if tr.Err != nil || !tr.guardsOK() {
			return
		}
		switch a.curr {
		case CurrIsActive:
			if a.plan == PlanNone {
				a.setCurr(tr, CurrCanUnloadDone, "canUnload")
				return
			}
			a.setCurr(tr, CurrCanUnload, "canUnload")
			b1.Push()
			StartBatch(func(b2 *Batch) {
				a.currCA.canUnload(tr, a.nextNode, b2)
			}).ContinueWith(func(*Batch) {
				a.setCurr(tr, CurrCanUnloadDone, "canUnload")
				b1.Pop()
			}).Start()
		case CurrIsEmpty:
		default:
			_ = a.unexpected(tr, "canUnload")
		}
	}).ContinueWith(func(*Batch) {
		b.Pop()
	}).Start()
}

// canLoad asks the next component, before its children, whether it may
// come.
func (a *ViewportAgent) canLoad(tr *Transition, b *Batch) {
	if a.currTransition == nil {
		a.currTransition = tr
	}
	if tr.Err != nil || !tr.guardsOK() {
		return
	}
	b.Push()
	StartBatch(func(b1 *Batch) {
		switch a.next {
		case NextIsScheduled:
			a.setNext(tr, NextCanLoad, "canLoad")
			switch a.plan {
			case PlanNone:
			case PlanInvokeLifecycles:
				a.currCA.canLoad(tr, a.nextNode, b1)
			default:
				tr.run(b1, func() error {
					ca, err := a.nextNode.context.createComponentAgent(a.nextNode)
					if err != nil {
						return err
					}
					a.nextCA = ca
					ca.canLoad(tr, a.nextNode, b1)
					return nil
				})
			}
		case NextIsEmpty:
		default:
			_ = a.unexpected(tr, "canLoad")
		}
	}).ContinueWith(func(b1 *Batch) {
		// The component stays, so its viewports are live and the children
		// can be compiled now. A replaced component compiles them once it
		// is active.
		next := a.nextNode
		if next == nil || a.plan == PlanReplace {
			return
		}
		tr.run(b1, next.processResidue)
	}).ContinueWith(func(b1 *Batch) {
		switch a.next {
		case NextCanLoad:
			a.setNext(tr, NextCanLoadDone, "canLoad")
			for _, n := range a.nextNode.Children {
				n.context.vpa.canLoad(tr, b1)
			}
		case NextIsEmpty:
		default:
			_ = a.unexpected(tr, "canLoad")
		}
	}).ContinueWith(func(*Batch) {
		b.Pop()
	}).Start()
}

// unloading runs bottom-up like canUnload.
func (a *ViewportAgent) unloading(tr *Transition, b *Batch) {
	if !a.proceed(tr, "unloading") {
		return
	}
	b.Push()
	StartBatch(func(b1 *Batch) {
		if a.currNode != nil {
			for _, n := range a.currNode.Children {
				n.context.vpa.unloading(tr, b1)
			}
		}
	}).ContinueWith(func(b1 *Batch) {
		switch a.curr {
		case CurrCanUnloadDone:
			if a.plan == PlanNone {
				a.setCurr(tr, CurrUnloadDone, "unloading")
				return
			}
			a.setCurr(tr, CurrUnload, "unloading")
			b1.Push()
			StartBatch(func(b2 *Batch) {
				a.currCA.unloading(tr, a.nextNode, b2)
			}).ContinueWith(func(*Batch) {
				a.setCurr(tr, CurrUnloadDone, "unloading")
				b1.Pop()
			}).Start()
		case CurrIsEmpty:
		default:
			_ = a.unexpected(tr, "unloading")
		}
	}).ContinueWith(func(*Batch) {
		b.Pop()
	}).Start()
}

// loading runs top-down like canLoad.
func (a *ViewportAgent) loading(tr *Transition, b *Batch) {
	if !a.proceed(tr, "loading") {
		return
	}
	b.Push()
	StartBatch(func(b1 *Batch) {
		switch a.next {
		case NextCanLoadDone:
			a.setNext(tr, NextLoad, "loading")
			switch a.plan {
			case PlanNone:
			case PlanInvokeLifecycles:
				a.currCA.loading(tr, a.nextNode, b1)
			default:
				a.nextCA.loading(tr, a.nextNode, b1)
			}
		case NextIsEmpty:
		default:
			_ = a.unexpected(tr, "loading")
		}
	}).ContinueWith(func(b1 *Batch) {
		switch a.next {
		case NextLoad:
			a.setNext(tr, NextLoadDone, "loading")
			for _, n := range a.nextNode.Children {
				n.context.vpa.loading(tr, b1)
			}
		case NextIsEmpty:
		default:
			_ = a.unexpected(tr, "loading")
		}
	}).ContinueWith(func(*Batch) {
		b.Pop()
	}).Start()
}

func (a *ViewportAgent) deactivate(tr *Transition, b *Batch) {
	if !a.proceed(tr, "deactivate") {
		return
	}
	b.Push()
	switch a.curr {
	case CurrUnloadDone:
		a.setCurr(tr, CurrDeactivate, "deactivate")
		if a.plan != PlanReplace {
			b.Pop()
			return
		}
		ca := a.currCA
		if tr.call(ca.deactivate) {
			ca.dispose()
			b.Pop()
		}
	case CurrIsEmpty, CurrDeactivate:
		b.Pop()
	default:
		_ = a.unexpected(tr, "deactivate")
	}
}

func (a *ViewportAgent) activate(tr *Transition, b *Batch) {
	if !a.proceed(tr, "activate") {
		return
	}
	b.Push()
	if a.next == NextIsScheduled {
		StartBatch(func(b1 *Batch) {
			a.canLoad(tr, b1)
		}).ContinueWith(func(b1 *Batch) {
			a.loading(tr, b1)
		}).ContinueWith(func(b1 *Batch) {
			a.activate(tr, b1)
		}).ContinueWith(func(*Batch) {
			b.Pop()
		}).Start()
		return
	}
	switch a.next {
	case NextLoadDone:
		a.setNext(tr, NextActivate, "activate")
		StartBatch(func(b1 *Batch) {
			if a.plan == PlanReplace {
				tr.run(b1, a.nextCA.activate)
			}
		}).ContinueWith(func(b1 *Batch) {
			a.processDynamicChildren(tr, b1)
		}).ContinueWith(func(*Batch) {
			b.Pop()
		}).Start()
	case NextIsEmpty:
		b.Pop()
	default:
		_ = a.unexpected(tr, "activate")
	}
}

// processDynamicChildren compiles the residue of the next node against
// the viewports its now active component rendered, and runs the new
// children up to active.
func (a *ViewportAgent) processDynamicChildren(tr *Transition, b *Batch) {
	next := a.nextNode
	existing := slices.Clone(next.Children)
	b.Push()
	if !tr.call(next.processResidue) {
		return
	}
	var fresh []*RouteNode
	for _, c := range next.Children {
		if !slices.Contains(existing, c) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		b.Pop()
		return
	}
	StartBatch(func(b1 *Batch) {
		for _, n := range fresh {
			n.context.vpa.canLoad(tr, b1)
		}
	}).ContinueWith(func(b1 *Batch) {
		// A child guard that fails here cannot be rolled back
		// step by step; the router cancels the whole navigation.
		if !tr.guardsOK() {
			b1.Push()
			return
		}
		for _, n := range fresh {
			n.context.vpa.loading(tr, b1)
		}
	}).ContinueWith(func(b1 *Batch) {
		for _, n := range fresh {
			n.context.vpa.activate(tr, b1)
		}
	}).ContinueWith(func(*Batch) {
		b.Pop()
	}).Start()
}

// swap replaces the current component by the next one.
func (a *ViewportAgent) swap(tr *Transition, b *Batch) {
	if a.curr == CurrIsEmpty {
		a.activate(tr, b)
		return
	}
	if a.next == NextIsEmpty {
		a.deactivate(tr, b)
		return
	}
	if !a.proceed(tr, "swap") {
		return
	}
	if a.curr != CurrUnloadDone || a.next != NextLoadDone {
		_ = a.unexpected(tr, "swap")
		return
	}
	a.setCurr(tr, CurrDeactivate, "swap")
	a.setNext(tr, NextActivate, "swap")
	switch a.plan {
	case PlanNone, PlanInvokeLifecycles:
		for _, n := range mergeDistinct(a.nextNode.Children, a.currNode.Children) {
			n.context.vpa.swap(tr, b)
		}
	default:
		cur, nxt := a.currCA, a.nextCA
		b.Push()
		StartBatch(func(b1 *Batch) {
			tr.run(b1, func() error {
				err := cur.deactivate()
				cur.dispose()
				return err
			})
		}).ContinueWith(func(b1 *Batch) {
			tr.run(b1, nxt.activate)
		}).ContinueWith(func(b1 *Batch) {
			a.processDynamicChildren(tr, b1)
		}).ContinueWith(func(*Batch) {
			b.Pop()
		}).Start()
	}
}

// scheduleUpdate makes next the node this viewport moves to and picks the
// plan for it.
func (a *ViewportAgent) scheduleUpdate(opts NavigationOptions, next *RouteNode) error {
	if a.next != NextIsEmpty {
		return a.unexpected(nil, "scheduleUpdate")
	}
	switch a.curr {
	case CurrIsEmpty, CurrIsActive, CurrCanUnloadDone:
	default:
		return a.unexpected(nil, "scheduleUpdate")
	}
	a.nextNode = next
	a.next = NextIsScheduled
	var cur *RouteNode
	if a.currCA != nil {
		cur = a.currCA.node
	}
	if cur == nil || cur.Component != next.Component {
		a.plan = PlanReplace
	} else {
		a.plan = next.Config.plan(cur, next, opts.TransitionPlan)
	}
	a.logger.Printf("router: scheduled %s at %s with plan %s", next, a.Viewport.Name, a.plan)
	return nil
}

// cancelUpdate rolls the agent and every agent below it back to the state
// before the transition: the current component stays when it was only
// asked, and is dropped once it started unloading.
func (a *ViewportAgent) cancelUpdate() {
	if a.currNode != nil {
		for _, n := range a.currNode.Children {
			n.context.vpa.cancelUpdate()
		}
	}
	if a.nextNode != nil {
		for _, n := range a.nextNode.Children {
			n.context.vpa.cancelUpdate()
		}
	}
	switch a.curr {
	case CurrCanUnload, CurrCanUnloadDone:
		a.setCurr(nil, CurrIsActive, "cancelUpdate")
	case CurrUnload, CurrUnloadDone, CurrDeactivate:
		if a.currCA != nil {
			if err := a.currCA.deactivate(); err != nil {
				a.logger.Printf("router: cancel %s: %v", a.Viewport.Name, err)
			}
			a.currCA.dispose()
		}
		a.setCurr(nil, CurrIsEmpty, "cancelUpdate")
		a.currCA = nil
		a.currNode = nil
	}
	switch a.next {
	case NextIsEmpty:
	case NextIsScheduled, NextCanLoad, NextCanLoadDone:
		if a.nextCA != nil {
			a.nextCA.dispose()
		}
	default:
		if a.nextCA != nil {
			if err := a.nextCA.deactivate(); err != nil {
				a.logger.Printf("router: cancel %s: %v", a.Viewport.Name, err)
			}
			a.nextCA.dispose()
		}
	}
	if a.next != NextIsEmpty {
		a.setNext(nil, NextIsEmpty, "cancelUpdate")
	}
	a.plan = PlanReplace
	a.nextCA = nil
	a.nextNode = nil
	a.currTransition = nil
}

// endTransition commits the children, then the agent itself: the next
// component becomes current, or the viewport ends up empty.
func (a *ViewportAgent) endTransition() {
	tr := a.currTransition
	if tr == nil || tr.Err != nil {
		return
	}
	if a.nextNode != nil {
		for _, n := range a.nextNode.Children {
			n.context.vpa.endTransition()
		}
	}
	if a.currNode != nil {
		for _, n := range a.currNode.Children {
			n.context.vpa.endTransition()
		}
	}
	switch a.next {
	case NextIsEmpty:
		switch a.curr {
		case CurrDeactivate:
			a.setCurr(tr, CurrIsEmpty, "endTransition")
			a.currCA = nil
			a.currNode = nil
		case CurrIsEmpty:
		default:
			_ = a.unexpected(tr, "endTransition")
		}
	case NextActivate:
		switch a.curr {
		case CurrIsEmpty, CurrDeactivate:
			a.setCurr(tr, CurrIsActive, "endTransition")
			if a.plan == PlanReplace {
				a.currCA = a.nextCA
			} else if a.currCA != nil {
				a.currCA.node = a.nextNode
			}
			a.currNode = a.nextNode
		default:
			_ = a.unexpected(tr, "endTransition")
		}
	default:
		_ = a.unexpected(tr, "endTransition")
	}
	a.plan = PlanReplace
	if a.next != NextIsEmpty {
		a.setNext(tr, NextIsEmpty, "endTransition")
	}
	a.nextNode = nil
	a.nextCA = nil
	a.currTransition = nil
}
