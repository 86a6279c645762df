package router

import (
	"fmt"
	"net/url"
)

// GuardResult is what a canLoad hook answers. The zero value lets the
// navigation proceed.
type GuardResult struct {
	Denied bool
	// Redirect is an instruction string navigated to instead.
	Redirect string
}

var (
	AllowNavigation = GuardResult{}
	DenyNavigation  = GuardResult{Denied: true}
)

// RedirectTo cancels the navigation and starts one to instructions.
func RedirectTo(instructions string) GuardResult {
	return GuardResult{Redirect: instructions}
}

// OK reports whether the navigation may proceed.
func (g GuardResult) OK() bool { return !g.Denied && g.Redirect == "" }

func (g GuardResult) String() string {
	switch {
	case g.Redirect != "":
		return "redirect(" + g.Redirect + ")"
	case g.Denied:
		return "false"
	}
	return "true"
}

type Trigger string

const (
	TriggerAPI      Trigger = "api"
	TriggerPopState Trigger = "popstate"
)

type HistoryStrategy uint8

const (
	// HistoryDefault uses the strategy of the router options, push when
	// that is unset too.
	HistoryDefault HistoryStrategy = iota
	HistoryPush
	HistoryReplace
	HistoryNone
)

func (s HistoryStrategy) String() string {
	switch s {
	case HistoryPush:
		return "push"
	case HistoryReplace:
		return "replace"
	case HistoryNone:
		return "none"
	}
	return "default"
}

type SameURLStrategy uint8

const (
	// SameURLIgnore settles a navigation to the current URL without
	// running it.
	SameURLIgnore SameURLStrategy = iota
	SameURLReload
)

// NavigationOptions tune a single navigation.
type NavigationOptions struct {
	HistoryStrategy HistoryStrategy
	// TransitionPlan applies to routes that do not configure their own.
	TransitionPlan Plan
	// QueryParams and Fragment override those of the instructions.
	QueryParams url.Values
	Fragment    string
	Title       string
}

// Transition is one navigation in flight.
type Transition struct {
	ID                  uint64
	Trigger             Trigger
	Instructions        *ViewportInstructionTree
	FinalInstructions   *ViewportInstructionTree
	PrevInstructions    *ViewportInstructionTree
	InstructionsChanged bool
	Options             NavigationOptions
	PreviousRouteTree   *RouteTree
	RouteTree           *RouteTree
	// GuardsResult is set by the first guard that does not allow the
	// navigation.
	GuardsResult GuardResult
	// Err is the first failure of any step.
	Err error

	redirects int
	origin    *Transition
	// pending counts deferred hooks that have not reported. While waiting
	// is set the router resumes through resume once pending drops to zero.
	pending   int
	waiting   bool
	resume    func()
	settled   bool
	result    bool
	resultErr error
}

func (tr *Transition) guardsOK() bool { return tr.GuardsResult.OK() }

func (tr *Transition) handleError(err error) {
	if tr.Err == nil {
		tr.Err = err
	}
}

// call runs fn, recording its error or panic on the transition.
func (tr *Transition) call(fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			tr.handleError(fmt.Errorf("router: step panicked: %v", r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		tr.handleError(err)
		return false
	}
	return true
}

// run wraps fn in a Push and Pop of b. A failed fn never pops, which holds
// every later step of the batch chain.
func (tr *Transition) run(b *Batch, fn func() error) {
	b.Push()
	if tr.call(fn) {
		b.Pop()
	}
}

// await is run for deferred hooks. start hands finish to the hook; finish
// pops b, or holds it like a failed step when given an error.
func (tr *Transition) await(b *Batch, start func(finish func(error))) {
	b.Push()
	tr.pending++
	finished := false
	finish := func(err error) {
		if finished {
			return
		}
		finished = true
		tr.pending--
		if err != nil {
			tr.handleError(err)
		} else {
			b.Pop()
		}
		if tr.pending == 0 && tr.waiting {
			tr.waiting = false
			tr.resume()
		}
	}
	if !tr.call(func() error { start(finish); return nil }) {
		finish(tr.Err)
	}
}

func (tr *Transition) settle(ok bool, err error) {
	if tr.settled {
		return
	}
	tr.settled, tr.result, tr.resultErr = true, ok, err
	if tr.origin != nil {
		tr.origin.settle(ok, err)
	}
}

// Settled reports whether the navigation is over.
func (tr *Transition) Settled() bool { return tr.settled }

// Result reports whether the navigation completed. Guard rejections are
// false with a nil error.
func (tr *Transition) Result() (bool, error) { return tr.result, tr.resultErr }

func (tr *Transition) String() string {
	return fmt.Sprintf("T(id:%d,trigger:%s,instructions:%q,guards:%s)", tr.ID, tr.Trigger, tr.Instructions, tr.GuardsResult)
}
