package render

import (
	"slices"

	"github.com/delaneyj/viewparty/binding"
)

// Event travels from the root to its target and, when it bubbles, back.
type Event struct {
	Type          string
	Bubbles       bool
	Detail        any
	Target        *Node
	CurrentTarget *Node

	defaultPrevented bool
	stopped          bool
}

func NewEvent(typ string, bubbles bool) *Event {
	return &Event{Type: typ, Bubbles: bubbles}
}

func (e *Event) PreventDefault()        { e.defaultPrevented = true }
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation keeps the event from reaching further nodes. Listeners
// on the current node still run.
func (e *Event) StopPropagation() { e.stopped = true }
func (e *Event) Stopped() bool    { return e.stopped }

type eventListener struct {
	fn      func(*Event)
	capture bool
}

// AddEventListener registers fn for events of the given type. The
// returned function removes it.
func (n *Node) AddEventListener(event string, fn func(*Event), capture bool) (remove func()) {
	if n.listeners == nil {
		n.listeners = map[string][]*eventListener{}
	}
	l := &eventListener{fn: fn, capture: capture}
	n.listeners[event] = append(n.listeners[event], l)
	return func() {
		ls := slices.DeleteFunc(n.listeners[event], func(x *eventListener) bool { return x == l })
		if len(ls) == 0 {
			delete(n.listeners, event)
			return
		}
		n.listeners[event] = ls
	}
}

// ListenerCount returns how many listeners n has for event.
func (n *Node) ListenerCount(event string) int {
	return len(n.listeners[event])
}

func (n *Node) invoke(ev *Event, capturePhase, targetPhase bool) {
	ls := slices.Clone(n.listeners[ev.Type])
	ev.CurrentTarget = n
	for _, l := range ls {
		if targetPhase || l.capture == capturePhase {
			l.fn(ev)
		}
	}
}

// Dispatch delivers ev to n: capture listeners from the root down, the
// listeners of n, then bubbling listeners up to the root. It reports
// whether the default action is still allowed.
func (n *Node) Dispatch(ev *Event) bool {
	ev.Target = n
	var path []*Node
	for p := n.parent; p != nil; p = p.parent {
		path = append(path, p)
	}
	for i := len(path) - 1; i >= 0 && !ev.stopped; i-- {
		path[i].invoke(ev, true, false)
	}
	if !ev.stopped {
		n.invoke(ev, false, true)
	}
	if ev.Bubbles {
		for _, p := range path {
			if ev.stopped {
				break
			}
			p.invoke(ev, false, false)
		}
	}
	ev.CurrentTarget = nil
	return !ev.defaultPrevented
}

// Click dispatches a bubbling click.
func (n *Node) Click() bool {
	return n.Dispatch(NewEvent("click", true))
}

// Input sets the value of a form control the way typing would and
// dispatches input and change.
func (n *Node) Input(value string) {
	n.SetProperty("value", value)
	n.Dispatch(NewEvent("input", true))
	n.Dispatch(NewEvent("change", true))
}

// Check sets the checked state the way a click on a checkbox would and
// dispatches change.
func (n *Node) Check(checked bool) {
	n.SetProperty("checked", checked)
	n.Dispatch(NewEvent("change", true))
}

type delegateKey struct {
	event   string
	capture bool
}

type delegateHandler struct {
	fn func(ev any)
}

type delegate struct {
	handlers map[*Node][]*delegateHandler
	remove   func()
}

// EventManager attaches listener bindings to nodes. Delegated listeners
// share one root listener per event and phase.
type EventManager struct {
	root      *Node
	delegates map[delegateKey]*delegate
}

var _ binding.EventManager = (*EventManager)(nil)

// NewEventManager delegates to root. With a nil root every listener is
// attached directly.
func NewEventManager(root *Node) *EventManager {
	return &EventManager{root: root, delegates: map[delegateKey]*delegate{}}
}

func (m *EventManager) AddEventListener(target any, event string, handler func(ev any), strategy binding.DelegationStrategy) func() {
	n, ok := target.(*Node)
	if !ok {
		return func() {}
	}
	if strategy == binding.NoDelegation || m.root == nil {
		return n.AddEventListener(event, func(ev *Event) { handler(ev) }, false)
	}
	key := delegateKey{event: event, capture: strategy == binding.Capturing}
	d := m.delegates[key]
	if d == nil {
		d = &delegate{handlers: map[*Node][]*delegateHandler{}}
		d.remove = m.root.AddEventListener(event, func(ev *Event) { m.route(d, key.capture, ev) }, key.capture)
		m.delegates[key] = d
	}
	h := &delegateHandler{fn: handler}
	d.handlers[n] = append(d.handlers[n], h)
	return func() {
		hs := slices.DeleteFunc(d.handlers[n], func(x *delegateHandler) bool { return x == h })
		if len(hs) > 0 {
			d.handlers[n] = hs
			return
		}
		delete(d.handlers, n)
		if len(d.handlers) == 0 && m.delegates[key] == d {
			d.remove()
			delete(m.delegates, key)
		}
	}
}

// Delegates returns the number of root listeners installed.
func (m *EventManager) Delegates() int {
	return len(m.delegates)
}

func (m *EventManager) route(d *delegate, capture bool, ev *Event) {
	var path []*Node
	for p := ev.Target; p != nil; p = p.parent {
		path = append(path, p)
		if p == m.root {
			break
		}
	}
	if capture {
		slices.Reverse(path)
	}
	current := ev.CurrentTarget
	for _, p := range path {
		if ev.stopped {
			break
		}
		hs := slices.Clone(d.handlers[p])
		ev.CurrentTarget = p
		for _, h := range hs {
			h.fn(ev)
		}
	}
	ev.CurrentTarget = current
}
