package binding

import (
	"errors"
	"fmt"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
)

// ErrNoEventManager is returned when binding a listener without an event
// manager.
var ErrNoEventManager = errors.New("binding: listener needs an event manager")

// DelegationStrategy decides where a listener is attached.
type DelegationStrategy uint8

const (
	// NoDelegation attaches directly to the target.
	NoDelegation DelegationStrategy = iota
	// Capturing attaches once at the root and runs on the way down.
	Capturing
	// Bubbling attaches once at the root and runs on the way up.
	Bubbling
)

func (s DelegationStrategy) String() string {
	switch s {
	case NoDelegation:
		return "none"
	case Capturing:
		return "capturing"
	case Bubbling:
		return "bubbling"
	}
	return fmt.Sprintf("DelegationStrategy(%d)", uint8(s))
}

// EventManager attaches event handlers to rendering targets. The returned
// function removes the handler.
type EventManager interface {
	AddEventListener(target any, event string, handler func(ev any), strategy DelegationStrategy) (remove func())
}

// PreventDefaulter is implemented by events that have a default action.
type PreventDefaulter interface {
	PreventDefault()
}

// Listener runs a handler expression when an event fires on its target.
// The event is available to the expression as $event.
type Listener struct {
	services *Services

	TargetEvent      string
	Strategy         DelegationStrategy
	SourceExpression expression.Expression
	Target           any
	// PreventDefault cancels the event unless the handler returns true.
	PreventDefault bool

	scope  *observation.Scope
	bound  bool
	remove func()
}

func NewListener(s *Services, event string, strategy DelegationStrategy, source expression.Expression, target any, preventDefault bool) *Listener {
	return &Listener{
		services:         s,
		TargetEvent:      event,
		Strategy:         strategy,
		SourceExpression: source,
		Target:           target,
		PreventDefault:   preventDefault,
	}
}

func (l *Listener) IsBound() bool { return l.bound }

func (l *Listener) ObserveProperty(any, string)              {}
func (l *Listener) ObserveCollection(observation.Collection) {}

func (l *Listener) Bind(flags observation.Flags, scope *observation.Scope) error {
	if l.bound {
		if l.scope == scope {
			return nil
		}
		if err := l.Unbind(flags | observation.FromBind); err != nil {
			return err
		}
	}
	if l.services.Events == nil {
		return ErrNoEventManager
	}
	l.scope = scope
	if err := bindBehaviors(flags, scope, l.services.Resources, l.SourceExpression, l); err != nil {
		l.scope = nil
		return err
	}
	l.remove = l.services.Events.AddEventListener(l.Target, l.TargetEvent, l.handleEvent, l.Strategy)
	l.bound = true
	return nil
}

func (l *Listener) Unbind(flags observation.Flags) error {
	if !l.bound {
		return nil
	}
	err := unbindBehaviors(flags|observation.FromUnbind, l.scope, l.services.Resources, l.SourceExpression, l)
	if l.remove != nil {
		l.remove()
		l.remove = nil
	}
	l.scope = nil
	l.bound = false
	return err
}

// CallSource evaluates the handler with ev as $event.
func (l *Listener) CallSource(ev any) (any, error) {
	if !l.bound {
		return nil, ErrNotBound
	}
	values := l.scope.OverrideContext.Values()
	values.Set("$event", ev)
	defer values.Delete("$event")
	return l.SourceExpression.Evaluate(observation.MustEvaluate, l.scope, l.services.Resources)
}

func (l *Listener) handleEvent(ev any) {
	result, err := l.CallSource(ev)
	if err != nil {
		l.services.logger().Printf("binding: %s.trigger %s: %v", l.TargetEvent, l.SourceExpression, err)
	}
	if l.PreventDefault && result != true {
		if pd, ok := ev.(PreventDefaulter); ok {
			pd.PreventDefault()
		}
	}
}
