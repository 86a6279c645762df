package binding

import (
	"fmt"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
)

// TwoWayDefaulter is implemented by targets whose properties bind two-way
// under the Default mode, such as the value of an input.
type TwoWayDefaulter interface {
	DefaultsToTwoWay(key string) bool
}

// PropertyBinding binds a source expression to one property of a target.
type PropertyBinding struct {
	connector
	services *Services

	SourceExpression expression.Expression
	Target           any
	TargetProperty   string

	mode       Mode
	scope      *observation.Scope
	bound      bool
	target     observation.Accessor
	subscribed observation.Subscribable
	targetSub  *targetSubscriber
}

// NewPropertyBinding creates an unbound binding. Mode Default is resolved
// against the target right away.
func NewPropertyBinding(s *Services, source expression.Expression, target any, property string, mode Mode) *PropertyBinding {
	if mode == Default {
		mode = ToView
		if d, ok := target.(TwoWayDefaulter); ok && d.DefaultsToTwoWay(property) {
			mode = TwoWay
		}
	}
	b := &PropertyBinding{
		services:         s,
		SourceExpression: source,
		Target:           target,
		TargetProperty:   property,
		mode:             mode,
	}
	b.connector = connector{locator: s.Locator, record: observation.NewObserverRecord(b)}
	b.targetSub = &targetSubscriber{b: b}
	return b
}

// NewInterpolationBinding binds rendered text or an attribute to an
// interpolation.
func NewInterpolationBinding(s *Services, interp *expression.Interpolation, target any, property string) *PropertyBinding {
	return NewPropertyBinding(s, interp, target, property, ToView)
}

func (b *PropertyBinding) Mode() Mode                { return b.mode }
func (b *PropertyBinding) SetMode(m Mode)            { b.mode = m }
func (b *PropertyBinding) IsBound() bool             { return b.bound }
func (b *PropertyBinding) Scope() *observation.Scope { return b.scope }

// Bind evaluates the source into the target and installs the
// subscriptions the mode asks for. Binding again to the same scope is a
// no-op; binding to another scope unbinds first.
func (b *PropertyBinding) Bind(flags observation.Flags, scope *observation.Scope) error {
	if b.bound {
		if b.scope == scope {
			return nil
		}
		if err := b.Unbind(flags | observation.FromBind); err != nil {
			return err
		}
	}
	flags |= observation.FromBind
	b.scope = scope
	r := b.services.Resources
	if err := bindBehaviors(flags, scope, r, b.SourceExpression, b); err != nil {
		b.scope = nil
		return err
	}

	mode := b.mode
	if mode.fromView() {
		if !expression.IsAssignable(b.SourceExpression) {
			b.scope = nil
			return fmt.Errorf("binding: %s cannot bind %s: %w", mode, b.SourceExpression, expression.ErrNotAssignable)
		}
		b.target = b.locator.GetObserver(b.Target, b.TargetProperty)
	} else if b.target == nil {
		b.target = b.locator.GetAccessor(b.Target, b.TargetProperty)
	}

	if mode.toView() {
		v, err := b.SourceExpression.Evaluate(flags, scope, r)
		if err != nil {
			b.scope = nil
			return fmt.Errorf("binding: evaluate %s: %w", b.SourceExpression, err)
		}
		b.target.SetValue(v, flags)
	}
	if mode&ToView != 0 {
		if err := b.reconnect(flags, scope, r, b.SourceExpression, b); err != nil {
			b.record.Unobserve(true)
			b.scope = nil
			return err
		}
	}
	if mode.fromView() {
		if sub, ok := b.target.(observation.Subscribable); ok {
			sub.Subscribe(b.targetSub)
			b.subscribed = sub
		}
		if mode&ToView == 0 {
			// fromView only: the target's current value seeds the source
			if err := b.SourceExpression.Assign(flags, scope, r, b.target.GetValue()); err != nil {
				b.scope = nil
				return err
			}
		}
	}
	b.bound = true
	return nil
}

// Unbind drops every subscription and the scope.
func (b *PropertyBinding) Unbind(flags observation.Flags) error {
	if !b.bound {
		return nil
	}
	err := unbindBehaviors(flags|observation.FromUnbind, b.scope, b.services.Resources, b.SourceExpression, b)
	b.record.Unobserve(true)
	if b.subscribed != nil {
		b.subscribed.Unsubscribe(b.targetSub)
		b.subscribed = nil
	}
	b.scope = nil
	b.bound = false
	return err
}

// HandleChange propagates a change. The direction comes from the flags:
// UpdateTargetInstance pushes the source to the target,
// UpdateSourceExpression writes the target value back into the source.
func (b *PropertyBinding) HandleChange(newValue, _ any, flags observation.Flags) {
	if !b.bound {
		return
	}
	r := b.services.Resources
	switch {
	case flags.Has(observation.UpdateTargetInstance):
		current := b.target.GetValue()
		v, err := b.SourceExpression.Evaluate(flags, b.scope, r)
		if err != nil {
			b.report(err)
			return
		}
		if !observation.SameValue(v, current) {
			b.target.SetValue(v, flags)
		}
		if b.mode != OneTime {
			if err := b.reconnect(flags, b.scope, r, b.SourceExpression, b); err != nil {
				b.report(err)
			}
		}
	case flags.Has(observation.UpdateSourceExpression):
		current, err := b.SourceExpression.Evaluate(flags, b.scope, r)
		if err != nil {
			b.report(err)
			return
		}
		if observation.SameValue(newValue, current) {
			return
		}
		if err := b.SourceExpression.Assign(flags, b.scope, r, newValue); err != nil {
			b.report(err)
		}
	}
}

// HandleBatchedChange handles a collection the source depends on.
func (b *PropertyBinding) HandleBatchedChange(_ *observation.IndexMap, flags observation.Flags) {
	b.HandleChange(nil, nil, flags|observation.UpdateTargetInstance)
}

// UpdateSource writes v into the source expression.
func (b *PropertyBinding) UpdateSource(v any) error {
	if !b.bound {
		return ErrNotBound
	}
	return b.SourceExpression.Assign(observation.UpdateSourceExpression, b.scope, b.services.Resources, v)
}

func (b *PropertyBinding) report(err error) {
	b.services.logger().Printf("binding: %s -> %T.%s: %v", b.SourceExpression, b.Target, b.TargetProperty, err)
}

// targetSubscriber turns target notifications into source updates.
type targetSubscriber struct {
	b *PropertyBinding
}

func (s *targetSubscriber) HandleChange(newValue, previousValue any, flags observation.Flags) {
	s.b.HandleChange(newValue, previousValue, flags&^observation.UpdateTargetInstance|observation.UpdateSourceExpression)
}
