package binding

import (
	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
)

// LetBinding declares a computed name in the scope. By default the name
// lands in the override context; ToBindingContext puts it on the binding
// context instead.
type LetBinding struct {
	connector
	services *Services

	SourceExpression expression.Expression
	TargetProperty   string
	ToBindingContext bool

	scope  *observation.Scope
	bound  bool
	target observation.PropertyObserver
}

func NewLetBinding(s *Services, source expression.Expression, property string, toBindingContext bool) *LetBinding {
	b := &LetBinding{
		services:         s,
		SourceExpression: source,
		TargetProperty:   property,
		ToBindingContext: toBindingContext,
	}
	b.connector = connector{locator: s.Locator, record: observation.NewObserverRecord(b)}
	return b
}

func (b *LetBinding) IsBound() bool { return b.bound }

func (b *LetBinding) Bind(flags observation.Flags, scope *observation.Scope) error {
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
	var target any = scope.OverrideContext.Values()
	if b.ToBindingContext {
		target = scope.BindingContext
	}
	b.target = b.locator.GetObserver(target, b.TargetProperty)
	v, err := b.SourceExpression.Evaluate(flags, scope, r)
	if err != nil {
		b.scope = nil
		return err
	}
	b.target.SetValue(v, flags)
	if err := b.reconnect(flags, scope, r, b.SourceExpression, b); err != nil {
		b.record.Unobserve(true)
		b.scope = nil
		return err
	}
	b.bound = true
	return nil
}

func (b *LetBinding) Unbind(flags observation.Flags) error {
	if !b.bound {
		return nil
	}
	err := unbindBehaviors(flags|observation.FromUnbind, b.scope, b.services.Resources, b.SourceExpression, b)
	b.record.Unobserve(true)
	b.scope = nil
	b.bound = false
	return err
}

func (b *LetBinding) HandleChange(_, _ any, flags observation.Flags) {
	if !b.bound {
		return
	}
	r := b.services.Resources
	v, err := b.SourceExpression.Evaluate(flags, b.scope, r)
	if err != nil {
		b.services.logger().Printf("binding: let %s: %v", b.TargetProperty, err)
		return
	}
	b.target.SetValue(v, flags|observation.UpdateTargetInstance)
	if err := b.reconnect(flags, b.scope, r, b.SourceExpression, b); err != nil {
		b.services.logger().Printf("binding: let %s: %v", b.TargetProperty, err)
	}
}

func (b *LetBinding) HandleBatchedChange(_ *observation.IndexMap, flags observation.Flags) {
	b.HandleChange(nil, nil, flags)
}
