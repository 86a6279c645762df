package binding

import (
	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
)

// CallFunc is what a call binding assigns to its target property. The
// caller's named arguments become override values of the evaluation.
type CallFunc func(args map[string]any) (any, error)

// CallBinding hands its target a function that evaluates the source.
type CallBinding struct {
	services *Services

	SourceExpression expression.Expression
	Target           any
	TargetProperty   string

	scope  *observation.Scope
	bound  bool
	target observation.Accessor
}

func NewCallBinding(s *Services, source expression.Expression, target any, property string) *CallBinding {
	return &CallBinding{services: s, SourceExpression: source, Target: target, TargetProperty: property}
}

func (b *CallBinding) IsBound() bool { return b.bound }

func (b *CallBinding) ObserveProperty(any, string)              {}
func (b *CallBinding) ObserveCollection(observation.Collection) {}

func (b *CallBinding) Bind(flags observation.Flags, scope *observation.Scope) error {
	if b.bound {
		if b.scope == scope {
			return nil
		}
		if err := b.Unbind(flags | observation.FromBind); err != nil {
			return err
		}
	}
	b.scope = scope
	if err := bindBehaviors(flags, scope, b.services.Resources, b.SourceExpression, b); err != nil {
		b.scope = nil
		return err
	}
	if b.target == nil {
		b.target = b.services.Locator.GetAccessor(b.Target, b.TargetProperty)
	}
	b.target.SetValue(CallFunc(b.CallSource), flags|observation.FromBind)
	b.bound = true
	return nil
}

func (b *CallBinding) Unbind(flags observation.Flags) error {
	if !b.bound {
		return nil
	}
	err := unbindBehaviors(flags|observation.FromUnbind, b.scope, b.services.Resources, b.SourceExpression, b)
	b.target.SetValue(nil, flags|observation.FromUnbind)
	b.scope = nil
	b.bound = false
	return err
}

// CallSource evaluates the source with args as override values.
func (b *CallBinding) CallSource(args map[string]any) (any, error) {
	if !b.bound {
		return nil, ErrNotBound
	}
	values := b.scope.OverrideContext.Values()
	for k, v := range args {
		values.Set(k, v)
	}
	defer func() {
		for k := range args {
			values.Delete(k)
		}
	}()
	return b.SourceExpression.Evaluate(observation.MustEvaluate, b.scope, b.services.Resources)
}
