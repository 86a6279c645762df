package binding

import (
	"errors"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
)

// RefBinding assigns its target into the scope, making a rendered node or
// view model reachable by name.
type RefBinding struct {
	services *Services

	SourceExpression expression.Expression
	Target           any

	scope *observation.Scope
	bound bool
}

func NewRefBinding(s *Services, source expression.Expression, target any) *RefBinding {
	return &RefBinding{services: s, SourceExpression: source, Target: target}
}

func (b *RefBinding) IsBound() bool { return b.bound }

func (b *RefBinding) ObserveProperty(any, string)              {}
func (b *RefBinding) ObserveCollection(observation.Collection) {}

func (b *RefBinding) Bind(flags observation.Flags, scope *observation.Scope) error {
	if b.bound {
		if b.scope == scope {
			return nil
		}
		if err := b.Unbind(flags | observation.FromBind); err != nil {
			return err
		}
	}
	b.scope = scope
	r := b.services.Resources
	if err := bindBehaviors(flags, scope, r, b.SourceExpression, b); err != nil {
		b.scope = nil
		return err
	}
	if err := b.SourceExpression.Assign(flags|observation.FromBind, scope, r, b.Target); err != nil {
		b.scope = nil
		return err
	}
	b.bound = true
	return nil
}

// Unbind clears the reference if it still points at the target.
func (b *RefBinding) Unbind(flags observation.Flags) error {
	if !b.bound {
		return nil
	}
	r := b.services.Resources
	var errs []error
	if v, err := b.SourceExpression.Evaluate(flags, b.scope, r); err == nil && observation.SameValue(v, b.Target) {
		errs = append(errs, b.SourceExpression.Assign(flags|observation.FromUnbind, b.scope, r, nil))
	}
	errs = append(errs, unbindBehaviors(flags|observation.FromUnbind, b.scope, r, b.SourceExpression, b))
	b.scope = nil
	b.bound = false
	return errors.Join(errs...)
}
