package binding

import (
	"fmt"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
)

// ModalBinding is a binding whose mode a behavior can override.
type ModalBinding interface {
	Mode() Mode
	SetMode(m Mode)
}

// ModeBehavior forces a binding mode while bound and restores the
// original mode on unbind.
type ModeBehavior struct {
	mode      Mode
	originals map[expression.Binding]Mode
}

func NewModeBehavior(m Mode) *ModeBehavior {
	return &ModeBehavior{mode: m, originals: map[expression.Binding]Mode{}}
}

func (mb *ModeBehavior) Bind(_ observation.Flags, _ *observation.Scope, b expression.Binding, _ ...any) error {
	mbind, ok := b.(ModalBinding)
	if !ok {
		return fmt.Errorf("binding: %s behavior needs a property binding, got %T", mb.mode, b)
	}
	mb.originals[b] = mbind.Mode()
	mbind.SetMode(mb.mode)
	return nil
}

func (mb *ModeBehavior) Unbind(_ observation.Flags, _ *observation.Scope, b expression.Binding) error {
	orig, ok := mb.originals[b]
	if !ok {
		return nil
	}
	delete(mb.originals, b)
	b.(ModalBinding).SetMode(orig)
	return nil
}

// RegisterModeBehaviors registers oneTime, toView, fromView and twoWay.
func RegisterModeBehaviors(r *expression.Resources) {
	for _, m := range []Mode{OneTime, ToView, FromView, TwoWay} {
		r.RegisterBindingBehavior(m.String(), NewModeBehavior(m))
	}
}
