// Package binding glues expressions to rendering targets.
package binding

import (
	"errors"
	"log"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/internal/logutil"
	"github.com/delaneyj/viewparty/observation"
)

// ErrNotBound is returned by operations that need a bound binding.
var ErrNotBound = errors.New("binding: not bound")

// Binding is the lifecycle every binding kind shares.
type Binding interface {
	Bind(flags observation.Flags, scope *observation.Scope) error
	Unbind(flags observation.Flags) error
	IsBound() bool
}

// Services are the collaborators bindings are created with.
type Services struct {
	Locator   *observation.ObserverLocator
	Resources expression.ResourceLocator
	Events    EventManager
	Logger    *log.Logger
}

func (s *Services) logger() *log.Logger {
	if s == nil {
		return logutil.Discard
	}
	return logutil.OrDiscard(s.Logger)
}

// connector reports dependencies found by Connect into an ObserverRecord.
type connector struct {
	locator *observation.ObserverLocator
	record  *observation.ObserverRecord
}

func (c *connector) ObserveProperty(obj any, key string) {
	c.record.AddProperty(c.locator.GetObserver(obj, key))
}

func (c *connector) ObserveCollection(coll observation.Collection) {
	c.record.AddCollection(c.locator.CollectionObserver(coll))
}

// reconnect starts a new collection round, connects e and drops what the
// round did not touch.
func (c *connector) reconnect(flags observation.Flags, scope *observation.Scope, r expression.ResourceLocator, e expression.Expression, b expression.Binding) error {
	c.record.Bump()
	err := e.Connect(flags, scope, r, b)
	c.record.Unobserve(false)
	return err
}

func bindBehaviors(flags observation.Flags, scope *observation.Scope, r expression.ResourceLocator, e expression.Expression, b expression.Binding) error {
	if bb, ok := e.(expression.Behaviorful); ok {
		return bb.Bind(flags, scope, r, b)
	}
	return nil
}

func unbindBehaviors(flags observation.Flags, scope *observation.Scope, r expression.ResourceLocator, e expression.Expression, b expression.Binding) error {
	if bb, ok := e.(expression.Behaviorful); ok {
		return bb.Unbind(flags, scope, r, b)
	}
	return nil
}
