package render

import (
	"fmt"
	"reflect"

	"github.com/delaneyj/viewparty/observation"
)

// RepeatDefinition registers the repeat template controller.
var RepeatDefinition = &CustomAttributeDefinition{
	Name:               "repeat",
	TemplateController: true,
	Create:             func(ctx *HydrationContext) any { return NewRepeat(ctx) },
}

// IteratorTarget receives the declared local of an `item of items`
// binding.
type IteratorTarget interface {
	SetLocal(name string)
}

// Repeat renders one view per item. When items is an observed collection
// the views are reconciled from the index map of each flush, so items
// that kept their identity keep their view.
type Repeat struct {
	ctx        *HydrationContext
	local      string
	items      any
	views      []*Controller
	controller *Controller
	observer   *observation.CollectionObserver
}

func NewRepeat(ctx *HydrationContext) *Repeat {
	return &Repeat{ctx: ctx, local: "item"}
}

func (r *Repeat) SetLocal(name string) { r.local = name }

// Views returns the current views in item order.
func (r *Repeat) Views() []*Controller { return r.views }

func (r *Repeat) GetProperty(key string) any {
	switch key {
	case "items":
		return r.items
	case "local":
		return r.local
	}
	return nil
}

func (r *Repeat) SetProperty(key string, v any) error {
	switch key {
	case "items":
		r.items = v
		if r.bound() {
			r.subscribe()
			return r.refresh(observation.FlagsNone)
		}
		return nil
	case "local":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("render: repeat local must be a string, got %T", v)
		}
		r.local = s
		return nil
	}
	return fmt.Errorf("render: repeat has no property %s: %w", key, observation.ErrNotSettable)
}

func (r *Repeat) bound() bool {
	return r.controller != nil && r.controller.IsBound()
}

func (r *Repeat) Bound(c *Controller, flags observation.Flags) error {
	r.controller = c
	r.subscribe()
	return r.refresh(flags)
}

func (r *Repeat) Unbinding(_ *Controller, flags observation.Flags) error {
	r.unsubscribe()
	return r.removeAll(flags)
}

func (r *Repeat) subscribe() {
	r.unsubscribe()
	coll, ok := r.items.(observation.Collection)
	if !ok {
		return
	}
	r.observer = r.ctx.Renderer.Locator().CollectionObserver(coll)
	r.observer.SubscribeBatched(r)
}

func (r *Repeat) unsubscribe() {
	if r.observer != nil {
		r.observer.UnsubscribeBatched(r)
		r.observer = nil
	}
}

// HandleBatchedChange reconciles the views with the collection.
func (r *Repeat) HandleBatchedChange(im *observation.IndexMap, flags observation.Flags) {
	if !r.bound() {
		return
	}
	if err := r.reconcile(im, flags); err != nil {
		r.ctx.Renderer.logger.Printf("render: repeat: %v", err)
	}
}

func (r *Repeat) removeAll(flags observation.Flags) error {
	var err error
	for _, v := range r.views {
		if e := v.Deactivate(flags); e != nil && err == nil {
			err = e
		}
		r.ctx.Factory.Release(v)
	}
	r.views = nil
	return err
}

func (r *Repeat) refresh(flags observation.Flags) error {
	if err := r.removeAll(flags); err != nil {
		return err
	}
	items := itemsOf(r.items)
	for i, item := range items {
		v, err := r.createView(item, i, len(items), flags)
		if err != nil {
			return err
		}
		v.Attach()
		r.views = append(r.views, v)
	}
	r.updateContextuals()
	return nil
}

func (r *Repeat) reconcile(im *observation.IndexMap, flags observation.Flags) error {
	items := itemsOf(r.items)
	if im.Len() != len(items) {
		return r.refresh(flags)
	}
	old := r.views
	next := make([]*Controller, len(items))
	reused := make([]bool, len(old))
	for i, src := range im.Indices {
		if src >= 0 && src < len(old) && !reused[src] {
			next[i] = old[src]
			reused[src] = true
		}
	}
	var err error
	for i, v := range old {
		if reused[i] {
			continue
		}
		if e := v.Deactivate(flags); e != nil && err == nil {
			err = e
		}
		r.ctx.Factory.Release(v)
	}
	for i, v := range next {
		if v == nil {
			nv, e := r.createView(items[i], i, len(items), flags)
			if e != nil {
				return e
			}
			next[i] = nv
		}
	}
	for _, v := range next {
		if v.IsAttached() {
			v.moveBefore(r.ctx.Location)
		} else {
			v.Attach()
		}
	}
	r.views = next
	r.updateContextuals()
	return err
}

// createView binds a view for item. The contextual values are in place
// before the bindings first evaluate.
func (r *Repeat) createView(item any, index, length int, flags observation.Flags) (*Controller, error) {
	v, err := r.ctx.Factory.Create(r.ctx.Container)
	if err != nil {
		return nil, err
	}
	v.SetLocation(r.ctx.Location)
	scope := observation.FromParent(r.controller.ParentScope, observation.RecordOf(r.local, item))
	setContextuals(scope.OverrideContext.Values(), index, length)
	if err := v.Bind(flags, scope); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Repeat) updateContextuals() {
	for i, v := range r.views {
		setContextuals(v.Scope.OverrideContext.Values(), i, len(r.views))
	}
}

func setContextuals(vals *observation.Record, i, n int) {
	vals.Set("$index", i)
	vals.Set("$length", n)
	vals.Set("$first", i == 0)
	vals.Set("$last", i == n-1)
	vals.Set("$middle", i != 0 && i != n-1)
	vals.Set("$even", i%2 == 0)
	vals.Set("$odd", i%2 == 1)
}

// itemsOf lists what a repeat iterates. Maps yield [key, value] arrays,
// numbers yield 0..n-1.
func itemsOf(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case *observation.Array:
		return x.Values()
	case *observation.Set:
		return x.Values()
	case *observation.Map:
		entries := x.Entries()
		out := make([]any, len(entries))
		for i, e := range entries {
			out[i] = observation.NewArray(e.Key, e.Value)
		}
		return out
	case []any:
		return x
	case int:
		return intRange(x)
	case float64:
		return intRange(int(x))
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return nil
}

func intRange(n int) []any {
	out := make([]any, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, i)
	}
	return out
}
