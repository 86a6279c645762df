package render

import (
	"slices"
	"strings"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
)

// TargetLocator gives the observer locator node specific observers and
// accessors.
type TargetLocator struct{}

var (
	_ observation.TargetObserverLocator = TargetLocator{}
	_ observation.TargetAccessorLocator = TargetLocator{}
)

// Install registers the locator on l.
func (t TargetLocator) Install(l *observation.ObserverLocator) {
	l.SetTargetLocators(t, t)
}

func (TargetLocator) GetObserver(_ *observation.ObserverLocator, obj any, key string) (observation.PropertyObserver, bool) {
	n, ok := obj.(*Node)
	if !ok || n.Type != ElementNode {
		return nil, false
	}
	switch {
	case key == "value" && n.isFormControl():
		return newEventObserver(n, key, "input", "change"), true
	case key == "checked" && n.Tag == "input":
		return newEventObserver(n, key, "change"), true
	}
	return nil, false
}

func (TargetLocator) GetAccessor(_ *observation.ObserverLocator, obj any, key string) (observation.Accessor, bool) {
	n, ok := obj.(*Node)
	if !ok || n.Type != ElementNode {
		return nil, false
	}
	switch {
	case key == "class":
		return &classAccessor{node: n}, true
	case key == "style":
		return &styleAccessor{node: n}, true
	case strings.Contains(key, "-"):
		return &attributeAccessor{node: n, name: key}, true
	}
	return nil, false
}

// eventObserver observes a node property the user changes, picking up
// edits from the given events.
type eventObserver struct {
	node    *Node
	key     string
	events  []string
	subs    observation.Subscribers[observation.Subscriber]
	old     any
	removes []func()
}

func newEventObserver(n *Node, key string, events ...string) *eventObserver {
	return &eventObserver{node: n, key: key, events: events}
}

func (o *eventObserver) GetValue() any {
	return o.node.GetProperty(o.key)
}

func (o *eventObserver) SetValue(v any, _ observation.Flags) {
	o.node.SetProperty(o.key, v)
	o.old = o.GetValue()
}

func (o *eventObserver) Subscribe(s observation.Subscriber) {
	if !o.subs.Add(s) || o.subs.Len() > 1 {
		return
	}
	o.old = o.GetValue()
	for _, ev := range o.events {
		o.removes = append(o.removes, o.node.AddEventListener(ev, o.handleEvent, false))
	}
}

func (o *eventObserver) Unsubscribe(s observation.Subscriber) {
	if !o.subs.Remove(s) || o.subs.Any() {
		return
	}
	for _, remove := range o.removes {
		remove()
	}
	o.removes = nil
}

func (o *eventObserver) handleEvent(*Event) {
	v := o.GetValue()
	if observation.SameValue(v, o.old) {
		return
	}
	prev := o.old
	o.old = v
	for _, s := range o.subs.Snapshot() {
		s.HandleChange(v, prev, observation.UpdateSourceExpression)
	}
}

// classAccessor adds the classes a value names and removes the ones an
// earlier value added. A string lists classes, a record or map toggles
// each key by the truthiness of its value.
type classAccessor struct {
	node  *Node
	added []string
}

func (a *classAccessor) GetValue() any {
	return a.node.GetProperty("className")
}

func (a *classAccessor) SetValue(v any, _ observation.Flags) {
	next := classNames(v)
	var stale []string
	for _, c := range a.added {
		if !slices.Contains(next, c) {
			stale = append(stale, c)
		}
	}
	a.node.RemoveClass(stale...)
	a.node.AddClass(next...)
	a.added = next
}

func classNames(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return strings.Fields(x)
	case []string:
		return x
	case *observation.Array:
		var out []string
		for _, e := range x.Values() {
			out = append(out, classNames(e)...)
		}
		return out
	case *observation.Record:
		var out []string
		for _, k := range x.Keys() {
			if expression.Truthy(x.Get(k)) {
				out = append(out, k)
			}
		}
		return out
	case map[string]any:
		var out []string
		for k, e := range x {
			if expression.Truthy(e) {
				out = append(out, k)
			}
		}
		return out
	}
	return strings.Fields(expression.ToString(v))
}

// styleAccessor applies a declaration string or a record of properties.
type styleAccessor struct {
	node  *Node
	added []string
}

func (a *styleAccessor) GetValue() any {
	return a.node.styleText()
}

func (a *styleAccessor) SetValue(v any, _ observation.Flags) {
	decls := styleDeclarations(v)
	var names []string
	for _, d := range decls {
		names = append(names, d.Name)
	}
	for _, name := range a.added {
		if !slices.Contains(names, name) {
			a.node.SetStyle(name, "")
		}
	}
	for _, d := range decls {
		a.node.SetStyle(d.Name, d.Value)
	}
	a.added = names
}

func styleDeclarations(v any) []Attr {
	switch x := v.(type) {
	case nil:
		return nil
	case *observation.Record:
		var out []Attr
		for _, k := range x.Keys() {
			out = append(out, Attr{Name: k, Value: expression.ToString(x.Get(k))})
		}
		return out
	case map[string]any:
		var out []Attr
		for k, e := range x {
			out = append(out, Attr{Name: k, Value: expression.ToString(e)})
		}
		return out
	}
	var out []Attr
	for _, decl := range strings.Split(expression.ToString(v), ";") {
		k, val, ok := strings.Cut(decl, ":")
		if ok {
			out = append(out, Attr{Name: strings.TrimSpace(k), Value: strings.TrimSpace(val)})
		}
	}
	return out
}

// attributeAccessor writes an attribute. Nil and false remove it.
type attributeAccessor struct {
	node *Node
	name string
}

func (a *attributeAccessor) GetValue() any {
	v, ok := a.node.Attr(a.name)
	if !ok {
		return nil
	}
	return v
}

func (a *attributeAccessor) SetValue(v any, _ observation.Flags) {
	if v == nil || v == false {
		a.node.RemoveAttr(a.name)
		return
	}
	a.node.SetAttr(a.name, expression.ToString(v))
}
