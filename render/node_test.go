package render_test

import (
	"testing"

	"github.com/delaneyj/viewparty/binding"
	"github.com/delaneyj/viewparty/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkupEscapesTextAndAttributes(t *testing.T) {
	a := render.NewElement("a", "href", `x?a=1&b="2"`).Append(render.NewText("<b>"))
	assert.Equal(t, `<a href="x?a=1&amp;b=&quot;2&quot;">&lt;b&gt;</a>`, a.Markup())

	div := render.NewElement("div", "class", "a b", "style", "color: red").
		Append(render.NewElement("input", "disabled", ""), render.NewComment("c"))
	assert.Equal(t, `<div class="a b" style="color: red;"><input disabled><!--c--></div>`, div.Markup())
}

func TestTreeOperations(t *testing.T) {
	ul := render.NewElement("ul")
	a, b, c := render.NewElement("li"), render.NewElement("li"), render.NewElement("li")
	ul.Append(a, c)
	ul.InsertBefore(b, c)
	assert.Equal(t, []*render.Node{a, b, c}, ul.Children())
	assert.Equal(t, c, b.NextSibling())

	other := render.NewElement("ol")
	other.Append(b)
	assert.Equal(t, []*render.Node{a, c}, ul.Children())
	assert.Equal(t, other, b.Parent())

	frag := render.NewFragment(render.NewText("x"), render.NewText("y"))
	ul.InsertBefore(frag, c)
	assert.Equal(t, "xy", ul.TextContent())
	assert.Empty(t, frag.Children())

	clone := ul.Clone(true)
	assert.Equal(t, ul.Markup(), clone.Markup())
	assert.Nil(t, clone.Parent())
}

func TestFormProperties(t *testing.T) {
	input := render.NewElement("input", "type", "checkbox")
	assert.Equal(t, "", input.GetProperty("value"))
	assert.Equal(t, false, input.GetProperty("checked"))
	assert.True(t, input.DefaultsToTwoWay("checked"))
	assert.False(t, render.NewElement("div").DefaultsToTwoWay("value"))

	require.NoError(t, input.SetProperty("value", 3.5))
	assert.Equal(t, "3.5", input.GetProperty("value"))
	require.NoError(t, input.SetProperty("checked", "yes"))
	assert.Equal(t, true, input.GetProperty("checked"))
}

func TestDispatchOrder(t *testing.T) {
	root := render.NewElement("body")
	parent := render.NewElement("div")
	child := render.NewElement("button")
	root.Append(parent.Append(child))

	var order []string
	root.AddEventListener("click", func(*render.Event) { order = append(order, "root capture") }, true)
	root.AddEventListener("click", func(*render.Event) { order = append(order, "root bubble") }, false)
	parent.AddEventListener("click", func(*render.Event) { order = append(order, "parent bubble") }, false)
	child.AddEventListener("click", func(e *render.Event) {
		assert.Equal(t, child, e.CurrentTarget)
		order = append(order, "target")
	}, false)

	assert.True(t, child.Click())
	assert.Equal(t, []string{"root capture", "target", "parent bubble", "root bubble"}, order)

	order = nil
	remove := parent.AddEventListener("click", func(e *render.Event) {
		e.StopPropagation()
		e.PreventDefault()
	}, false)
	assert.False(t, child.Click())
	assert.Equal(t, []string{"root capture", "target", "parent bubble"}, order)

	remove()
	order = nil
	ev := render.NewEvent("click", false)
	child.Dispatch(ev)
	assert.Equal(t, []string{"root capture", "target"}, order)
	assert.Equal(t, child, ev.Target)
}

func TestEventManagerDelegates(t *testing.T) {
	root := render.NewElement("body")
	outer := render.NewElement("div")
	inner := render.NewElement("span")
	root.Append(outer.Append(inner))
	m := render.NewEventManager(root)

	var seen []string
	removeOuter := m.AddEventListener(outer, "click", func(ev any) {
		e := ev.(*render.Event)
		assert.Equal(t, outer, e.CurrentTarget)
		seen = append(seen, "outer")
	}, binding.Bubbling)
	removeInner := m.AddEventListener(inner, "click", func(any) { seen = append(seen, "inner") }, binding.Bubbling)
	removeCapture := m.AddEventListener(outer, "click", func(any) { seen = append(seen, "capture") }, binding.Capturing)

	assert.Equal(t, 2, m.Delegates())
	assert.Equal(t, 2, root.ListenerCount("click"))
	assert.Equal(t, 0, inner.ListenerCount("click"))

	inner.Click()
	assert.Equal(t, []string{"capture", "inner", "outer"}, seen)

	removeOuter()
	removeInner()
	removeCapture()
	assert.Equal(t, 0, m.Delegates())
	assert.Equal(t, 0, root.ListenerCount("click"))

	seen = nil
	remove := m.AddEventListener(inner, "click", func(any) { seen = append(seen, "direct") }, binding.NoDelegation)
	assert.Equal(t, 1, inner.ListenerCount("click"))
	inner.Click()
	assert.Equal(t, []string{"direct"}, seen)
	remove()
	assert.Equal(t, 0, inner.ListenerCount("click"))
}
