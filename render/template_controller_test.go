package render_test

import (
	"testing"

	"github.com/delaneyj/viewparty/binding"
	"github.com/delaneyj/viewparty/observation"
	"github.com/delaneyj/viewparty/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ifDefinition() *render.Definition {
	return &render.Definition{
		Template: render.NewFragment(render.NewMarker()),
		Instructions: [][]render.Instruction{{render.HydrateTemplateControllerInstruction{
			Res: "if",
			Def: &render.Definition{
				Name:         "shown",
				Template:     render.NewElement("span").Append(render.NewMarker()),
				Instructions: [][]render.Instruction{{render.TextBindingInstruction{From: "${msg}"}}},
			},
			Instructions: []render.Instruction{render.PropertyBindingInstruction{From: "show", To: "value", Mode: binding.ToView}},
		}}},
	}
}

func TestIfTogglesView(t *testing.T) {
	e := newEnv()
	vm := observation.RecordOf("show", false, "msg", "hi")
	c, host := e.mount(t, ifDefinition(), vm)
	assert.Equal(t, "<!--au-->", host.InnerMarkup())

	vm.Set("show", true)
	e.flush(t)
	assert.Equal(t, "<span>hi</span><!--au-->", host.InnerMarkup())

	vm.Set("msg", "yo")
	e.flush(t)
	assert.Equal(t, "<span>yo</span><!--au-->", host.InnerMarkup())

	ctrl := c.Children()[0].ViewModel.(*render.If)
	view := ctrl.View()
	vm.Set("show", false)
	e.flush(t)
	assert.Equal(t, "<!--au-->", host.InnerMarkup())
	assert.False(t, view.IsBound())

	vm.Set("msg", "while hidden")
	vm.Set("show", 1)
	e.flush(t)
	assert.Equal(t, "<span>while hidden</span><!--au-->", host.InnerMarkup())
	assert.Same(t, view, ctrl.View(), "the view is reused")

	require.NoError(t, c.Deactivate(observation.FlagsNone))
	assert.Equal(t, "<!--au-->", host.InnerMarkup())
}

func repeatDefinition() *render.Definition {
	return &render.Definition{
		Template: render.NewElement("ul").Append(render.NewMarker()),
		Instructions: [][]render.Instruction{{render.HydrateTemplateControllerInstruction{
			Res: "repeat",
			Def: &render.Definition{
				Name:         "row",
				Template:     render.NewElement("li").Append(render.NewMarker()),
				Instructions: [][]render.Instruction{{render.TextBindingInstruction{From: "${$index}:${item}${$last ? '.' : ''}"}}},
			},
			Instructions: []render.Instruction{render.PropertyBindingInstruction{From: "item of items", To: "items", Mode: binding.ToView, Iterator: true}},
		}}},
	}
}

func TestRepeatReconcilesFromIndexMap(t *testing.T) {
	e := newEnv()
	items := observation.NewArray("a", "b", "c")
	vm := observation.RecordOf("items", items)
	c, host := e.mount(t, repeatDefinition(), vm)
	ul := host.Query("ul")
	repeat := c.Children()[0].ViewModel.(*render.Repeat)
	assert.Equal(t, "<li>0:a</li><li>1:b</li><li>2:c.</li><!--au-->", ul.InnerMarkup())

	before := repeat.Views()
	items.Push("d")
	e.flush(t)
	assert.Equal(t, "<li>0:a</li><li>1:b</li><li>2:c</li><li>3:d.</li><!--au-->", ul.InnerMarkup())
	after := repeat.Views()
	require.Len(t, after, 4)
	for i := range before {
		assert.Same(t, before[i], after[i], "view %d is kept", i)
	}

	items.Reverse()
	e.flush(t)
	assert.Equal(t, "<li>0:d</li><li>1:c</li><li>2:b</li><li>3:a.</li><!--au-->", ul.InnerMarkup())
	assert.Same(t, after[3], repeat.Views()[0])

	items.Splice(1, 2)
	e.flush(t)
	assert.Equal(t, "<li>0:d</li><li>1:a.</li><!--au-->", ul.InnerMarkup())

	items.Sort(nil)
	e.flush(t)
	assert.Equal(t, "<li>0:a</li><li>1:d.</li><!--au-->", ul.InnerMarkup())
}

func TestRepeatItemsReplaced(t *testing.T) {
	e := newEnv()
	old := observation.NewArray("a", "b")
	vm := observation.RecordOf("items", old)
	c, host := e.mount(t, repeatDefinition(), vm)
	ul := host.Query("ul")

	vm.Set("items", observation.NewArray("x"))
	e.flush(t)
	assert.Equal(t, "<li>0:x.</li><!--au-->", ul.InnerMarkup())

	old.Push("ignored")
	e.flush(t)
	assert.Equal(t, "<li>0:x.</li><!--au-->", ul.InnerMarkup())

	vm.Set("items", 2)
	e.flush(t)
	assert.Equal(t, "<li>0:0</li><li>1:1.</li><!--au-->", ul.InnerMarkup())

	require.NoError(t, c.Deactivate(observation.FlagsNone))
	assert.Equal(t, "<!--au-->", ul.InnerMarkup())
}

func TestRepeatOverMapEntries(t *testing.T) {
	e := newEnv()
	m := observation.NewMap(observation.MapEntry{Key: "k1", Value: 1})
	vm := observation.RecordOf("entries", m)
	def := &render.Definition{
		Template: render.NewElement("dl").Append(render.NewMarker()),
		Instructions: [][]render.Instruction{{render.HydrateTemplateControllerInstruction{
			Res: "repeat",
			Def: &render.Definition{
				Template:     render.NewElement("dt").Append(render.NewMarker()),
				Instructions: [][]render.Instruction{{render.TextBindingInstruction{From: "${entry[0]}=${entry[1]}"}}},
			},
			Instructions: []render.Instruction{render.PropertyBindingInstruction{From: "entry of entries", To: "items", Mode: binding.ToView, Iterator: true}},
		}}},
	}
	_, host := e.mount(t, def, vm)
	m.Set("k2", 2)
	e.flush(t)
	assert.Equal(t, "<dt>k1=1</dt><dt>k2=2</dt><!--au-->", host.Query("dl").InnerMarkup())
}
