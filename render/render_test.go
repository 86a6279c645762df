package render_test

import (
	"testing"

	"github.com/delaneyj/viewparty/binding"
	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
	"github.com/delaneyj/viewparty/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	cs        *observation.ChangeSet
	container *render.MapContainer
	events    *render.EventManager
	renderer  *render.Renderer
	root      *render.Node
}

func newEnv() *env {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{})
	locator := observation.NewObserverLocator(observation.ObserverLocatorOptions{ChangeSet: cs})
	c := render.NewContainer(nil)
	render.RegisterStandardResources(c)
	root := render.NewElement("body")
	events := render.NewEventManager(root)
	return &env{
		cs:        cs,
		container: c,
		events:    events,
		root:      root,
		renderer: render.NewRenderer(render.RendererOptions{
			Container:   c,
			Locator:     locator,
			Events:      events,
			Expressions: expression.NewCache(),
		}),
	}
}

// mount hydrates def as the app element under the root and activates it.
func (e *env) mount(t *testing.T, def *render.Definition, vm any) (*render.Controller, *render.Node) {
	t.Helper()
	host := render.NewElement("app")
	e.root.Append(host)
	c, err := e.renderer.Hydrate(host, &render.CustomElementDefinition{Name: "app", Template: def}, vm)
	require.NoError(t, err)
	require.NoError(t, c.Activate(observation.FlagsNone, nil))
	return c, host
}

func (e *env) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, e.cs.Flush())
}

func TestTextInterpolation(t *testing.T) {
	e := newEnv()
	vm := observation.RecordOf("name", "World")
	def := &render.Definition{
		Name:         "greet",
		Template:     render.NewElement("p").Append(render.NewMarker()),
		Instructions: [][]render.Instruction{{render.TextBindingInstruction{From: "Hello ${name}!"}}},
	}
	c, host := e.mount(t, def, vm)
	assert.Equal(t, "<p>Hello World!</p>", host.InnerMarkup())

	vm.Set("name", "Go")
	e.flush(t)
	assert.Equal(t, "<p>Hello Go!</p>", host.InnerMarkup())

	require.NoError(t, c.Deactivate(observation.FlagsNone))
	vm.Set("name", "nobody")
	e.flush(t)
	assert.Equal(t, "<p>Hello Go!</p>", host.InnerMarkup())
}

func TestValueDefaultsToTwoWay(t *testing.T) {
	e := newEnv()
	vm := observation.RecordOf("name", "World")
	def := &render.Definition{
		Template:     render.Target(render.NewElement("input")),
		Instructions: [][]render.Instruction{{render.PropertyBindingInstruction{From: "name", To: "value"}}},
	}
	_, host := e.mount(t, def, vm)
	input := host.Query("input")
	require.NotNil(t, input)
	assert.Equal(t, "World", input.GetProperty("value"))
	assert.Equal(t, "<input>", host.InnerMarkup())

	input.Input("typed")
	assert.Equal(t, "typed", vm.Get("name"))

	vm.Set("name", "from model")
	e.flush(t)
	assert.Equal(t, "from model", input.GetProperty("value"))
}

func TestCheckedTwoWay(t *testing.T) {
	e := newEnv()
	vm := observation.RecordOf("done", false)
	def := &render.Definition{
		Template:     render.Target(render.NewElement("input", "type", "checkbox")),
		Instructions: [][]render.Instruction{{render.PropertyBindingInstruction{From: "done", To: "checked"}}},
	}
	_, host := e.mount(t, def, vm)
	box := host.Query("input")
	box.Check(true)
	assert.Equal(t, true, vm.Get("done"))
}

func TestListenerWithDelegation(t *testing.T) {
	e := newEnv()
	vm := observation.RecordOf("count", 0)
	def := &render.Definition{
		Template: render.Target(render.NewElement("button")),
		Instructions: [][]render.Instruction{{render.ListenerInstruction{
			From:           "count = count + 1",
			To:             "click",
			Strategy:       binding.Bubbling,
			PreventDefault: true,
		}}},
	}
	c, host := e.mount(t, def, vm)
	button := host.Query("button")
	assert.Equal(t, 1, e.events.Delegates())

	assert.False(t, button.Click(), "a handler not returning true cancels the event")
	button.Click()
	assert.EqualValues(t, 2, vm.Get("count"))

	require.NoError(t, c.Deactivate(observation.FlagsNone))
	assert.Equal(t, 0, e.events.Delegates())
	button.Click()
	assert.EqualValues(t, 2, vm.Get("count"))
}

func TestAttributeClassAndStyleTargets(t *testing.T) {
	e := newEnv()
	vm := observation.RecordOf("classes", "active big", "color", "red", "label", "hello")
	def := &render.Definition{
		Template: render.Target(render.NewElement("div", "class", "box")),
		Instructions: [][]render.Instruction{{
			render.PropertyBindingInstruction{From: "classes", To: "class", Mode: binding.ToView},
			render.StylePropertyBindingInstruction{From: "color", To: "color"},
			render.SetAttributeInstruction{Value: "main", To: "role"},
			render.PropertyBindingInstruction{From: "label", To: "aria-label", Mode: binding.ToView},
			render.SetPropertyInstruction{Value: 42, To: "answer"},
		}},
	}
	_, host := e.mount(t, def, vm)
	div := host.Query("div")
	assert.Equal(t, `<div class="box active big" style="color: red;" role="main" aria-label="hello"></div>`, host.InnerMarkup())
	assert.Equal(t, 42, div.GetProperty("answer"))

	vm.Set("classes", "active")
	vm.Set("label", nil)
	vm.Set("color", "blue")
	e.flush(t)
	assert.Equal(t, `<div class="box active" style="color: blue;" role="main"></div>`, host.InnerMarkup())
}

func TestCustomElementAndRef(t *testing.T) {
	e := newEnv()
	e.container.RegisterElement(&render.CustomElementDefinition{
		Name: "greeting",
		Template: &render.Definition{
			Name:         "greeting",
			Template:     render.NewElement("b").Append(render.NewMarker()),
			Instructions: [][]render.Instruction{{render.TextBindingInstruction{From: "${who}"}}},
		},
	})
	vm := observation.RecordOf("user", "Ann", "greeter", nil)
	def := &render.Definition{
		Template: render.Target(render.NewElement("greeting")),
		Instructions: [][]render.Instruction{{
			render.HydrateElementInstruction{
				Res:          "greeting",
				Instructions: []render.Instruction{render.PropertyBindingInstruction{From: "user", To: "who", Mode: binding.ToView}},
			},
			render.RefBindingInstruction{From: "greeter", To: "greeting"},
		}},
	}
	c, host := e.mount(t, def, vm)
	assert.Equal(t, "<greeting><b>Ann</b></greeting>", host.InnerMarkup())
	require.Len(t, c.Children(), 1)
	assert.Equal(t, render.CustomElementKind, c.Children()[0].Kind)
	assert.Same(t, c.Children()[0].ViewModel, vm.Get("greeter"))

	vm.Set("user", "Bob")
	e.flush(t)
	assert.Equal(t, "<greeting><b>Bob</b></greeting>", host.InnerMarkup())
}

func TestLetElement(t *testing.T) {
	e := newEnv()
	vm := observation.RecordOf("first", "Ada", "last", "Lovelace")
	def := &render.Definition{
		Template: render.NewFragment(
			render.Target(render.NewElement("let")),
			render.NewElement("p").Append(render.NewMarker()),
		),
		Instructions: [][]render.Instruction{
			{render.HydrateLetElementInstruction{Instructions: []render.LetBindingInstruction{{From: "first + ' ' + last", To: "full"}}}},
			{render.TextBindingInstruction{From: "${full}"}},
		},
	}
	_, host := e.mount(t, def, vm)
	assert.Equal(t, "<p>Ada Lovelace</p>", host.InnerMarkup())

	vm.Set("first", "Grace")
	e.flush(t)
	assert.Equal(t, "<p>Grace Lovelace</p>", host.InnerMarkup())
}

type bogus struct{}

func (bogus) Type() render.InstructionType { return 99 }

func TestRenderErrors(t *testing.T) {
	e := newEnv()
	host := render.NewElement("app")

	_, err := e.renderer.Hydrate(host, &render.CustomElementDefinition{Name: "bad", Template: &render.Definition{
		Template:     render.Target(render.NewElement("div")),
		Instructions: [][]render.Instruction{{bogus{}}},
	}}, nil)
	assert.ErrorIs(t, err, render.ErrUnknownInstruction)

	_, err = e.renderer.Hydrate(host, &render.CustomElementDefinition{Name: "short", Template: &render.Definition{
		Template: render.Target(render.NewElement("div")),
	}}, nil)
	assert.ErrorIs(t, err, render.ErrTargetMismatch)

	_, err = e.renderer.Hydrate(host, &render.CustomElementDefinition{Name: "missing", Template: &render.Definition{
		Template:     render.Target(render.NewElement("nope")),
		Instructions: [][]render.Instruction{{render.HydrateElementInstruction{Res: "nope"}}},
	}}, nil)
	assert.ErrorIs(t, err, render.ErrUnknownResource)

	_, err = e.renderer.Hydrate(host, &render.CustomElementDefinition{Name: "syntax", Template: &render.Definition{
		Template:     render.Target(render.NewElement("div")),
		Instructions: [][]render.Instruction{{render.PropertyBindingInstruction{From: "a +", To: "x"}}},
	}}, nil)
	var pe *expression.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestFactoryCacheByFingerprint(t *testing.T) {
	e := newEnv()
	build := func(text string) *render.Definition {
		return &render.Definition{
			Name:         "row",
			Template:     render.NewElement("li").Append(render.NewMarker()),
			Instructions: [][]render.Instruction{{render.TextBindingInstruction{From: text}}},
		}
	}
	a, err := e.renderer.Factory(build("${x}"))
	require.NoError(t, err)
	b, err := e.renderer.Factory(build("${x}"))
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, e.renderer.Factories())

	c, err := e.renderer.Factory(build("${y}"))
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Equal(t, 2, e.renderer.Factories())
}

type hooked struct {
	*observation.Record
	calls []string
}

func (h *hooked) Binding(*render.Controller, observation.Flags) error {
	h.calls = append(h.calls, "binding")
	return nil
}

func (h *hooked) Bound(*render.Controller, observation.Flags) error {
	h.calls = append(h.calls, "bound")
	return nil
}

func (h *hooked) Attached(*render.Controller) { h.calls = append(h.calls, "attached") }
func (h *hooked) Detached(*render.Controller) { h.calls = append(h.calls, "detached") }

func (h *hooked) Unbinding(*render.Controller, observation.Flags) error {
	h.calls = append(h.calls, "unbinding")
	return nil
}

func (h *hooked) Unbound(*render.Controller, observation.Flags) error {
	h.calls = append(h.calls, "unbound")
	return nil
}

func TestControllerHooksOrder(t *testing.T) {
	e := newEnv()
	vm := &hooked{Record: observation.NewRecord()}
	c, _ := e.mount(t, &render.Definition{Template: render.NewElement("div")}, vm)
	require.NoError(t, c.Deactivate(observation.FlagsNone))
	assert.Equal(t, []string{"binding", "bound", "attached", "detached", "unbinding", "unbound"}, vm.calls)
	assert.False(t, c.IsBound())
}
