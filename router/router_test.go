package router_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
	"github.com/delaneyj/viewparty/render"
	"github.com/delaneyj/viewparty/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// page is a routed view model that records its hooks.
type page struct {
	name   string
	f      *fixture
	params router.Params
}

func (p *page) CanLoad(params router.Params, next, _ *router.RouteNode) (router.GuardResult, error) {
	p.f.record(p.name + ".canLoad")
	p.params = params
	if p.f.panicLoad[p.name] {
		panic(p.name + " exploded")
	}
	if p.f.denyLoad[p.name] {
		return router.DenyNavigation, nil
	}
	if to, ok := p.f.redirect[p.name]; ok {
		return router.RedirectTo(to), nil
	}
	return router.AllowNavigation, nil
}

func (p *page) Loading(params router.Params, _, _ *router.RouteNode) error {
	p.f.record(p.name + ".loading")
	p.params = params
	return p.f.failLoading[p.name]
}

func (p *page) CanUnload(_, _ *router.RouteNode) (bool, error) {
	p.f.record(p.name + ".canUnload")
	return !p.f.denyUnload[p.name], nil
}

func (p *page) Unloading(_, _ *router.RouteNode) error {
	p.f.record(p.name + ".unloading")
	return nil
}

type fixture struct {
	container   *render.MapContainer
	renderer    *render.Renderer
	body        *render.Node
	router      *router.Router
	history     *router.MemoryHistory
	calls       []string
	events      []router.Event
	pages       map[string][]*page
	redirect    map[string]string
	denyUnload  map[string]bool
	denyLoad    map[string]bool
	panicLoad   map[string]bool
	failLoading map[string]error
	held        []func()
}

func newFixture() *fixture {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{})
	locator := observation.NewObserverLocator(observation.ObserverLocatorOptions{ChangeSet: cs})
	c := render.NewContainer(nil)
	render.RegisterStandardResources(c)
	body := render.NewElement("body")
	return &fixture{
		container: c,
		body:      body,
		renderer: render.NewRenderer(render.RendererOptions{
			Container:   c,
			Locator:     locator,
			Events:      render.NewEventManager(body),
			Expressions: expression.NewCache(),
		}),
		history:     router.NewMemoryHistory(""),
		pages:       map[string][]*page{},
		redirect:    map[string]string{},
		denyUnload:  map[string]bool{},
		denyLoad:    map[string]bool{},
		panicLoad:   map[string]bool{},
		failLoading: map[string]error{},
	}
}

func (f *fixture) record(call string) { f.calls = append(f.calls, call) }

// slowPage reports its load hooks only when the test releases them.
type slowPage struct {
	name string
	f    *fixture
}

func (p *slowPage) CanLoadDeferred(_ router.Params, _, _ *router.RouteNode, done func(router.GuardResult, error)) {
	p.f.record(p.name + ".canLoad")
	res := router.AllowNavigation
	if p.f.denyLoad[p.name] {
		res = router.DenyNavigation
	}
	p.f.held = append(p.f.held, func() { done(res, nil) })
}

func (p *slowPage) LoadingDeferred(_ router.Params, _, _ *router.RouteNode, done func(error)) {
	p.f.record(p.name + ".loading")
	err := p.f.failLoading[p.name]
	p.f.held = append(p.f.held, func() { done(err) })
}

// release reports the oldest held hook.
func (f *fixture) release(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, f.held, "no hook is held")
	fn := f.held[0]
	f.held = f.held[1:]
	fn()
}

func (f *fixture) slowComponent(name string) {
	f.container.RegisterElement(&render.CustomElementDefinition{
		Name:     name,
		Template: &render.Definition{Name: name, Template: render.NewFragment(render.NewElement("h1").Append(render.NewText(name)))},
		Create:   func(*render.HydrationContext) any { return &slowPage{name: name, f: f} },
	})
}

// viewports returns a template of one viewport per name.
func viewports(names ...string) (*render.Node, [][]render.Instruction) {
	frag := render.NewFragment()
	var rows [][]render.Instruction
	for _, n := range names {
		frag.Append(render.Target(render.NewElement("viewport")))
		rows = append(rows, []render.Instruction{render.HydrateElementInstruction{
			Res:          "viewport",
			Instructions: []render.Instruction{render.SetPropertyInstruction{To: "name", Value: n}},
		}})
	}
	return frag, rows
}

// component registers a page that renders its name, then a viewport per
// name in vps.
func (f *fixture) component(name string, vps ...string) {
	tpl, rows := viewports(vps...)
	frag := render.NewFragment(render.NewElement("h1").Append(render.NewText(name)), tpl)
	f.container.RegisterElement(&render.CustomElementDefinition{
		Name:     name,
		Template: &render.Definition{Name: name, Template: frag, Instructions: rows},
		Create: func(*render.HydrationContext) any {
			p := &page{name: name, f: f}
			f.pages[name] = append(f.pages[name], p)
			return p
		},
	})
}

func (f *fixture) start(t *testing.T, routes []*router.RouteConfig, vps []string, opts ...func(*router.Options)) {
	t.Helper()
	tpl, rows := viewports(vps...)
	o := router.Options{
		Renderer: f.renderer,
		Root:     &render.CustomElementDefinition{Name: "app", Template: &render.Definition{Name: "app", Template: tpl, Instructions: rows}},
		Routes:   routes,
		History:  f.history,
	}
	for _, fn := range opts {
		fn(&o)
	}
	r, err := router.New(o)
	require.NoError(t, err)
	r.Events().Subscribe(func(ev router.Event) { f.events = append(f.events, ev) })
	f.router = r
	host := render.NewElement("app")
	f.body.Append(host)
	require.NoError(t, r.Start(host))
	f.calls = nil
	f.events = nil
}

func (f *fixture) text() string { return f.body.TextContent() }

func (f *fixture) agent(t *testing.T, name string) *router.ViewportAgent {
	t.Helper()
	for _, a := range f.router.Agents() {
		if a.Viewport.Name == name {
			return a
		}
	}
	t.Fatalf("no viewport %s", name)
	return nil
}

func eventNames(evs []router.Event) []string {
	var out []string
	for _, ev := range evs {
		out = append(out, strings.TrimPrefix(ev.Name(), "au:router:"))
	}
	return out
}

func basicRoutes() []*router.RouteConfig {
	return []*router.RouteConfig{
		{Path: []string{""}, Component: "home", Title: "Home"},
		{Path: []string{"about"}, Component: "about", Title: "About"},
		{Path: []string{"login"}, Component: "login"},
		{Path: []string{"users/:id"}, Component: "user"},
	}
}

func newBasic(t *testing.T, opts ...func(*router.Options)) *fixture {
	f := newFixture()
	for _, c := range []string{"home", "about", "login", "user"} {
		f.component(c)
	}
	f.start(t, basicRoutes(), []string{"default"}, opts...)
	return f
}

func TestStartLoadsEmptyRoute(t *testing.T) {
	f := newBasic(t)
	assert.Equal(t, "home", f.text())
	assert.Equal(t, "/", f.router.URL())
	assert.Equal(t, "Home", f.router.Title())
	a := f.agent(t, "default")
	assert.Equal(t, router.CurrIsActive, a.CurrState())
	assert.Equal(t, router.NextIsEmpty, a.NextState())
	assert.Equal(t, []router.HistoryEntry{{URL: "/", Title: "Home", NavigationID: 1}}, f.history.Entries())
}

func TestLoadReplacesComponent(t *testing.T) {
	f := newBasic(t)
	ok, err := f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "about", f.text())
	assert.Equal(t, "/about", f.router.URL())
	assert.Equal(t, "About", f.router.Title())
	assert.Equal(t, []string{"home.canUnload", "about.canLoad", "home.unloading", "about.loading"}, f.calls)
	assert.Equal(t, []string{"navigation-start", "navigation-end"}, eventNames(f.events))

	a := f.agent(t, "default")
	assert.Equal(t, "currIsActive|nextIsEmpty", a.State())
	require.NotNil(t, a.Component())
	assert.Same(t, f.pages["about"][0], a.Component().ViewModel)
	assert.Equal(t, []string{"/", "/about"}, urls(f.history))
}

func urls(h *router.MemoryHistory) []string {
	var out []string
	for _, e := range h.Entries() {
		out = append(out, e.URL)
	}
	return out
}

func TestCanUnloadRejects(t *testing.T) {
	f := newBasic(t)
	f.denyUnload["home"] = true

	ok, err := f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"home.canUnload"}, f.calls)
	assert.Equal(t, []string{"navigation-start", "navigation-cancel"}, eventNames(f.events))
	assert.Empty(t, f.pages["about"])
	assert.Equal(t, "home", f.text())
	assert.Equal(t, "/", f.router.URL())

	a := f.agent(t, "default")
	assert.Equal(t, router.CurrIsActive, a.CurrState())
	assert.Equal(t, router.NextIsEmpty, a.NextState())
	assert.Same(t, f.pages["home"][0], a.Component().ViewModel)

	// The agent is usable again once the guard lets go.
	f.denyUnload["home"] = false
	ok, err = f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "about", f.text())
}

func TestCanLoadRedirects(t *testing.T) {
	f := newBasic(t)
	f.redirect["about"] = "login"

	ok, err := f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "login", f.text())
	assert.Equal(t, "/login", f.router.URL())
	assert.Equal(t, []string{
		"navigation-start", "navigation-cancel",
		"navigation-start", "navigation-end",
	}, eventNames(f.events))
	assert.Equal(t, f.events[0].NavigationID(), f.events[1].NavigationID())
	assert.Less(t, f.events[1].NavigationID(), f.events[2].NavigationID())
}

func TestRedirectLoopFails(t *testing.T) {
	f := newBasic(t, func(o *router.Options) { o.MaxRedirects = 3 })
	f.redirect["about"] = "login"
	f.redirect["login"] = "about"

	ok, err := f.router.Load("about", router.NavigationOptions{})
	assert.False(t, ok)
	require.ErrorIs(t, err, router.ErrRedirectLoop)
	assert.Equal(t, "home", f.text())
}

func TestRouteParams(t *testing.T) {
	f := newBasic(t)
	ok, err := f.router.Load("users/42", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.pages["user"], 1)
	assert.Equal(t, router.Params{"id": "42"}, f.pages["user"][0].params)
	assert.Equal(t, "/users/42", f.router.URL())

	ok, err = f.router.Load("users(id=7)", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.pages["user"], 2, "different params replace the component")
	assert.Equal(t, router.Params{"id": "7"}, f.pages["user"][1].params)
}

func TestUnknownRouteFails(t *testing.T) {
	f := newBasic(t)
	ok, err := f.router.Load("nope", router.NavigationOptions{})
	assert.False(t, ok)
	var nerr *router.NavigationError
	require.ErrorAs(t, err, &nerr)
	assert.ErrorIs(t, err, router.ErrUnknownRoute)
	assert.Equal(t, "nope", nerr.Instructions)
	assert.Equal(t, []string{"navigation-start", "navigation-error"}, eventNames(f.events))

	assert.Equal(t, "home", f.text())
	assert.Equal(t, "/", f.router.URL())
	a := f.agent(t, "default")
	assert.Equal(t, "currIsActive|nextIsEmpty", a.State())
}

func TestSameURLIsIgnored(t *testing.T) {
	f := newBasic(t)
	ok, err := f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	f.calls, f.events = nil, nil

	ok, err = f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.calls)
	assert.Empty(t, f.events)
	assert.Len(t, f.pages["about"], 1)
}

func TestSameURLReload(t *testing.T) {
	f := newBasic(t, func(o *router.Options) { o.SameURLStrategy = router.SameURLReload })
	_, err := f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	f.calls = nil

	ok, err := f.router.Load("about", router.NavigationOptions{TransitionPlan: router.PlanInvokeLifecycles})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"about.canUnload", "about.canLoad", "about.unloading", "about.loading"}, f.calls)
	assert.Len(t, f.pages["about"], 1, "invoke-lifecycles keeps the instance")
}

func TestHistoryStrategies(t *testing.T) {
	f := newBasic(t)
	_, err := f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	_, err = f.router.Load("login", router.NavigationOptions{HistoryStrategy: router.HistoryReplace})
	require.NoError(t, err)
	_, err = f.router.Load("users/1", router.NavigationOptions{HistoryStrategy: router.HistoryNone})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/login"}, urls(f.history))

	ok, err := f.router.Back()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "home", f.text())
	assert.Equal(t, router.HistoryEntry{URL: "/", Title: "Home", NavigationID: f.events[len(f.events)-1].NavigationID()}, f.history.Current())

	ok, err = f.router.Back()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFragmentHashURLs(t *testing.T) {
	f := newFixture()
	f.history = router.NewMemoryHistory("#/about")
	for _, c := range []string{"home", "about", "login", "user"} {
		f.component(c)
	}
	f.start(t, basicRoutes(), []string{"default"}, func(o *router.Options) { o.UseURLFragmentHash = true })
	assert.Equal(t, "about", f.text())
	assert.Equal(t, "#/about", f.router.URL())
	assert.Equal(t, []string{"#/about"}, urls(f.history))
}

func nestedRoutes() []*router.RouteConfig {
	return []*router.RouteConfig{
		{Path: []string{"p"}, Component: "parent", Children: []*router.RouteConfig{
			{Path: []string{"c"}, Component: "child"},
			{Path: []string{"d"}, Component: "other"},
		}},
		{Path: []string{"x"}, Component: "home"},
	}
}

func newNested(t *testing.T) *fixture {
	f := newFixture()
	f.component("parent", "default")
	f.component("child")
	f.component("other")
	f.component("home")
	f.start(t, nestedRoutes(), []string{"default"})
	return f
}

func TestNestedRoutes(t *testing.T) {
	f := newNested(t)
	assert.Equal(t, "", f.text())

	ok, err := f.router.Load("p/c", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "parentchild", f.text())
	assert.Equal(t, "/p/c", f.router.URL())

	root := f.router.RouteTree().Root
	require.Len(t, root.Children, 1)
	p := root.Children[0]
	assert.Equal(t, "parent", p.Component)
	require.Len(t, p.Children, 1)
	assert.Equal(t, "child", p.Children[0].Component)
	assert.Equal(t, "currIsActive|nextIsEmpty", p.Children[0].Context().Agent().State())
}

func TestNestedRoutesKeepParent(t *testing.T) {
	f := newNested(t)
	_, err := f.router.Load("p/c", router.NavigationOptions{})
	require.NoError(t, err)
	f.calls = nil

	ok, err := f.router.Load("p/d", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "parentother", f.text())
	assert.Equal(t, "/p/d", f.router.URL())
	assert.Len(t, f.pages["parent"], 1, "the parent is kept")
	assert.Same(t, f.pages["parent"][0], f.agent(t, "default").Component().ViewModel)
	assert.Equal(t, []string{"child.canUnload", "other.canLoad", "child.unloading", "other.loading"}, f.calls)

	ok, err = f.router.Load("x", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "home", f.text())
	assert.Equal(t, []string{"other.canUnload", "parent.canUnload", "home.canLoad"}, f.calls[4:7])
}

func TestChildViewportRejectsUnloadOfParent(t *testing.T) {
	f := newNested(t)
	_, err := f.router.Load("p/c", router.NavigationOptions{})
	require.NoError(t, err)
	f.denyUnload["child"] = true
	f.calls = nil

	ok, err := f.router.Load("x", router.NavigationOptions{})
	require.NoError(t, err)
	assert.False(t, ok)
	// the parent is not asked once the child refused
	assert.Equal(t, []string{"child.canUnload"}, f.calls)
	assert.Equal(t, "parentchild", f.text())
	assert.Equal(t, "/p/c", f.router.URL())
	assert.Equal(t, "currIsActive|nextIsEmpty", f.agent(t, "default").State())
}

func TestSiblingViewports(t *testing.T) {
	f := newFixture()
	for _, c := range []string{"home", "about"} {
		f.component(c)
	}
	routes := []*router.RouteConfig{
		{Path: []string{"", "home"}, Component: "home"},
		{Path: []string{"about"}, Component: "about"},
	}
	f.start(t, routes, []string{"left", "right"})
	require.Len(t, f.pages["home"], 2, "both viewports load the empty route")

	ok, err := f.router.Load("about@right+home@left", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/about@right+home@left", f.router.URL())
	assert.Equal(t, "about", f.agent(t, "right").Node().Component)
	assert.Equal(t, "home", f.agent(t, "left").Node().Component)
	// Left comes first in the document.
	assert.Equal(t, "homeabout", f.text())
	assert.Len(t, f.pages["home"], 2, "the same route in the same viewport is kept")
	assert.Len(t, f.pages["about"], 1)
}

func TestLoadBeforeStart(t *testing.T) {
	f := newFixture()
	r, err := router.New(router.Options{Renderer: f.renderer, Root: &render.CustomElementDefinition{Name: "app"}})
	require.NoError(t, err)
	_, err = r.Load("a", router.NavigationOptions{})
	assert.ErrorIs(t, err, router.ErrNotStarted)

	_, err = router.New(router.Options{Renderer: f.renderer})
	assert.Error(t, err)
}

func TestStopDeactivatesComponents(t *testing.T) {
	f := newBasic(t)
	require.NoError(t, f.router.Stop())
	assert.Equal(t, "", f.text())
	assert.Empty(t, f.router.Agents())
}

func TestLoadingErrorFailsNavigation(t *testing.T) {
	f := newBasic(t)
	boom := errors.New("boom")
	f.failLoading["about"] = boom

	ok, err := f.router.Load("about", router.NavigationOptions{})
	assert.False(t, ok)
	var nerr *router.NavigationError
	require.ErrorAs(t, err, &nerr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "about", nerr.Instructions)
	assert.Equal(t, []string{"home.canUnload", "about.canLoad", "home.unloading", "about.loading"}, f.calls)
	assert.Equal(t, []string{"navigation-start", "navigation-error"}, eventNames(f.events))
	assert.Equal(t, "/", f.router.URL())
	assert.Equal(t, []string{"/"}, urls(f.history))
}

func TestPanickingGuardFailsNavigation(t *testing.T) {
	f := newBasic(t)
	f.panicLoad["about"] = true

	ok, err := f.router.Load("about", router.NavigationOptions{})
	assert.False(t, ok)
	var nerr *router.NavigationError
	require.ErrorAs(t, err, &nerr)
	assert.ErrorContains(t, err, "about exploded")
	assert.Equal(t, []string{"home.canUnload", "about.canLoad"}, f.calls)
	assert.Equal(t, []string{"navigation-start", "navigation-error"}, eventNames(f.events))

	// the current component survives a failure before unloading
	assert.Equal(t, "home", f.text())
	assert.Equal(t, "currIsActive|nextIsEmpty", f.agent(t, "default").State())
}

func TestCanLoadDenies(t *testing.T) {
	f := newBasic(t)
	f.denyLoad["about"] = true

	ok, err := f.router.Load("about", router.NavigationOptions{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"home.canUnload", "about.canLoad"}, f.calls)
	assert.Equal(t, []string{"navigation-start", "navigation-cancel"}, eventNames(f.events))
	assert.Equal(t, "home", f.text())
	assert.Equal(t, "/", f.router.URL())
	assert.Equal(t, "currIsActive|nextIsEmpty", f.agent(t, "default").State())
}

func TestPlanNoneSkipsHooks(t *testing.T) {
	f := newFixture()
	f.component("user")
	f.start(t, []*router.RouteConfig{
		{Path: []string{"users/:id"}, Component: "user", TransitionPlan: router.PlanNone},
	}, []string{"default"})

	ok, err := f.router.Load("users/1", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	f.calls = nil

	ok, err = f.router.Load("users/2", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, f.calls)
	assert.Len(t, f.pages["user"], 1, "the component is kept")
	assert.Equal(t, "/users/2", f.router.URL())
}

func TestPlanNoneSwapsChildren(t *testing.T) {
	f := newFixture()
	f.component("parent", "default")
	f.component("child")
	f.component("other")
	f.start(t, []*router.RouteConfig{
		{Path: []string{"p"}, Component: "parent", TransitionPlan: router.PlanNone, Children: []*router.RouteConfig{
			{Path: []string{"c"}, Component: "child"},
			{Path: []string{"d"}, Component: "other"},
		}},
	}, []string{"default"})

	ok, err := f.router.Load("p/c", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	f.calls = nil

	ok, err = f.router.Load("p/d", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"child.canUnload", "other.canLoad", "child.unloading", "other.loading"}, f.calls)
	assert.Equal(t, "parentother", f.text())
	assert.Len(t, f.pages["parent"], 1)
	assert.Len(t, f.pages["other"], 1)
}

func newSlow(t *testing.T) *fixture {
	f := newFixture()
	f.component("home")
	f.component("about")
	f.slowComponent("slow")
	f.start(t, []*router.RouteConfig{
		{Path: []string{""}, Component: "home"},
		{Path: []string{"about"}, Component: "about"},
		{Path: []string{"slow"}, Component: "slow"},
	}, []string{"default"})
	return f
}

func TestDeferredHooksHoldNavigation(t *testing.T) {
	f := newSlow(t)

	ok, err := f.router.Load("slow", router.NavigationOptions{})
	assert.False(t, ok)
	require.ErrorIs(t, err, router.ErrNavigationPending)
	assert.True(t, f.router.IsNavigating())
	assert.Equal(t, []string{"home.canUnload", "slow.canLoad"}, f.calls)

	f.release(t)
	assert.Equal(t, []string{"home.canUnload", "slow.canLoad", "home.unloading", "slow.loading"}, f.calls)
	assert.Equal(t, "home", f.text())
	assert.True(t, f.router.IsNavigating())

	f.release(t)
	assert.False(t, f.router.IsNavigating())
	assert.Equal(t, "slow", f.text())
	assert.Equal(t, "/slow", f.router.URL())
	assert.Equal(t, []string{"navigation-start", "navigation-end"}, eventNames(f.events))
}

func TestDeferredGuardDenies(t *testing.T) {
	f := newSlow(t)
	f.denyLoad["slow"] = true

	_, err := f.router.Load("slow", router.NavigationOptions{})
	require.ErrorIs(t, err, router.ErrNavigationPending)
	f.release(t)

	assert.False(t, f.router.IsNavigating())
	assert.Equal(t, []string{"home.canUnload", "slow.canLoad"}, f.calls)
	assert.Equal(t, []string{"navigation-start", "navigation-cancel"}, eventNames(f.events))
	assert.Equal(t, "home", f.text())
	assert.Equal(t, "currIsActive|nextIsEmpty", f.agent(t, "default").State())
}

func TestDeferredLoadingError(t *testing.T) {
	f := newSlow(t)
	f.failLoading["slow"] = errors.New("boom")

	_, err := f.router.Load("slow", router.NavigationOptions{})
	require.ErrorIs(t, err, router.ErrNavigationPending)
	f.release(t)
	f.release(t)

	assert.False(t, f.router.IsNavigating())
	assert.Equal(t, []string{"navigation-start", "navigation-error"}, eventNames(f.events))
	assert.Equal(t, "/", f.router.URL())
}

func TestDeferredNavigationIsSuperseded(t *testing.T) {
	f := newSlow(t)

	_, err := f.router.Load("slow", router.NavigationOptions{})
	require.ErrorIs(t, err, router.ErrNavigationPending)
	_, err = f.router.Load("about", router.NavigationOptions{})
	require.ErrorIs(t, err, router.ErrNavigationQueued)

	f.release(t)
	assert.False(t, f.router.IsNavigating())
	assert.Empty(t, f.held, "the superseded navigation never loads")
	assert.Equal(t, "about", f.text())
	assert.Equal(t, "/about", f.router.URL())
	assert.Equal(t, []string{"navigation-start", "navigation-cancel", "navigation-start", "navigation-end"}, eventNames(f.events))
}
