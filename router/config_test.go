package router_test

import (
	"strings"
	"testing"

	"github.com/delaneyj/viewparty/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routeFile = `
root: app
routes:
  - path: ""
    component: home
    title: Home
  - path: [about, info]
    component: about
    transitionPlan: invoke-lifecycles
  - id: users
    path: users/:id
    component: user
    data:
      auth: true
  - path: old
    redirectTo: about
  - path: p
    component: parent
    routes:
      - path: c
        component: child
`

func TestLoadRouteConfigs(t *testing.T) {
	f, err := router.LoadRouteConfigs(strings.NewReader(routeFile))
	require.NoError(t, err)
	assert.Equal(t, "app", f.Root)
	require.Len(t, f.Routes, 5)

	assert.Equal(t, []string{""}, f.Routes[0].Path)
	assert.Equal(t, "Home", f.Routes[0].Title)
	assert.Equal(t, []string{"about", "info"}, f.Routes[1].Path)
	assert.Equal(t, router.PlanInvokeLifecycles, f.Routes[1].TransitionPlan)
	assert.Equal(t, "users", f.Routes[2].ID)
	assert.Equal(t, map[string]any{"auth": true}, f.Routes[2].Data)
	assert.Equal(t, "about", f.Routes[3].Redirect)
	require.Len(t, f.Routes[4].Children, 1)
	assert.Equal(t, "child", f.Routes[4].Children[0].Component)
}

func TestLoadRouteConfigsErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		doc      string
		property string
		line     int
	}{
		{
			name:     "unknown property",
			doc:      "routes:\n  - path: a\n    compnent: a\n",
			property: "compnent",
			line:     3,
		},
		{
			name:     "nested unknown property",
			doc:      "routes:\n  - path: a\n    component: a\n    routes:\n      - path: b\n        component: b\n        guard: x\n",
			property: "guard",
			line:     7,
		},
		{
			name:     "bad plan",
			doc:      "routes:\n  - path: a\n    component: a\n    transitionPlan: sometimes\n",
			property: "transitionPlan",
			line:     4,
		},
		{
			name:     "no component",
			doc:      "routes:\n  - path: a\n",
			property: "component",
			line:     2,
		},
		{
			name:     "reserved character",
			doc:      "routes:\n  - path: a+b\n    component: a\n",
			property: "path",
			line:     2,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := router.LoadRouteConfigs(strings.NewReader(tc.doc))
			var rce *router.RouteConfigError
			require.ErrorAs(t, err, &rce)
			assert.Equal(t, tc.property, rce.Property)
			assert.Equal(t, tc.line, rce.Line)
		})
	}
}

func TestLoadRouteConfigsEmpty(t *testing.T) {
	f, err := router.LoadRouteConfigs(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Routes)
}

func TestPlanNames(t *testing.T) {
	for _, p := range []router.Plan{router.PlanDefault, router.PlanReplace, router.PlanInvokeLifecycles, router.PlanNone} {
		got, err := router.ParsePlan(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestConfiguredRoutesNavigate(t *testing.T) {
	rf, err := router.LoadRouteConfigs(strings.NewReader(routeFile))
	require.NoError(t, err)
	f := newFixture()
	for _, c := range []string{"home", "about", "user", "child"} {
		f.component(c)
	}
	f.component("parent", "default")
	f.start(t, rf.Routes, []string{"default"})
	assert.Equal(t, "home", f.text())

	ok, err := f.router.Load("old", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "about", f.text())
	assert.Equal(t, "/about", f.router.URL())

	f.calls = nil
	ok, err = f.router.Load("info", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, f.pages["about"], 1, "invoke-lifecycles keeps the component")
	assert.Equal(t, []string{"about.canUnload", "about.canLoad", "about.unloading", "about.loading"}, f.calls)

	ok, err = f.router.Load("users(9)", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, router.Params{"id": "9"}, f.pages["user"][0].params)
	assert.Equal(t, "/users(9)", f.router.URL())

	ok, err = f.router.Load("p/c", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "parentchild", f.text())
}
