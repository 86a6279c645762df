package main

import (
	"strings"
	"testing"

	"github.com/delaneyj/viewparty/render"
	"github.com/delaneyj/viewparty/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const model = `
user:
  first: ada
  last: lovelace
  langs: [go, zig]
count: 3
`

func TestEvaluate(t *testing.T) {
	m, err := loadModel(strings.NewReader(model))
	require.NoError(t, err)
	for _, tc := range []struct {
		expr string
		want string
	}{
		{expr: "user.first", want: "ada"},
		{expr: "user.last | upper", want: "LOVELACE"},
		{expr: "count + 1", want: "4"},
		{expr: "user.langs", want: "go,zig"},
		{expr: "user.langs[1]", want: "zig"},
		{expr: "missing", want: ""},
	} {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := evaluate(tc.expr, m)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateParseError(t *testing.T) {
	m, err := loadModel(strings.NewReader(""))
	require.NoError(t, err)
	_, err = evaluate("a +", m)
	assert.Error(t, err)
}

func TestPropagation(t *testing.T) {
	p, err := newPropagation(3, 4)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, p.step())
	}
	assert.EqualValues(t, 15, p.leaves.count)
}

func TestHeadlessRouter(t *testing.T) {
	rf, err := router.LoadRouteConfigs(strings.NewReader(`
routes:
  - path: ""
    component: home
  - path: p
    component: parent
    routes:
      - path: c
        component: child
        viewport: side
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"side"}, viewportNames(rf.Routes[1].Children))

	r, err := headlessRouter(rf, nil)
	require.NoError(t, err)
	host := render.NewElement("body")
	require.NoError(t, r.Start(host))
	assert.Equal(t, "apphome", host.TextContent())

	ok, err := r.Load("p/c", router.NavigationOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "appparentchild", host.TextContent())
	assert.Equal(t, "/p/c", r.URL())
	require.NoError(t, r.Stop())
}

func TestFormatParams(t *testing.T) {
	assert.Equal(t, "a=1,b=2", formatParams(router.Params{"b": "2", "a": "1"}))
	assert.Empty(t, formatParams(nil))
}
