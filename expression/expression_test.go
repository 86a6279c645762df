package expression_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/delaneyj/viewparty/expression"
	"github.com/delaneyj/viewparty/observation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	props []string
	colls int
}

func (o *observed) ObserveProperty(obj any, key string) {
	o.props = append(o.props, fmt.Sprintf("%T.%s", obj, key))
}

func (o *observed) ObserveCollection(observation.Collection) {
	o.colls++
}

func eval(t *testing.T, src string, scope *observation.Scope, r expression.ResourceLocator) any {
	t.Helper()
	e, err := expression.Parse(src, expression.IsProperty)
	require.NoError(t, err)
	v, err := e.Evaluate(observation.FlagsNone, scope, r)
	require.NoError(t, err)
	return v
}

func TestEvaluateOperators(t *testing.T) {
	scope := observation.CreateScope(observation.RecordOf("a", 2, "b", 3, "s", "x", "items", observation.NewArray(1, 2, 3)))
	cases := map[string]any{
		"a + b":                    5.0,
		"a * b - 1":                5.0,
		"(a + b) * 2":              10.0,
		"b % a":                    1.0,
		"s + a":                    "x2",
		"a < b && s":               "x",
		"a > b || 'no'":            "no",
		"a === 2":                  true,
		"a == '2'":                 true,
		"a !== 2":                  false,
		"!a":                       false,
		"-a":                       -2.0,
		"typeof s":                 "string",
		"typeof missing":           "undefined",
		"a > 1 ? 'y' : 'n'":        "y",
		"items.length":             3,
		"items[1]":                 2,
		"'length' in items":        true,
		"`a=${a}, b=${b}`":         "a=2, b=3",
		"[a, b].length":            2,
		"{k: a}.k":                 2,
		"items.includes(items[1])": true,
		"void a":                   nil,
	}
	for src, want := range cases {
		assert.Equal(t, want, eval(t, src, scope, nil), src)
	}
}

func TestParentAccess(t *testing.T) {
	root := observation.RecordOf("name", "root", "greet", expression.Func(func(args ...any) (any, error) {
		return "hi " + expression.ToString(args[0]), nil
	}))
	child := observation.FromParent(observation.CreateScope(root), observation.RecordOf("name", "child"))

	assert.Equal(t, "child", eval(t, "name", child, nil))
	assert.Equal(t, "root", eval(t, "$parent.name", child, nil))
	assert.Equal(t, "hi child", eval(t, "$parent.greet(name)", child, nil))
	assert.Equal(t, "hi child", eval(t, "greet(name)", child, nil))
	assert.Same(t, root, eval(t, "$parent", child, nil))
}

func TestAssign(t *testing.T) {
	rec := observation.RecordOf("x", 1)
	scope := observation.CreateScope(rec)

	e, err := expression.Parse("user.name", expression.IsProperty)
	require.NoError(t, err)
	require.NoError(t, e.Assign(observation.FlagsNone, scope, nil, "ada"))
	user, ok := rec.Get("user").(*observation.Record)
	require.True(t, ok, "missing objects are created on assign")
	assert.Equal(t, "ada", user.Get("name"))

	assert.Equal(t, 5.0, eval(t, "x = 2 + 3", scope, nil))
	assert.Equal(t, 5.0, rec.Get("x"))

	lit, err := expression.Parse("x + 1", expression.IsProperty)
	require.NoError(t, err)
	assert.ErrorIs(t, lit.Assign(observation.FlagsNone, scope, nil, 1), expression.ErrNotAssignable)

	_, err = expression.Parse("x + 1 = 2", expression.IsProperty)
	var pe *expression.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestValueConverterBothDirections(t *testing.T) {
	r := expression.NewResources(nil)
	r.RegisterValueConverter("upper", expression.ConverterFuncs{
		To:   func(v any, _ ...any) (any, error) { return strings.ToUpper(expression.ToString(v)), nil },
		From: func(v any, _ ...any) (any, error) { return strings.ToLower(expression.ToString(v)), nil },
	})
	r.RegisterValueConverter("join", expression.ConverterFuncs{
		To: func(v any, args ...any) (any, error) {
			parts := []string{}
			for _, x := range v.(*observation.Array).Values() {
				parts = append(parts, expression.ToString(x))
			}
			return strings.Join(parts, expression.ToString(args[0])), nil
		},
	})
	rec := observation.RecordOf("name", "ada", "items", observation.NewArray("a", "b"))
	scope := observation.CreateScope(rec)

	assert.Equal(t, "ADA", eval(t, "name | upper", scope, r))
	assert.Equal(t, "a-b", eval(t, "items | join:'-'", scope, r))

	e, err := expression.Parse("name | upper", expression.IsProperty)
	require.NoError(t, err)
	require.NoError(t, e.Assign(observation.FlagsNone, scope, r, "GRACE"))
	assert.Equal(t, "grace", rec.Get("name"))

	missing, err := expression.Parse("name | nope", expression.IsProperty)
	require.NoError(t, err)
	_, err = missing.Evaluate(observation.FlagsNone, scope, r)
	assert.ErrorIs(t, err, expression.ErrUnknownConverter)
}

type countingBehavior struct {
	bound, unbound int
	args           []any
}

func (b *countingBehavior) Bind(_ observation.Flags, _ *observation.Scope, _ expression.Binding, args ...any) error {
	b.bound++
	b.args = args
	return nil
}

func (b *countingBehavior) Unbind(observation.Flags, *observation.Scope, expression.Binding) error {
	b.unbound++
	return nil
}

func TestBindingBehaviorBindUnbind(t *testing.T) {
	r := expression.NewResources(nil)
	outer, inner := &countingBehavior{}, &countingBehavior{}
	r.RegisterBindingBehavior("outer", outer)
	r.RegisterBindingBehavior("inner", inner)
	scope := observation.CreateScope(observation.RecordOf("x", 1))

	e, err := expression.Parse("x & inner:'a' & outer", expression.IsProperty)
	require.NoError(t, err)
	bb, ok := e.(expression.Behaviorful)
	require.True(t, ok)
	require.NoError(t, bb.Bind(observation.FlagsNone, scope, r, &observed{}))
	assert.Equal(t, 1, inner.bound)
	assert.Equal(t, []any{"a"}, inner.args)
	assert.Equal(t, 1, outer.bound)
	require.NoError(t, bb.Unbind(observation.FlagsNone, scope, r, &observed{}))
	assert.Equal(t, 1, inner.unbound)

	unknown, err := expression.Parse("x & nope", expression.IsProperty)
	require.NoError(t, err)
	err = unknown.(expression.Behaviorful).Bind(observation.FlagsNone, scope, r, &observed{})
	assert.ErrorIs(t, err, expression.ErrUnknownBehavior)
}

func TestConnectConditionalBranch(t *testing.T) {
	rec := observation.RecordOf("flag", true, "a", 1, "b", 2)
	scope := observation.CreateScope(rec)
	e, err := expression.Parse("flag ? a : b", expression.IsProperty)
	require.NoError(t, err)

	o := &observed{}
	require.NoError(t, e.Connect(observation.FlagsNone, scope, nil, o))
	assert.Equal(t, []string{"*observation.Record.flag", "*observation.Record.a"}, o.props)

	rec.Set("flag", false)
	o = &observed{}
	require.NoError(t, e.Connect(observation.FlagsNone, scope, nil, o))
	assert.Equal(t, []string{"*observation.Record.flag", "*observation.Record.b"}, o.props)
}

func TestConnectCollectionCalls(t *testing.T) {
	scope := observation.CreateScope(observation.RecordOf("items", observation.NewArray(1)))
	e, err := expression.Parse("items.includes(1)", expression.IsProperty)
	require.NoError(t, err)
	o := &observed{}
	require.NoError(t, e.Connect(observation.FlagsNone, scope, nil, o))
	assert.Equal(t, 1, o.colls)
}

func TestParseIterator(t *testing.T) {
	e, err := expression.Parse("item of items | take:2", expression.IsIterator)
	require.NoError(t, err)
	forOf, ok := e.(*expression.ForOf)
	require.True(t, ok)
	assert.Equal(t, "item", forOf.Declaration.Name)
	assert.Equal(t, "item of items | take:2", e.String())
}

func TestParseInterpolation(t *testing.T) {
	e, err := expression.Parse("Hello ${first} ${last}!", expression.IsInterpolation)
	require.NoError(t, err)
	in, ok := e.(*expression.Interpolation)
	require.True(t, ok)
	assert.Equal(t, []string{"Hello ", " ", "!"}, in.Parts)
	scope := observation.CreateScope(observation.RecordOf("first", "Ada", "last", "Lovelace"))
	v, err := e.Evaluate(observation.FlagsNone, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada Lovelace!", v)

	none, err := expression.Parse("plain text", expression.IsInterpolation)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = expression.Parse("broken ${a +}", expression.IsInterpolation)
	var pe *expression.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "broken ${a +}", pe.Input)
}

func TestCacheSharesTrees(t *testing.T) {
	c := expression.NewCache()
	a, err := c.Parse("x.y", expression.IsProperty)
	require.NoError(t, err)
	b, err := c.Parse("x.y", expression.IsProperty)
	require.NoError(t, err)
	assert.Same(t, a, b)

	custom, err := c.Parse("x.y", expression.IsCustom)
	require.NoError(t, err)
	assert.IsType(t, &expression.Custom{}, custom)
	assert.Equal(t, 2, c.Len())

	_, err = c.Parse("x.", expression.IsProperty)
	assert.Error(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "a +", "(a", "a b", "'open", "{1 2}", "a | ", "`${a`"} {
		_, err := expression.ParseExpression(src, expression.IsProperty)
		var pe *expression.ParseError
		assert.True(t, errors.As(err, &pe), "%q should fail with a ParseError, got %v", src, err)
	}
}

type greeter struct {
	Name string
}

func (g *greeter) Greet(prefix string) string {
	return prefix + " " + g.Name
}

func TestCallGoMethods(t *testing.T) {
	scope := observation.CreateScope(observation.RecordOf("g", &greeter{Name: "ada"}))
	assert.Equal(t, "hi ada", eval(t, "g.greet('hi')", scope, nil))
	assert.Equal(t, "ada", eval(t, "g.name", scope, nil))
}
