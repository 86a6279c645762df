package observation_test

import (
	"testing"

	"github.com/delaneyj/viewparty/observation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputedRecollectsDependencies(t *testing.T) {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{})
	l := observation.NewObserverLocator(observation.ObserverLocatorOptions{ChangeSet: cs})
	r := observation.RecordOf("useFirst", true, "first", "a", "second", "b")
	evaluations := 0
	require.NoError(t, r.Define("name", observation.Descriptor{
		Get: func(r *observation.Record, t *observation.Tracker) any {
			evaluations++
			if t.Get(r, "useFirst").(bool) {
				return t.Get(r, "first")
			}
			return t.Get(r, "second")
		},
	}))

	o := l.GetObserver(r, "name")
	_, computed := o.(*observation.ComputedObserver)
	require.True(t, computed)
	rec := &recorder{}
	o.Subscribe(rec)
	assert.Equal(t, "a", o.GetValue())
	assert.Equal(t, 2, o.(*observation.ComputedObserver).Dependencies())

	r.Set("useFirst", false)
	require.NoError(t, cs.Flush())
	require.Len(t, rec.changes, 1)
	assert.Equal(t, "b", rec.changes[0].newValue)

	// first is no longer a dependency
	before := evaluations
	r.Set("first", "z")
	require.NoError(t, cs.Flush())
	assert.Equal(t, before, evaluations)
	assert.Len(t, rec.changes, 1)
}

func TestComputedStaticCollectsOnce(t *testing.T) {
	l := observation.NewObserverLocator(observation.ObserverLocatorOptions{})
	r := observation.RecordOf("a", 1, "b", 2)
	require.NoError(t, r.Define("sum", observation.Descriptor{
		Static: true,
		Get: func(r *observation.Record, t *observation.Tracker) any {
			return t.Get(r, "a").(int) + t.Get(r, "b").(int)
		},
	}))

	o := l.GetObserver(r, "sum")
	rec := &recorder{}
	o.Subscribe(rec)
	r.Set("a", 10)
	require.Len(t, rec.changes, 1)
	assert.Equal(t, 12, rec.changes[0].newValue)
	assert.Equal(t, 2, o.(*observation.ComputedObserver).Dependencies())
}

func TestComputedOverCollection(t *testing.T) {
	l := observation.NewObserverLocator(observation.ObserverLocatorOptions{})
	items := observation.NewArray(1, 2)
	r := observation.RecordOf("items", items)
	require.NoError(t, r.Define("count", observation.Descriptor{
		Get: func(r *observation.Record, t *observation.Tracker) any {
			return t.Len(t.Get(r, "items").(*observation.Array))
		},
	}))

	o := l.GetObserver(r, "count")
	rec := &recorder{}
	o.Subscribe(rec)
	items.Push(3)
	require.Len(t, rec.changes, 1)
	assert.Equal(t, 3, rec.changes[0].newValue)
}

func TestComputedSetterWrites(t *testing.T) {
	l := observation.NewObserverLocator(observation.ObserverLocatorOptions{})
	r := observation.RecordOf("first", "Ada", "last", "Lovelace")
	require.NoError(t, r.Define("first2", observation.Descriptor{
		Get: func(r *observation.Record, t *observation.Tracker) any {
			return t.Get(r, "first")
		},
		Set: func(r *observation.Record, v any) {
			r.Set("first", v)
		},
	}))

	o := l.GetObserver(r, "first2")
	o.SetValue("Grace", observation.FlagsNone)
	assert.Equal(t, "Grace", r.Get("first"))
	assert.Equal(t, "Grace", r.Get("first2"))
}

func TestRecordDefineNotConfigurable(t *testing.T) {
	r := observation.NewRecord()
	get := func(*observation.Record, *observation.Tracker) any { return 1 }
	require.NoError(t, r.Define("x", observation.Descriptor{Get: get}))
	require.NoError(t, r.Define("x", observation.Descriptor{Get: get, NonConfigurable: true}))
	err := r.Define("x", observation.Descriptor{Get: get})
	assert.ErrorIs(t, err, observation.ErrNotConfigurable)
}
