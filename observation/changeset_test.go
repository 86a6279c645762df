package observation_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/viewparty/observation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFlushable struct {
	flushes int
	onFlush func()
}

func (f *countingFlushable) FlushChanges() {
	f.flushes++
	if f.onFlush != nil {
		f.onFlush()
	}
}

func TestChangeSetCoalescesOneTurn(t *testing.T) {
	s := &manualScheduler{}
	cs := observation.NewChangeSet(s, observation.ChangeSetOptions{})
	f := &countingFlushable{}

	done := cs.Add(f)
	cs.Add(f)
	assert.Equal(t, 1, cs.Size())
	assert.Len(t, s.tasks, 1)

	select {
	case <-done:
		t.Fatal("flushed before the microtask ran")
	default:
	}

	s.run()
	assert.Equal(t, 1, f.flushes)
	_, open := <-done
	assert.False(t, open)
}

func TestChangeSetDrainsInSameFlush(t *testing.T) {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{})
	second := &countingFlushable{}
	first := &countingFlushable{onFlush: func() { cs.Add(second) }}

	cs.Add(first)
	require.NoError(t, cs.Flush())
	assert.Equal(t, 1, first.flushes)
	assert.Equal(t, 1, second.flushes)
	assert.Zero(t, cs.Size())
}

func TestChangeSetIterationLimit(t *testing.T) {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{MaxIterations: 5})
	var f *countingFlushable
	// a handler that re-queues itself forever
	f = &countingFlushable{onFlush: func() { cs.Add(f) }}

	cs.Add(f)
	err := cs.Flush()
	require.Error(t, err)
	assert.True(t, errors.Is(err, observation.ErrFlushLimit))
	assert.Equal(t, 5, f.flushes)
	assert.Zero(t, cs.Size())
}

func TestSetterObserverFlushIdempotent(t *testing.T) {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{})
	l := observation.NewObserverLocator(observation.ObserverLocatorOptions{ChangeSet: cs})
	r := observation.RecordOf("x", 1)
	o := l.GetObserver(r, "x")
	rec := &recorder{}
	o.Subscribe(rec)

	o.SetValue(2, observation.FlagsNone)
	assert.Equal(t, 2, r.Get("x"), "reads see the pending value")
	assert.Len(t, rec.changes, 0)

	f := o.(observation.Flushable)
	f.FlushChanges()
	f.FlushChanges()
	require.Len(t, rec.changes, 1)
	assert.Equal(t, 2, rec.changes[0].newValue)
	assert.Equal(t, 1, rec.changes[0].previousValue)
	assert.True(t, rec.changes[0].flags.Has(observation.FromFlush|observation.UpdateTargetInstance))
}

func TestSetterObserverWriteThroughOnFlush(t *testing.T) {
	cs := observation.NewChangeSet(nil, observation.ChangeSetOptions{})
	l := observation.NewObserverLocator(observation.ObserverLocatorOptions{ChangeSet: cs})
	r := observation.RecordOf("x", 1)
	o := l.GetObserver(r, "x")
	rec := &recorder{}
	o.Subscribe(rec)

	r.Set("x", 5)
	assert.Equal(t, 1, cs.Size())
	require.NoError(t, cs.Flush())
	require.Len(t, rec.changes, 1)
	assert.Equal(t, 5, r.Get("x"))
	assert.Same(t, o, l.GetObserver(r, "x"))
}

func TestChangeHandlerRunsOnFlush(t *testing.T) {
	l := observation.NewObserverLocator(observation.ObserverLocatorOptions{})
	r := observation.RecordOf("name", "a")
	var got []any
	r.OnChange("name", func(n, o any, _ observation.Flags) {
		got = append(got, o, n)
	})

	o := l.GetObserver(r, "name")
	o.SetValue("b", observation.FlagsNone)
	assert.Equal(t, []any{"a", "b"}, got)
}
