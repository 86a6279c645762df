package observation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/delaneyj/viewparty/observation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueueMicrotasksBeforeMacrotasks(t *testing.T) {
	q := observation.NewTaskQueue(observation.TaskQueueOptions{Capacity: 2})
	var order []string
	q.QueueTask(func() {
		order = append(order, "macro1")
		q.QueueMicrotask(func() { order = append(order, "micro-from-macro") })
	}, observation.Macrotask)
	q.QueueTask(func() { order = append(order, "macro2") }, observation.Macrotask)
	for i := 0; i < 3; i++ {
		q.QueueMicrotask(func() { order = append(order, "micro") })
	}

	q.Flush()
	assert.Equal(t, []string{"micro", "micro", "micro", "macro1", "micro-from-macro", "macro2"}, order)
	micro, macro := q.Pending()
	assert.Zero(t, micro)
	assert.Zero(t, macro)
}

func TestTaskQueueRecoversPanics(t *testing.T) {
	var got []error
	q := observation.NewTaskQueue(observation.TaskQueueOptions{
		Debug:   true,
		OnError: func(err error) { got = append(got, err) },
	})
	require.NoError(t, q.EnableLongStacks())
	ran := false
	q.QueueMicrotask(func() { panic("boom") })
	q.QueueMicrotask(func() { ran = true })
	q.FlushMicrotasks()

	assert.True(t, ran)
	require.Len(t, got, 1)
	var te *observation.TaskError
	require.True(t, errors.As(got[0], &te))
	assert.Equal(t, "boom", te.Value)
	assert.NotEmpty(t, te.QueuedAt)
}

func TestTaskQueueLongStacksNeedDebug(t *testing.T) {
	q := observation.NewTaskQueue(observation.TaskQueueOptions{})
	assert.ErrorIs(t, q.EnableLongStacks(), observation.ErrLongStacksNotAvailable)
}

func TestTaskQueueSchedulesChangeSet(t *testing.T) {
	q := observation.NewTaskQueue(observation.TaskQueueOptions{})
	cs := observation.NewChangeSet(q, observation.ChangeSetOptions{})
	l := observation.NewObserverLocator(observation.ObserverLocatorOptions{ChangeSet: cs})
	r := observation.RecordOf("x", 1)
	rec := &recorder{}
	l.GetObserver(r, "x").Subscribe(rec)

	r.Set("x", 2)
	r.Set("x", 3)
	assert.Empty(t, rec.changes)
	q.FlushMicrotasks()
	require.Len(t, rec.changes, 1)
	assert.Equal(t, 3, rec.changes[0].newValue)
}

func TestTaskQueueRun(t *testing.T) {
	q := observation.NewTaskQueue(observation.TaskQueueOptions{TickInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	ran := make(chan struct{})
	q.QueueTask(func() { close(ran) }, observation.Macrotask)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("macrotask never ran")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
