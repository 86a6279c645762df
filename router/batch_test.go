package router_test

import (
	"testing"

	"github.com/delaneyj/viewparty/router"
	"github.com/stretchr/testify/assert"
)

func TestBatchRunsContinuationsInOrder(t *testing.T) {
	var calls []string
	var held *router.Batch
	tail := router.StartBatch(func(b *router.Batch) {
		calls = append(calls, "first")
		b.Push()
		held = b
	}).ContinueWith(func(b *router.Batch) {
		calls = append(calls, "second")
	}).ContinueWith(func(b *router.Batch) {
		calls = append(calls, "third")
	})
	tail.Start()

	assert.Equal(t, []string{"first"}, calls)
	assert.False(t, tail.Done())
	assert.Equal(t, 1, tail.Pending())

	held.Pop()
	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.True(t, tail.Done())
	assert.Zero(t, tail.Pending())
}

func TestBatchHeldPushStopsChain(t *testing.T) {
	ran := false
	tail := router.StartBatch(func(b *router.Batch) {
		b.Push()
	}).ContinueWith(func(*router.Batch) {
		ran = true
	})
	tail.Start()
	assert.False(t, ran)
	assert.False(t, tail.Done())
}

func TestBatchCallbackRunsOnce(t *testing.T) {
	n := 0
	b := router.StartBatch(func(*router.Batch) { n++ })
	b.Start()
	b.Push()
	b.Pop()
	assert.Equal(t, 1, n)
	assert.True(t, b.Done())
}
