package router_test

import (
	"testing"

	"github.com/delaneyj/viewparty/router"
	"github.com/stretchr/testify/assert"
)

func TestMemoryHistory(t *testing.T) {
	h := router.NewMemoryHistory("")
	assert.Zero(t, h.Current())
	h.Replace(router.HistoryEntry{URL: "/a"})
	h.Push(router.HistoryEntry{URL: "/b"})
	h.Push(router.HistoryEntry{URL: "/c"})
	assert.Equal(t, 3, h.Len())

	e, ok := h.Back()
	assert.True(t, ok)
	assert.Equal(t, "/b", e.URL)

	// Pushing after going back drops the forward entries.
	h.Push(router.HistoryEntry{URL: "/d"})
	assert.Equal(t, []router.HistoryEntry{{URL: "/a"}, {URL: "/b"}, {URL: "/d"}}, h.Entries())

	h.Back()
	h.Back()
	_, ok = h.Back()
	assert.False(t, ok)
	assert.Equal(t, "/a", h.Current().URL)
}

func TestEventBus(t *testing.T) {
	var bus router.EventBus
	var got []uint64
	stop := bus.Subscribe(func(ev router.Event) { got = append(got, ev.NavigationID()) })
	bus.Subscribe(func(ev router.Event) {
		if ev.NavigationID() == 1 {
			stop()
		}
	})
	bus.Publish(router.NavigationStartEvent{ID: 1})
	bus.Publish(router.NavigationEndEvent{ID: 2})
	assert.Equal(t, []uint64{1}, got)
	assert.Equal(t, 1, bus.Len())
}
