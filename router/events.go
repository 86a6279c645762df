package router

import (
	"slices"
)

// Event is published by the router on its EventBus during navigations.
type Event interface {
	NavigationID() uint64
	Name() string
}

type NavigationStartEvent struct {
	ID           uint64
	Instructions *ViewportInstructionTree
	Trigger      Trigger
}

type NavigationEndEvent struct {
	ID                uint64
	Instructions      *ViewportInstructionTree
	FinalInstructions *ViewportInstructionTree
}

// NavigationCancelEvent is published when guards reject a navigation or
// a newer one supersedes it.
type NavigationCancelEvent struct {
	ID           uint64
	Instructions *ViewportInstructionTree
	Reason       string
}

type NavigationErrorEvent struct {
	ID           uint64
	Instructions *ViewportInstructionTree
	Err          error
}

func (e NavigationStartEvent) NavigationID() uint64  { return e.ID }
func (e NavigationEndEvent) NavigationID() uint64    { return e.ID }
func (e NavigationCancelEvent) NavigationID() uint64 { return e.ID }
func (e NavigationErrorEvent) NavigationID() uint64  { return e.ID }

func (NavigationStartEvent) Name() string  { return "au:router:navigation-start" }
func (NavigationEndEvent) Name() string    { return "au:router:navigation-end" }
func (NavigationCancelEvent) Name() string { return "au:router:navigation-cancel" }
func (NavigationErrorEvent) Name() string  { return "au:router:navigation-error" }

type subscription struct {
	id uint64
	fn func(Event)
}

// EventBus fans events out to subscribers in subscription order.
type EventBus struct {
	nextID uint64
	subs   []subscription
}

// Subscribe registers fn and returns the func that removes it.
func (b *EventBus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	return func() {
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

// Publish calls every subscriber registered when it was called.
func (b *EventBus) Publish(ev Event) {
	for _, s := range slices.Clone(b.subs) {
		s.fn(ev)
	}
}

// Len returns the number of subscribers.
func (b *EventBus) Len() int { return len(b.subs) }
