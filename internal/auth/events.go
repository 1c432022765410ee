// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "sync"

// EventType identifies an auth state change.
type EventType string

// Auth state change events.
const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is delivered to subscribers on auth state changes.
type Event struct {
	Type   EventType
	UserID string
}

// eventBus multiplexes auth events to registered callbacks. Callbacks
// run synchronously on the goroutine that emitted the event.
type eventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]func(Event))}
}

// subscribe registers fn and returns a function that fully detaches it.
// Unsubscribing twice is harmless.
func (b *eventBus) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *eventBus) emit(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
