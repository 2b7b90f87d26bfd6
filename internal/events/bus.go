package events

import (
	"sync"
	"time"
)

// Bus fans trigger events out to subscribed listeners.
//
// Delivery is synchronous and in subscription order: the sync engine is
// single-threaded within one unit of work, so there is no asynchronous
// dispatch layer to reason about.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener for all future events.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Publish delivers the event to every listener. A zero timestamp is filled
// with the current time.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		l.HandleEvent(ev)
	}
}
