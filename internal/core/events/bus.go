// Package events provides a small synchronous publish/subscribe bus used to
// decouple cross-cutting signals (loading state, notifications, navigation)
// from their consumers.
package events

import "sync"

// Well-known event names.
const (
	Loading      = "loading"
	Notification = "notification"
	Navigate     = "navigate"
)

// Listener receives the arguments passed to Emit.
type Listener func(args ...any)

// ID identifies a registered listener so it can be removed with Off.
type ID uint64

type subscription struct {
	id ID
	fn Listener
}

// Bus delivers events synchronously, in registration order.
type Bus struct {
	mu        sync.RWMutex
	nextID    ID
	listeners map[string][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[string][]subscription),
	}
}

// On registers fn for event and returns its subscription ID.
func (b *Bus) On(event string, fn Listener) ID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[event] = append(b.listeners[event], subscription{id: b.nextID, fn: fn})
	return b.nextID
}

// Off removes the listener registered under id. Unknown IDs are ignored.
func (b *Bus) Off(event string, id ID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.listeners[event]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		kept := make([]subscription, 0, len(subs)-1)
		kept = append(kept, subs[:i]...)
		kept = append(kept, subs[i+1:]...)
		if len(kept) == 0 {
			delete(b.listeners, event)
		} else {
			b.listeners[event] = kept
		}
		return
	}
}

// Emit calls every listener of event with args. The delivery set is the
// snapshot taken when Emit starts; listeners added or removed by a handler
// take effect from the next Emit.
func (b *Bus) Emit(event string, args ...any) {
	b.mu.RLock()
	snapshot := make([]subscription, len(b.listeners[event]))
	copy(snapshot, b.listeners[event])
	b.mu.RUnlock()

	for _, s := range snapshot {
		s.fn(args...)
	}
}

// ListenerCount returns the number of listeners registered for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[event])
}
