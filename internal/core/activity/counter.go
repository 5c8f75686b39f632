// Package activity tracks in-flight requests and publishes a busy signal
// whenever the count moves between zero and non-zero.
package activity

import (
	"sync"

	"github.com/vietddude/paydash/internal/core/events"
)

// Counter is a process-wide in-flight request counter.
type Counter struct {
	mu    sync.Mutex
	count int
	bus   *events.Bus
}

// NewCounter creates a counter that emits events.Loading on bus.
// A nil bus disables emission.
func NewCounter(bus *events.Bus) *Counter {
	return &Counter{bus: bus}
}

// Begin marks the start of a request. The 0→1 transition emits
// ("loading", true).
func (c *Counter) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++
	if c.count == 1 {
		c.emit(true)
	}
}

// End marks the end of a request. The count is floored at zero and the
// 1→0 transition emits ("loading", false).
func (c *Counter) End() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 {
		return
	}
	c.count--
	if c.count == 0 {
		c.emit(false)
	}
}

// Count returns the current number of in-flight requests.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Busy reports whether any request is in flight.
func (c *Counter) Busy() bool {
	return c.Count() > 0
}

// emit runs under c.mu so transitions reach listeners in the order they
// happened. Listeners must not call back into the counter.
func (c *Counter) emit(busy bool) {
	if c.bus == nil {
		return
	}
	c.bus.Emit(events.Loading, busy)
}
