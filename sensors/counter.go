package sensors

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Counter counts pulses from an edge monitor. The reader takes the count and
// resets it in one step so no pulse is lost or counted twice.
type Counter struct {
	lock  sync.Mutex
	count int
	since time.Time
	clock clockwork.Clock
}

func NewCounter(clock clockwork.Clock) *Counter {
	return &Counter{clock: clock, since: clock.Now()}
}

func (c *Counter) Inc() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.count++
}

// Snapshot returns the pulses since the last snapshot and how long that was.
func (c *Counter) Snapshot() (int, time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	now := c.clock.Now()
	count, elapsed := c.count, now.Sub(c.since)
	c.count = 0
	c.since = now
	return count, elapsed
}
