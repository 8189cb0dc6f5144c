package attempt

import (
	"sync"
	"time"
)

// Clock hands out explicit attempt keys. Keys are strictly increasing even when
// the wall clock stalls or steps backwards, so a larger key is always a later submit.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last Key
}

// NewClock returns a Clock reading the given time source; nil means time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next returns a key greater than every key returned before.
func (c *Clock) Next() Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := Key(c.now().UnixMilli())
	if k <= c.last {
		k = c.last + 1
	}
	c.last = k
	return k
}

// Now returns the clock's current wall time.
func (c *Clock) Now() time.Time { return c.now() }
