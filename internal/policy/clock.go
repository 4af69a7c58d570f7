package policy

import (
	"sync"
	"time"

	"toolrent-backend/internal/utils"
)

// Clock supplies the current instant. Services derive "today" from it.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a settable clock for jobs run against a past date and for tests.
type FixedClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *FixedClock) AddDays(n int) {
	c.mu.Lock()
	c.now = c.now.AddDate(0, 0, n)
	c.mu.Unlock()
}

// Today returns the calendar day of clock's current instant in loc.
func Today(clock Clock, loc *time.Location) time.Time {
	return utils.TruncateToDay(clock.Now(), loc)
}
