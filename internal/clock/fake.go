package clock

import "time"

// FakeClock is a manually advanced Clock for tests.
type FakeClock struct {
	now time.Time
}

// NewFakeClock builds a FakeClock pinned to t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the fake clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
