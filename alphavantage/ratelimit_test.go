package alphavantage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock drives a RequestWindow without real time. Sleeping advances the
// clock and records the waited duration.
type fakeClock struct {
	at    time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{at: time.Date(2022, time.May, 17, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.at }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.at = c.at.Add(d)
}

func (c *fakeClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestWindow(max int, window time.Duration) (*RequestWindow, *fakeClock) {
	clock := newFakeClock()
	w := NewRequestWindow(max, window)
	w.now = clock.now
	w.sleep = clock.sleep
	return w, clock
}

func TestRequestWindowUnderQuota(t *testing.T) {
	w, clock := newTestWindow(5, time.Minute)

	for i := 0; i < 5; i++ {
		w.Take()
		clock.advance(time.Second)
	}
	assert.Empty(t, clock.slept)
}

func TestRequestWindowBlocksUntilOldestLeaves(t *testing.T) {
	w, clock := newTestWindow(5, time.Minute)

	for i := 0; i < 5; i++ {
		w.Take()
		clock.advance(2 * time.Second)
	}
	// quota exhausted: 10s have passed since the oldest stamp, 50s remain
	w.Take()
	assert.Equal(t, []time.Duration{50 * time.Second}, clock.slept)
}

func TestRequestWindowForgetsExpiredStamps(t *testing.T) {
	w, clock := newTestWindow(2, time.Minute)

	w.Take()
	w.Take()
	clock.advance(61 * time.Second)
	w.Take()
	assert.Empty(t, clock.slept)
}
