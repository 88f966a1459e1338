package alphavantage

import (
	"sync"
	"time"
)

// RequestWindow enforces a rolling request quota: at most max requests per
// sliding window. Take blocks the caller until a slot frees instead of
// failing. The clock and the sleep function are injectable for tests.
type RequestWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRequestWindow returns a window allowing max requests per window.
func NewRequestWindow(max int, window time.Duration) *RequestWindow {
	return &RequestWindow{
		max:    max,
		window: window,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Take claims a request slot, blocking until the oldest stamp leaves the
// window when the quota is exhausted.
func (w *RequestWindow) Take() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune()
	if len(w.stamps) >= w.max {
		wait := w.stamps[0].Add(w.window).Sub(w.now())
		if wait > 0 {
			w.sleep(wait)
		}
		w.prune()
	}
	w.stamps = append(w.stamps, w.now())
}

// prune drops stamps that have left the window.
func (w *RequestWindow) prune() {
	cutoff := w.now().Add(-w.window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	w.stamps = w.stamps[i:]
}
