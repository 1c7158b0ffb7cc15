package admission

import (
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// Gate is a fixed-window admission gate keyed by source identifier
// (typically the client IP). Each source gets at most max requests per
// window; a fresh window starts when the previous one has fully elapsed.
//
// State is process-local and lost on restart. A burst straddling a window
// boundary can admit up to 2*max requests in close succession; that is
// accepted for abuse deterrence, this is not a fairness mechanism.
type Gate struct {
	mu      sync.Mutex
	windows map[string]*window
	length  time.Duration
	max     int
	now     func() time.Time
}

// NewGate creates a gate admitting max requests per source per length.
func NewGate(length time.Duration, max int) *Gate {
	g := &Gate{
		windows: make(map[string]*window),
		length:  length,
		max:     max,
		now:     time.Now,
	}
	go g.cleanup()
	return g
}

// Allow reports whether a request from sourceID may proceed, counting it
// against the current window when it does. The read-check-increment is one
// critical section so concurrent requests cannot both slip under the limit.
func (g *Gate) Allow(sourceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	w, ok := g.windows[sourceID]
	if !ok || now.Sub(w.start) > g.length {
		g.windows[sourceID] = &window{count: 1, start: now}
		return true
	}
	if w.count < g.max {
		w.count++
		return true
	}
	return false
}

// cleanup drops expired windows every window length so idle sources don't
// accumulate forever.
func (g *Gate) cleanup() {
	for {
		time.Sleep(g.length)
		g.mu.Lock()
		now := g.now()
		for src, w := range g.windows {
			if now.Sub(w.start) > g.length {
				delete(g.windows, src)
			}
		}
		g.mu.Unlock()
	}
}
