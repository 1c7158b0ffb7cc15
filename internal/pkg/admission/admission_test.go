package admission

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestGate builds a gate without the cleanup goroutine so tests control time.
func newTestGate(length time.Duration, max int, now *time.Time) *Gate {
	return &Gate{
		windows: make(map[string]*window),
		length:  length,
		max:     max,
		now:     func() time.Time { return *now },
	}
}

func TestAllow_AtMostMaxPerWindow(t *testing.T) {
	now := time.Now()
	g := newTestGate(10*time.Minute, 5, &now)

	for i := 0; i < 5; i++ {
		assert.True(t, g.Allow("1.2.3.4"), "request %d should be admitted", i+1)
	}
	assert.False(t, g.Allow("1.2.3.4"))
	assert.False(t, g.Allow("1.2.3.4"))
}

func TestAllow_IndependentSources(t *testing.T) {
	now := time.Now()
	g := newTestGate(10*time.Minute, 1, &now)

	assert.True(t, g.Allow("1.1.1.1"))
	assert.False(t, g.Allow("1.1.1.1"))
	assert.True(t, g.Allow("2.2.2.2"))
}

func TestAllow_FreshWindowAfterExpiry(t *testing.T) {
	now := time.Now()
	g := newTestGate(10*time.Minute, 2, &now)

	assert.True(t, g.Allow("1.2.3.4"))
	assert.True(t, g.Allow("1.2.3.4"))
	assert.False(t, g.Allow("1.2.3.4"))

	now = now.Add(11 * time.Minute)
	assert.True(t, g.Allow("1.2.3.4"))
}

func TestAllow_DenialDoesNotConsumeWindow(t *testing.T) {
	now := time.Now()
	g := newTestGate(10*time.Minute, 1, &now)

	assert.True(t, g.Allow("1.2.3.4"))
	// Denied requests must not extend or inflate the window.
	for i := 0; i < 10; i++ {
		assert.False(t, g.Allow("1.2.3.4"))
	}
	now = now.Add(11 * time.Minute)
	assert.True(t, g.Allow("1.2.3.4"))
}

func TestAllow_ConcurrentRequestsNeverExceedMax(t *testing.T) {
	now := time.Now()
	g := newTestGate(10*time.Minute, 5, &now)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Allow("1.2.3.4") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), admitted.Load())
}
