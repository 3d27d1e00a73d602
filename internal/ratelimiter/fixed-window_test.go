package ratelimiter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestFixedWindowLimitsPerKey(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewFixedWindowLimiterWithClock(2, time.Minute, clock.Now)

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)

	clock.Advance(20 * time.Second)
	ok, retry := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retry)

	ok, _ = rl.Allow("b")
	assert.True(t, ok, "keys are independent")
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewFixedWindowLimiterWithClock(1, time.Minute, clock.Now)

	ok, _ := rl.Allow("ip")
	assert.True(t, ok)
	ok, _ = rl.Allow("ip")
	assert.False(t, ok)

	clock.Advance(time.Minute)
	ok, _ = rl.Allow("ip")
	assert.True(t, ok)
}

func TestFixedWindowSweepsExpiredKeys(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewFixedWindowLimiterWithClock(5, time.Minute, clock.Now)

	for _, k := range []string{"a", "b", "c"} {
		rl.Allow(k)
	}
	assert.Len(t, rl.clients, 3)

	clock.Advance(2 * time.Minute)
	rl.Allow("d")
	assert.Len(t, rl.clients, 1)
}

func TestFixedWindowConcurrent(t *testing.T) {
	rl := NewFixedWindowLimiter(50, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := rl.Allow("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}
