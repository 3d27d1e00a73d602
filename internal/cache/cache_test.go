package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory[[]string](5*time.Minute, WithClock(clk.Now))

	require.NoError(t, m.Set(ctx, "banners", []string{"a"}))

	clk.Advance(4*time.Minute + 59*time.Second)
	v, ok, err := m.Get(ctx, "banners")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, v)

	clk.Advance(time.Second)
	_, ok, _ = m.Get(ctx, "banners")
	assert.False(t, ok)
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int](time.Hour)
	_ = m.Set(ctx, "a", 1)
	_ = m.Set(ctx, "b", 2)

	require.NoError(t, m.Invalidate(ctx, "a"))
	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "b")
	assert.True(t, ok)

	require.NoError(t, m.Invalidate(ctx))
	_, ok, _ = m.Get(ctx, "b")
	assert.False(t, ok)
}

func TestLoaderCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	var loads int32
	l := NewLoader("categories", NewMemory[int](time.Hour), func(ctx context.Context) (int, error) {
		return int(atomic.AddInt32(&loads, 1)), nil
	})

	v, err := l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, _ = l.Get(ctx)
	assert.Equal(t, 1, v)

	require.NoError(t, l.Invalidate(ctx))
	v, _ = l.Get(ctx)
	assert.Equal(t, 2, v)
}

func TestLoaderCollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	var loads int32
	release := make(chan struct{})
	l := NewLoader("banners", NewMemory[string](time.Hour), func(ctx context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return "fresh", nil
	})

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = l.Get(ctx)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	for _, r := range results {
		assert.Equal(t, "fresh", r)
	}
}

func TestLoaderDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	fail := true
	l := NewLoader("faqs", NewMemory[string](time.Hour), func(ctx context.Context) (string, error) {
		if fail {
			return "", errors.New("db down")
		}
		return "ok", nil
	})

	_, err := l.Get(ctx)
	require.Error(t, err)

	fail = false
	v, err := l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestLoaderSurvivesCallerCancellation(t *testing.T) {
	var loads int32
	started := make(chan struct{})
	release := make(chan struct{})
	l := NewLoader("categories", NewMemory[string](time.Hour), func(ctx context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "fresh", nil
	})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := l.Get(first)
		firstErr <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		v, _ := l.Get(context.Background())
		second <- v
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "fresh", <-second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))

	v, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}
