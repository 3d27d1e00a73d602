// Package cache provides the TTL caches in front of the public banner and
// category lists.
package cache

import (
	"context"
	"sync"
	"time"
)

type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T) error
	Invalidate(ctx context.Context, keys ...string) error
}

type entry[T any] struct {
	value   T
	expires time.Time
}

// Memory is an in-process TTL cache safe for concurrent use.
type Memory[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[T]
}

type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

func NewMemory[T any](ttl time.Duration, opts ...MemoryOption) *Memory[T] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory[T]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]entry[T]),
	}
}

func (m *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expires) {
		var zero T
		return zero, false, nil
	}
	return e.value, true, nil
}

func (m *Memory[T]) Set(_ context.Context, key string, value T) error {
	m.mu.Lock()
	m.entries[key] = entry[T]{value: value, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// Invalidate drops the given keys, or everything when none are given.
func (m *Memory[T]) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(keys) == 0 {
		m.entries = make(map[string]entry[T])
		return nil
	}
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}
