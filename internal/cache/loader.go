package cache

import (
	"context"
	"time"

	"couponly/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load, which no longer follows any one
// caller's context.
const loadTimeout = 10 * time.Second

type LoadFunc[T any] func(ctx context.Context) (T, error)

// Loader is a read-through cache for one value. Concurrent misses share a
// single load. A failing cache backend degrades to a direct load.
type Loader[T any] struct {
	name  string
	key   string
	cache Cache[T]
	load  LoadFunc[T]
	group singleflight.Group
}

func NewLoader[T any](name string, c Cache[T], load LoadFunc[T]) *Loader[T] {
	return &Loader[T]{name: name, key: name, cache: c, load: load}
}

func (l *Loader[T]) Get(ctx context.Context) (T, error) {
	if v, ok, err := l.cache.Get(ctx, l.key); err == nil && ok {
		metrics.CacheLookups.WithLabelValues(l.name, "hit").Inc()
		return v, nil
	}
	metrics.CacheLookups.WithLabelValues(l.name, "miss").Inc()

	// A caller that gives up leaves the load running for the others.
	ch := l.group.DoChan(l.key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		v, err := l.load(loadCtx)
		if err != nil {
			return v, err
		}
		_ = l.cache.Set(loadCtx, l.key, v)
		return v, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (l *Loader[T]) Invalidate(ctx context.Context) error {
	return l.cache.Invalidate(ctx, l.key)
}
