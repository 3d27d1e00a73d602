package main

import (
	"context"
	"errors"

	"couponly/internal/cache"
	"couponly/internal/domain/banners"
	"couponly/internal/domain/categories"
	"couponly/internal/domain/storage"

	"github.com/redis/go-redis/v9"
)

// catalogCaches holds the read-through caches of the public home page lists.
type catalogCaches struct {
	banners    *cache.Loader[[]banners.Banner]
	categories *cache.Loader[[]categories.Category]
}

// newCatalogCaches uses Redis when a client is given, else process memory.
func newCatalogCaches(cfg cacheConfig, store *storage.Container, rdb *redis.Client) *catalogCaches {
	var (
		bannerCache   cache.Cache[[]banners.Banner]
		categoryCache cache.Cache[[]categories.Category]
	)
	if rdb != nil {
		bannerCache = cache.NewRedis[[]banners.Banner](rdb, "couponly:", cfg.ttl)
		categoryCache = cache.NewRedis[[]categories.Category](rdb, "couponly:", cfg.ttl)
	} else {
		bannerCache = cache.NewMemory[[]banners.Banner](cfg.ttl)
		categoryCache = cache.NewMemory[[]categories.Category](cfg.ttl)
	}

	return &catalogCaches{
		banners: cache.NewLoader("banners", bannerCache, func(ctx context.Context) ([]banners.Banner, error) {
			return store.Banners.ListVisible(ctx)
		}),
		categories: cache.NewLoader("categories", categoryCache, func(ctx context.Context) ([]categories.Category, error) {
			return store.Categories.List(ctx, true)
		}),
	}
}

func (c *catalogCaches) clear(ctx context.Context) error {
	return errors.Join(c.banners.Invalidate(ctx), c.categories.Invalidate(ctx))
}
