package storage

import (
	"context"
	"fmt"

	"couponly/internal/domain/banners"
	"couponly/internal/domain/categories"
	"couponly/internal/domain/clicks"
	"couponly/internal/domain/coupons"
	"couponly/internal/domain/faqs"
	"couponly/internal/domain/news"
	"couponly/internal/domain/pages"
	"couponly/internal/domain/settings"
	"couponly/internal/domain/stores"
	"couponly/internal/domain/syncruns"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool       *pgxpool.Pool // required by WithCatalogTx
	Stores     stores.Repo
	Coupons    coupons.Store
	Categories categories.Store
	Banners    banners.Store
	News       news.Store
	FAQs       faqs.Store
	Pages      pages.Store
	Settings   settings.Store
	Clicks     clicks.Store
	SyncRuns   syncruns.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:       db,
		Stores:     stores.NewRepository(db),
		Coupons:    coupons.NewRepository(db),
		Categories: categories.NewRepository(db),
		Banners:    banners.NewRepository(db),
		News:       news.NewRepository(db),
		FAQs:       faqs.NewRepository(db),
		Pages:      pages.NewRepository(db),
		Settings:   settings.NewRepository(db),
		Clicks:     clicks.NewRepository(db),
		SyncRuns:   syncruns.NewRepository(db),
	}
}

// CatalogTx is a tx-scoped set of the repositories the aggregator writes to.
type CatalogTx struct {
	Stores  stores.Repo
	Coupons coupons.Store
}

// WithCatalogTx runs a catalog unit of work atomically.
func (c *Container) WithCatalogTx(ctx context.Context, fn func(tx *CatalogTx) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if err := fn(&CatalogTx{
		Stores:  stores.NewRepository(tx),
		Coupons: coupons.NewRepository(tx),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
