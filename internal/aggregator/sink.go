package aggregator

import (
	"context"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/storage"
	"couponly/internal/domain/stores"

	"github.com/samber/lo"
)

const upsertBatchSize = 500

// PGSink writes to Postgres. Each upsert call is one transaction, sent in
// pipelined batches of upsertBatchSize statements.
type PGSink struct {
	store *storage.Container
}

func NewPGSink(store *storage.Container) *PGSink {
	return &PGSink{store: store}
}

func (p *PGSink) MerchantIndex(ctx context.Context) (map[string]string, error) {
	return p.store.Stores.MerchantIndex(ctx)
}

func (p *PGSink) SlugOwners(ctx context.Context) (map[string]string, error) {
	return p.store.Stores.SlugOwners(ctx)
}

func (p *PGSink) UpsertStores(ctx context.Context, batch []stores.Store) (int64, error) {
	return writeChunks(ctx, p.store, batch, func(tx *storage.CatalogTx, chunk []stores.Store) (int64, error) {
		return tx.Stores.Upsert(ctx, chunk)
	})
}

func (p *PGSink) UpsertCoupons(ctx context.Context, batch []coupons.Coupon) (int64, error) {
	return writeChunks(ctx, p.store, batch, func(tx *storage.CatalogTx, chunk []coupons.Coupon) (int64, error) {
		return tx.Coupons.Upsert(ctx, chunk)
	})
}

func (p *PGSink) ImportStores(ctx context.Context, batch []stores.Store) (int64, error) {
	return writeChunks(ctx, p.store, batch, func(tx *storage.CatalogTx, chunk []stores.Store) (int64, error) {
		return tx.Stores.Import(ctx, chunk)
	})
}

func (p *PGSink) ImportCoupons(ctx context.Context, batch []coupons.Coupon) (int64, error) {
	return writeChunks(ctx, p.store, batch, func(tx *storage.CatalogTx, chunk []coupons.Coupon) (int64, error) {
		return tx.Coupons.Import(ctx, chunk)
	})
}

// writeChunks runs write over batch in one transaction and sums the rows it
// reports.
func writeChunks[T any](ctx context.Context, store *storage.Container, batch []T, write func(tx *storage.CatalogTx, chunk []T) (int64, error)) (int64, error) {
	var written int64
	err := store.WithCatalogTx(ctx, func(tx *storage.CatalogTx) error {
		for _, chunk := range lo.Chunk(batch, upsertBatchSize) {
			n, err := write(tx, chunk)
			if err != nil {
				return err
			}
			written += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
