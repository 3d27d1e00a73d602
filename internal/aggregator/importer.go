package aggregator

import (
	"context"
	"fmt"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
	"couponly/internal/normalize"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type ImportResult struct {
	Resource string `json:"resource"`
	Rows     int    `json:"rows"`
	Upserted int64  `json:"upserted"`
	Skipped  int    `json:"skipped"`
}

// Importer loads rows from spreadsheets and legacy databases through the
// same normalization and upsert path as the Takeads sync.
type Importer struct {
	sink   ImportSink
	logger *zap.SugaredLogger
}

func NewImporter(sink ImportSink, logger *zap.SugaredLogger) *Importer {
	return &Importer{sink: sink, logger: logger}
}

// ImportStores upserts rows keyed by store id. Rows without one are
// skipped. source tags rows that carry no source column of their own.
func (im *Importer) ImportStores(ctx context.Context, rows []normalize.Row, source string) (ImportResult, error) {
	res := ImportResult{Resource: ResourceStores, Rows: len(rows)}

	batch := make([]stores.Store, 0, len(rows))
	for i, row := range rows {
		s := normalize.Store(row)
		if s.StoreID == "" {
			res.Skipped++
			im.logger.Warnw("import: store row without id", "row", i+1)
			continue
		}
		if s.Source == "" {
			s.Source = source
		}
		batch = append(batch, s)
	}
	batch = lo.UniqBy(batch, func(s stores.Store) string { return s.StoreID })

	owners, err := im.sink.SlugOwners(ctx)
	if err != nil {
		return res, err
	}
	assignSlugs(batch, owners)

	res.Upserted, err = im.sink.ImportStores(ctx, batch)
	if err != nil {
		return res, fmt.Errorf("import stores: %w", err)
	}
	return res, nil
}

// ImportCoupons upserts rows keyed by coupon id, including their
// popular/latest flags and layout slots. Rows that fail validation are
// skipped and counted.
func (im *Importer) ImportCoupons(ctx context.Context, rows []normalize.Row, source string) (ImportResult, error) {
	res := ImportResult{Resource: ResourceCoupons, Rows: len(rows)}

	batch := make([]coupons.Coupon, 0, len(rows))
	for i, row := range rows {
		c := normalize.Coupon(row)
		if c.Source == "" {
			c.Source = source
		}
		if err := coupons.Validate(c); err != nil {
			res.Skipped++
			im.logger.Warnw("import: invalid coupon row", "row", i+1, "couponId", c.CouponID, "error", err)
			continue
		}
		batch = append(batch, c)
	}
	batch = lo.UniqBy(batch, func(c coupons.Coupon) string { return c.CouponID })
	im.claimSlots(batch)

	var err error
	res.Upserted, err = im.sink.ImportCoupons(ctx, batch)
	if err != nil {
		return res, fmt.Errorf("import coupons: %w", err)
	}
	return res, nil
}

// claimSlots gives each layout slot to the last row in the batch that asks
// for it and clears it on the earlier ones. A row holding a slot is flagged
// for that grid, as admin create does.
func (im *Importer) claimSlots(batch []coupons.Coupon) {
	popular := map[int]int{}
	latest := map[int]int{}
	for i := range batch {
		c := &batch[i]
		if c.LayoutPosition != nil {
			if prev, ok := popular[*c.LayoutPosition]; ok {
				im.logger.Warnw("import: layout slot claimed twice", "slot", *c.LayoutPosition, "dropped", batch[prev].CouponID, "kept", c.CouponID)
				batch[prev].LayoutPosition = nil
			}
			popular[*c.LayoutPosition] = i
			c.IsPopular = true
		}
		if c.LatestLayoutPosition != nil {
			if prev, ok := latest[*c.LatestLayoutPosition]; ok {
				im.logger.Warnw("import: latest slot claimed twice", "slot", *c.LatestLayoutPosition, "dropped", batch[prev].CouponID, "kept", c.CouponID)
				batch[prev].LatestLayoutPosition = nil
			}
			latest[*c.LatestLayoutPosition] = i
			c.IsLatest = true
		}
	}
}
