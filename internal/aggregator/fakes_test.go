package aggregator

import (
	"context"
	"reflect"
	"sync"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
	"couponly/internal/domain/syncruns"
	"couponly/internal/takeads"
)

type fakeSource struct {
	merchants []takeads.Merchant
	coupons   []takeads.Coupon
	report    takeads.PageReport
	err       error
}

func (f *fakeSource) FetchAllMerchants(ctx context.Context, p takeads.ListParams, maxPages int) ([]takeads.Merchant, takeads.PageReport, error) {
	if f.err != nil {
		return nil, takeads.PageReport{}, f.err
	}
	return f.merchants, f.report, nil
}

func (f *fakeSource) FetchAllCoupons(ctx context.Context, p takeads.ListParams, maxPages int) ([]takeads.Coupon, takeads.PageReport, error) {
	if f.err != nil {
		return nil, takeads.PageReport{}, f.err
	}
	return f.coupons, f.report, nil
}

// memSink mimics the natural-key upsert: a row counts as written only when
// it is new or its content changed.
type memSink struct {
	mu      sync.Mutex
	stores  map[string]stores.Store
	coupons map[string]coupons.Coupon
	writes  int
}

func newMemSink() *memSink {
	return &memSink{stores: map[string]stores.Store{}, coupons: map[string]coupons.Coupon{}}
}

func (m *memSink) MerchantIndex(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for id, s := range m.stores {
		if s.MerchantID != nil {
			out[*s.MerchantID] = id
		}
	}
	return out, nil
}

func (m *memSink) SlugOwners(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for id, s := range m.stores {
		out[s.Slug] = id
	}
	return out, nil
}

func (m *memSink) UpsertStores(ctx context.Context, batch []stores.Store) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	var n int64
	for _, s := range batch {
		if old, ok := m.stores[s.StoreID]; ok && reflect.DeepEqual(old, s) {
			continue
		}
		m.stores[s.StoreID] = s
		n++
	}
	return n, nil
}

func (m *memSink) UpsertCoupons(ctx context.Context, batch []coupons.Coupon) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	var n int64
	for _, c := range batch {
		if old, ok := m.coupons[c.CouponID]; ok && reflect.DeepEqual(old, c) {
			continue
		}
		m.coupons[c.CouponID] = c
		n++
	}
	return n, nil
}

// ImportStores and ImportCoupons record what the importer hands over; the
// curated-column merge itself lives in SQL.
func (m *memSink) ImportStores(ctx context.Context, batch []stores.Store) (int64, error) {
	return m.UpsertStores(ctx, batch)
}

func (m *memSink) ImportCoupons(ctx context.Context, batch []coupons.Coupon) (int64, error) {
	return m.UpsertCoupons(ctx, batch)
}

type memRuns struct {
	runs []syncruns.Run
}

func (m *memRuns) Record(ctx context.Context, run *syncruns.Run) error {
	m.runs = append(m.runs, *run)
	return nil
}
