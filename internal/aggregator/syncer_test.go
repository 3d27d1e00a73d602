package aggregator

import (
	"context"
	"errors"
	"testing"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
	"couponly/internal/domain/syncruns"
	"couponly/internal/takeads"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleSource() *fakeSource {
	return &fakeSource{
		merchants: []takeads.Merchant{
			{MerchantID: 7, Name: "Acme", ImageURI: "cdn.acme.com/logo.png", DefaultDomain: "acme.com", IsActive: true, CountryCodes: []string{"US"}},
			{MerchantID: 8, Name: "Globex", DefaultDomain: "globex.io", IsActive: true},
			{MerchantID: 7, Name: "Acme duplicate"},
		},
		coupons: []takeads.Coupon{
			{CouponID: "c1", MerchantID: 7, Name: "10% off", Code: "TEN", Discount: "10%", TrackingLink: "go.acme.com/c1", IsActive: true},
			{CouponID: "c2", MerchantID: 8, Name: "Free shipping", IsActive: true},
			{CouponID: "c3", MerchantID: 999, Name: "Orphan", IsActive: true},
		},
		report: takeads.PageReport{Pages: 1},
	}
}

func newTestSyncer(src Source, sink Sink, runs RunLog) *Syncer {
	return NewSyncer(src, sink, runs, zap.NewNop().Sugar(), DefaultLimits())
}

func TestSyncAllMapsAndLinks(t *testing.T) {
	sink := newMemSink()
	runs := &memRuns{}
	s := newTestSyncer(sampleSource(), sink, runs)

	results, err := s.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, ResourceMerchants, results[0].Resource)
	assert.Equal(t, 3, results[0].Fetched)
	assert.Equal(t, int64(2), results[0].Upserted)

	acme := sink.stores["7"]
	assert.Equal(t, "acme", acme.Slug)
	require.NotNil(t, acme.LogoURL)
	assert.Equal(t, "https://cdn.acme.com/logo.png", *acme.LogoURL)
	require.NotNil(t, acme.WebsiteURL)
	assert.Equal(t, "https://acme.com", *acme.WebsiteURL)
	assert.Equal(t, stores.SourceTakeads, acme.Source)

	assert.Equal(t, ResourceCoupons, results[1].Resource)
	assert.Equal(t, 1, results[1].Unmatched)
	assert.Equal(t, int64(3), results[1].Upserted)

	c1 := sink.coupons["c1"]
	assert.Equal(t, []string{"7"}, c1.StoreIDs)
	assert.Equal(t, coupons.TypeCode, c1.CouponType)
	assert.Equal(t, coupons.DiscountPercentage, c1.DiscountType)
	assert.Equal(t, coupons.TypeDeal, sink.coupons["c2"].CouponType)
	assert.Equal(t, []string{}, sink.coupons["c3"].StoreIDs)

	require.Len(t, runs.runs, 2)
	assert.Equal(t, syncruns.StatusSuccess, runs.runs[0].Status)
}

func TestSyncIsIdempotent(t *testing.T) {
	sink := newMemSink()
	s := newTestSyncer(sampleSource(), sink, nil)

	_, err := s.SyncAll(context.Background())
	require.NoError(t, err)
	storesAfterFirst := len(sink.stores)
	couponsAfterFirst := len(sink.coupons)

	results, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), results[0].Upserted)
	assert.Equal(t, int64(0), results[1].Upserted)
	assert.Len(t, sink.stores, storesAfterFirst)
	assert.Len(t, sink.coupons, couponsAfterFirst)
}

func TestSyncUpstreamErrorWritesNothing(t *testing.T) {
	sink := newMemSink()
	runs := &memRuns{}
	src := &fakeSource{err: &takeads.APIError{Status: 401, Body: "invalid api key"}}
	s := newTestSyncer(src, sink, runs)

	results, err := s.SyncAll(context.Background())
	require.Error(t, err)

	var apiErr *takeads.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Len(t, results, 1, "coupons are not attempted after a merchant failure")
	assert.Equal(t, 0, sink.writes)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, syncruns.StatusFailed, runs.runs[0].Status)
	require.NotNil(t, runs.runs[0].Error)
	assert.Contains(t, *runs.runs[0].Error, "invalid api key")
}

func TestSyncMerchantsAvoidsForeignSlugs(t *testing.T) {
	sink := newMemSink()
	sink.stores["ST-1"] = stores.Store{StoreID: "ST-1", Name: "Acme Legacy", Slug: "acme"}

	src := &fakeSource{merchants: []takeads.Merchant{{MerchantID: 7, Name: "Acme"}}}
	s := newTestSyncer(src, sink, nil)

	_, err := s.SyncMerchants(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "acme-7", sink.stores["7"].Slug)
	assert.Equal(t, "acme", sink.stores["ST-1"].Slug)
}

func TestSyncMerchantsUpdatesLinkedStore(t *testing.T) {
	sink := newMemSink()
	merchantID := "7"
	sink.stores["ST-1"] = stores.Store{StoreID: "ST-1", MerchantID: &merchantID, Name: "Old name", Slug: "old-name"}

	src := &fakeSource{merchants: []takeads.Merchant{{MerchantID: 7, Name: "New name"}}}
	s := newTestSyncer(src, sink, nil)

	_, err := s.SyncMerchants(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.stores, 1)
	assert.Equal(t, "New name", sink.stores["ST-1"].Name)
	assert.Equal(t, "old-name", sink.stores["ST-1"].Slug, "existing slugs are stable")
}

func TestSyncRejectsConcurrentRuns(t *testing.T) {
	s := newTestSyncer(sampleSource(), newMemSink(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.SyncCoupons(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestAssignSlugsWithinBatch(t *testing.T) {
	batch := []stores.Store{
		{StoreID: "1", Slug: "shop"},
		{StoreID: "2", Slug: "shop"},
		{StoreID: "3", Slug: ""},
	}
	assignSlugs(batch, map[string]string{})

	assert.Equal(t, "shop", batch[0].Slug)
	assert.Equal(t, "shop-2", batch[1].Slug)
	assert.Equal(t, "store-3", batch[2].Slug)
}
