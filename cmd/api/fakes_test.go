package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"couponly/internal/domain/banners"
	"couponly/internal/domain/categories"
	"couponly/internal/domain/clicks"
	"couponly/internal/domain/coupons"
	"couponly/internal/domain/settings"
	"couponly/internal/domain/storage"
	"couponly/internal/domain/stores"
	"couponly/internal/params"
	"couponly/internal/ratelimiter"
	"couponly/internal/shortlink"
	"couponly/internal/tracking"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDatabaseDown = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

// Embedding the interface keeps the fakes small; calling an unstubbed
// method panics, which flags unexpected repository use.
type fakeStores struct {
	stores.Repo
	bySlug    map[string]*stores.Store
	byStoreID map[string]*stores.Store
	slugTaken bool
	created   []*stores.Store
	createErr error
	listErr   error
}

func (f *fakeStores) GetBySlug(ctx context.Context, slug string) (*stores.Store, error) {
	if s, ok := f.bySlug[slug]; ok {
		return s, nil
	}
	return nil, stores.ErrNotFound
}

func (f *fakeStores) GetByStoreID(ctx context.Context, storeID string) (*stores.Store, error) {
	if s, ok := f.byStoreID[storeID]; ok {
		return s, nil
	}
	return nil, stores.ErrNotFound
}

func (f *fakeStores) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	return f.slugTaken, nil
}

func (f *fakeStores) Create(ctx context.Context, s *stores.Store) error {
	if f.createErr != nil {
		return f.createErr
	}
	s.ID = int64(len(f.created) + 1)
	f.created = append(f.created, s)
	return nil
}

func (f *fakeStores) List(ctx context.Context, p params.Pagination, filters stores.Filters) ([]stores.Store, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := []stores.Store{}
	for _, s := range f.bySlug {
		out = append(out, *s)
	}
	return out, len(out), nil
}

type fakeCoupons struct {
	coupons.Store
	byID       map[int64]*coupons.Coupon
	listErr    error
	gridErr    error
	updateErr  error
	lastUpdate *coupons.UpdateRequest
}

func (f *fakeCoupons) GetByID(ctx context.Context, id int64) (*coupons.Coupon, error) {
	if c, ok := f.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, coupons.ErrNotFound
}

func (f *fakeCoupons) List(ctx context.Context, p params.Pagination, filters coupons.Filters) ([]coupons.Coupon, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := []coupons.Coupon{}
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeCoupons) Grid(ctx context.Context, grid coupons.Grid) ([]coupons.Coupon, error) {
	if f.gridErr != nil {
		return nil, f.gridErr
	}
	return []coupons.Coupon{}, nil
}

func (f *fakeCoupons) Update(ctx context.Context, id int64, req coupons.UpdateRequest) (*coupons.Coupon, error) {
	f.lastUpdate = &req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	c, ok := f.byID[id]
	if !ok {
		return nil, coupons.ErrNotFound
	}
	if req.LayoutPosition != nil {
		c.LayoutPosition = req.LayoutPosition
	}
	if req.ClearLayoutPosition {
		c.LayoutPosition = nil
	}
	if req.IsPopular != nil {
		c.IsPopular = *req.IsPopular
	}
	return c, nil
}

type fakeClicks struct {
	mu     sync.Mutex
	events []clicks.Event
	err    error
}

func (f *fakeClicks) Insert(ctx context.Context, e *clicks.Event) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeClicks) Summary(ctx context.Context, since time.Time) (clicks.Summary, error) {
	if f.err != nil {
		return clicks.Summary{}, f.err
	}
	s := clicks.EmptySummary(since)
	s.Total = len(f.events)
	return s, nil
}

func (f *fakeClicks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeSettings struct {
	settings.Store
	err error
}

func (f *fakeSettings) Get(ctx context.Context) (settings.Settings, error) {
	return settings.Defaults(), f.err
}

type fakeCategories struct {
	categories.Store
	mu    sync.Mutex
	list  []categories.Category
	loads int
}

func (f *fakeCategories) List(ctx context.Context, onlyActive bool) ([]categories.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.list, nil
}

func (f *fakeCategories) Create(ctx context.Context, req categories.CreateRequest) (*categories.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := categories.Category{ID: int64(len(f.list) + 1), Name: req.Name, Slug: req.Slug, IsActive: req.IsActive}
	f.list = append(f.list, c)
	return &c, nil
}

type fakeBanners struct {
	banners.Store
}

func (f *fakeBanners) ListVisible(ctx context.Context) ([]banners.Banner, error) {
	return []banners.Banner{}, nil
}

type noGeo struct{}

func (noGeo) Locate(ctx context.Context, ip string) tracking.Geo {
	return tracking.UnknownGeo
}

type testDeps struct {
	stores     *fakeStores
	coupons    *fakeCoupons
	clicks     *fakeClicks
	settings   *fakeSettings
	categories *fakeCategories
}

func newTestApplication(t *testing.T) (*application, *testDeps) {
	t.Helper()

	deps := &testDeps{
		stores:     &fakeStores{bySlug: map[string]*stores.Store{}, byStoreID: map[string]*stores.Store{}},
		coupons:    &fakeCoupons{byID: map[int64]*coupons.Coupon{}},
		clicks:     &fakeClicks{},
		settings:   &fakeSettings{},
		categories: &fakeCategories{},
	}
	container := &storage.Container{
		Stores:     deps.stores,
		Coupons:    deps.coupons,
		Clicks:     deps.clicks,
		Settings:   deps.settings,
		Categories: deps.categories,
		Banners:    &fakeBanners{},
	}

	links, err := shortlink.New("test-salt", 0)
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	app := &application{
		config: config{
			env:  "test",
			auth: authConfig{basic: basicConfig{user: "admin", pass: "secret"}},
			rateLimiter: ratelimiter.Config{
				RequestsPerTimeFrame: 100,
				TimeFrame:            time.Minute,
			},
		},
		store:       container,
		logger:      logger,
		rateLimiter: ratelimiter.NewFixedWindowLimiter(100, time.Minute),
		tracker:     tracking.NewTracker(deps.clicks, noGeo{}, logger),
		links:       links,
		caches:      newCatalogCaches(cacheConfig{ttl: time.Minute}, container, nil),
	}
	return app, deps
}
