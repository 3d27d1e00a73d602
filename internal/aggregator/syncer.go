// Package aggregator pulls merchants and coupons from Takeads and imported
// files into the catalog, upserting by natural key.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
	"couponly/internal/domain/syncruns"
	"couponly/internal/metrics"
	"couponly/internal/takeads"

	"go.uber.org/zap"
)

const (
	ResourceMerchants = "merchants"
	ResourceCoupons   = "coupons"
	ResourceStores    = "stores"
)

var ErrSyncInProgress = errors.New("a sync is already running")

type Source interface {
	FetchAllMerchants(ctx context.Context, p takeads.ListParams, maxPages int) ([]takeads.Merchant, takeads.PageReport, error)
	FetchAllCoupons(ctx context.Context, p takeads.ListParams, maxPages int) ([]takeads.Coupon, takeads.PageReport, error)
}

// Sink is where synced and imported rows land.
type Sink interface {
	MerchantIndex(ctx context.Context) (map[string]string, error)
	SlugOwners(ctx context.Context) (map[string]string, error)
	UpsertStores(ctx context.Context, batch []stores.Store) (int64, error)
	UpsertCoupons(ctx context.Context, batch []coupons.Coupon) (int64, error)
}

// ImportSink is a Sink that also writes the admin-curated columns
// (featured stores, popular/latest flags and layout slots) imports carry.
type ImportSink interface {
	Sink
	ImportStores(ctx context.Context, batch []stores.Store) (int64, error)
	ImportCoupons(ctx context.Context, batch []coupons.Coupon) (int64, error)
}

type RunLog interface {
	Record(ctx context.Context, run *syncruns.Run) error
}

type Limits struct {
	MerchantPages int
	CouponPages   int
	PageSize      int
}

func DefaultLimits() Limits {
	return Limits{
		MerchantPages: takeads.MaxMerchantPages,
		CouponPages:   takeads.MaxCouponPages,
		PageSize:      takeads.DefaultLimit,
	}
}

type Result struct {
	Resource   string    `json:"resource"`
	Pages      int       `json:"pages"`
	Truncated  bool      `json:"truncated"`
	Next       *string   `json:"next"`
	Fetched    int       `json:"fetched"`
	Upserted   int64     `json:"upserted"`
	Unmatched  int       `json:"unmatched"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
}

type Syncer struct {
	source Source
	sink   Sink
	runs   RunLog
	logger *zap.SugaredLogger
	limits Limits
	now    func() time.Time
	mu     sync.Mutex
}

// NewSyncer wires a syncer. runs may be nil when no run log is kept.
func NewSyncer(source Source, sink Sink, runs RunLog, logger *zap.SugaredLogger, limits Limits) *Syncer {
	if limits.MerchantPages <= 0 {
		limits.MerchantPages = takeads.MaxMerchantPages
	}
	if limits.CouponPages <= 0 {
		limits.CouponPages = takeads.MaxCouponPages
	}
	return &Syncer{
		source: source,
		sink:   sink,
		runs:   runs,
		logger: logger,
		limits: limits,
		now:    time.Now,
	}
}

// SyncMerchants fetches every merchant page and upserts them as stores.
// Nothing is written when any page fails.
func (s *Syncer) SyncMerchants(ctx context.Context) (Result, error) {
	if !s.mu.TryLock() {
		return Result{Resource: ResourceMerchants}, ErrSyncInProgress
	}
	defer s.mu.Unlock()
	return s.syncMerchants(ctx)
}

// SyncCoupons fetches every coupon page, links coupons to stores through
// the merchant index and upserts them.
func (s *Syncer) SyncCoupons(ctx context.Context) (Result, error) {
	if !s.mu.TryLock() {
		return Result{Resource: ResourceCoupons}, ErrSyncInProgress
	}
	defer s.mu.Unlock()
	return s.syncCoupons(ctx)
}

// SyncAll runs merchants then coupons so new merchants resolve in the same
// run. A merchant failure skips the coupon sync.
func (s *Syncer) SyncAll(ctx context.Context) ([]Result, error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	merchants, err := s.syncMerchants(ctx)
	if err != nil {
		return []Result{merchants}, err
	}
	cpns, err := s.syncCoupons(ctx)
	return []Result{merchants, cpns}, err
}

func (s *Syncer) params() takeads.ListParams {
	return takeads.ListParams{Limit: s.limits.PageSize}
}

func (s *Syncer) syncMerchants(ctx context.Context) (res Result, err error) {
	res = Result{Resource: ResourceMerchants, StartedAt: s.now()}
	defer func() { s.finish(ctx, &res, err) }()

	merchants, report, err := s.source.FetchAllMerchants(ctx, s.params(), s.limits.MerchantPages)
	if err != nil {
		return res, fmt.Errorf("fetch merchants: %w", err)
	}
	res.applyReport(report)
	res.Fetched = len(merchants)

	index, err := s.sink.MerchantIndex(ctx)
	if err != nil {
		return res, err
	}
	owners, err := s.sink.SlugOwners(ctx)
	if err != nil {
		return res, err
	}

	batch := storesFromMerchants(merchants, index)
	assignSlugs(batch, owners)

	res.Upserted, err = s.sink.UpsertStores(ctx, batch)
	if err != nil {
		return res, fmt.Errorf("upsert stores: %w", err)
	}
	return res, nil
}

func (s *Syncer) syncCoupons(ctx context.Context) (res Result, err error) {
	res = Result{Resource: ResourceCoupons, StartedAt: s.now()}
	defer func() { s.finish(ctx, &res, err) }()

	upstream, report, err := s.source.FetchAllCoupons(ctx, s.params(), s.limits.CouponPages)
	if err != nil {
		return res, fmt.Errorf("fetch coupons: %w", err)
	}
	res.applyReport(report)
	res.Fetched = len(upstream)

	index, err := s.sink.MerchantIndex(ctx)
	if err != nil {
		return res, err
	}

	batch, unmatched, invalid := couponsFromUpstream(upstream, index)
	res.Unmatched = unmatched
	res.Skipped = invalid

	res.Upserted, err = s.sink.UpsertCoupons(ctx, batch)
	if err != nil {
		return res, fmt.Errorf("upsert coupons: %w", err)
	}
	return res, nil
}

func (r *Result) applyReport(report takeads.PageReport) {
	r.Pages = report.Pages
	r.Truncated = report.Truncated
	r.Next = report.Next
}

func (s *Syncer) finish(ctx context.Context, res *Result, err error) {
	res.DurationMS = s.now().Sub(res.StartedAt).Milliseconds()

	run := &syncruns.Run{
		Resource:  res.Resource,
		Status:    syncruns.StatusSuccess,
		Pages:     res.Pages,
		Truncated: res.Truncated,
		Fetched:   res.Fetched,
		Upserted:  int(res.Upserted),
		Unmatched: res.Unmatched,
		StartedAt: res.StartedAt,
	}

	metrics.SyncPages.WithLabelValues(res.Resource).Add(float64(res.Pages))
	if err != nil {
		msg := err.Error()
		run.Status = syncruns.StatusFailed
		run.Error = &msg
		metrics.SyncRuns.WithLabelValues(res.Resource, syncruns.StatusFailed).Inc()
		s.logger.Errorw("sync failed", "resource", res.Resource, "pages", res.Pages, "error", err)
	} else {
		metrics.SyncRuns.WithLabelValues(res.Resource, syncruns.StatusSuccess).Inc()
		metrics.SyncUpserted.WithLabelValues(res.Resource).Add(float64(res.Upserted))
		s.logger.Infow("sync finished",
			"resource", res.Resource,
			"pages", res.Pages,
			"truncated", res.Truncated,
			"fetched", res.Fetched,
			"upserted", res.Upserted,
			"unmatched", res.Unmatched,
			"skipped", res.Skipped,
			"duration_ms", res.DurationMS,
		)
	}

	if s.runs == nil {
		return
	}
	// The run log must survive a cancelled sync context.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if rerr := s.runs.Record(logCtx, run); rerr != nil {
		s.logger.Warnw("record sync run", "resource", res.Resource, "error", rerr)
	}
}
