// Package tracking records coupon clicks with device, browser, OS and
// geo classification. Tracking is best effort and never fails the caller.
package tracking

import (
	"context"
	"time"

	"couponly/internal/domain/clicks"
	"couponly/internal/metrics"

	"go.uber.org/zap"
)

// Click is the raw input of one tracked click.
type Click struct {
	CouponID   string `json:"couponId"`
	CouponCode string `json:"couponCode"`
	CouponType string `json:"couponType"`
	StoreID    string `json:"storeId"`
	StoreName  string `json:"storeName"`
	PageURL    string `json:"pageUrl"`
	Referrer   string `json:"referrer"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

type Tracker struct {
	events clicks.Store
	geo    GeoLocator
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewTracker(events clicks.Store, geo GeoLocator, logger *zap.SugaredLogger) *Tracker {
	return &Tracker{events: events, geo: geo, logger: logger, now: time.Now}
}

// Track classifies and stores one click. Failures are logged and dropped.
func (t *Tracker) Track(ctx context.Context, c Click) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ClickEvents.WithLabelValues("dropped").Inc()
			t.logger.Errorw("click tracking panic", "panic", r, "couponId", c.CouponID)
		}
	}()

	agent := ClassifyUserAgent(c.UserAgent)
	geo := t.geo.Locate(ctx, c.IP)

	e := &clicks.Event{
		CouponID:    clip(c.CouponID, 255),
		CouponCode:  clip(c.CouponCode, 255),
		CouponType:  clip(c.CouponType, 32),
		StoreID:     clip(c.StoreID, 255),
		StoreName:   clip(c.StoreName, 255),
		PageURL:     clip(c.PageURL, 2048),
		Referrer:    clip(c.Referrer, 2048),
		IPAddress:   clip(c.IP, 64),
		UserAgent:   clip(c.UserAgent, 1024),
		DeviceType:  agent.Device,
		Browser:     agent.Browser,
		OS:          agent.OS,
		Country:     geo.Country,
		CountryCode: geo.CountryCode,
		Region:      geo.Region,
		City:        geo.City,
		Timezone:    geo.Timezone,
		ClickedAt:   t.now().UTC(),
	}

	if err := t.events.Insert(ctx, e); err != nil {
		metrics.ClickEvents.WithLabelValues("dropped").Inc()
		t.logger.Warnw("click event not stored", "couponId", c.CouponID, "error", err)
		return
	}
	metrics.ClickEvents.WithLabelValues("stored").Inc()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back off to a rune boundary
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
