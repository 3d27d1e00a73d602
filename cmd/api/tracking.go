package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"couponly/internal/domain/clicks"
	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
	"couponly/internal/shortlink"
	"couponly/internal/tracking"

	"github.com/go-chi/chi/v5"
)

const trackTimeout = 5 * time.Second

// trackClickHandler godoc
//
//	@Summary		Track a coupon click
//	@Description	Records device, browser, OS and location of a click. Recorded in the background. Always answers {"success":true}, even for malformed bodies, storage failures or rate-limited clients.
//	@Tags			Tracking
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		tracking.Click	true	"Click"
//	@Success		200		{object}	map[string]bool
//	@Router			/track/click [post]
func (app *application) trackClickHandler(w http.ResponseWriter, r *http.Request) {
	var click tracking.Click

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(&click); err != nil {
		app.logger.Debugw("ignoring malformed click payload", "error", err)
	} else if !overLimit(r) {
		click.IP = tracking.ClientIP(r)
		click.UserAgent = r.UserAgent()
		if click.Referrer == "" {
			click.Referrer = r.Referer()
		}
		app.trackInBackground(click)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// outLinkHandler godoc
//
//	@Summary		Follow a coupon out-link
//	@Description	Resolves a short code to the coupon deep link (or its store's tracking URL), records the click in the background and redirects.
//	@Tags			Tracking
//	@Param			code	path	string	true	"Short link code"
//	@Success		302
//	@Failure		404	{object}	error
//	@Router			/out/{code} [get]
func (app *application) outLinkHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := app.links.Decode(chi.URLParam(r, "code"))
	if err != nil {
		app.notFoundResponse(w, r, shortlink.ErrInvalidCode)
		return
	}

	c, err := app.store.Coupons.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, coupons.ErrNotFound) {
			app.logger.Warnw("out-link coupon lookup failed", "id", id, "error", err)
		}
		app.notFoundResponse(w, r, coupons.ErrNotFound)
		return
	}
	if !c.IsActive {
		app.notFoundResponse(w, r, coupons.ErrNotFound)
		return
	}

	var store *stores.Store
	if len(c.StoreIDs) > 0 {
		store, err = app.store.Stores.GetByStoreID(ctx, c.StoreIDs[0])
		if err != nil && !errors.Is(err, stores.ErrNotFound) {
			app.logger.Warnw("out-link store lookup failed", "storeId", c.StoreIDs[0], "error", err)
		}
	}

	target := outLinkTarget(c, store)
	if target == "" {
		app.notFoundResponse(w, r, errors.New("coupon has no destination link"))
		return
	}

	click := tracking.Click{
		CouponID:   c.CouponID,
		CouponType: c.CouponType,
		PageURL:    r.URL.Query().Get("from"),
		Referrer:   r.Referer(),
		IP:         tracking.ClientIP(r),
		UserAgent:  r.UserAgent(),
	}
	if c.Code != nil {
		click.CouponCode = *c.Code
	}
	if store != nil {
		click.StoreID = store.StoreID
		click.StoreName = store.Name
	} else if len(c.StoreIDs) > 0 {
		click.StoreID = c.StoreIDs[0]
	}

	if !overLimit(r) {
		app.trackInBackground(click)
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// trackInBackground records a click after the response; run waits for it
// on shutdown.
func (app *application) trackInBackground(click tracking.Click) {
	app.background.Add(1)
	go func() {
		defer app.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()
		app.tracker.Track(ctx, click)
	}()
}

// outLinkTarget prefers the coupon deep link, then the store's affiliate
// tracking URL, then the store website.
func outLinkTarget(c *coupons.Coupon, s *stores.Store) string {
	if c.DeepLink != nil && *c.DeepLink != "" {
		return *c.DeepLink
	}
	if s == nil {
		return ""
	}
	if s.TrackingURL != nil && *s.TrackingURL != "" {
		return *s.TrackingURL
	}
	if s.WebsiteURL != nil && *s.WebsiteURL != "" {
		return *s.WebsiteURL
	}
	return ""
}

// clickSummaryHandler godoc
//
//	@Summary		Click analytics (Admin)
//	@Description	Click totals by day, device, browser, OS, country and top coupons. Read errors yield an empty summary.
//	@Tags			Admin
//	@Produce		json
//	@Param			days	query		int	false	"Window in days (default 30, max 365)"
//	@Success		200		{object}	clicks.Summary
//	@Security		BasicAuth
//	@Router			/admin/clicks/summary [get]
func (app *application) clickSummaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			app.badRequestResponse(w, r, errors.New("invalid days parameter"))
			return
		}
		days = min(parsed, 365)
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	summary, err := app.store.Clicks.Summary(ctx, since)
	if err != nil {
		app.logger.Warnw("click summary failed, serving empty summary", "error", err)
		summary = clicks.EmptySummary(since)
	}

	app.jsonResponse(w, http.StatusOK, summary)
}
