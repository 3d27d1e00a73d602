package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
	"couponly/internal/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestTrackClickAlwaysSucceeds(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		insertErr error
		stored    int
	}{
		{"stored", `{"couponId":"C-1","storeName":"Acme","pageUrl":"https://couponly.example/acme"}`, nil, 1},
		{"insert fails", `{"couponId":"C-1"}`, errDatabaseDown, 0},
		{"malformed body", `{"couponId":`, nil, 0},
		{"empty body", ``, nil, 0},
		{"unknown fields tolerated", `{"couponId":"C-2","sessionId":"abc"}`, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApplication(t)
			deps.clicks.err = tt.insertErr
			mux := app.mount()

			req := httptest.NewRequest(http.MethodPost, "/v1/track/click", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/124.0 Safari/537.36")
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			var got map[string]bool
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, map[string]bool{"success": true}, got)

			app.background.Wait()
			assert.Equal(t, tt.stored, deps.clicks.count())
		})
	}
}

func TestTrackClickClassifiesRequest(t *testing.T) {
	app, deps := newTestApplication(t)
	mux := app.mount()

	req := httptest.NewRequest(http.MethodPost, "/v1/track/click", strings.NewReader(`{"couponId":"C-9"}`))
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/124.0 Safari/537.36")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("Referer", "https://search.example/")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	app.background.Wait()
	require.Len(t, deps.clicks.events, 1)
	e := deps.clicks.events[0]
	assert.Equal(t, "C-9", e.CouponID)
	assert.Equal(t, "203.0.113.7", e.IPAddress)
	assert.Equal(t, "desktop", e.DeviceType)
	assert.Equal(t, "Chrome", e.Browser)
	assert.Equal(t, "Windows", e.OS)
	assert.Equal(t, "https://search.example/", e.Referrer)
}

// heldGeo blocks every lookup until release is closed.
type heldGeo struct {
	release chan struct{}
}

func (g heldGeo) Locate(ctx context.Context, ip string) tracking.Geo {
	select {
	case <-g.release:
	case <-ctx.Done():
	}
	return tracking.UnknownGeo
}

func TestTrackClickAnswersBeforeRecording(t *testing.T) {
	app, deps := newTestApplication(t)
	geo := heldGeo{release: make(chan struct{})}
	app.tracker = tracking.NewTracker(deps.clicks, geo, zap.NewNop().Sugar())
	mux := app.mount()

	req := httptest.NewRequest(http.MethodPost, "/v1/track/click", strings.NewReader(`{"couponId":"C-5"}`))
	req.RemoteAddr = "203.0.113.20:4000"
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
	assert.Zero(t, deps.clicks.count(), "click recorded before the response")

	close(geo.release)
	app.background.Wait()
	assert.Equal(t, 1, deps.clicks.count())
}

func TestOutLinkRedirectsAndTracks(t *testing.T) {
	app, deps := newTestApplication(t)
	deps.coupons.byID[7] = &coupons.Coupon{
		ID: 7, CouponID: "C-7", StoreIDs: []string{"S-1"}, CouponType: coupons.TypeCode,
		Code: strPtr("SAVE10"), DeepLink: strPtr("https://shop.example/deal"), IsActive: true,
	}
	deps.stores.byStoreID["S-1"] = &stores.Store{StoreID: "S-1", Name: "Shop"}
	mux := app.mount()

	code, err := app.links.Encode(7)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/out/"+code, nil))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://shop.example/deal", rr.Header().Get("Location"))

	app.background.Wait()
	require.Len(t, deps.clicks.events, 1)
	assert.Equal(t, "C-7", deps.clicks.events[0].CouponID)
	assert.Equal(t, "SAVE10", deps.clicks.events[0].CouponCode)
	assert.Equal(t, "Shop", deps.clicks.events[0].StoreName)
}

func TestOutLinkFallsBackToStoreTrackingURL(t *testing.T) {
	app, deps := newTestApplication(t)
	deps.coupons.byID[3] = &coupons.Coupon{ID: 3, CouponID: "C-3", StoreIDs: []string{"S-2"}, IsActive: true}
	deps.stores.byStoreID["S-2"] = &stores.Store{
		StoreID: "S-2", TrackingURL: strPtr("https://aff.example/t/2"), WebsiteURL: strPtr("https://store.example"),
	}
	mux := app.mount()

	code, err := app.links.Encode(3)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/out/"+code, nil))
	app.background.Wait()

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://aff.example/t/2", rr.Header().Get("Location"))
}

func TestOutLinkNotFound(t *testing.T) {
	app, deps := newTestApplication(t)
	deps.coupons.byID[4] = &coupons.Coupon{ID: 4, CouponID: "C-4", DeepLink: strPtr("https://x.example"), IsActive: false}
	mux := app.mount()

	inactive, err := app.links.Encode(4)
	require.NoError(t, err)
	missing, err := app.links.Encode(99)
	require.NoError(t, err)

	for _, code := range []string{"not-a-code", inactive, missing} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/out/"+code, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, code)
	}
	assert.Zero(t, deps.clicks.count())
}

func TestClickSummaryFailsSoft(t *testing.T) {
	app, deps := newTestApplication(t)
	deps.clicks.err = errDatabaseDown
	mux := app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/clicks/summary?days=7", nil)
	req.SetBasicAuth("admin", "secret")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Zero(t, body.Data.Total)
}
