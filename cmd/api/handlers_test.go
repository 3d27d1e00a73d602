package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"couponly/internal/domain/categories"
	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, app *application, method, target, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if admin {
		req.SetBasicAuth("admin", "secret")
	}
	rr := httptest.NewRecorder()
	app.mount().ServeHTTP(rr, req)
	return rr
}

func TestPublicListsFailSoft(t *testing.T) {
	tests := []struct {
		name   string
		target string
		key    string
		fail   func(d *testDeps)
	}{
		{"coupons", "/v1/coupons", "coupons", func(d *testDeps) { d.coupons.listErr = errDatabaseDown }},
		{"popular grid", "/v1/coupons/popular", "coupons", func(d *testDeps) { d.coupons.gridErr = errDatabaseDown }},
		{"latest grid", "/v1/coupons/latest", "coupons", func(d *testDeps) { d.coupons.gridErr = errDatabaseDown }},
		{"stores", "/v1/stores", "stores", func(d *testDeps) { d.stores.listErr = errDatabaseDown }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApplication(t)
			tt.fail(deps)

			rr := serve(t, app, http.MethodGet, tt.target, "", false)
			require.Equal(t, http.StatusOK, rr.Code)

			var body struct {
				Data map[string]json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.JSONEq(t, `[]`, string(body.Data[tt.key]))
		})
	}
}

func TestSettingsServeDefaultsOnError(t *testing.T) {
	app, deps := newTestApplication(t)
	deps.settings.err = errDatabaseDown

	rr := serve(t, app, http.MethodGet, "/v1/settings", "", false)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data struct {
			SiteName string `json:"siteName"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Couponly", body.Data.SiteName)
}

func TestPublicStoreBySlug(t *testing.T) {
	app, deps := newTestApplication(t)
	deps.stores.bySlug["acme"] = &stores.Store{ID: 1, StoreID: "m-1", Name: "Acme", Slug: "acme", IsActive: true}
	deps.stores.bySlug["hidden"] = &stores.Store{ID: 2, StoreID: "m-2", Name: "Hidden", Slug: "hidden"}

	tests := []struct {
		slug string
		want int
	}{
		{"acme", http.StatusOK},
		{"hidden", http.StatusNotFound},
		{"missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			rr := serve(t, app, http.MethodGet, "/v1/stores/"+tt.slug, "", false)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestCreateStore(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		slugTaken bool
		want      int
		wantSlug  string
	}{
		{"slug from name", `{"name":"Acme Shop","websiteUrl":"acme.example"}`, false, http.StatusCreated, "acme-shop"},
		{"explicit slug", `{"name":"Acme Shop","slug":"acme"}`, false, http.StatusCreated, "acme"},
		{"slug taken", `{"name":"Acme Shop"}`, true, http.StatusConflict, ""},
		{"missing name", `{"slug":"acme"}`, false, http.StatusBadRequest, ""},
		{"bad slug", `{"name":"Acme","slug":"Acme Shop"}`, false, http.StatusBadRequest, ""},
		{"unknown field", `{"name":"Acme","color":"red"}`, false, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApplication(t)
			deps.stores.slugTaken = tt.slugTaken

			rr := serve(t, app, http.MethodPost, "/v1/admin/stores", tt.body, true)
			require.Equal(t, tt.want, rr.Code, rr.Body.String())

			if tt.want != http.StatusCreated {
				assert.Empty(t, deps.stores.created)
				return
			}
			require.Len(t, deps.stores.created, 1)
			created := deps.stores.created[0]
			assert.Equal(t, tt.wantSlug, created.Slug)
			assert.NotEmpty(t, created.StoreID)
			assert.True(t, created.IsActive)
			assert.Equal(t, stores.SourceManual, created.Source)
		})
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	app, _ := newTestApplication(t)
	rr := serve(t, app, http.MethodPost, "/v1/admin/stores", `{"name":"Acme"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSetCouponSlot(t *testing.T) {
	two := 2
	tests := []struct {
		name  string
		body  string
		want  int
		check func(t *testing.T, req *coupons.UpdateRequest)
	}{
		{
			name: "place in popular grid",
			body: `{"grid":"popular","position":2}`,
			want: http.StatusOK,
			check: func(t *testing.T, req *coupons.UpdateRequest) {
				require.NotNil(t, req.LayoutPosition)
				assert.Equal(t, two, *req.LayoutPosition)
				assert.False(t, req.ClearLayoutPosition)
				require.NotNil(t, req.IsPopular)
				assert.True(t, *req.IsPopular)
				assert.Nil(t, req.LatestLayoutPosition)
			},
		},
		{
			name: "clear latest slot",
			body: `{"grid":"latest"}`,
			want: http.StatusOK,
			check: func(t *testing.T, req *coupons.UpdateRequest) {
				assert.Nil(t, req.LatestLayoutPosition)
				assert.True(t, req.ClearLatestLayoutPosition)
				require.NotNil(t, req.IsLatest)
				assert.False(t, *req.IsLatest)
			},
		},
		{name: "position out of range", body: `{"grid":"popular","position":9}`, want: http.StatusBadRequest},
		{name: "unknown grid", body: `{"grid":"featured","position":1}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApplication(t)
			deps.coupons.byID[7] = &coupons.Coupon{ID: 7, CouponID: "c-7", StoreIDs: []string{"m-1"}, Title: "10% off"}

			rr := serve(t, app, http.MethodPut, "/v1/admin/coupons/7/slot", tt.body, true)
			require.Equal(t, tt.want, rr.Code, rr.Body.String())
			if tt.check != nil {
				require.NotNil(t, deps.coupons.lastUpdate)
				tt.check(t, deps.coupons.lastUpdate)
			} else {
				assert.Nil(t, deps.coupons.lastUpdate)
			}
		})
	}
}

func TestSetCouponSlotNotFound(t *testing.T) {
	app, _ := newTestApplication(t)
	rr := serve(t, app, http.MethodPut, "/v1/admin/coupons/99/slot", `{"grid":"popular","position":1}`, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCategoriesAreCachedUntilWrite(t *testing.T) {
	app, deps := newTestApplication(t)
	deps.categories.list = []categories.Category{{ID: 1, Name: "Fashion", Slug: "fashion", IsActive: true}}

	for i := 0; i < 3; i++ {
		rr := serve(t, app, http.MethodGet, "/v1/categories", "", false)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, 1, deps.categories.loads)

	rr := serve(t, app, http.MethodPost, "/v1/admin/categories", `{"name":"Home & Garden"}`, true)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = serve(t, app, http.MethodGet, "/v1/categories", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, deps.categories.loads)

	var body struct {
		Data struct {
			Categories []categories.Category `json:"categories"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data.Categories, 2)
	assert.Equal(t, "home-garden", body.Data.Categories[1].Slug)
}

func TestAdminFailuresKeepRawMessage(t *testing.T) {
	tooLong := errors.New(`ERROR: value too long for type character varying(255) (SQLSTATE 22001)`)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		fail   func(d *testDeps)
	}{
		{"create store", http.MethodPost, "/v1/admin/stores", `{"name":"Acme"}`, func(d *testDeps) { d.stores.createErr = tooLong }},
		{"list stores", http.MethodGet, "/v1/admin/stores", "", func(d *testDeps) { d.stores.listErr = tooLong }},
		{"list coupons", http.MethodGet, "/v1/admin/coupons", "", func(d *testDeps) { d.coupons.listErr = tooLong }},
		{"set slot", http.MethodPut, "/v1/admin/coupons/7/slot", `{"grid":"popular","position":1}`, func(d *testDeps) { d.coupons.updateErr = tooLong }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApplication(t)
			tt.fail(deps)

			rr := serve(t, app, tt.method, tt.target, tt.body, true)
			require.Equal(t, http.StatusInternalServerError, rr.Code)

			var body struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tooLong.Error(), body.Message)
		})
	}
}

func TestUpdateCouponSlotSetsGridFlag(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantPopular *bool
		wantLatest  *bool
	}{
		{"popular slot", `{"layoutPosition":3}`, boolPtr(true), nil},
		{"popular slot wins over flag", `{"layoutPosition":3,"isPopular":false}`, boolPtr(true), nil},
		{"latest slot", `{"latestLayoutPosition":1}`, nil, boolPtr(true)},
		{"flag only", `{"isPopular":false}`, boolPtr(false), nil},
		{"title only", `{"title":"15% off"}`, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApplication(t)
			deps.coupons.byID[7] = &coupons.Coupon{ID: 7, CouponID: "c-7", Title: "10% off"}

			rr := serve(t, app, http.MethodPatch, "/v1/admin/coupons/7", tt.body, true)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			req := deps.coupons.lastUpdate
			require.NotNil(t, req)
			assert.Equal(t, tt.wantPopular, req.IsPopular)
			assert.Equal(t, tt.wantLatest, req.IsLatest)
		})
	}
}

func boolPtr(b bool) *bool { return &b }
