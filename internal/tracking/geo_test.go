package tracking

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"couponly/internal/ratelimiter"

	"github.com/stretchr/testify/assert"
)

func geoServer(t *testing.T, body string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, geoFields, r.URL.Query().Get("fields"))
		fmt.Fprint(w, body)
	}))
}

func TestIPAPILocate(t *testing.T) {
	var calls int32
	srv := geoServer(t, `{"status":"success","country":"Germany","countryCode":"DE","regionName":"Berlin","city":"Berlin","timezone":"Europe/Berlin"}`, &calls)
	defer srv.Close()

	g := NewIPAPI(srv.URL, time.Second, nil)
	got := g.Locate(context.Background(), "85.214.132.117")

	assert.Equal(t, Geo{Country: "Germany", CountryCode: "DE", Region: "Berlin", City: "Berlin", Timezone: "Europe/Berlin"}, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIPAPILocalAddressMakesNoCall(t *testing.T) {
	var calls int32
	srv := geoServer(t, `{}`, &calls)
	defer srv.Close()

	g := NewIPAPI(srv.URL, time.Second, nil)
	for _, ip := range []string{"", "127.0.0.1", "192.168.0.10", "::1"} {
		assert.Equal(t, LocalGeo, g.Locate(context.Background(), ip))
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestIPAPIFailureIsUnknown(t *testing.T) {
	var calls int32
	srv := geoServer(t, `{"status":"fail","message":"reserved range"}`, &calls)
	defer srv.Close()

	g := NewIPAPI(srv.URL, time.Second, nil)
	assert.Equal(t, UnknownGeo, g.Locate(context.Background(), "8.8.8.8"))
	assert.Equal(t, UnknownGeo, g.Locate(context.Background(), "garbage"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIPAPITimeoutIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"status":"success","country":"X"}`)
	}))
	defer srv.Close()

	g := NewIPAPI(srv.URL, 20*time.Millisecond, nil)
	assert.Equal(t, UnknownGeo, g.Locate(context.Background(), "8.8.4.4"))
}

func TestIPAPIQuota(t *testing.T) {
	var calls int32
	srv := geoServer(t, `{"status":"success","country":"US","countryCode":"US"}`, &calls)
	defer srv.Close()

	g := NewIPAPI(srv.URL, time.Second, ratelimiter.NewFixedWindowLimiter(2, time.Minute))
	for i := 0; i < 5; i++ {
		g.Locate(context.Background(), "8.8.8.8")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, UnknownGeo, g.Locate(context.Background(), "8.8.8.8"))
}
