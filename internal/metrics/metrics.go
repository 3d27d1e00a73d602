// Package metrics holds the Prometheus collectors for the API and CLI.
// Everything is registered on the default registry at init and exposed by
// Handler at GET /v1/metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "couponly"

// ClickEvents counts tracked clicks by outcome: stored, dropped or limited.
var ClickEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "click_events_total",
	Help:      "Click tracking attempts by outcome.",
}, []string{"outcome"})

// GeoLookups counts IP geolocation lookups (local, success, failed, throttled).
var GeoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "geo_lookups_total",
	Help:      "IP geolocation lookups by outcome.",
}, []string{"outcome"})

var SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "sync_runs_total",
	Help:      "Aggregator sync runs by resource and outcome.",
}, []string{"resource", "outcome"})

var SyncPages = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "sync_pages_total",
	Help:      "Upstream pages read by resource.",
}, []string{"resource"})

var SyncUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "sync_rows_upserted_total",
	Help:      "Rows inserted or changed by the aggregator.",
}, []string{"resource"})

// CacheLookups counts cache reads by cache name and result (hit, miss).
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "cache_lookups_total",
	Help:      "Cache reads by cache and result.",
}, []string{"cache", "result"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency labelled by the chi route
// pattern so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
