package tracking

import (
	"context"
	"encoding/json"
	"net/netip"
	"strings"
	"time"

	"couponly/internal/metrics"
	"couponly/internal/ratelimiter"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultGeoBaseURL = "http://ip-api.com"
	DefaultGeoTimeout = 3 * time.Second
	// ip-api.com free tier allows 45 requests per minute.
	GeoRequestsPerMinute = 45

	geoFields = "status,country,countryCode,regionName,city,timezone"
)

type Geo struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	Region      string `json:"region"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
}

var (
	LocalGeo = Geo{
		Country:     "Local",
		CountryCode: "LOCAL",
		Region:      "Local",
		City:        "Localhost",
		Timezone:    "Local",
	}
	UnknownGeo = Geo{
		Country:     Unknown,
		CountryCode: Unknown,
		Region:      Unknown,
		City:        Unknown,
		Timezone:    Unknown,
	}
)

// GeoLocator never fails; lookups that cannot be answered return UnknownGeo.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) Geo
}

// IPAPI resolves addresses with ip-api.com, within the free tier quota.
type IPAPI struct {
	http    *resty.Client
	limiter ratelimiter.Limiter
}

func NewIPAPI(baseURL string, timeout time.Duration, limiter ratelimiter.Limiter) *IPAPI {
	if baseURL == "" {
		baseURL = DefaultGeoBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultGeoTimeout
	}
	if limiter == nil {
		limiter = ratelimiter.NewFixedWindowLimiter(GeoRequestsPerMinute, time.Minute)
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout)

	return &IPAPI{http: rc, limiter: limiter}
}

type ipAPIResponse struct {
	Status      string `json:"status"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	RegionName  string `json:"regionName"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
}

func (g *IPAPI) Locate(ctx context.Context, ip string) Geo {
	if IsLocalIP(ip) {
		metrics.GeoLookups.WithLabelValues("local").Inc()
		return LocalGeo
	}
	addr, err := netip.ParseAddr(strings.Trim(strings.TrimSpace(ip), "[]"))
	if err != nil {
		metrics.GeoLookups.WithLabelValues("invalid").Inc()
		return UnknownGeo
	}
	if ok, _ := g.limiter.Allow("ip-api"); !ok {
		metrics.GeoLookups.WithLabelValues("throttled").Inc()
		return UnknownGeo
	}

	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("fields", geoFields).
		Get("/json/" + addr.Unmap().String())
	if err != nil || resp.IsError() {
		metrics.GeoLookups.WithLabelValues("failed").Inc()
		return UnknownGeo
	}

	var body ipAPIResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Status != "success" {
		metrics.GeoLookups.WithLabelValues("failed").Inc()
		return UnknownGeo
	}

	metrics.GeoLookups.WithLabelValues("success").Inc()
	return Geo{
		Country:     orUnknown(body.Country),
		CountryCode: orUnknown(body.CountryCode),
		Region:      orUnknown(body.RegionName),
		City:        orUnknown(body.City),
		Timezone:    orUnknown(body.Timezone),
	}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Unknown
	}
	return s
}
