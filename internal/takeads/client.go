// Package takeads is a client for the Takeads monetize API merchant and
// coupon listings.
package takeads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.takeads.com/v1/product/monetize-api"
	DefaultTimeout = 30 * time.Second
	DefaultLimit   = 500

	MaxMerchantPages = 10
	MaxCouponPages   = 50
)

type Merchant struct {
	MerchantID    int64    `json:"merchantId"`
	Name          string   `json:"name"`
	ImageURI      string   `json:"imageUri"`
	DefaultDomain string   `json:"defaultDomain"`
	Description   string   `json:"description"`
	TrackingLink  string   `json:"trackingLink"`
	CategoryIDs   []int    `json:"categoryIds"`
	CountryCodes  []string `json:"countryCodes"`
	IsActive      bool     `json:"isActive"`
	UpdatedAt     string   `json:"updatedAt"`
}

type Coupon struct {
	CouponID      string   `json:"couponId"`
	MerchantID    int64    `json:"merchantId"`
	Name          string   `json:"name"`
	Code          string   `json:"code"`
	Description   string   `json:"description"`
	ImageURI      string   `json:"imageUri"`
	TrackingLink  string   `json:"trackingLink"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	Discount      string   `json:"discount"`
	CountryCodes  []string `json:"countryCodes"`
	LanguageCodes []string `json:"languageCodes"`
	CategoryIDs   []int    `json:"categoryIds"`
	IsActive      bool     `json:"isActive"`
}

type Meta struct {
	Next  *string `json:"next"`
	Limit int     `json:"limit"`
}

type Page[T any] struct {
	Meta Meta `json:"meta"`
	Data []T  `json:"data"`
}

// ListParams are the query filters shared by both listings.
type ListParams struct {
	Next          *string
	Limit         int
	IsActive      *bool
	UpdatedAtFrom *time.Time
	UpdatedAtTo   *time.Time
	CountryCodes  []string
	LanguageCodes []string
	CategoryIDs   []int
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Next != nil && *p.Next != "" {
		v.Set("next", *p.Next)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	if p.IsActive != nil {
		v.Set("isActive", strconv.FormatBool(*p.IsActive))
	}
	if p.UpdatedAtFrom != nil {
		v.Set("updatedAtFrom", p.UpdatedAtFrom.UTC().Format(time.RFC3339))
	}
	if p.UpdatedAtTo != nil {
		v.Set("updatedAtTo", p.UpdatedAtTo.UTC().Format(time.RFC3339))
	}
	if len(p.CountryCodes) > 0 {
		v.Set("countryCodes", strings.Join(p.CountryCodes, ","))
	}
	if len(p.LanguageCodes) > 0 {
		v.Set("languageCodes", strings.Join(p.LanguageCodes, ","))
	}
	if len(p.CategoryIDs) > 0 {
		ids := make([]string, len(p.CategoryIDs))
		for i, id := range p.CategoryIDs {
			ids[i] = strconv.Itoa(id)
		}
		v.Set("categoryIds", strings.Join(ids, ","))
	}
	return v
}

// APIError is returned for any non-2xx upstream response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("takeads: http=%d body=%s", e.Status, e.Body)
}

type Client struct {
	http *resty.Client
}

// NewClient builds a client. A "Bearer " prefix pasted into the key is
// removed.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetAuthToken(StripBearer(apiKey))

	return &Client{http: rc}
}

// StripBearer trims whitespace and one case-insensitive "Bearer " prefix.
func StripBearer(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 7 && strings.EqualFold(key[:7], "bearer ") {
		key = strings.TrimSpace(key[7:])
	}
	return key
}

func (c *Client) ListMerchants(ctx context.Context, p ListParams) (*Page[Merchant], error) {
	return list[Merchant](ctx, c, "/v2/merchant", p)
}

func (c *Client) ListCoupons(ctx context.Context, p ListParams) (*Page[Coupon], error) {
	return list[Coupon](ctx, c, "/v1/coupon", p)
}

func list[T any](ctx context.Context, c *Client, path string, p ListParams) (*Page[T], error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(p.values()).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("takeads %s request: %w", path, err)
	}

	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Body: strings.TrimSpace(string(resp.Body()))}
	}

	var page Page[T]
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return nil, fmt.Errorf("takeads %s decode: %w", path, err)
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return &page, nil
}
