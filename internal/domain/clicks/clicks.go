package clicks

import (
	"context"
	"fmt"
	"time"

	"couponly/internal/infra/dbx"

	"github.com/google/uuid"
)

// Event is one append-only click fact. There is no update or delete path.
type Event struct {
	ID          uuid.UUID `json:"id"`
	CouponID    string    `json:"couponId"`
	CouponCode  string    `json:"couponCode"`
	CouponType  string    `json:"couponType"`
	StoreID     string    `json:"storeId"`
	StoreName   string    `json:"storeName"`
	PageURL     string    `json:"pageUrl"`
	Referrer    string    `json:"referrer"`
	IPAddress   string    `json:"ipAddress"`
	UserAgent   string    `json:"userAgent"`
	DeviceType  string    `json:"deviceType"`
	Browser     string    `json:"browser"`
	OS          string    `json:"os"`
	Country     string    `json:"country"`
	CountryCode string    `json:"countryCode"`
	Region      string    `json:"region"`
	City        string    `json:"city"`
	Timezone    string    `json:"timezone"`
	ClickedAt   time.Time `json:"clickedAt"`
}

type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Summary struct {
	Since      time.Time `json:"since"`
	Total      int       `json:"total"`
	ByDay      []Bucket  `json:"byDay"`
	ByDevice   []Bucket  `json:"byDevice"`
	ByBrowser  []Bucket  `json:"byBrowser"`
	ByOS       []Bucket  `json:"byOs"`
	ByCountry  []Bucket  `json:"byCountry"`
	TopCoupons []Bucket  `json:"topCoupons"`
}

// EmptySummary is what the dashboard gets when the analytics query fails.
func EmptySummary(since time.Time) Summary {
	return Summary{
		Since:      since,
		ByDay:      []Bucket{},
		ByDevice:   []Bucket{},
		ByBrowser:  []Bucket{},
		ByOS:       []Bucket{},
		ByCountry:  []Bucket{},
		TopCoupons: []Bucket{},
	}
}

type Store interface {
	Insert(ctx context.Context, e *Event) error
	Summary(ctx context.Context, since time.Time) (Summary, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// Insert assigns an id and timestamp when missing and writes the event.
func (r *Repository) Insert(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.ClickedAt.IsZero() {
		e.ClickedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO click_events (id, coupon_id, coupon_code, coupon_type, store_id, store_name, page_url, referrer,
		                          ip_address, user_agent, device_type, browser, os, country, country_code, region,
		                          city, timezone, clicked_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
		        NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		e.ID, e.CouponID, e.CouponCode, e.CouponType, e.StoreID, e.StoreName, e.PageURL, e.Referrer,
		e.IPAddress, e.UserAgent, e.DeviceType, e.Browser, e.OS, e.Country, e.CountryCode, e.Region,
		e.City, e.Timezone, e.ClickedAt,
	)
	if err != nil {
		return fmt.Errorf("insert click event: %w", err)
	}
	return nil
}

func (r *Repository) Summary(ctx context.Context, since time.Time) (Summary, error) {
	s := EmptySummary(since)

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM click_events WHERE clicked_at >= $1`, since).Scan(&s.Total); err != nil {
		return s, fmt.Errorf("count clicks: %w", err)
	}

	groups := []struct {
		expr   string
		order  string
		limit  int
		target *[]Bucket
	}{
		{expr: "to_char(date_trunc('day', clicked_at), 'YYYY-MM-DD')", order: "key ASC", limit: 366, target: &s.ByDay},
		{expr: "device_type", order: "count DESC", limit: 10, target: &s.ByDevice},
		{expr: "browser", order: "count DESC", limit: 10, target: &s.ByBrowser},
		{expr: "os", order: "count DESC", limit: 10, target: &s.ByOS},
		{expr: "country", order: "count DESC", limit: 20, target: &s.ByCountry},
		{expr: "COALESCE(coupon_id, 'unknown')", order: "count DESC", limit: 10, target: &s.TopCoupons},
	}

	for _, g := range groups {
		buckets, err := r.buckets(ctx, g.expr, g.order, since, g.limit)
		if err != nil {
			return EmptySummary(since), err
		}
		*g.target = buckets
	}

	return s, nil
}

func (r *Repository) buckets(ctx context.Context, expr, order string, since time.Time, limit int) ([]Bucket, error) {
	query := fmt.Sprintf(`
		SELECT %s AS key, COUNT(*) AS count
		FROM click_events
		WHERE clicked_at >= $1
		GROUP BY 1
		ORDER BY %s
		LIMIT $2`, expr, order)

	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("group clicks by %s: %w", expr, err)
	}
	defer rows.Close()

	out := []Bucket{}
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, fmt.Errorf("scan click bucket: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate click buckets: %w", err)
	}
	return out, nil
}
