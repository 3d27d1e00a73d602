package banners

import "time"

// Banner is a hero/promo slide shown on the home page.
type Banner struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	ImageURL  string     `json:"imageUrl"`
	LinkURL   *string    `json:"linkUrl"`
	Position  int        `json:"position"`
	IsActive  bool       `json:"isActive"`
	StartsAt  *time.Time `json:"startsAt"`
	EndsAt    *time.Time `json:"endsAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CreateRequest struct {
	Title    string
	ImageURL string
	LinkURL  *string
	Position int
	IsActive bool
	StartsAt *time.Time
	EndsAt   *time.Time
}

type UpdateRequest struct {
	Title    *string
	ImageURL *string
	LinkURL  *string
	Position *int
	IsActive *bool
	StartsAt *time.Time
	EndsAt   *time.Time
}
