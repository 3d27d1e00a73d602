package categories

import "time"

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	IconURL     *string   `json:"iconUrl"`
	Position    int       `json:"position"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Name        string
	Slug        string
	Description *string
	IconURL     *string
	Position    int
	IsActive    bool
}

type UpdateRequest struct {
	Name        *string
	Slug        *string
	Description *string
	IconURL     *string
	Position    *int
	IsActive    *bool
}
