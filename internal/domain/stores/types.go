package stores

import "time"

const (
	SourceManual  = "manual"
	SourceTakeads = "takeads"
	SourceImport  = "import"
	SourceLegacy  = "legacy"
)

// Store is the canonical store/merchant record. StoreID is the natural key
// shared by every source ("Store Id" in spreadsheets, merchantId upstream).
type Store struct {
	ID           int64     `json:"id"`
	StoreID      string    `json:"storeId"`
	MerchantID   *string   `json:"merchantId"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	LogoURL      *string   `json:"logoUrl"`
	Description  *string   `json:"description"`
	WebsiteURL   *string   `json:"websiteUrl"`
	TrackingURL  *string   `json:"trackingUrl"`
	Categories   []string  `json:"categories"`
	CountryCodes []string  `json:"countryCodes"`
	IsActive     bool      `json:"isActive"`
	IsFeatured   bool      `json:"isFeatured"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Filters struct {
	Search   *string
	Active   *bool
	Featured *bool
	Category *string
}

// UpdateRequest carries a partial update; nil fields are left untouched.
type UpdateRequest struct {
	Name         *string
	Slug         *string
	LogoURL      *string
	Description  *string
	WebsiteURL   *string
	TrackingURL  *string
	Categories   []string
	CountryCodes []string
	IsActive     *bool
	IsFeatured   *bool
}
