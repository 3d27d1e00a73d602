package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couponly/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

// Settings is the single site-wide settings row.
type Settings struct {
	SiteName        string    `json:"siteName"`
	Tagline         string    `json:"tagline"`
	LogoURL         string    `json:"logoUrl"`
	FaviconURL      string    `json:"faviconUrl"`
	ContactEmail    string    `json:"contactEmail"`
	FacebookURL     string    `json:"facebookUrl"`
	TwitterURL      string    `json:"twitterUrl"`
	InstagramURL    string    `json:"instagramUrl"`
	MetaTitle       string    `json:"metaTitle"`
	MetaDescription string    `json:"metaDescription"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Defaults is served whenever the settings row is missing or unreadable.
func Defaults() Settings {
	return Settings{
		SiteName:        "Couponly",
		Tagline:         "Verified coupons and deals",
		MetaTitle:       "Couponly - Coupons, promo codes and deals",
		MetaDescription: "Save with hand-picked coupon codes and deals from top stores.",
	}
}

type Store interface {
	Get(ctx context.Context) (Settings, error)
	Put(ctx context.Context, s Settings) (Settings, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const settingsColumns = `site_name, tagline, logo_url, favicon_url, contact_email, facebook_url,
       twitter_url, instagram_url, meta_title, meta_description, updated_at`

func scanSettings(row pgx.Row, s *Settings) error {
	return row.Scan(&s.SiteName, &s.Tagline, &s.LogoURL, &s.FaviconURL, &s.ContactEmail, &s.FacebookURL,
		&s.TwitterURL, &s.InstagramURL, &s.MetaTitle, &s.MetaDescription, &s.UpdatedAt)
}

// Get returns the stored settings, or Defaults with pgx.ErrNoRows wrapped
// when the row has never been written.
func (r *Repository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	if err := scanSettings(r.db.QueryRow(ctx, `SELECT `+settingsColumns+` FROM site_settings WHERE id = 1`), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Defaults(), fmt.Errorf("settings not initialised: %w", err)
		}
		return Defaults(), fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *Repository) Put(ctx context.Context, s Settings) (Settings, error) {
	var out Settings
	err := scanSettings(r.db.QueryRow(ctx, `
		INSERT INTO site_settings (id, site_name, tagline, logo_url, favicon_url, contact_email, facebook_url,
		                           twitter_url, instagram_url, meta_title, meta_description)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
		  site_name = EXCLUDED.site_name, tagline = EXCLUDED.tagline, logo_url = EXCLUDED.logo_url,
		  favicon_url = EXCLUDED.favicon_url, contact_email = EXCLUDED.contact_email,
		  facebook_url = EXCLUDED.facebook_url, twitter_url = EXCLUDED.twitter_url,
		  instagram_url = EXCLUDED.instagram_url, meta_title = EXCLUDED.meta_title,
		  meta_description = EXCLUDED.meta_description, updated_at = now()
		RETURNING `+settingsColumns,
		s.SiteName, s.Tagline, s.LogoURL, s.FaviconURL, s.ContactEmail, s.FacebookURL,
		s.TwitterURL, s.InstagramURL, s.MetaTitle, s.MetaDescription,
	), &out)
	if err != nil {
		return Settings{}, fmt.Errorf("put settings: %w", err)
	}
	return out, nil
}
