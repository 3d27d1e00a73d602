// Package pages stores the legal/static pages (privacy policy, terms, ...)
// keyed by slug.
package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couponly/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("page not found")

type Page struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store interface {
	List(ctx context.Context) ([]Page, error)
	Get(ctx context.Context, slug string) (*Page, error)
	Put(ctx context.Context, p Page) (*Page, error)
	Delete(ctx context.Context, slug string) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Page, error) {
	rows, err := r.db.Query(ctx, `SELECT slug, title, body, updated_at FROM legal_pages ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	out := []Page{}
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.Slug, &p.Title, &p.Body, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, slug string) (*Page, error) {
	var p Page
	err := r.db.QueryRow(ctx, `SELECT slug, title, body, updated_at FROM legal_pages WHERE slug = $1`, slug).
		Scan(&p.Slug, &p.Title, &p.Body, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	return &p, nil
}

// Put creates or replaces the page with the given slug.
func (r *Repository) Put(ctx context.Context, p Page) (*Page, error) {
	var out Page
	err := r.db.QueryRow(ctx, `
		INSERT INTO legal_pages (slug, title, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body, updated_at = now()
		RETURNING slug, title, body, updated_at`, p.Slug, p.Title, p.Body).
		Scan(&out.Slug, &out.Title, &out.Body, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("put page: %w", err)
	}
	return &out, nil
}

func (r *Repository) Delete(ctx context.Context, slug string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM legal_pages WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
