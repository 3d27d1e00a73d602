package banners

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"couponly/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("banner not found")
	ErrNoFields = errors.New("no fields to update")
)

type Store interface {
	ListVisible(ctx context.Context) ([]Banner, error)
	ListAll(ctx context.Context) ([]Banner, error)
	GetByID(ctx context.Context, id int64) (*Banner, error)
	Create(ctx context.Context, req CreateRequest) (*Banner, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Banner, error)
	Delete(ctx context.Context, id int64) (*Banner, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const bannerColumns = `id, title, image_url, link_url, position, is_active, starts_at, ends_at, created_at, updated_at`

func scanBanner(row pgx.Row, b *Banner) error {
	return row.Scan(&b.ID, &b.Title, &b.ImageURL, &b.LinkURL, &b.Position, &b.IsActive, &b.StartsAt, &b.EndsAt, &b.CreatedAt, &b.UpdatedAt)
}

func (r *Repository) list(ctx context.Context, where string) ([]Banner, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bannerColumns+` FROM banners `+where+` ORDER BY position ASC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query banners: %w", err)
	}
	defer rows.Close()

	out := []Banner{}
	for rows.Next() {
		var b Banner
		if err := scanBanner(rows, &b); err != nil {
			return nil, fmt.Errorf("scan banner row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banners: %w", err)
	}
	return out, nil
}

// ListVisible returns active banners whose schedule window contains now.
func (r *Repository) ListVisible(ctx context.Context) ([]Banner, error) {
	return r.list(ctx, `WHERE is_active
		AND (starts_at IS NULL OR starts_at <= now())
		AND (ends_at IS NULL OR ends_at > now())`)
}

func (r *Repository) ListAll(ctx context.Context) ([]Banner, error) {
	return r.list(ctx, "")
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Banner, error) {
	var b Banner
	if err := scanBanner(r.db.QueryRow(ctx, `SELECT `+bannerColumns+` FROM banners WHERE id = $1`, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get banner: %w", err)
	}
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, req CreateRequest) (*Banner, error) {
	var b Banner
	err := scanBanner(r.db.QueryRow(ctx, `
		INSERT INTO banners (title, image_url, link_url, position, is_active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+bannerColumns,
		req.Title, req.ImageURL, req.LinkURL, req.Position, req.IsActive, req.StartsAt, req.EndsAt,
	), &b)
	if err != nil {
		return nil, fmt.Errorf("create banner: %w", err)
	}
	return &b, nil
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateRequest) (*Banner, error) {
	setParts := []string{}
	args := []any{}

	set := func(column string, value any) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Title != nil {
		set("title", *req.Title)
	}
	if req.ImageURL != nil {
		set("image_url", *req.ImageURL)
	}
	if req.LinkURL != nil {
		set("link_url", *req.LinkURL)
	}
	if req.Position != nil {
		set("position", *req.Position)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}
	if req.StartsAt != nil {
		set("starts_at", *req.StartsAt)
	}
	if req.EndsAt != nil {
		set("ends_at", *req.EndsAt)
	}
	if len(setParts) == 0 {
		return nil, ErrNoFields
	}
	setParts = append(setParts, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE banners SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), len(args), bannerColumns)

	var b Banner
	if err := scanBanner(r.db.QueryRow(ctx, query, args...), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update banner: %w", err)
	}
	return &b, nil
}

// Delete returns the removed banner so its image can be cleaned up.
func (r *Repository) Delete(ctx context.Context, id int64) (*Banner, error) {
	var b Banner
	if err := scanBanner(r.db.QueryRow(ctx, `DELETE FROM banners WHERE id = $1 RETURNING `+bannerColumns, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete banner: %w", err)
	}
	return &b, nil
}
