package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"couponly/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound      = errors.New("category not found")
	ErrDuplicateSlug = errors.New("category slug already exists")
	ErrNoFields      = errors.New("no fields to update")
)

type Store interface {
	List(ctx context.Context, onlyActive bool) ([]Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, req CreateRequest) (*Category, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Category, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const categoryColumns = `id, name, slug, description, icon_url, position, is_active, created_at, updated_at`

func scanCategory(row pgx.Row, c *Category) error {
	return row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IconURL, &c.Position, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
}

func (r *Repository) List(ctx context.Context, onlyActive bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if onlyActive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY position ASC, name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := scanCategory(rows, &c); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var c Category
	if err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, req CreateRequest) (*Category, error) {
	var c Category
	err := scanCategory(r.db.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description, icon_url, position, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+categoryColumns,
		req.Name, req.Slug, req.Description, req.IconURL, req.Position, req.IsActive,
	), &c)
	if err != nil {
		if _, ok := dbx.IsUniqueViolation(err); ok {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateRequest) (*Category, error) {
	setParts := []string{}
	args := []any{}

	set := func(column string, value any) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Slug != nil {
		set("slug", *req.Slug)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.IconURL != nil {
		set("icon_url", *req.IconURL)
	}
	if req.Position != nil {
		set("position", *req.Position)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}
	if len(setParts) == 0 {
		return nil, ErrNoFields
	}
	setParts = append(setParts, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE categories SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), len(args), categoryColumns)

	var c Category
	if err := scanCategory(r.db.QueryRow(ctx, query, args...), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if _, ok := dbx.IsUniqueViolation(err); ok {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &c, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
