package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"couponly/internal/infra/dbx"
	"couponly/internal/params"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound      = errors.New("article not found")
	ErrDuplicateSlug = errors.New("article slug already exists")
	ErrNoFields      = errors.New("no fields to update")
)

type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     *string    `json:"excerpt"`
	Body        string     `json:"body"`
	ImageURL    *string    `json:"imageUrl"`
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CreateRequest struct {
	Title       string
	Slug        string
	Excerpt     *string
	Body        string
	ImageURL    *string
	IsPublished bool
}

type UpdateRequest struct {
	Title       *string
	Slug        *string
	Excerpt     *string
	Body        *string
	ImageURL    *string
	IsPublished *bool
}

type Store interface {
	List(ctx context.Context, p params.Pagination, onlyPublished bool) ([]Article, int, error)
	GetBySlug(ctx context.Context, slug string, onlyPublished bool) (*Article, error)
	Create(ctx context.Context, req CreateRequest) (*Article, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Article, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const articleColumns = `id, title, slug, excerpt, body, image_url, is_published, published_at, created_at, updated_at`

func scanArticle(row pgx.Row, a *Article) error {
	return row.Scan(&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Body, &a.ImageURL, &a.IsPublished, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
}

func mapWriteErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if _, ok := dbx.IsUniqueViolation(err); ok {
		return ErrDuplicateSlug
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Repository) List(ctx context.Context, p params.Pagination, onlyPublished bool) ([]Article, int, error) {
	where := ""
	if onlyPublished {
		where = "WHERE is_published"
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM news `+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+articleColumns+` FROM news `+where+`
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	out := []Article{}
	for rows.Next() {
		var a Article
		if err := scanArticle(rows, &a); err != nil {
			return nil, 0, fmt.Errorf("scan article row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate news: %w", err)
	}
	return out, total, nil
}

func (r *Repository) GetBySlug(ctx context.Context, slug string, onlyPublished bool) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM news WHERE slug = $1`
	if onlyPublished {
		query += ` AND is_published`
	}
	var a Article
	if err := scanArticle(r.db.QueryRow(ctx, query, slug), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}

func (r *Repository) Create(ctx context.Context, req CreateRequest) (*Article, error) {
	var a Article
	err := scanArticle(r.db.QueryRow(ctx, `
		INSERT INTO news (title, slug, excerpt, body, image_url, is_published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $6 THEN now() END)
		RETURNING `+articleColumns,
		req.Title, req.Slug, req.Excerpt, req.Body, req.ImageURL, req.IsPublished,
	), &a)
	if err != nil {
		return nil, mapWriteErr("create article", err)
	}
	return &a, nil
}

// Update stamps published_at the first time an article is published.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateRequest) (*Article, error) {
	setParts := []string{}
	args := []any{}

	set := func(column string, value any) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Title != nil {
		set("title", *req.Title)
	}
	if req.Slug != nil {
		set("slug", *req.Slug)
	}
	if req.Excerpt != nil {
		set("excerpt", *req.Excerpt)
	}
	if req.Body != nil {
		set("body", *req.Body)
	}
	if req.ImageURL != nil {
		set("image_url", *req.ImageURL)
	}
	if req.IsPublished != nil {
		set("is_published", *req.IsPublished)
		setParts = append(setParts, fmt.Sprintf("published_at = CASE WHEN $%d THEN COALESCE(published_at, now()) ELSE published_at END", len(args)))
	}
	if len(setParts) == 0 {
		return nil, ErrNoFields
	}
	setParts = append(setParts, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE news SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), len(args), articleColumns)

	var a Article
	if err := scanArticle(r.db.QueryRow(ctx, query, args...), &a); err != nil {
		return nil, mapWriteErr("update article", err)
	}
	return &a, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
