package faqs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"couponly/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("faq not found")
	ErrNoFields = errors.New("no fields to update")
)

type FAQ struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UpdateRequest struct {
	Question *string
	Answer   *string
	Position *int
	IsActive *bool
}

type Store interface {
	List(ctx context.Context, onlyActive bool) ([]FAQ, error)
	Create(ctx context.Context, f FAQ) (*FAQ, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*FAQ, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const faqColumns = `id, question, answer, position, is_active, created_at, updated_at`

func scanFAQ(row pgx.Row, f *FAQ) error {
	return row.Scan(&f.ID, &f.Question, &f.Answer, &f.Position, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
}

func (r *Repository) List(ctx context.Context, onlyActive bool) ([]FAQ, error) {
	query := `SELECT ` + faqColumns + ` FROM faqs`
	if onlyActive {
		query += ` WHERE is_active`
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query faqs: %w", err)
	}
	defer rows.Close()

	out := []FAQ{}
	for rows.Next() {
		var f FAQ
		if err := scanFAQ(rows, &f); err != nil {
			return nil, fmt.Errorf("scan faq row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faqs: %w", err)
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, f FAQ) (*FAQ, error) {
	var out FAQ
	err := scanFAQ(r.db.QueryRow(ctx, `
		INSERT INTO faqs (question, answer, position, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+faqColumns, f.Question, f.Answer, f.Position, f.IsActive), &out)
	if err != nil {
		return nil, fmt.Errorf("create faq: %w", err)
	}
	return &out, nil
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateRequest) (*FAQ, error) {
	setParts := []string{}
	args := []any{}

	set := func(column string, value any) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Question != nil {
		set("question", *req.Question)
	}
	if req.Answer != nil {
		set("answer", *req.Answer)
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

	query := fmt.Sprintf(`UPDATE faqs SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), len(args), faqColumns)

	var out FAQ
	if err := scanFAQ(r.db.QueryRow(ctx, query, args...), &out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update faq: %w", err)
	}
	return &out, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM faqs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
