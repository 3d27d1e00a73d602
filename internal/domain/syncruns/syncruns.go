// Package syncruns keeps a log of aggregator runs for the admin dashboard.
package syncruns

import (
	"context"
	"fmt"
	"time"

	"couponly/internal/infra/dbx"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Run struct {
	ID         int64     `json:"id"`
	Resource   string    `json:"resource"`
	Status     string    `json:"status"`
	Pages      int       `json:"pages"`
	Truncated  bool      `json:"truncated"`
	Fetched    int       `json:"fetched"`
	Upserted   int       `json:"upserted"`
	Unmatched  int       `json:"unmatched"`
	Error      *string   `json:"error"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

type Store interface {
	Record(ctx context.Context, run *Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Record(ctx context.Context, run *Run) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO sync_runs (resource, status, pages, truncated, fetched, upserted, unmatched, error, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, finished_at`,
		run.Resource, run.Status, run.Pages, run.Truncated, run.Fetched, run.Upserted, run.Unmatched, run.Error, run.StartedAt,
	).Scan(&run.ID, &run.FinishedAt)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, resource, status, pages, truncated, fetched, upserted, unmatched, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Resource, &run.Status, &run.Pages, &run.Truncated, &run.Fetched,
			&run.Upserted, &run.Unmatched, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}
	return out, nil
}
