package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"couponly/internal/infra/dbx"
	"couponly/internal/params"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound         = errors.New("store not found")
	ErrDuplicateSlug    = errors.New("store slug already exists")
	ErrDuplicateStoreID = errors.New("store id already exists")
	ErrNoFields         = errors.New("no fields to update")
)

type Repo interface {
	List(ctx context.Context, p params.Pagination, f Filters) ([]Store, int, error)
	GetByID(ctx context.Context, id int64) (*Store, error)
	GetBySlug(ctx context.Context, slug string) (*Store, error)
	GetByStoreID(ctx context.Context, storeID string) (*Store, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, s *Store) error
	Update(ctx context.Context, id int64, req UpdateRequest) (*Store, error)
	Delete(ctx context.Context, id int64) (*Store, error)
	Upsert(ctx context.Context, batch []Store) (int64, error)
	Import(ctx context.Context, batch []Store) (int64, error)
	MerchantIndex(ctx context.Context) (map[string]string, error)
	SlugOwners(ctx context.Context) (map[string]string, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const storeColumns = `id, store_id, merchant_id, name, slug, logo_url, description, website_url,
       tracking_url, categories, country_codes, is_active, is_featured, source, created_at, updated_at`

func scanStore(row pgx.Row, s *Store) error {
	return row.Scan(
		&s.ID, &s.StoreID, &s.MerchantID, &s.Name, &s.Slug, &s.LogoURL, &s.Description, &s.WebsiteURL,
		&s.TrackingURL, &s.Categories, &s.CountryCodes, &s.IsActive, &s.IsFeatured, &s.Source,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

// mapWriteErr turns unique violations into the sentinel the handlers map to 409.
func mapWriteErr(op string, err error) error {
	if constraint, ok := dbx.IsUniqueViolation(err); ok {
		if strings.Contains(constraint, "store_id") {
			return ErrDuplicateStoreID
		}
		return ErrDuplicateSlug
	}
	return fmt.Errorf("%s: %w", op, err)
}

// List returns stores ordered by name plus the total matching count.
func (r *Repository) List(ctx context.Context, p params.Pagination, f Filters) ([]Store, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argIndex := 1

	if f.Search != nil {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR slug ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*f.Search+"%")
		argIndex++
	}
	if f.Active != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *f.Active)
		argIndex++
	}
	if f.Featured != nil {
		where = append(where, fmt.Sprintf("is_featured = $%d", argIndex))
		args = append(args, *f.Featured)
		argIndex++
	}
	if f.Category != nil {
		where = append(where, fmt.Sprintf("$%d = ANY(categories)", argIndex))
		args = append(args, *f.Category)
		argIndex++
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stores WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stores: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM stores
		WHERE %s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, storeColumns, clause, argIndex, argIndex+1)
	args = append(args, p.Limit, p.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	out := []Store{}
	for rows.Next() {
		var s Store
		if err := scanStore(rows, &s); err != nil {
			return nil, 0, fmt.Errorf("scan store row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate stores: %w", err)
	}

	return out, total, nil
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*Store, error) {
	var s Store
	err := scanStore(r.db.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE `+where, arg), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &s, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Store, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Store, error) {
	return r.getOne(ctx, "slug = $1", slug)
}

func (r *Repository) GetByStoreID(ctx context.Context, storeID string) (*Store, error) {
	return r.getOne(ctx, "store_id = $1", storeID)
}

// SlugTaken is a fast-path check for friendlier errors. The unique index on
// stores.slug is what actually guarantees uniqueness.
func (r *Repository) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stores WHERE slug = $1 AND id <> $2)`, slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check store slug: %w", err)
	}
	return exists, nil
}

func (r *Repository) Create(ctx context.Context, s *Store) error {
	if s.Source == "" {
		s.Source = SourceManual
	}
	query := `
		INSERT INTO stores (store_id, merchant_id, name, slug, logo_url, description, website_url,
		                    tracking_url, categories, country_codes, is_active, is_featured, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + storeColumns

	err := scanStore(r.db.QueryRow(ctx, query,
		s.StoreID, s.MerchantID, s.Name, s.Slug, s.LogoURL, s.Description, s.WebsiteURL,
		s.TrackingURL, dbx.Strings(s.Categories), dbx.Strings(s.CountryCodes), s.IsActive, s.IsFeatured, s.Source,
	), s)
	if err != nil {
		return mapWriteErr("create store", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateRequest) (*Store, error) {
	setParts := []string{}
	args := []any{}
	argIndex := 1

	set := func(column string, value any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Slug != nil {
		set("slug", *req.Slug)
	}
	if req.LogoURL != nil {
		set("logo_url", *req.LogoURL)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.WebsiteURL != nil {
		set("website_url", *req.WebsiteURL)
	}
	if req.TrackingURL != nil {
		set("tracking_url", *req.TrackingURL)
	}
	if req.Categories != nil {
		set("categories", req.Categories)
	}
	if req.CountryCodes != nil {
		set("country_codes", req.CountryCodes)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}
	if req.IsFeatured != nil {
		set("is_featured", *req.IsFeatured)
	}

	if len(setParts) == 0 {
		return nil, ErrNoFields
	}
	setParts = append(setParts, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE stores SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), argIndex, storeColumns)

	var s Store
	if err := scanStore(r.db.QueryRow(ctx, query, args...), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapWriteErr("update store", err)
	}
	return &s, nil
}

// Delete removes the store and returns the deleted row so callers can clean
// up its assets.
func (r *Repository) Delete(ctx context.Context, id int64) (*Store, error) {
	var s Store
	err := scanStore(r.db.QueryRow(ctx, `DELETE FROM stores WHERE id = $1 RETURNING `+storeColumns, id), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete store: %w", err)
	}
	return &s, nil
}

// upsertStore overwrites every column a sync or import supplies. is_featured
// is admin-curated and not part of the payload, so it survives re-syncs. The
// WHERE clause skips rows whose content is unchanged.
const upsertStore = `
INSERT INTO stores (store_id, merchant_id, name, slug, logo_url, description, website_url,
                    tracking_url, categories, country_codes, is_active, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (store_id) DO UPDATE SET
  merchant_id   = EXCLUDED.merchant_id,
  name          = EXCLUDED.name,
  slug          = EXCLUDED.slug,
  logo_url      = EXCLUDED.logo_url,
  description   = EXCLUDED.description,
  website_url   = EXCLUDED.website_url,
  tracking_url  = EXCLUDED.tracking_url,
  categories    = EXCLUDED.categories,
  country_codes = EXCLUDED.country_codes,
  is_active     = EXCLUDED.is_active,
  source        = EXCLUDED.source,
  updated_at    = now()
WHERE (stores.merchant_id, stores.name, stores.slug, stores.logo_url, stores.description,
       stores.website_url, stores.tracking_url, stores.categories, stores.country_codes,
       stores.is_active, stores.source)
  IS DISTINCT FROM
      (EXCLUDED.merchant_id, EXCLUDED.name, EXCLUDED.slug, EXCLUDED.logo_url, EXCLUDED.description,
       EXCLUDED.website_url, EXCLUDED.tracking_url, EXCLUDED.categories, EXCLUDED.country_codes,
       EXCLUDED.is_active, EXCLUDED.source)
`

// Upsert writes the batch keyed by store_id and returns how many rows were
// inserted or changed. Run it inside a transaction to make the batch atomic.
func (r *Repository) Upsert(ctx context.Context, batch []Store) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, s := range batch {
		b.Queue(upsertStore,
			s.StoreID, s.MerchantID, s.Name, s.Slug, s.LogoURL, s.Description, s.WebsiteURL,
			s.TrackingURL, dbx.Strings(s.Categories), dbx.Strings(s.CountryCodes), s.IsActive, s.Source,
		)
	}

	results := r.db.SendBatch(ctx, b)
	defer results.Close()

	var written int64
	for _, s := range batch {
		tag, err := results.Exec()
		if err != nil {
			return written, mapWriteErr(fmt.Sprintf("upsert store %s", s.StoreID), err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// importStore is upsertStore plus is_featured. An import can feature a store
// but never unfeatures one.
const importStore = `
INSERT INTO stores (store_id, merchant_id, name, slug, logo_url, description, website_url,
                    tracking_url, categories, country_codes, is_active, source, is_featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (store_id) DO UPDATE SET
  merchant_id   = EXCLUDED.merchant_id,
  name          = EXCLUDED.name,
  slug          = EXCLUDED.slug,
  logo_url      = EXCLUDED.logo_url,
  description   = EXCLUDED.description,
  website_url   = EXCLUDED.website_url,
  tracking_url  = EXCLUDED.tracking_url,
  categories    = EXCLUDED.categories,
  country_codes = EXCLUDED.country_codes,
  is_active     = EXCLUDED.is_active,
  source        = EXCLUDED.source,
  is_featured   = stores.is_featured OR EXCLUDED.is_featured,
  updated_at    = now()
WHERE (stores.merchant_id, stores.name, stores.slug, stores.logo_url, stores.description,
       stores.website_url, stores.tracking_url, stores.categories, stores.country_codes,
       stores.is_active, stores.source, stores.is_featured)
  IS DISTINCT FROM
      (EXCLUDED.merchant_id, EXCLUDED.name, EXCLUDED.slug, EXCLUDED.logo_url, EXCLUDED.description,
       EXCLUDED.website_url, EXCLUDED.tracking_url, EXCLUDED.categories, EXCLUDED.country_codes,
       EXCLUDED.is_active, EXCLUDED.source, stores.is_featured OR EXCLUDED.is_featured)
`

// Import is Upsert for admin imports, which may also feature stores.
func (r *Repository) Import(ctx context.Context, batch []Store) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, s := range batch {
		b.Queue(importStore,
			s.StoreID, s.MerchantID, s.Name, s.Slug, s.LogoURL, s.Description, s.WebsiteURL,
			s.TrackingURL, dbx.Strings(s.Categories), dbx.Strings(s.CountryCodes), s.IsActive, s.Source, s.IsFeatured,
		)
	}

	results := r.db.SendBatch(ctx, b)
	defer results.Close()

	var written int64
	for _, s := range batch {
		tag, err := results.Exec()
		if err != nil {
			return written, mapWriteErr(fmt.Sprintf("import store %s", s.StoreID), err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// MerchantIndex maps upstream merchant ids to local store ids.
func (r *Repository) MerchantIndex(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT merchant_id, store_id FROM stores WHERE merchant_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query merchant index: %w", err)
	}
	return collectPairs(rows)
}

// SlugOwners maps every slug in use to the store id that owns it.
func (r *Repository) SlugOwners(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT slug, store_id FROM stores`)
	if err != nil {
		return nil, fmt.Errorf("query store slugs: %w", err)
	}
	return collectPairs(rows)
}

func collectPairs(rows pgx.Rows) (map[string]string, error) {
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}
	return out, nil
}
