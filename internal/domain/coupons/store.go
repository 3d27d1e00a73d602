package coupons

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
	ErrNotFound      = errors.New("coupon not found")
	ErrDuplicateID   = errors.New("coupon id already exists")
	ErrSlotConflict  = errors.New("layout slot is already taken")
	ErrNoFields      = errors.New("no fields to update")
	ErrUnknownLayout = errors.New("unknown layout grid")
)

type Store interface {
	List(ctx context.Context, p params.Pagination, f Filters) ([]Coupon, int, error)
	GetByID(ctx context.Context, id int64) (*Coupon, error)
	GetByCouponID(ctx context.Context, couponID string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, id int64, req UpdateRequest) (*Coupon, error)
	Delete(ctx context.Context, id int64) error
	Grid(ctx context.Context, grid Grid) ([]Coupon, error)
	Upsert(ctx context.Context, batch []Coupon) (int64, error)
	Import(ctx context.Context, batch []Coupon) (int64, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const couponColumns = `id, coupon_id, store_ids, title, description, code, coupon_type, deep_link, image_url,
       discount_value, discount_type, starts_at, expires_at, is_active, is_popular, is_latest,
       layout_position, latest_layout_position, source, created_at, updated_at`

func scanCoupon(row pgx.Row, c *Coupon) error {
	return row.Scan(
		&c.ID, &c.CouponID, &c.StoreIDs, &c.Title, &c.Description, &c.Code, &c.CouponType, &c.DeepLink, &c.ImageURL,
		&c.DiscountValue, &c.DiscountType, &c.StartsAt, &c.ExpiresAt, &c.IsActive, &c.IsPopular, &c.IsLatest,
		&c.LayoutPosition, &c.LatestLayoutPosition, &c.Source, &c.CreatedAt, &c.UpdatedAt,
	)
}

func collectCoupons(rows pgx.Rows) ([]Coupon, error) {
	defer rows.Close()

	out := []Coupon{}
	for rows.Next() {
		var c Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("scan coupon row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}
	return out, nil
}

func mapWriteErr(op string, err error) error {
	if constraint, ok := dbx.IsUniqueViolation(err); ok {
		if strings.Contains(constraint, "layout_position") {
			return ErrSlotConflict
		}
		return ErrDuplicateID
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Repository) List(ctx context.Context, p params.Pagination, f Filters) ([]Coupon, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argIndex := 1

	add := func(cond string, value any) {
		where = append(where, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", argIndex)))
		args = append(args, value)
		argIndex++
	}

	if f.StoreID != nil {
		add("? = ANY(store_ids)", *f.StoreID)
	}
	if f.Search != nil {
		add("(title ILIKE ? OR code ILIKE ?)", "%"+*f.Search+"%")
	}
	if f.Type != nil {
		add("coupon_type = ?", *f.Type)
	}
	if f.Active != nil {
		add("is_active = ?", *f.Active)
	}
	if f.Popular != nil {
		add("is_popular = ?", *f.Popular)
	}
	if f.Latest != nil {
		add("is_latest = ?", *f.Latest)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM coupons WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM coupons
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, couponColumns, clause, argIndex, argIndex+1)
	args = append(args, p.Limit, p.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query coupons: %w", err)
	}
	out, err := collectCoupons(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*Coupon, error) {
	var c Coupon
	err := scanCoupon(r.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE `+where, arg), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &c, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Coupon, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *Repository) GetByCouponID(ctx context.Context, couponID string) (*Coupon, error) {
	return r.getOne(ctx, "coupon_id = $1", couponID)
}

// releaseSlots empties the requested slots on every coupon except the one
// whose keepColumn equals keep, so a slot is held by at most one coupon per
// grid.
func releaseSlots(ctx context.Context, q dbx.Querier, keepColumn string, keep any, layout, latest *int) error {
	if layout != nil {
		if _, err := q.Exec(ctx,
			`UPDATE coupons SET layout_position = NULL, updated_at = now() WHERE layout_position = $1 AND `+keepColumn+` <> $2`,
			*layout, keep); err != nil {
			return fmt.Errorf("release layout slot %d: %w", *layout, err)
		}
	}
	if latest != nil {
		if _, err := q.Exec(ctx,
			`UPDATE coupons SET latest_layout_position = NULL, updated_at = now() WHERE latest_layout_position = $1 AND `+keepColumn+` <> $2`,
			*latest, keep); err != nil {
			return fmt.Errorf("release latest slot %d: %w", *latest, err)
		}
	}
	return nil
}

// Create inserts a coupon; a requested layout slot is taken over from any
// coupon currently holding it.
func (r *Repository) Create(ctx context.Context, c *Coupon) error {
	if c.Source == "" {
		c.Source = "manual"
	}
	if err := Validate(*c); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := releaseSlots(ctx, tx, "id", int64(0), c.LayoutPosition, c.LatestLayoutPosition); err != nil {
			return err
		}

		query := `
			INSERT INTO coupons (coupon_id, store_ids, title, description, code, coupon_type, deep_link, image_url,
			                     discount_value, discount_type, starts_at, expires_at, is_active, is_popular, is_latest,
			                     layout_position, latest_layout_position, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			RETURNING ` + couponColumns

		err := scanCoupon(tx.QueryRow(ctx, query,
			c.CouponID, dbx.Strings(c.StoreIDs), c.Title, c.Description, c.Code, c.CouponType, c.DeepLink, c.ImageURL,
			c.DiscountValue, c.DiscountType, c.StartsAt, c.ExpiresAt, c.IsActive, c.IsPopular, c.IsLatest,
			c.LayoutPosition, c.LatestLayoutPosition, c.Source,
		), c)
		if err != nil {
			return mapWriteErr("create coupon", err)
		}
		return nil
	})
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateRequest) (*Coupon, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	setParts := []string{}
	args := []any{}
	argIndex := 1

	set := func(column string, value any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if req.StoreIDs != nil {
		set("store_ids", req.StoreIDs)
	}
	if req.Title != nil {
		set("title", *req.Title)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Code != nil {
		set("code", *req.Code)
	}
	if req.CouponType != nil {
		set("coupon_type", *req.CouponType)
	}
	if req.DeepLink != nil {
		set("deep_link", *req.DeepLink)
	}
	if req.ImageURL != nil {
		set("image_url", *req.ImageURL)
	}
	if req.DiscountValue != nil {
		set("discount_value", *req.DiscountValue)
	}
	if req.DiscountType != nil {
		set("discount_type", *req.DiscountType)
	}
	if req.StartsAt != nil {
		set("starts_at", *req.StartsAt)
	}
	if req.ExpiresAt != nil {
		set("expires_at", *req.ExpiresAt)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}
	if req.IsPopular != nil {
		set("is_popular", *req.IsPopular)
	}
	if req.IsLatest != nil {
		set("is_latest", *req.IsLatest)
	}
	switch {
	case req.ClearLayoutPosition:
		set("layout_position", nil)
	case req.LayoutPosition != nil:
		set("layout_position", *req.LayoutPosition)
	}
	switch {
	case req.ClearLatestLayoutPosition:
		set("latest_layout_position", nil)
	case req.LatestLayoutPosition != nil:
		set("latest_layout_position", *req.LatestLayoutPosition)
	}

	if len(setParts) == 0 {
		return nil, ErrNoFields
	}
	setParts = append(setParts, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE coupons SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), argIndex, couponColumns)

	var out Coupon
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		layout, latest := req.LayoutPosition, req.LatestLayoutPosition
		if req.ClearLayoutPosition {
			layout = nil
		}
		if req.ClearLatestLayoutPosition {
			latest = nil
		}
		if err := releaseSlots(ctx, tx, "id", id, layout, latest); err != nil {
			return err
		}

		if err := scanCoupon(tx.QueryRow(ctx, query, args...), &out); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return mapWriteErr("update coupon", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Grid returns the active coupons placed in a promotional layout, in slot order.
func (r *Repository) Grid(ctx context.Context, grid Grid) ([]Coupon, error) {
	var where string
	switch grid {
	case GridPopular:
		where = "is_popular AND layout_position IS NOT NULL ORDER BY layout_position"
	case GridLatest:
		where = "is_latest AND latest_layout_position IS NOT NULL ORDER BY latest_layout_position"
	default:
		return nil, ErrUnknownLayout
	}

	rows, err := r.db.Query(ctx, `SELECT `+couponColumns+` FROM coupons WHERE is_active AND `+where)
	if err != nil {
		return nil, fmt.Errorf("query %s grid: %w", grid, err)
	}
	return collectCoupons(rows)
}

// upsertCoupon overwrites every upstream-supplied column. Popular/latest
// flags and layout slots are curated by admins and are not in the payload.
const upsertCoupon = `
INSERT INTO coupons (coupon_id, store_ids, title, description, code, coupon_type, deep_link, image_url,
                     discount_value, discount_type, starts_at, expires_at, is_active, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (coupon_id) DO UPDATE SET
  store_ids      = EXCLUDED.store_ids,
  title          = EXCLUDED.title,
  description    = EXCLUDED.description,
  code           = EXCLUDED.code,
  coupon_type    = EXCLUDED.coupon_type,
  deep_link      = EXCLUDED.deep_link,
  image_url      = EXCLUDED.image_url,
  discount_value = EXCLUDED.discount_value,
  discount_type  = EXCLUDED.discount_type,
  starts_at      = EXCLUDED.starts_at,
  expires_at     = EXCLUDED.expires_at,
  is_active      = EXCLUDED.is_active,
  source         = EXCLUDED.source,
  updated_at     = now()
WHERE (coupons.store_ids, coupons.title, coupons.description, coupons.code, coupons.coupon_type,
       coupons.deep_link, coupons.image_url, coupons.discount_value, coupons.discount_type,
       coupons.starts_at, coupons.expires_at, coupons.is_active, coupons.source)
  IS DISTINCT FROM
      (EXCLUDED.store_ids, EXCLUDED.title, EXCLUDED.description, EXCLUDED.code, EXCLUDED.coupon_type,
       EXCLUDED.deep_link, EXCLUDED.image_url, EXCLUDED.discount_value, EXCLUDED.discount_type,
       EXCLUDED.starts_at, EXCLUDED.expires_at, EXCLUDED.is_active, EXCLUDED.source)
`

// Upsert writes the batch keyed by coupon_id and returns how many rows were
// inserted or changed.
func (r *Repository) Upsert(ctx context.Context, batch []Coupon) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, c := range batch {
		if err := Validate(c); err != nil {
			return 0, fmt.Errorf("coupon %q: %w", c.CouponID, err)
		}
		b.Queue(upsertCoupon,
			c.CouponID, dbx.Strings(c.StoreIDs), c.Title, c.Description, c.Code, c.CouponType, c.DeepLink, c.ImageURL,
			c.DiscountValue, c.DiscountType, c.StartsAt, c.ExpiresAt, c.IsActive, c.Source,
		)
	}

	results := r.db.SendBatch(ctx, b)
	defer results.Close()

	var written int64
	for _, c := range batch {
		tag, err := results.Exec()
		if err != nil {
			return written, mapWriteErr(fmt.Sprintf("upsert coupon %s", c.CouponID), err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// importCoupon is upsertCoupon plus the curated columns. An imported slot or
// flag is merged in: a row without a slot keeps the one it holds and a false
// flag never clears one set by an admin.
const importCoupon = `
INSERT INTO coupons (coupon_id, store_ids, title, description, code, coupon_type, deep_link, image_url,
                     discount_value, discount_type, starts_at, expires_at, is_active, source,
                     is_popular, is_latest, layout_position, latest_layout_position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (coupon_id) DO UPDATE SET
  store_ids              = EXCLUDED.store_ids,
  title                  = EXCLUDED.title,
  description            = EXCLUDED.description,
  code                   = EXCLUDED.code,
  coupon_type            = EXCLUDED.coupon_type,
  deep_link              = EXCLUDED.deep_link,
  image_url              = EXCLUDED.image_url,
  discount_value         = EXCLUDED.discount_value,
  discount_type          = EXCLUDED.discount_type,
  starts_at              = EXCLUDED.starts_at,
  expires_at             = EXCLUDED.expires_at,
  is_active              = EXCLUDED.is_active,
  source                 = EXCLUDED.source,
  is_popular             = coupons.is_popular OR EXCLUDED.is_popular,
  is_latest              = coupons.is_latest OR EXCLUDED.is_latest,
  layout_position        = COALESCE(EXCLUDED.layout_position, coupons.layout_position),
  latest_layout_position = COALESCE(EXCLUDED.latest_layout_position, coupons.latest_layout_position),
  updated_at             = now()
WHERE (coupons.store_ids, coupons.title, coupons.description, coupons.code, coupons.coupon_type,
       coupons.deep_link, coupons.image_url, coupons.discount_value, coupons.discount_type,
       coupons.starts_at, coupons.expires_at, coupons.is_active, coupons.source,
       coupons.is_popular, coupons.is_latest, coupons.layout_position, coupons.latest_layout_position)
  IS DISTINCT FROM
      (EXCLUDED.store_ids, EXCLUDED.title, EXCLUDED.description, EXCLUDED.code, EXCLUDED.coupon_type,
       EXCLUDED.deep_link, EXCLUDED.image_url, EXCLUDED.discount_value, EXCLUDED.discount_type,
       EXCLUDED.starts_at, EXCLUDED.expires_at, EXCLUDED.is_active, EXCLUDED.source,
       coupons.is_popular OR EXCLUDED.is_popular, coupons.is_latest OR EXCLUDED.is_latest,
       COALESCE(EXCLUDED.layout_position, coupons.layout_position),
       COALESCE(EXCLUDED.latest_layout_position, coupons.latest_layout_position))
`

// Import is Upsert for admin imports, which may also carry popular/latest
// flags and layout slots. Slots claimed by the batch are released from other
// coupons first, so a batch must not claim the same slot twice. Run it inside
// a transaction.
func (r *Repository) Import(ctx context.Context, batch []Coupon) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, c := range batch {
		if err := Validate(c); err != nil {
			return 0, fmt.Errorf("coupon %q: %w", c.CouponID, err)
		}
		if err := releaseSlots(ctx, r.db, "coupon_id", c.CouponID, c.LayoutPosition, c.LatestLayoutPosition); err != nil {
			return 0, err
		}
		b.Queue(importCoupon,
			c.CouponID, dbx.Strings(c.StoreIDs), c.Title, c.Description, c.Code, c.CouponType, c.DeepLink, c.ImageURL,
			c.DiscountValue, c.DiscountType, c.StartsAt, c.ExpiresAt, c.IsActive, c.Source,
			c.IsPopular, c.IsLatest, c.LayoutPosition, c.LatestLayoutPosition,
		)
	}

	results := r.db.SendBatch(ctx, b)
	defer results.Close()

	var written int64
	for _, c := range batch {
		tag, err := results.Exec()
		if err != nil {
			return written, mapWriteErr(fmt.Sprintf("import coupon %s", c.CouponID), err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}
