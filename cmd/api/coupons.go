package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"couponly/internal/domain/coupons"
	"couponly/internal/params"

	"github.com/google/uuid"
)

type createCouponPayload struct {
	CouponID             string     `json:"couponId" validate:"omitempty,max=255"`
	StoreIDs             []string   `json:"storeIds" validate:"omitempty,dive,required,max=255"`
	Title                string     `json:"title" validate:"required,max=500"`
	Description          *string    `json:"description" validate:"omitempty,max=5000"`
	Code                 *string    `json:"code" validate:"omitempty,max=100"`
	CouponType           string     `json:"couponType" validate:"omitempty,oneof=code deal"`
	DeepLink             *string    `json:"deepLink" validate:"omitempty,max=2048"`
	ImageURL             *string    `json:"imageUrl" validate:"omitempty,max=2048"`
	DiscountValue        *float64   `json:"discountValue" validate:"omitempty,min=0"`
	DiscountType         string     `json:"discountType" validate:"omitempty,discounttype"`
	StartsAt             *time.Time `json:"startsAt"`
	ExpiresAt            *time.Time `json:"expiresAt"`
	IsActive             *bool      `json:"isActive"`
	IsPopular            bool       `json:"isPopular"`
	IsLatest             bool       `json:"isLatest"`
	LayoutPosition       *int       `json:"layoutPosition" validate:"omitempty,min=1,max=8"`
	LatestLayoutPosition *int       `json:"latestLayoutPosition" validate:"omitempty,min=1,max=8"`
}

type updateCouponPayload struct {
	StoreIDs             []string   `json:"storeIds" validate:"omitempty,dive,required,max=255"`
	Title                *string    `json:"title" validate:"omitempty,min=1,max=500"`
	Description          *string    `json:"description" validate:"omitempty,max=5000"`
	Code                 *string    `json:"code" validate:"omitempty,max=100"`
	CouponType           *string    `json:"couponType" validate:"omitempty,oneof=code deal"`
	DeepLink             *string    `json:"deepLink" validate:"omitempty,max=2048"`
	ImageURL             *string    `json:"imageUrl" validate:"omitempty,max=2048"`
	DiscountValue        *float64   `json:"discountValue" validate:"omitempty,min=0"`
	DiscountType         *string    `json:"discountType" validate:"omitempty,discounttype"`
	StartsAt             *time.Time `json:"startsAt"`
	ExpiresAt            *time.Time `json:"expiresAt"`
	IsActive             *bool      `json:"isActive"`
	IsPopular            *bool      `json:"isPopular"`
	IsLatest             *bool      `json:"isLatest"`
	LayoutPosition       *int       `json:"layoutPosition" validate:"omitempty,min=1,max=8"`
	LatestLayoutPosition *int       `json:"latestLayoutPosition" validate:"omitempty,min=1,max=8"`
}

// A nil position empties the coupon's slot in that grid.
type couponSlotPayload struct {
	Grid     string `json:"grid" validate:"required,oneof=popular latest"`
	Position *int   `json:"position" validate:"omitempty,min=1,max=8"`
}

func parseCouponFilters(r *http.Request) (coupons.Filters, error) {
	q := r.URL.Query()
	f := coupons.Filters{
		StoreID: params.OptionalString(q, "store"),
		Search:  params.OptionalString(q, "search"),
		Type:    params.OptionalString(q, "type"),
	}
	var err error
	if f.Active, err = params.OptionalBool(q, "active"); err != nil {
		return f, err
	}
	if f.Popular, err = params.OptionalBool(q, "popular"); err != nil {
		return f, err
	}
	if f.Latest, err = params.OptionalBool(q, "latest"); err != nil {
		return f, err
	}
	return f, nil
}

// couponWriteError maps write-boundary and constraint errors to responses.
func (app *application) couponWriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, coupons.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, coupons.ErrDuplicateID), errors.Is(err, coupons.ErrSlotConflict):
		app.conflictResponse(w, r, err)
	case errors.Is(err, coupons.ErrNoFields),
		errors.Is(err, coupons.ErrInvalidDiscount),
		errors.Is(err, coupons.ErrInvalidDiscountType),
		errors.Is(err, coupons.ErrInvalidCouponType),
		errors.Is(err, coupons.ErrInvalidLayoutPosition),
		errors.Is(err, coupons.ErrMissingCouponID):
		app.badRequestResponse(w, r, err)
	default:
		app.adminErrorResponse(w, r, err)
	}
}

// listCouponsHandler godoc
//
//	@Summary		List coupons
//	@Description	Active coupons. Read errors yield an empty page.
//	@Tags			Coupons
//	@Produce		json
//	@Param			store	query		string	false	"Store id"
//	@Param			search	query		string	false	"Title or code contains"
//	@Param			type	query		string	false	"code or deal"
//	@Param			popular	query		bool	false	"Only popular"
//	@Param			latest	query		bool	false	"Only latest"
//	@Param			page	query		int		false	"Page number"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	map[string]interface{}
//	@Router			/coupons [get]
func (app *application) listCouponsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	f, err := parseCouponFilters(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	active := true
	f.Active = &active

	list, total, err := app.store.Coupons.List(ctx, p, f)
	if err != nil {
		app.logger.Warnw("public coupon list failed, serving empty page", "error", err)
		list, total = []coupons.Coupon{}, 0
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"coupons":    app.withOutCodes(list),
		"pagination": p,
	})
}

func (app *application) gridHandler(grid coupons.Grid) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		list, err := app.store.Coupons.Grid(ctx, grid)
		if err != nil {
			app.logger.Warnw("coupon grid failed, serving empty grid", "grid", grid, "error", err)
			list = []coupons.Coupon{}
		}

		app.jsonResponse(w, http.StatusOK, map[string]any{
			"coupons": app.withOutCodes(list),
		})
	}
}

// popularCouponsHandler godoc
//
//	@Summary	Popular coupons grid
//	@Tags		Coupons
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}	"Coupons in slot order (1-8)"
//	@Router		/coupons/popular [get]
func (app *application) popularCouponsHandler(w http.ResponseWriter, r *http.Request) {
	app.gridHandler(coupons.GridPopular)(w, r)
}

// latestCouponsHandler godoc
//
//	@Summary	Latest coupons grid
//	@Tags		Coupons
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}	"Coupons in slot order (1-8)"
//	@Router		/coupons/latest [get]
func (app *application) latestCouponsHandler(w http.ResponseWriter, r *http.Request) {
	app.gridHandler(coupons.GridLatest)(w, r)
}

// getCouponHandler godoc
//
//	@Summary	Get coupon
//	@Tags		Coupons
//	@Produce	json
//	@Param		couponID	path		int	true	"Coupon row id"
//	@Success	200			{object}	coupons.Coupon
//	@Failure	404			{object}	error
//	@Router		/coupons/{couponID} [get]
func (app *application) getCouponHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "couponID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Coupons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, coupons.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.logger.Warnw("public coupon read failed", "id", id, "error", err)
		app.jsonResponse(w, http.StatusOK, nil)
		return
	}
	if !c.IsActive {
		app.notFoundResponse(w, r, coupons.ErrNotFound)
		return
	}

	app.jsonResponse(w, http.StatusOK, app.withOutCodes([]coupons.Coupon{*c})[0])
}

// adminListCouponsHandler godoc
//
//	@Summary	List coupons (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Param		store	query		string	false	"Store id"
//	@Param		search	query		string	false	"Title or code contains"
//	@Param		type	query		string	false	"code or deal"
//	@Param		active	query		bool	false	"Filter by active flag"
//	@Param		popular	query		bool	false	"Filter by popular flag"
//	@Param		latest	query		bool	false	"Filter by latest flag"
//	@Param		page	query		int		false	"Page number"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	500		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/coupons [get]
func (app *application) adminListCouponsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	f, err := parseCouponFilters(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, total, err := app.store.Coupons.List(ctx, p, f)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"coupons":    app.withOutCodes(list),
		"pagination": p,
	})
}

// adminGetCouponHandler godoc
//
//	@Summary	Get coupon (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Param		couponID	path		int	true	"Coupon row id"
//	@Success	200			{object}	coupons.Coupon
//	@Failure	404			{object}	error
//	@Security	BasicAuth
//	@Router		/admin/coupons/{couponID} [get]
func (app *application) adminGetCouponHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "couponID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Coupons.GetByID(ctx, id)
	if err != nil {
		app.couponWriteError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, app.withOutCodes([]coupons.Coupon{*c})[0])
}

// createCouponHandler godoc
//
//	@Summary		Create coupon (Admin)
//	@Description	A requested layout slot is taken over from the coupon holding it.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		createCouponPayload	true	"Coupon"
//	@Success		201		{object}	coupons.Coupon
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error	"Coupon id already exists"
//	@Security		BasicAuth
//	@Router			/admin/coupons [post]
func (app *application) createCouponHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payload createCouponPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	couponID := strings.TrimSpace(payload.CouponID)
	if couponID == "" {
		couponID = uuid.NewString()
	}

	code := trimmed(payload.Code)
	couponType := payload.CouponType
	if couponType == "" {
		couponType = coupons.TypeDeal
		if code != nil && *code != "" {
			couponType = coupons.TypeCode
		}
	}

	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	storeIDs := payload.StoreIDs
	if storeIDs == nil {
		storeIDs = []string{}
	}

	c := &coupons.Coupon{
		CouponID:             couponID,
		StoreIDs:             storeIDs,
		Title:                strings.TrimSpace(payload.Title),
		Description:          payload.Description,
		Code:                 code,
		CouponType:           couponType,
		DeepLink:             cleanURL(payload.DeepLink),
		ImageURL:             cleanURL(payload.ImageURL),
		DiscountValue:        payload.DiscountValue,
		DiscountType:         payload.DiscountType,
		StartsAt:             payload.StartsAt,
		ExpiresAt:            payload.ExpiresAt,
		IsActive:             active,
		IsPopular:            payload.IsPopular || payload.LayoutPosition != nil,
		IsLatest:             payload.IsLatest || payload.LatestLayoutPosition != nil,
		LayoutPosition:       payload.LayoutPosition,
		LatestLayoutPosition: payload.LatestLayoutPosition,
	}

	if err := app.store.Coupons.Create(ctx, c); err != nil {
		app.couponWriteError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, app.withOutCodes([]coupons.Coupon{*c})[0])
}

// updateCouponHandler godoc
//
//	@Summary	Update coupon (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		couponID	path		int					true	"Coupon row id"
//	@Param		payload		body		updateCouponPayload	true	"Fields to change"
//	@Success	200			{object}	coupons.Coupon
//	@Failure	400			{object}	error
//	@Failure	404			{object}	error
//	@Security	BasicAuth
//	@Router		/admin/coupons/{couponID} [patch]
func (app *application) updateCouponHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "couponID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateCouponPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Coupons.Update(ctx, id, coupons.UpdateRequest{
		StoreIDs:             payload.StoreIDs,
		Title:                trimmed(payload.Title),
		Description:          payload.Description,
		Code:                 trimmed(payload.Code),
		CouponType:           payload.CouponType,
		DeepLink:             cleanURLUpdate(payload.DeepLink),
		ImageURL:             cleanURLUpdate(payload.ImageURL),
		DiscountValue:        payload.DiscountValue,
		DiscountType:         payload.DiscountType,
		StartsAt:             payload.StartsAt,
		ExpiresAt:            payload.ExpiresAt,
		IsActive:             payload.IsActive,
		IsPopular:            gridFlag(payload.IsPopular, payload.LayoutPosition),
		IsLatest:             gridFlag(payload.IsLatest, payload.LatestLayoutPosition),
		LayoutPosition:       payload.LayoutPosition,
		LatestLayoutPosition: payload.LatestLayoutPosition,
	})
	if err != nil {
		app.couponWriteError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, app.withOutCodes([]coupons.Coupon{*c})[0])
}

// gridFlag turns the grid flag on whenever a slot is assigned, as create does;
// Grid only lists flagged coupons.
func gridFlag(flag *bool, position *int) *bool {
	if position != nil {
		on := true
		return &on
	}
	return flag
}

// setCouponSlotHandler godoc
//
//	@Summary		Place a coupon in a layout grid (Admin)
//	@Description	Moves the coupon into a popular/latest slot (1-8), evicting the current holder. A null position clears the slot.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			couponID	path		int					true	"Coupon row id"
//	@Param			payload		body		couponSlotPayload	true	"Grid and position"
//	@Success		200			{object}	coupons.Coupon
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		BasicAuth
//	@Router			/admin/coupons/{couponID}/slot [put]
func (app *application) setCouponSlotHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "couponID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload couponSlotPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req := coupons.UpdateRequest{}
	placed := payload.Position != nil
	switch coupons.Grid(payload.Grid) {
	case coupons.GridPopular:
		req.LayoutPosition = payload.Position
		req.ClearLayoutPosition = !placed
		req.IsPopular = &placed
	case coupons.GridLatest:
		req.LatestLayoutPosition = payload.Position
		req.ClearLatestLayoutPosition = !placed
		req.IsLatest = &placed
	}

	c, err := app.store.Coupons.Update(ctx, id, req)
	if err != nil {
		app.couponWriteError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, app.withOutCodes([]coupons.Coupon{*c})[0])
}

// deleteCouponHandler godoc
//
//	@Summary	Delete coupon (Admin)
//	@Tags		Admin
//	@Param		couponID	path	int	true	"Coupon row id"
//	@Success	204
//	@Failure	404	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/coupons/{couponID} [delete]
func (app *application) deleteCouponHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "couponID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Coupons.Delete(ctx, id); err != nil {
		app.couponWriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
