package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
	"couponly/internal/normalize"
	"couponly/internal/params"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createStorePayload struct {
	StoreID      string   `json:"storeId" validate:"omitempty,max=255"`
	MerchantID   *string  `json:"merchantId" validate:"omitempty,max=255"`
	Name         string   `json:"name" validate:"required,max=255"`
	Slug         string   `json:"slug" validate:"omitempty,slug,max=255"`
	LogoURL      *string  `json:"logoUrl" validate:"omitempty,max=2048"`
	Description  *string  `json:"description" validate:"omitempty,max=5000"`
	WebsiteURL   *string  `json:"websiteUrl" validate:"omitempty,max=2048"`
	TrackingURL  *string  `json:"trackingUrl" validate:"omitempty,max=2048"`
	Categories   []string `json:"categories" validate:"omitempty,dive,max=100"`
	CountryCodes []string `json:"countryCodes" validate:"omitempty,dive,len=2"`
	IsActive     *bool    `json:"isActive"`
	IsFeatured   bool     `json:"isFeatured"`
}

type updateStorePayload struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Slug         *string  `json:"slug" validate:"omitempty,slug,max=255"`
	LogoURL      *string  `json:"logoUrl" validate:"omitempty,max=2048"`
	Description  *string  `json:"description" validate:"omitempty,max=5000"`
	WebsiteURL   *string  `json:"websiteUrl" validate:"omitempty,max=2048"`
	TrackingURL  *string  `json:"trackingUrl" validate:"omitempty,max=2048"`
	Categories   []string `json:"categories" validate:"omitempty,dive,max=100"`
	CountryCodes []string `json:"countryCodes" validate:"omitempty,dive,len=2"`
	IsActive     *bool    `json:"isActive"`
	IsFeatured   *bool    `json:"isFeatured"`
}

func parseStoreFilters(r *http.Request) (stores.Filters, error) {
	q := r.URL.Query()
	f := stores.Filters{
		Search:   params.OptionalString(q, "search"),
		Category: params.OptionalString(q, "category"),
	}
	var err error
	if f.Active, err = params.OptionalBool(q, "active"); err != nil {
		return f, err
	}
	if f.Featured, err = params.OptionalBool(q, "featured"); err != nil {
		return f, err
	}
	return f, nil
}

// listStoresHandler godoc
//
//	@Summary		List stores
//	@Description	Active stores with optional search, featured and category filters. Read errors yield an empty page.
//	@Tags			Stores
//	@Produce		json
//	@Param			search		query		string	false	"Name or slug contains"
//	@Param			featured	query		bool	false	"Only featured stores"
//	@Param			category	query		string	false	"Category slug"
//	@Param			page		query		int		false	"Page number (default 1)"
//	@Param			limit		query		int		false	"Page size (default 20, max 100)"
//	@Success		200			{object}	map[string]interface{}
//	@Router			/stores [get]
func (app *application) listStoresHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	f, err := parseStoreFilters(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	active := true
	f.Active = &active

	list, total, err := app.store.Stores.List(ctx, p, f)
	if err != nil {
		app.logger.Warnw("public store list failed, serving empty page", "error", err)
		list, total = []stores.Store{}, 0
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"stores":     list,
		"pagination": p,
	})
}

// getStoreBySlugHandler godoc
//
//	@Summary	Get store by slug
//	@Tags		Stores
//	@Produce	json
//	@Param		slug	path		string	true	"Store slug"
//	@Success	200		{object}	stores.Store
//	@Failure	404		{object}	error
//	@Router		/stores/{slug} [get]
func (app *application) getStoreBySlugHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	store, err := app.store.Stores.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.logger.Warnw("public store read failed", "slug", chi.URLParam(r, "slug"), "error", err)
		app.jsonResponse(w, http.StatusOK, nil)
		return
	}
	if !store.IsActive {
		app.notFoundResponse(w, r, stores.ErrNotFound)
		return
	}

	app.jsonResponse(w, http.StatusOK, store)
}

// listStoreCouponsHandler godoc
//
//	@Summary	List a store's active coupons
//	@Tags		Stores
//	@Produce	json
//	@Param		slug	path		string	true	"Store slug"
//	@Param		page	query		int		false	"Page number"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	map[string]interface{}
//	@Router		/stores/{slug}/coupons [get]
func (app *application) listStoreCouponsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	list, total := []coupons.Coupon{}, 0

	store, err := app.store.Stores.GetBySlug(ctx, chi.URLParam(r, "slug"))
	switch {
	case errors.Is(err, stores.ErrNotFound):
		app.notFoundResponse(w, r, err)
		return
	case err != nil:
		app.logger.Warnw("store coupons: store lookup failed", "slug", chi.URLParam(r, "slug"), "error", err)
	default:
		active := true
		list, total, err = app.store.Coupons.List(ctx, p, coupons.Filters{StoreID: &store.StoreID, Active: &active})
		if err != nil {
			app.logger.Warnw("store coupons: list failed", "storeId", store.StoreID, "error", err)
			list, total = []coupons.Coupon{}, 0
		}
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"store":      store,
		"coupons":    app.withOutCodes(list),
		"pagination": p,
	})
}

// adminListStoresHandler godoc
//
//	@Summary	List stores (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Param		search		query		string	false	"Name or slug contains"
//	@Param		active		query		bool	false	"Filter by active flag"
//	@Param		featured	query		bool	false	"Filter by featured flag"
//	@Param		category	query		string	false	"Category slug"
//	@Param		page		query		int		false	"Page number"
//	@Param		limit		query		int		false	"Page size"
//	@Success	200			{object}	map[string]interface{}
//	@Failure	500			{object}	error
//	@Security	BasicAuth
//	@Router		/admin/stores [get]
func (app *application) adminListStoresHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	f, err := parseStoreFilters(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	list, total, err := app.store.Stores.List(ctx, p, f)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"stores":     list,
		"pagination": p,
	})
}

// adminGetStoreHandler godoc
//
//	@Summary	Get store (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Param		storeID	path		int	true	"Store row id"
//	@Success	200		{object}	stores.Store
//	@Failure	404		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/stores/{storeID} [get]
func (app *application) adminGetStoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	store, err := app.store.Stores.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, store)
}

// createStoreHandler godoc
//
//	@Summary		Create store (Admin)
//	@Description	Links are normalized; the slug defaults to the slugified name.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		createStorePayload	true	"Store"
//	@Success		201		{object}	stores.Store
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error	"Slug or store id already exists"
//	@Security		BasicAuth
//	@Router			/admin/stores [post]
func (app *application) createStoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payload createStorePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	slug := payload.Slug
	if slug == "" {
		slug = normalize.Slugify(payload.Name)
	}
	if slug == "" {
		app.badRequestResponse(w, r, errors.New("a slug cannot be derived from the store name"))
		return
	}

	storeID := strings.TrimSpace(payload.StoreID)
	if storeID == "" {
		storeID = uuid.NewString()
	}

	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	store := &stores.Store{
		StoreID:      storeID,
		MerchantID:   trimmed(payload.MerchantID),
		Name:         strings.TrimSpace(payload.Name),
		Slug:         slug,
		LogoURL:      cleanURL(payload.LogoURL),
		Description:  payload.Description,
		WebsiteURL:   cleanURL(payload.WebsiteURL),
		TrackingURL:  cleanURL(payload.TrackingURL),
		Categories:   payload.Categories,
		CountryCodes: payload.CountryCodes,
		IsActive:     active,
		IsFeatured:   payload.IsFeatured,
		Source:       stores.SourceManual,
	}

	// Fast path for a friendly message; the unique index decides.
	if taken, err := app.store.Stores.SlugTaken(ctx, slug, 0); err == nil && taken {
		app.conflictResponse(w, r, stores.ErrDuplicateSlug)
		return
	}

	if err := app.store.Stores.Create(ctx, store); err != nil {
		switch {
		case errors.Is(err, stores.ErrDuplicateSlug), errors.Is(err, stores.ErrDuplicateStoreID):
			app.conflictResponse(w, r, err)
		default:
			app.adminErrorResponse(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusCreated, store)
}

// updateStoreHandler godoc
//
//	@Summary	Update store (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		storeID	path		int					true	"Store row id"
//	@Param		payload	body		updateStorePayload	true	"Fields to change"
//	@Success	200		{object}	stores.Store
//	@Failure	400		{object}	error
//	@Failure	404		{object}	error
//	@Failure	409		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/stores/{storeID} [patch]
func (app *application) updateStoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateStorePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Slug != nil {
		if taken, err := app.store.Stores.SlugTaken(ctx, *payload.Slug, id); err == nil && taken {
			app.conflictResponse(w, r, stores.ErrDuplicateSlug)
			return
		}
	}

	store, err := app.store.Stores.Update(ctx, id, stores.UpdateRequest{
		Name:         trimmed(payload.Name),
		Slug:         payload.Slug,
		LogoURL:      cleanURLUpdate(payload.LogoURL),
		Description:  payload.Description,
		WebsiteURL:   cleanURLUpdate(payload.WebsiteURL),
		TrackingURL:  cleanURLUpdate(payload.TrackingURL),
		Categories:   payload.Categories,
		CountryCodes: payload.CountryCodes,
		IsActive:     payload.IsActive,
		IsFeatured:   payload.IsFeatured,
	})
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrNoFields):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, stores.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, stores.ErrDuplicateSlug):
			app.conflictResponse(w, r, err)
		default:
			app.adminErrorResponse(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, store)
}

// deleteStoreHandler godoc
//
//	@Summary		Delete store (Admin)
//	@Description	Deletes the store; its logo is removed from Cloudinary on a best-effort basis.
//	@Tags			Admin
//	@Param			storeID	path	int	true	"Store row id"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/admin/stores/{storeID} [delete]
func (app *application) deleteStoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "storeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	store, err := app.store.Stores.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.adminErrorResponse(w, r, err)
		return
	}

	if store.LogoURL != nil {
		app.cleanupImage(*store.LogoURL)
	}

	w.WriteHeader(http.StatusNoContent)
}
