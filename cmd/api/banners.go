package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"couponly/internal/domain/banners"
)

type createBannerPayload struct {
	Title    string     `json:"title" validate:"required,max=255"`
	ImageURL string     `json:"imageUrl" validate:"required,max=2048"`
	LinkURL  *string    `json:"linkUrl" validate:"omitempty,max=2048"`
	Position int        `json:"position" validate:"min=0"`
	IsActive *bool      `json:"isActive"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
}

type updateBannerPayload struct {
	Title    *string    `json:"title" validate:"omitempty,min=1,max=255"`
	ImageURL *string    `json:"imageUrl" validate:"omitempty,min=1,max=2048"`
	LinkURL  *string    `json:"linkUrl" validate:"omitempty,max=2048"`
	Position *int       `json:"position" validate:"omitempty,min=0"`
	IsActive *bool      `json:"isActive"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
}

var errBannerWindow = errors.New("endsAt must be after startsAt")

func (app *application) bannerWriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, banners.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, banners.ErrNoFields):
		app.badRequestResponse(w, r, err)
	default:
		app.adminErrorResponse(w, r, err)
	}
}

func (app *application) invalidateBanners(ctx context.Context) {
	if err := app.caches.banners.Invalidate(ctx); err != nil {
		app.logger.Warnw("banner cache invalidation failed", "error", err)
	}
}

// listBannersHandler godoc
//
//	@Summary		List banners
//	@Description	Active banners inside their display window, served from cache. Read errors yield an empty list.
//	@Tags			Banners
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/banners [get]
func (app *application) listBannersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.caches.banners.Get(ctx)
	if err != nil {
		app.logger.Warnw("banner list failed, serving empty list", "error", err)
		list = []banners.Banner{}
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"banners": list})
}

// adminListBannersHandler godoc
//
//	@Summary	List banners (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Failure	500	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/banners [get]
func (app *application) adminListBannersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.Banners.ListAll(ctx)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"banners": list})
}

// createBannerHandler godoc
//
//	@Summary		Create banner (Admin)
//	@Description	The image is uploaded by the client beforehand; only its URL is stored.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		createBannerPayload	true	"Banner"
//	@Success		201		{object}	banners.Banner
//	@Failure		400		{object}	error
//	@Security		BasicAuth
//	@Router			/admin/banners [post]
func (app *application) createBannerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payload createBannerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.StartsAt != nil && payload.EndsAt != nil && !payload.EndsAt.After(*payload.StartsAt) {
		app.badRequestResponse(w, r, errBannerWindow)
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	imageURL := cleanURL(&payload.ImageURL)
	if imageURL == nil {
		app.badRequestResponse(w, r, errors.New("imageUrl is required"))
		return
	}

	b, err := app.store.Banners.Create(ctx, banners.CreateRequest{
		Title:    strings.TrimSpace(payload.Title),
		ImageURL: *imageURL,
		LinkURL:  cleanURL(payload.LinkURL),
		Position: payload.Position,
		IsActive: active,
		StartsAt: payload.StartsAt,
		EndsAt:   payload.EndsAt,
	})
	if err != nil {
		app.bannerWriteError(w, r, err)
		return
	}
	app.invalidateBanners(ctx)

	app.jsonResponse(w, http.StatusCreated, b)
}

// updateBannerHandler godoc
//
//	@Summary	Update banner (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		bannerID	path		int					true	"Banner id"
//	@Param		payload		body		updateBannerPayload	true	"Fields to change"
//	@Success	200			{object}	banners.Banner
//	@Failure	400			{object}	error
//	@Failure	404			{object}	error
//	@Security	BasicAuth
//	@Router		/admin/banners/{bannerID} [patch]
func (app *application) updateBannerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "bannerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateBannerPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.StartsAt != nil && payload.EndsAt != nil && !payload.EndsAt.After(*payload.StartsAt) {
		app.badRequestResponse(w, r, errBannerWindow)
		return
	}

	var previous *banners.Banner
	if payload.ImageURL != nil {
		previous, _ = app.store.Banners.GetByID(ctx, id)
	}

	b, err := app.store.Banners.Update(ctx, id, banners.UpdateRequest{
		Title:    trimmed(payload.Title),
		ImageURL: cleanURL(payload.ImageURL),
		LinkURL:  cleanURLUpdate(payload.LinkURL),
		Position: payload.Position,
		IsActive: payload.IsActive,
		StartsAt: payload.StartsAt,
		EndsAt:   payload.EndsAt,
	})
	if err != nil {
		app.bannerWriteError(w, r, err)
		return
	}
	app.invalidateBanners(ctx)

	if previous != nil && previous.ImageURL != b.ImageURL {
		app.cleanupImage(previous.ImageURL)
	}

	app.jsonResponse(w, http.StatusOK, b)
}

// deleteBannerHandler godoc
//
//	@Summary		Delete banner (Admin)
//	@Description	The banner image is removed from Cloudinary on a best-effort basis.
//	@Tags			Admin
//	@Param			bannerID	path	int	true	"Banner id"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/admin/banners/{bannerID} [delete]
func (app *application) deleteBannerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "bannerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	b, err := app.store.Banners.Delete(ctx, id)
	if err != nil {
		app.bannerWriteError(w, r, err)
		return
	}
	app.invalidateBanners(ctx)
	app.cleanupImage(b.ImageURL)

	w.WriteHeader(http.StatusNoContent)
}
