package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"couponly/internal/domain/categories"
	"couponly/internal/normalize"
)

type createCategoryPayload struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,slug,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IconURL     *string `json:"iconUrl" validate:"omitempty,max=2048"`
	Position    int     `json:"position" validate:"min=0"`
	IsActive    *bool   `json:"isActive"`
}

type updateCategoryPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,slug,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IconURL     *string `json:"iconUrl" validate:"omitempty,max=2048"`
	Position    *int    `json:"position" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"isActive"`
}

func (app *application) categoryWriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, categories.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, categories.ErrDuplicateSlug):
		app.conflictResponse(w, r, err)
	case errors.Is(err, categories.ErrNoFields):
		app.badRequestResponse(w, r, err)
	default:
		app.adminErrorResponse(w, r, err)
	}
}

// invalidateCategories drops the cached public list after an admin write.
func (app *application) invalidateCategories(ctx context.Context) {
	if err := app.caches.categories.Invalidate(ctx); err != nil {
		app.logger.Warnw("category cache invalidation failed", "error", err)
	}
}

// listCategoriesHandler godoc
//
//	@Summary		List categories
//	@Description	Active categories in display order, served from cache. Read errors yield an empty list.
//	@Tags			Categories
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.caches.categories.Get(ctx)
	if err != nil {
		app.logger.Warnw("category list failed, serving empty list", "error", err)
		list = []categories.Category{}
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"categories": list})
}

// adminListCategoriesHandler godoc
//
//	@Summary	List categories (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Failure	500	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/categories [get]
func (app *application) adminListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.Categories.List(ctx, false)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"categories": list})
}

// createCategoryHandler godoc
//
//	@Summary	Create category (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		createCategoryPayload	true	"Category"
//	@Success	201		{object}	categories.Category
//	@Failure	400		{object}	error
//	@Failure	409		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payload createCategoryPayload
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
		app.badRequestResponse(w, r, errors.New("a slug cannot be derived from the category name"))
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	c, err := app.store.Categories.Create(ctx, categories.CreateRequest{
		Name:        strings.TrimSpace(payload.Name),
		Slug:        slug,
		Description: payload.Description,
		IconURL:     cleanURL(payload.IconURL),
		Position:    payload.Position,
		IsActive:    active,
	})
	if err != nil {
		app.categoryWriteError(w, r, err)
		return
	}
	app.invalidateCategories(ctx)

	app.jsonResponse(w, http.StatusCreated, c)
}

// updateCategoryHandler godoc
//
//	@Summary	Update category (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		categoryID	path		int						true	"Category id"
//	@Param		payload		body		updateCategoryPayload	true	"Fields to change"
//	@Success	200			{object}	categories.Category
//	@Failure	400			{object}	error
//	@Failure	404			{object}	error
//	@Failure	409			{object}	error
//	@Security	BasicAuth
//	@Router		/admin/categories/{categoryID} [patch]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.store.Categories.Update(ctx, id, categories.UpdateRequest{
		Name:        trimmed(payload.Name),
		Slug:        payload.Slug,
		Description: payload.Description,
		IconURL:     cleanURLUpdate(payload.IconURL),
		Position:    payload.Position,
		IsActive:    payload.IsActive,
	})
	if err != nil {
		app.categoryWriteError(w, r, err)
		return
	}
	app.invalidateCategories(ctx)

	app.jsonResponse(w, http.StatusOK, c)
}

// deleteCategoryHandler godoc
//
//	@Summary	Delete category (Admin)
//	@Tags		Admin
//	@Param		categoryID	path	int	true	"Category id"
//	@Success	204
//	@Failure	404	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/categories/{categoryID} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Categories.Delete(ctx, id); err != nil {
		app.categoryWriteError(w, r, err)
		return
	}
	app.invalidateCategories(ctx)

	w.WriteHeader(http.StatusNoContent)
}
