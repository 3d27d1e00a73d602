package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"couponly/internal/domain/pages"

	"github.com/go-chi/chi/v5"
)

type putPagePayload struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"required"`
}

// getPageHandler godoc
//
//	@Summary		Get legal page
//	@Description	Static pages such as privacy-policy or terms, keyed by slug.
//	@Tags			Pages
//	@Produce		json
//	@Param			slug	path		string	true	"Page slug"
//	@Success		200		{object}	pages.Page
//	@Failure		404		{object}	error
//	@Router			/pages/{slug} [get]
func (app *application) getPageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	slug := chi.URLParam(r, "slug")
	p, err := app.store.Pages.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, pages.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.logger.Warnw("page read failed", "slug", slug, "error", err)
		app.jsonResponse(w, http.StatusOK, nil)
		return
	}

	app.jsonResponse(w, http.StatusOK, p)
}

// adminListPagesHandler godoc
//
//	@Summary	List legal pages (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Failure	500	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/pages [get]
func (app *application) adminListPagesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.Pages.List(ctx)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"pages": list})
}

// putPageHandler godoc
//
//	@Summary	Create or replace legal page (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		slug	path		string			true	"Page slug"
//	@Param		payload	body		putPagePayload	true	"Page content"
//	@Success	200		{object}	pages.Page
//	@Failure	400		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/pages/{slug} [put]
func (app *application) putPageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	slug := chi.URLParam(r, "slug")
	if !slugPattern.MatchString(slug) {
		app.badRequestResponse(w, r, errors.New("invalid page slug"))
		return
	}

	var payload putPagePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p, err := app.store.Pages.Put(ctx, pages.Page{
		Slug:  slug,
		Title: strings.TrimSpace(payload.Title),
		Body:  payload.Body,
	})
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, p)
}

// deletePageHandler godoc
//
//	@Summary	Delete legal page (Admin)
//	@Tags		Admin
//	@Param		slug	path	string	true	"Page slug"
//	@Success	204
//	@Failure	404	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/pages/{slug} [delete]
func (app *application) deletePageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := app.store.Pages.Delete(ctx, chi.URLParam(r, "slug")); err != nil {
		if errors.Is(err, pages.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.adminErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
