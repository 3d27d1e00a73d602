package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"couponly/internal/domain/news"
	"couponly/internal/normalize"
	"couponly/internal/params"

	"github.com/go-chi/chi/v5"
)

type createNewsPayload struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Slug        string  `json:"slug" validate:"omitempty,slug,max=255"`
	Excerpt     *string `json:"excerpt" validate:"omitempty,max=1000"`
	Body        string  `json:"body" validate:"required"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
	IsPublished bool    `json:"isPublished"`
}

type updateNewsPayload struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Slug        *string `json:"slug" validate:"omitempty,slug,max=255"`
	Excerpt     *string `json:"excerpt" validate:"omitempty,max=1000"`
	Body        *string `json:"body" validate:"omitempty,min=1"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
	IsPublished *bool   `json:"isPublished"`
}

func (app *application) newsWriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, news.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, news.ErrDuplicateSlug):
		app.conflictResponse(w, r, err)
	case errors.Is(err, news.ErrNoFields):
		app.badRequestResponse(w, r, err)
	default:
		app.adminErrorResponse(w, r, err)
	}
}

// listNewsHandler godoc
//
//	@Summary		List published news
//	@Description	Read errors yield an empty page.
//	@Tags			News
//	@Produce		json
//	@Param			page	query		int	false	"Page number"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{object}	map[string]interface{}
//	@Router			/news [get]
func (app *application) listNewsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	list, total, err := app.store.News.List(ctx, p, true)
	if err != nil {
		app.logger.Warnw("news list failed, serving empty page", "error", err)
		list, total = []news.Article{}, 0
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"articles":   list,
		"pagination": p,
	})
}

// getNewsHandler godoc
//
//	@Summary	Get published article by slug
//	@Tags		News
//	@Produce	json
//	@Param		slug	path		string	true	"Article slug"
//	@Success	200		{object}	news.Article
//	@Failure	404		{object}	error
//	@Router		/news/{slug} [get]
func (app *application) getNewsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	a, err := app.store.News.GetBySlug(ctx, chi.URLParam(r, "slug"), true)
	if err != nil {
		if errors.Is(err, news.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.logger.Warnw("article read failed", "slug", chi.URLParam(r, "slug"), "error", err)
		app.jsonResponse(w, http.StatusOK, nil)
		return
	}

	app.jsonResponse(w, http.StatusOK, a)
}

// adminListNewsHandler godoc
//
//	@Summary	List all news (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Param		page	query		int	false	"Page number"
//	@Param		limit	query		int	false	"Page size"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	500		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/news [get]
func (app *application) adminListNewsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())
	list, total, err := app.store.News.List(ctx, p, false)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"articles":   list,
		"pagination": p,
	})
}

// createNewsHandler godoc
//
//	@Summary	Create article (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		createNewsPayload	true	"Article"
//	@Success	201		{object}	news.Article
//	@Failure	400		{object}	error
//	@Failure	409		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/news [post]
func (app *application) createNewsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payload createNewsPayload
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
		slug = normalize.Slugify(payload.Title)
	}
	if slug == "" {
		app.badRequestResponse(w, r, errors.New("a slug cannot be derived from the title"))
		return
	}

	a, err := app.store.News.Create(ctx, news.CreateRequest{
		Title:       strings.TrimSpace(payload.Title),
		Slug:        slug,
		Excerpt:     payload.Excerpt,
		Body:        payload.Body,
		ImageURL:    cleanURL(payload.ImageURL),
		IsPublished: payload.IsPublished,
	})
	if err != nil {
		app.newsWriteError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, a)
}

// updateNewsHandler godoc
//
//	@Summary	Update article (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		articleID	path		int					true	"Article id"
//	@Param		payload		body		updateNewsPayload	true	"Fields to change"
//	@Success	200			{object}	news.Article
//	@Failure	400			{object}	error
//	@Failure	404			{object}	error
//	@Failure	409			{object}	error
//	@Security	BasicAuth
//	@Router		/admin/news/{articleID} [patch]
func (app *application) updateNewsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "articleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateNewsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	a, err := app.store.News.Update(ctx, id, news.UpdateRequest{
		Title:       trimmed(payload.Title),
		Slug:        payload.Slug,
		Excerpt:     payload.Excerpt,
		Body:        payload.Body,
		ImageURL:    cleanURLUpdate(payload.ImageURL),
		IsPublished: payload.IsPublished,
	})
	if err != nil {
		app.newsWriteError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, a)
}

// deleteNewsHandler godoc
//
//	@Summary	Delete article (Admin)
//	@Tags		Admin
//	@Param		articleID	path	int	true	"Article id"
//	@Success	204
//	@Failure	404	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/news/{articleID} [delete]
func (app *application) deleteNewsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "articleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.News.Delete(ctx, id); err != nil {
		app.newsWriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
