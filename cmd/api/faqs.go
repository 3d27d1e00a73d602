package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"couponly/internal/domain/faqs"
)

type createFAQPayload struct {
	Question string `json:"question" validate:"required,max=500"`
	Answer   string `json:"answer" validate:"required,max=5000"`
	Position int    `json:"position" validate:"min=0"`
	IsActive *bool  `json:"isActive"`
}

type updateFAQPayload struct {
	Question *string `json:"question" validate:"omitempty,min=1,max=500"`
	Answer   *string `json:"answer" validate:"omitempty,min=1,max=5000"`
	Position *int    `json:"position" validate:"omitempty,min=0"`
	IsActive *bool   `json:"isActive"`
}

func (app *application) faqWriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, faqs.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, faqs.ErrNoFields):
		app.badRequestResponse(w, r, err)
	default:
		app.adminErrorResponse(w, r, err)
	}
}

// listFAQsHandler godoc
//
//	@Summary		List FAQs
//	@Description	Active FAQs in display order. Read errors yield an empty list.
//	@Tags			FAQs
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/faqs [get]
func (app *application) listFAQsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.FAQs.List(ctx, true)
	if err != nil {
		app.logger.Warnw("faq list failed, serving empty list", "error", err)
		list = []faqs.FAQ{}
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"faqs": list})
}

// adminListFAQsHandler godoc
//
//	@Summary	List FAQs (Admin)
//	@Tags		Admin
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Failure	500	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/faqs [get]
func (app *application) adminListFAQsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.FAQs.List(ctx, false)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{"faqs": list})
}

// createFAQHandler godoc
//
//	@Summary	Create FAQ (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		createFAQPayload	true	"FAQ"
//	@Success	201		{object}	faqs.FAQ
//	@Failure	400		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/faqs [post]
func (app *application) createFAQHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payload createFAQPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	f, err := app.store.FAQs.Create(ctx, faqs.FAQ{
		Question: strings.TrimSpace(payload.Question),
		Answer:   strings.TrimSpace(payload.Answer),
		Position: payload.Position,
		IsActive: active,
	})
	if err != nil {
		app.faqWriteError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, f)
}

// updateFAQHandler godoc
//
//	@Summary	Update FAQ (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		faqID	path		int					true	"FAQ id"
//	@Param		payload	body		updateFAQPayload	true	"Fields to change"
//	@Success	200		{object}	faqs.FAQ
//	@Failure	400		{object}	error
//	@Failure	404		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/faqs/{faqID} [patch]
func (app *application) updateFAQHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "faqID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateFAQPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	f, err := app.store.FAQs.Update(ctx, id, faqs.UpdateRequest{
		Question: trimmed(payload.Question),
		Answer:   trimmed(payload.Answer),
		Position: payload.Position,
		IsActive: payload.IsActive,
	})
	if err != nil {
		app.faqWriteError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, f)
}

// deleteFAQHandler godoc
//
//	@Summary	Delete FAQ (Admin)
//	@Tags		Admin
//	@Param		faqID	path	int	true	"FAQ id"
//	@Success	204
//	@Failure	404	{object}	error
//	@Security	BasicAuth
//	@Router		/admin/faqs/{faqID} [delete]
func (app *application) deleteFAQHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := parseIDParam(r, "faqID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.FAQs.Delete(ctx, id); err != nil {
		app.faqWriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
