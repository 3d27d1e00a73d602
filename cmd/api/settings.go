package main

import (
	"context"
	"net/http"
	"time"

	"couponly/internal/domain/settings"
)

type updateSettingsPayload struct {
	SiteName        string `json:"siteName" validate:"required,max=100"`
	Tagline         string `json:"tagline" validate:"max=255"`
	LogoURL         string `json:"logoUrl" validate:"max=2048"`
	FaviconURL      string `json:"faviconUrl" validate:"max=2048"`
	ContactEmail    string `json:"contactEmail" validate:"omitempty,email"`
	FacebookURL     string `json:"facebookUrl" validate:"max=2048"`
	TwitterURL      string `json:"twitterUrl" validate:"max=2048"`
	InstagramURL    string `json:"instagramUrl" validate:"max=2048"`
	MetaTitle       string `json:"metaTitle" validate:"max=255"`
	MetaDescription string `json:"metaDescription" validate:"max=500"`
}

func normalizedLink(s string) string {
	if v := cleanURL(&s); v != nil {
		return *v
	}
	return ""
}

// getSettingsHandler godoc
//
//	@Summary		Site settings
//	@Description	Always 200; defaults are served when the settings row cannot be read.
//	@Tags			Settings
//	@Produce		json
//	@Success		200	{object}	settings.Settings
//	@Router			/settings [get]
func (app *application) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	s, err := app.store.Settings.Get(ctx)
	if err != nil {
		app.logger.Warnw("settings read failed, serving defaults", "error", err)
		s = settings.Defaults()
	}

	app.jsonResponse(w, http.StatusOK, s)
}

// updateSettingsHandler godoc
//
//	@Summary	Replace site settings (Admin)
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		updateSettingsPayload	true	"Settings"
//	@Success	200		{object}	settings.Settings
//	@Failure	400		{object}	error
//	@Security	BasicAuth
//	@Router		/admin/settings [put]
func (app *application) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payload updateSettingsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	s, err := app.store.Settings.Put(ctx, settings.Settings{
		SiteName:        payload.SiteName,
		Tagline:         payload.Tagline,
		LogoURL:         normalizedLink(payload.LogoURL),
		FaviconURL:      normalizedLink(payload.FaviconURL),
		ContactEmail:    payload.ContactEmail,
		FacebookURL:     normalizedLink(payload.FacebookURL),
		TwitterURL:      normalizedLink(payload.TwitterURL),
		InstagramURL:    normalizedLink(payload.InstagramURL),
		MetaTitle:       payload.MetaTitle,
		MetaDescription: payload.MetaDescription,
	})
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, s)
}
