package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"couponly/internal/domain/coupons"
	"couponly/internal/normalize"

	"github.com/go-chi/chi/v5"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// cleanURL trims and normalizes an optional link; blank becomes nil.
func cleanURL(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalize.NormalizeURL(*s)
	if v == "" {
		return nil
	}
	return &v
}

// cleanURLUpdate keeps an explicit blank so PATCH can clear a link.
func cleanURLUpdate(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalize.NormalizeURL(*s)
	return &v
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// withOutCodes fills the short out-link code of each coupon.
func (app *application) withOutCodes(list []coupons.Coupon) []coupons.Coupon {
	if app.links == nil {
		return list
	}
	for i := range list {
		if code, err := app.links.Encode(list[i].ID); err == nil {
			list[i].OutCode = code
		}
	}
	return list
}
