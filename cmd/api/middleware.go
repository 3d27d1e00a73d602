package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"couponly/internal/metrics"
	"couponly/internal/tracking"

	"golang.org/x/crypto/bcrypt"
)

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			// decode it
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || !app.checkBasicCredentials(creds[0], creds[1]) {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *application) checkBasicCredentials(user, pass string) bool {
	basic := app.config.auth.basic
	if basic.user == "" || user != basic.user {
		return false
	}
	if basic.passHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(basic.passHash), []byte(pass)) == nil
	}
	if basic.pass == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(basic.pass)) == 1
}

type ctxKey string

const overLimitCtx ctxKey = "overLimit"

// RateLimiterMiddleware flags clients over the per-IP limit. Flagged
// requests are still served; their clicks are not recorded.
func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled && app.rateLimiter != nil {
			ip := tracking.ClientIP(r)
			if allow, retryAfter := app.rateLimiter.Allow(ip); !allow {
				app.logger.Warnw("rate limit exceeded, click not recorded", "ip", ip, "path", r.URL.Path, "retryAfter", retryAfter.String())
				metrics.ClickEvents.WithLabelValues("limited").Inc()
				r = r.WithContext(context.WithValue(r.Context(), overLimitCtx, true))
			}
		}

		next.ServeHTTP(w, r)
	})
}

func overLimit(r *http.Request) bool {
	limited, _ := r.Context().Value(overLimitCtx).(bool)
	return limited
}
