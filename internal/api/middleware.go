// Package api implements the content editing REST API using chi.
package api

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// EditGate returns middleware protecting the editing routes. The site is a
// single-author setup: editing is either fully enabled (local dev), token
// protected, or off. When disabled every editing request gets a 403.
func EditGate(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				writeJSON(w, http.StatusForbidden, errorBody("editing API only available in development mode"))
				return
			}
			if token != "" {
				auth := r.Header.Get("Authorization")
				if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit returns middleware that throttles editing requests. The
// limiter is scoped to the router instance it is installed on, never
// process-wide, so tests and multiple instances don't share counters.
func RateLimit(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, errorBody("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
