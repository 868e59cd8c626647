// Package middleware contains HTTP middleware for the admin API.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"jobqueue/internal/auth"
)

// APIKeyAuth requires a matching X-API-Key header, compared as its
// SHA-256 hash against expectedHash in constant time.
func APIKeyAuth(expectedHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				http.Error(w, "missing API key", http.StatusUnauthorized)
				return
			}

			got := auth.HashKey(key)
			if subtle.ConstantTimeCompare([]byte(got), []byte(expectedHash)) != 1 {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
