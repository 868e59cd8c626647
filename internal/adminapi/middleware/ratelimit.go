package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit applies a single process-wide token bucket to every request
// it wraps. The engine has no tenant concept (spec §9 collapses the
// source's per-tenant model into one Job entity), so unlike the source's
// per-tenant limiter this one is shared across all callers.
func RateLimit(limit float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(limit), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
