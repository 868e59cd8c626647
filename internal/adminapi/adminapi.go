package adminapi

import (
	"context"
	"net/http"
	"time"

	"jobqueue/internal/adminapi/middleware"
	"jobqueue/internal/engine"
)

// Server is the HTTP server exposing the engine's Producer and Admin APIs.
type Server struct {
	httpServer *http.Server
}

// Options configures optional Server behavior.
type Options struct {
	// Pinger, if set, backs the /readyz probe.
	Pinger Pinger

	// APIKeyHash, if non-empty, requires a matching X-API-Key header
	// (hashed with auth.HashKey) on every route but the health probes.
	APIKeyHash string

	// RateLimit and RateLimitBurst configure the global request limiter.
	// RateLimit of 0 disables rate limiting.
	RateLimit      float64
	RateLimitBurst int
}

// New builds a Server wired to the given engine.
func New(addr string, e *engine.Engine, opts Options) *Server {
	h := NewHandlers(e, opts.Pinger)

	wrap := func(next http.HandlerFunc) http.Handler {
		var handler http.Handler = next
		if opts.RateLimit > 0 {
			handler = middleware.RateLimit(opts.RateLimit, opts.RateLimitBurst)(handler)
		}
		if opts.APIKeyHash != "" {
			handler = middleware.APIKeyAuth(opts.APIKeyHash)(handler)
		}
		return handler
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("POST /jobs", wrap(h.EnqueueJob))
	mux.Handle("POST /jobs/recurring", wrap(h.ScheduleRecurringJob))
	mux.Handle("GET /jobs", wrap(h.ListJobs))
	mux.Handle("GET /jobs/count", wrap(h.CountJobsByStatus))
	mux.Handle("POST /jobs/{id}/retry", wrap(h.RetryJob))
	mux.Handle("DELETE /jobs/{id}", wrap(h.CancelJob))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
