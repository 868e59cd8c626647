package adminapi

import "net/http"

// Healthz is a liveness probe: it returns 200 if the process is running.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readyz is a readiness probe: it returns 503 if the store is unreachable.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.httpError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
