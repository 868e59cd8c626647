// Package adminapi exposes the engine's Producer and Admin APIs over
// HTTP. The daemon (cmd/queued) is the intended embedder, but the
// interface stays generic so other hosts named out of scope in spec §7
// could mount the same handlers.
package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"jobqueue/internal/engine"
	"jobqueue/internal/host"
	"jobqueue/internal/store"
	"jobqueue/pkg/api"
)

// Pinger is satisfied by the store implementation backing the engine; it
// lets Readyz check database connectivity without widening the engine's
// own surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handlers and their engine dependency.
type Handlers struct {
	engine *engine.Engine
	pinger Pinger
}

// NewHandlers creates a Handlers instance. pinger may be nil, in which
// case Readyz always reports ready.
func NewHandlers(e *engine.Engine, pinger Pinger) *Handlers {
	return &Handlers{engine: e, pinger: pinger}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJSON(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// EnqueueJob handles POST /jobs.
func (h *Handlers) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req api.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.JobName == "" {
		h.httpError(w, "job_name is required", http.StatusBadRequest)
		return
	}

	id, err := h.engine.Enqueue(r.Context(), req.JobName, req.Payload, req.DelaySeconds, req.Priority)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownHandler) {
			h.httpError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.httpError(w, "failed to enqueue job", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusCreated, api.EnqueueResponse{ID: id})
}

// ScheduleRecurringJob handles POST /jobs/recurring.
func (h *Handlers) ScheduleRecurringJob(w http.ResponseWriter, r *http.Request) {
	var req api.ScheduleRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.JobName == "" {
		h.httpError(w, "job_name is required", http.StatusBadRequest)
		return
	}

	interval := host.Interval(req.Interval)
	if _, err := interval.Duration(); err != nil {
		h.httpError(w, "invalid interval: "+err.Error(), http.StatusBadRequest)
		return
	}

	registered, err := h.engine.ScheduleRecurring(req.JobName, req.Payload, interval, req.Priority)
	if err != nil {
		h.httpError(w, "failed to schedule recurring job", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, api.ScheduleRecurringResponse{Registered: registered})
}

// ListJobs handles GET /jobs, filtered by an optional ?status= query
// parameter and bounded by an optional ?limit= (default 100).
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	var statusFilter *store.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := store.Status(s)
		statusFilter = &st
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			h.httpError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	jobs, err := h.engine.List(r.Context(), statusFilter, limit)
	if err != nil {
		h.httpError(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}

	resp := api.ListResponse{Jobs: make([]api.JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// CountJobsByStatus handles GET /jobs/count.
func (h *Handlers) CountJobsByStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.engine.CountByStatus(r.Context())
	if err != nil {
		h.httpError(w, "failed to count jobs", http.StatusInternalServerError)
		return
	}

	out := make(map[string]int64, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	h.respondJSON(w, http.StatusOK, api.CountByStatusResponse{Counts: out})
}

// RetryJob handles POST /jobs/{id}/retry.
func (h *Handlers) RetryJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.httpError(w, "invalid job id", http.StatusBadRequest)
		return
	}

	if err := h.engine.Retry(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "job not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "failed to retry job", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, nil)
}

// CancelJob handles DELETE /jobs/{id}.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.httpError(w, "invalid job id", http.StatusBadRequest)
		return
	}

	if err := h.engine.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "job not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "failed to cancel job", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusNoContent, nil)
}

func toJobResponse(j *store.Job) api.JobResponse {
	return api.JobResponse{
		ID:           j.ID,
		JobName:      j.JobName,
		Priority:     j.Priority,
		Status:       string(j.Status),
		CreatedAt:    j.CreatedAt,
		ScheduledAt:  j.ScheduledAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		Retries:      j.Retries,
		ErrorMessage: j.ErrorMessage,
	}
}
