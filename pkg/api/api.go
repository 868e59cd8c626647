// Package api contains shared JSON request/response structs. It is
// imported by both cmd/queuectl (the CLI) and internal/adminapi (the
// daemon's HTTP surface) so the wire shapes only live in one place.
package api

import "time"

// EnqueueRequest is the request body for submitting a new job.
type EnqueueRequest struct {
	JobName      string `json:"job_name"`
	Payload      []byte `json:"payload,omitempty"`
	DelaySeconds int    `json:"delay_seconds,omitempty"`
	Priority     int    `json:"priority"`
}

// EnqueueResponse is the response body after submitting a job.
type EnqueueResponse struct {
	ID int64 `json:"id"`
}

// ScheduleRecurringRequest registers a recurring Enqueue.
type ScheduleRecurringRequest struct {
	JobName  string `json:"job_name"`
	Payload  []byte `json:"payload,omitempty"`
	Interval string `json:"interval"`
	Priority int    `json:"priority"`
}

// ScheduleRecurringResponse reports whether registration happened.
type ScheduleRecurringResponse struct {
	Registered bool `json:"registered"`
}

// JobResponse represents one job row in Admin API responses.
type JobResponse struct {
	ID             int64      `json:"id"`
	JobName        string     `json:"job_name"`
	Priority       int        `json:"priority"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Retries        int        `json:"retries"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
}

// ListResponse is the response body for listing jobs.
type ListResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// CountByStatusResponse is the response body for the status-count query.
type CountByStatusResponse struct {
	Counts map[string]int64 `json:"counts"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
