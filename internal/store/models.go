// Package store contains the database layer for the job queue engine.
package store

import "time"

// Status is the lifecycle state of a Job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// MaxRetries is the terminal-failure threshold: a job whose retry count
// would reach this value on the next failure is marked failed instead of
// being rescheduled.
const MaxRetries = 5

// MinPriority and MaxPriority bound the clamped priority range; 1 is
// highest priority.
const (
	MinPriority = 1
	MaxPriority = 10
)

// Job is the sole persistent entity in the engine. Everything about a unit
// of deferred work - its payload, its schedule, its lease, its retry
// history - lives on this one row.
type Job struct {
	ID             int64
	JobName        string
	JobData        []byte
	Priority       int
	Status         Status
	CreatedAt      time.Time
	ScheduledAt    time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	Retries        int
	ErrorMessage   *string
	LockKey        *string
	LockExpiration *time.Time
}

// Fields is a partial field set used by UpdateByID. Only the pointer
// fields that are set, plus fields explicitly marked for clearing, are
// written - this mirrors the teacher's approach of building explicit SET
// clauses instead of blind-overwriting a whole row.
type Fields struct {
	Status         *Status
	ScheduledAt    *time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	Retries        *int
	ErrorMessage   *string
	ClearErrorMsg  bool
	LockKey        *string
	ClearLockKey   bool
	LockExpiration *time.Time
	ClearLockExp   bool
}
