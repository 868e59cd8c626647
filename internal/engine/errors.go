package engine

import "errors"

// Error taxonomy (spec §7). Background execution paths never surface
// these to producers; they are persisted in a job's error_message and
// drive the retry/backoff state machine. Only the Producer API sentinels
// (ErrUnknownHandler, ErrStoreError below) are returned directly to
// callers.
var (
	// ErrUnknownHandler is surfaced at Enqueue time when job_name has no
	// registered handler, and recorded as a job failure if discovered at
	// execute time instead (e.g. a handler was unregistered after enqueue).
	ErrUnknownHandler = errors.New("engine: unknown handler")

	// ErrPayloadDecode marks an execute-time payload decode failure.
	ErrPayloadDecode = errors.New("engine: payload decode failed")

	// ErrLeaseLost marks a ConditionalUpdate that affected zero rows: the
	// job's lease was reaped (or reclaimed by another worker) before this
	// worker could finalize it. Logged, never surfaced, execution result
	// discarded.
	ErrLeaseLost = errors.New("engine: lease lost before finalization")
)
