package engine

import (
	"context"
	"fmt"
	"time"

	"jobqueue/internal/store"
)

// Run executes a claimed job to completion (spec §4.4): look up the
// handler, decode the payload, invoke it, and interpret the outcome. All
// terminal writes go through ConditionalUpdate keyed on (id, lock_key) so
// a worker whose lease was reaped cannot clobber a row another claimant
// now owns.
func (e *Engine) Run(ctx context.Context, job *store.Job) error {
	if job.LockKey == nil {
		return fmt.Errorf("engine: job %d has no lock key, was it claimed?", job.ID)
	}
	lockKey := *job.LockKey

	handler, err := e.registry.Lookup(job.JobName)
	if err != nil {
		// §9 open question resolved: unknown-handler at execute time is an
		// immediate terminal failure. Retrying cannot help since the
		// handler name is still missing on every subsequent attempt.
		return e.finalizeFailed(ctx, job.ID, lockKey, "unknown-handler: "+job.JobName)
	}

	payload, err := handler.Decode(job.JobData)
	if err != nil {
		return e.HandleFailure(ctx, job, lockKey, fmt.Sprintf("payload-decode: %v", err))
	}

	if err := handler.Invoke(ctx, payload, job.ID); err != nil {
		return e.HandleFailure(ctx, job, lockKey, fmt.Sprintf("handler-failure: %v", err))
	}

	return e.finalizeCompleted(ctx, job.ID, lockKey)
}

func (e *Engine) finalizeCompleted(ctx context.Context, jobID int64, lockKey string) error {
	completed := store.StatusCompleted
	now := e.clock.Now()

	n, err := e.store.ConditionalUpdate(ctx, jobID, lockKey, store.Fields{
		Status:       &completed,
		CompletedAt:  &now,
		ClearLockKey: true,
		ClearLockExp: true,
	})
	if err != nil {
		return fmt.Errorf("engine: failed to finalize completed job %d: %w", jobID, err)
	}
	if n == 0 {
		e.log.Warn("lease lost before completion could be recorded", "job_id", jobID)
		return ErrLeaseLost
	}
	return nil
}

func (e *Engine) finalizeFailed(ctx context.Context, jobID int64, lockKey, message string) error {
	failed := store.StatusFailed
	now := e.clock.Now()

	n, err := e.store.ConditionalUpdate(ctx, jobID, lockKey, store.Fields{
		Status:       &failed,
		CompletedAt:  &now,
		ErrorMessage: &message,
		ClearLockKey: true,
		ClearLockExp: true,
	})
	if err != nil {
		return fmt.Errorf("engine: failed to finalize failed job %d: %w", jobID, err)
	}
	if n == 0 {
		e.log.Warn("lease lost before failure could be recorded", "job_id", jobID)
		return ErrLeaseLost
	}
	return nil
}

// HandleFailure applies spec §4.4's retry/backoff state machine: attempts
// below MaxRetries reschedule with exponential backoff
// (2^attempts * 60 seconds); the attempt that would reach MaxRetries
// transitions straight to failed instead.
func (e *Engine) HandleFailure(ctx context.Context, job *store.Job, lockKey, message string) error {
	attempts := job.Retries + 1
	now := e.clock.Now()

	if attempts < e.cfg.MaxRetries {
		delay := backoffDelay(attempts)
		scheduledAt := now.Add(delay)
		pending := store.StatusPending

		n, err := e.store.ConditionalUpdate(ctx, job.ID, lockKey, store.Fields{
			Status:       &pending,
			ScheduledAt:  &scheduledAt,
			Retries:      &attempts,
			ErrorMessage: &message,
			ClearLockKey: true,
			ClearLockExp: true,
		})
		if err != nil {
			return fmt.Errorf("engine: failed to reschedule job %d: %w", job.ID, err)
		}
		if n == 0 {
			e.log.Warn("lease lost before retry could be recorded", "job_id", job.ID)
			return ErrLeaseLost
		}
		return nil
	}

	failed := store.StatusFailed
	n, err := e.store.ConditionalUpdate(ctx, job.ID, lockKey, store.Fields{
		Status:       &failed,
		CompletedAt:  &now,
		Retries:      &attempts,
		ErrorMessage: &message,
		ClearLockKey: true,
		ClearLockExp: true,
	})
	if err != nil {
		return fmt.Errorf("engine: failed to fail job %d permanently: %w", job.ID, err)
	}
	if n == 0 {
		e.log.Warn("lease lost before permanent failure could be recorded", "job_id", job.ID)
		return ErrLeaseLost
	}
	return nil
}

// backoffDelay computes 2^attempts * 60 seconds. With MaxRetries=5, only
// attempts 1..4 ever reach this function (attempt 5 fails terminally in
// HandleFailure above), giving delays of 120, 240, 480, 960 seconds. This
// follows the source's code, not its comment - see spec §9's Open
// Questions and DESIGN.md.
func backoffDelay(attempts int) time.Duration {
	return time.Duration(1<<uint(attempts)) * 60 * time.Second
}
