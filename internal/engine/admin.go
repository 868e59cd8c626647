package engine

import (
	"context"
	"fmt"

	"jobqueue/internal/store"
)

// List implements spec §6's Admin API read path.
func (e *Engine) List(ctx context.Context, statusFilter *store.Status, limit int) ([]*store.Job, error) {
	jobs, err := e.store.List(ctx, statusFilter, limit)
	if err != nil {
		return nil, fmt.Errorf("engine: admin list failed: %w", err)
	}
	return jobs, nil
}

// CountByStatus implements spec §6's Admin API count path.
func (e *Engine) CountByStatus(ctx context.Context) (map[store.Status]int64, error) {
	counts, err := e.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: admin count failed: %w", err)
	}
	return counts, nil
}

// Retry resets a job to pending with retries=0, scheduled_at=now, and
// clears error and lock, then nudges a dispatch so it does not wait for
// the next Dispatcher tick.
func (e *Engine) Retry(ctx context.Context, id int64) error {
	pending := store.StatusPending
	zero := 0
	now := e.clock.Now()

	n, err := e.store.UpdateByID(ctx, id, store.Fields{
		Status:        &pending,
		ScheduledAt:   &now,
		Retries:       &zero,
		ClearErrorMsg: true,
		ClearLockKey:  true,
		ClearLockExp:  true,
	})
	if err != nil {
		return fmt.Errorf("engine: admin retry failed for job %d: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	e.host.AsyncTrigger(&id)
	return nil
}

// Cancel implements spec §6's hard delete, regardless of current status.
// If the job is processing, the running handler is not signaled; its
// eventual ConditionalUpdate will find rowsAffected == 0 and no-op.
func (e *Engine) Cancel(ctx context.Context, id int64) error {
	n, err := e.store.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("engine: admin cancel failed for job %d: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
