package engine

import (
	"context"
	"fmt"

	"jobqueue/internal/store"
)

// Reap implements spec §4.6: unlock expired leases without incrementing
// retries (a crashed worker does not burn a retry attempt - the
// conservative alternative floated in spec §9 is explicitly not taken),
// then prune terminal rows past their retention window.
func (e *Engine) Reap(ctx context.Context) error {
	now := e.clock.Now()

	unlocked, err := e.store.UnlockExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("engine: unlock expired leases failed: %w", err)
	}
	if unlocked > 0 {
		e.log.Info("reaper unlocked expired leases", "count", unlocked)
	}

	completedCutoff := now.AddDate(0, 0, -e.cfg.CompletedRetentionDays)
	deletedCompleted, err := e.store.DeleteOlderThan(ctx, store.StatusCompleted, completedCutoff)
	if err != nil {
		return fmt.Errorf("engine: prune completed jobs failed: %w", err)
	}

	failedCutoff := now.AddDate(0, 0, -e.cfg.FailedRetentionDays)
	deletedFailed, err := e.store.DeleteOlderThan(ctx, store.StatusFailed, failedCutoff)
	if err != nil {
		return fmt.Errorf("engine: prune failed jobs failed: %w", err)
	}

	if deletedCompleted > 0 || deletedFailed > 0 {
		e.log.Info("reaper pruned terminal jobs", "completed", deletedCompleted, "failed", deletedFailed)
	}

	return nil
}
