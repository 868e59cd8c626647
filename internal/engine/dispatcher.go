package engine

import (
	"context"
	"fmt"
)

// Dispatch implements spec §4.5: scan for up to DispatchBatchSize ready
// pending jobs and nudge a worker for each. The batch is drawn only from
// jobs whose scheduled_at has already arrived, so a glut of future-
// scheduled high-priority jobs can never crowd ready work out of the
// batch. The Dispatcher never claims a job itself - claim happens inside
// whichever worker answers the nudge - so two overlapping dispatch ticks
// targeting the same job race harmlessly; exactly one of them wins the
// claim.
func (e *Engine) Dispatch(ctx context.Context) error {
	now := e.clock.Now()

	jobs, err := e.store.ListReady(ctx, now, e.cfg.DispatchBatchSize)
	if err != nil {
		return fmt.Errorf("engine: dispatch list failed: %w", err)
	}

	for _, job := range jobs {
		id := job.ID
		e.host.AsyncTrigger(&id)
	}

	return nil
}
