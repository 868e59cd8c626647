package engine

import (
	"context"
	"fmt"
	"time"

	"jobqueue/internal/host"
	"jobqueue/internal/store"
)

// Enqueue implements spec §4.2: validate the handler is known, clamp
// priority, compute scheduled_at, insert as pending, and optionally nudge
// an immediate async trigger for high-priority, undelayed work.
func (e *Engine) Enqueue(ctx context.Context, jobName string, payload []byte, delaySeconds int, priority int) (int64, error) {
	if !e.registry.Known(jobName) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownHandler, jobName)
	}

	priority = clampPriority(priority)
	now := e.clock.Now()
	scheduledAt := now.Add(time.Duration(delaySeconds) * time.Second)

	job := &store.Job{
		JobName:     jobName,
		JobData:     payload,
		Priority:    priority,
		ScheduledAt: scheduledAt,
	}

	id, err := e.store.Insert(ctx, job)
	if err != nil {
		return 0, fmt.Errorf("engine: enqueue failed: %w", err)
	}

	if priority <= e.cfg.HighPriorityThreshold && delaySeconds == 0 {
		e.host.AsyncTrigger(&id)
	}

	return id, nil
}

func clampPriority(p int) int {
	if p < store.MinPriority {
		return store.MinPriority
	}
	if p > store.MaxPriority {
		return store.MaxPriority
	}
	return p
}

// ScheduleRecurring implements spec §4.2: register a timer that
// repeatedly calls Enqueue at the stated interval. It is idempotent per
// jobName - a second call while a timer for that name already exists
// returns false without re-registering.
func (e *Engine) ScheduleRecurring(jobName string, payload []byte, interval host.Interval, priority int) (bool, error) {
	e.mu.Lock()
	if _, exists := e.recurring[jobName]; exists {
		e.mu.Unlock()
		return false, nil
	}
	timerName := "recurring:" + jobName
	e.mu.Unlock()

	fn := func() {
		ctx := context.Background()
		if _, err := e.Enqueue(ctx, jobName, payload, 0, priority); err != nil {
			e.log.Error("recurring enqueue failed", "job_name", jobName, "error", err)
		}
	}

	if err := e.host.RegisterTimer(timerName, interval, fn); err != nil {
		return false, fmt.Errorf("engine: failed to register recurring timer for %s: %w", jobName, err)
	}

	e.mu.Lock()
	e.recurring[jobName] = timerName
	e.mu.Unlock()

	return true, nil
}

// UnscheduleRecurring stops a previously registered recurring job, if
// any. Used by tests and by graceful shutdown paths that want to retire a
// single recurring job without tearing down the whole Engine.
func (e *Engine) UnscheduleRecurring(jobName string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	timerName, ok := e.recurring[jobName]
	if !ok {
		return
	}
	e.host.UnregisterTimer(timerName)
	delete(e.recurring, jobName)
}
