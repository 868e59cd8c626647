package engine

import (
	"context"
	"errors"
	"fmt"

	"jobqueue/internal/store"
)

// ErrNoJob is returned by ClaimNext when no eligible job is currently
// available. It is not an error condition; callers should simply retry
// later (the Dispatcher's next tick, or the worker's own poll loop).
var ErrNoJob = store.ErrNoJob

// ClaimNext generates a fresh lock key and atomically claims the highest-
// priority, earliest-scheduled eligible job, installing a lease of
// cfg.LeaseDuration. This is spec §4.3's claim algorithm in full: the
// atomicity guarantee itself lives in Store.ClaimNext (a single UPDATE
// statement); this layer only supplies the random lock key and the lease
// window.
func (e *Engine) ClaimNext(ctx context.Context) (*store.Job, error) {
	lockKey, err := e.host.RandomToken(128)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to generate lock key: %w", err)
	}

	now := e.clock.Now()
	job, err := e.store.ClaimNext(ctx, now, lockKey, e.cfg.LeaseDuration)
	if err != nil {
		if errors.Is(err, store.ErrNoJob) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("engine: claim failed: %w", err)
	}

	return job, nil
}
