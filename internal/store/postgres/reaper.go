package postgres

import (
	"context"
	"fmt"
	"time"

	"jobqueue/internal/store"
)

// UnlockExpired resets any processing row whose lease has expired back to
// pending, clearing its lock. retries is deliberately NOT incremented: a
// crashed worker does not burn a retry attempt.
func (s *Store) UnlockExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE jobs
		SET status = $1, lock_key = NULL, lock_expiration = NULL
		WHERE status = $2 AND lock_expiration < $3
	`

	res, err := s.db.ExecContext(ctx, query, store.StatusPending, store.StatusProcessing, now)
	if err != nil {
		return 0, fmt.Errorf("failed to unlock expired leases: %w", err)
	}

	return res.RowsAffected()
}

// DeleteOlderThan deletes terminal rows of the given status whose
// completed_at predates the cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, status store.Status, cutoff time.Time) (int64, error) {
	query := `DELETE FROM jobs WHERE status = $1 AND completed_at < $2`

	res, err := s.db.ExecContext(ctx, query, status, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s jobs: %w", status, err)
	}

	return res.RowsAffected()
}
