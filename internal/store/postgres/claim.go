package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobqueue/internal/store"
)

// ClaimNext atomically selects the highest-priority, earliest-scheduled
// eligible job and transfers it to processing with a fresh lease, in a
// single UPDATE driven by a correlated subquery with FOR UPDATE SKIP
// LOCKED. This is the one statement that elects exactly one worker per job
// under concurrent contention.
func (s *Store) ClaimNext(ctx context.Context, now time.Time, lockKey string, leaseDuration time.Duration) (*store.Job, error) {
	leaseExpiration := now.Add(leaseDuration)

	query := `
		UPDATE jobs
		SET status = $1, started_at = $2, lock_key = $3, lock_expiration = $4
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = $5
			  AND scheduled_at <= $2
			  AND (lock_key IS NULL OR lock_expiration < $2)
			ORDER BY priority ASC, scheduled_at ASC, id ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + jobColumns

	j, err := scanJob(s.db.QueryRowContext(ctx, query,
		store.StatusProcessing, now, lockKey, leaseExpiration, store.StatusPending,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoJob
		}
		return nil, fmt.Errorf("failed to claim next job: %w", err)
	}

	return j, nil
}

// ConditionalUpdate applies a partial update only if the job's current
// lock_key still matches lockKey. A worker whose lease was reaped and then
// finalizes late will get rowsAffected == 0 here rather than corrupting a
// row another claimant now owns.
func (s *Store) ConditionalUpdate(ctx context.Context, id int64, lockKey string, fields store.Fields) (int64, error) {
	set, args := buildSetClause(fields)
	if len(set) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		`UPDATE jobs SET %s WHERE id = $%d AND lock_key = $%d`,
		strings.Join(set, ", "), len(args)+1, len(args)+2,
	)
	args = append(args, id, lockKey)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to conditionally update job %d: %w", id, err)
	}

	return res.RowsAffected()
}
