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

const jobColumns = `id, job_name, job_data, priority, status, created_at, scheduled_at, started_at, completed_at, retries, error_message, lock_key, lock_expiration`

func scanJob(row interface{ Scan(dest ...any) error }) (*store.Job, error) {
	var j store.Job
	err := row.Scan(
		&j.ID, &j.JobName, &j.JobData, &j.Priority, &j.Status,
		&j.CreatedAt, &j.ScheduledAt, &j.StartedAt, &j.CompletedAt,
		&j.Retries, &j.ErrorMessage, &j.LockKey, &j.LockExpiration,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Insert atomically inserts a new job and returns its generated id.
func (s *Store) Insert(ctx context.Context, job *store.Job) (int64, error) {
	query := `
		INSERT INTO jobs (job_name, job_data, priority, status, scheduled_at, retries)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		job.JobName, job.JobData, job.Priority, store.StatusPending, job.ScheduledAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert job %q: %w", job.JobName, err)
	}

	return id, nil
}

// GetByID returns a job by id.
func (s *Store) GetByID(ctx context.Context, id int64) (*store.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	j, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job %d: %w", id, err)
	}

	return j, nil
}

// UpdateByID applies an unconditional partial update.
func (s *Store) UpdateByID(ctx context.Context, id int64, fields store.Fields) (int64, error) {
	set, args := buildSetClause(fields)
	if len(set) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`UPDATE jobs SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args)+1)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update job %d: %w", id, err)
	}

	return res.RowsAffected()
}

// DeleteByID deletes a job regardless of its current status.
func (s *Store) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete job %d: %w", id, err)
	}
	return res.RowsAffected()
}

// List returns up to limit jobs, optionally filtered by status, ordered
// for dispatch (priority ASC, scheduled_at ASC).
func (s *Store) List(ctx context.Context, statusFilter *store.Status, limit int) ([]*store.Job, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []interface{}{}

	if statusFilter != nil {
		query += ` WHERE status = $1`
		args = append(args, *statusFilter)
	}

	query += fmt.Sprintf(` ORDER BY priority ASC, scheduled_at ASC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*store.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// ListReady returns up to limit pending jobs whose scheduled_at is at or
// before now, ordered for dispatch (priority ASC, scheduled_at ASC).
func (s *Store) ListReady(ctx context.Context, now time.Time, limit int) ([]*store.Job, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY priority ASC, scheduled_at ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, store.StatusPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ready jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*store.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// CountByStatus returns the number of jobs in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[store.Status]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	defer rows.Close()

	counts := map[store.Status]int64{
		store.StatusPending:    0,
		store.StatusProcessing: 0,
		store.StatusCompleted:  0,
		store.StatusFailed:     0,
	}

	for rows.Next() {
		var status store.Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// buildSetClause turns a Fields partial update into a SET clause and its
// positional args, the way the teacher builds explicit UPDATE statements
// per-field rather than overwriting whole rows.
func buildSetClause(fields store.Fields) ([]string, []interface{}) {
	var set []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Status != nil {
		add("status", *fields.Status)
	}
	if fields.ScheduledAt != nil {
		add("scheduled_at", *fields.ScheduledAt)
	}
	if fields.StartedAt != nil {
		add("started_at", *fields.StartedAt)
	}
	if fields.CompletedAt != nil {
		add("completed_at", *fields.CompletedAt)
	}
	if fields.Retries != nil {
		add("retries", *fields.Retries)
	}
	if fields.ErrorMessage != nil {
		add("error_message", *fields.ErrorMessage)
	} else if fields.ClearErrorMsg {
		set = append(set, "error_message = NULL")
	}
	if fields.LockKey != nil {
		add("lock_key", *fields.LockKey)
	} else if fields.ClearLockKey {
		set = append(set, "lock_key = NULL")
	}
	if fields.LockExpiration != nil {
		add("lock_expiration", *fields.LockExpiration)
	} else if fields.ClearLockExp {
		set = append(set, "lock_expiration = NULL")
	}

	return set, args
}
