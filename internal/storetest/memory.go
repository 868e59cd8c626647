// Package storetest provides an in-memory store.Store implementation used
// by engine tests to exercise the claim/retry/reap state machine without
// a live Postgres instance, the way the teacher's worker tests fake
// store.Queue by hand rather than reaching for a mocking framework.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"jobqueue/internal/store"
)

// Memory is a concurrency-safe, in-memory store.Store.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*store.Job
}

// New creates an empty Memory store.
func New() *Memory {
	return &Memory{jobs: make(map[int64]*store.Job)}
}

func clone(j *store.Job) *store.Job {
	cp := *j
	return &cp
}

func (m *Memory) Insert(ctx context.Context, job *store.Job) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID

	cp := clone(job)
	cp.ID = id
	cp.Status = store.StatusPending
	cp.CreatedAt = time.Now()
	cp.Retries = 0
	m.jobs[id] = cp

	return id, nil
}

func (m *Memory) GetByID(ctx context.Context, id int64) (*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(j), nil
}

func applyFields(j *store.Job, f store.Fields) {
	if f.Status != nil {
		j.Status = *f.Status
	}
	if f.ScheduledAt != nil {
		j.ScheduledAt = *f.ScheduledAt
	}
	if f.StartedAt != nil {
		j.StartedAt = f.StartedAt
	}
	if f.CompletedAt != nil {
		j.CompletedAt = f.CompletedAt
	}
	if f.Retries != nil {
		j.Retries = *f.Retries
	}
	if f.ErrorMessage != nil {
		j.ErrorMessage = f.ErrorMessage
	} else if f.ClearErrorMsg {
		j.ErrorMessage = nil
	}
	if f.LockKey != nil {
		j.LockKey = f.LockKey
	} else if f.ClearLockKey {
		j.LockKey = nil
	}
	if f.LockExpiration != nil {
		j.LockExpiration = f.LockExpiration
	} else if f.ClearLockExp {
		j.LockExpiration = nil
	}
}

func (m *Memory) UpdateByID(ctx context.Context, id int64, fields store.Fields) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return 0, nil
	}
	applyFields(j, fields)
	return 1, nil
}

func (m *Memory) DeleteByID(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return 0, nil
	}
	delete(m.jobs, id)
	return 1, nil
}

// ClaimNext mirrors the semantics of the Postgres correlated-subquery
// UPDATE: under the store's single mutex, at most one caller can ever
// observe and claim a given eligible row, which is what makes the
// concurrent-claim property (spec §8) hold here too.
func (m *Memory) ClaimNext(ctx context.Context, now time.Time, lockKey string, leaseDuration time.Duration) (*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var candidates []*store.Job
	for _, j := range m.jobs {
		if j.Status != store.StatusPending {
			continue
		}
		if j.ScheduledAt.After(now) {
			continue
		}
		if j.LockKey != nil && j.LockExpiration != nil && !j.LockExpiration.Before(now) {
			continue
		}
		candidates = append(candidates, j)
	}

	if len(candidates) == 0 {
		return nil, store.ErrNoJob
	}

	sort.Slice(candidates, func(i, k int) bool {
		a, b := candidates[i], candidates[k]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.ScheduledAt.Equal(b.ScheduledAt) {
			return a.ScheduledAt.Before(b.ScheduledAt)
		}
		return a.ID < b.ID
	})

	chosen := candidates[0]
	chosen.Status = store.StatusProcessing
	chosen.StartedAt = &now
	key := lockKey
	chosen.LockKey = &key
	exp := now.Add(leaseDuration)
	chosen.LockExpiration = &exp

	return clone(chosen), nil
}

func (m *Memory) ConditionalUpdate(ctx context.Context, id int64, lockKey string, fields store.Fields) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return 0, nil
	}
	if j.LockKey == nil || *j.LockKey != lockKey {
		return 0, nil
	}
	applyFields(j, fields)
	return 1, nil
}

func (m *Memory) UnlockExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, j := range m.jobs {
		if j.Status == store.StatusProcessing && j.LockExpiration != nil && j.LockExpiration.Before(now) {
			j.Status = store.StatusPending
			j.LockKey = nil
			j.LockExpiration = nil
			count++
		}
	}
	return count, nil
}

func (m *Memory) DeleteOlderThan(ctx context.Context, status store.Status, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, j := range m.jobs {
		if j.Status == status && j.CompletedAt != nil && j.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			count++
		}
	}
	return count, nil
}

func (m *Memory) List(ctx context.Context, statusFilter *store.Status, limit int) ([]*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*store.Job
	for _, j := range m.jobs {
		if statusFilter != nil && j.Status != *statusFilter {
			continue
		}
		out = append(out, clone(j))
	}

	sort.Slice(out, func(i, k int) bool {
		a, b := out[i], out[k]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ScheduledAt.Before(b.ScheduledAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ListReady(ctx context.Context, now time.Time, limit int) ([]*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*store.Job
	for _, j := range m.jobs {
		if j.Status != store.StatusPending {
			continue
		}
		if j.ScheduledAt.After(now) {
			continue
		}
		out = append(out, clone(j))
	}

	sort.Slice(out, func(i, k int) bool {
		a, b := out[i], out[k]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ScheduledAt.Before(b.ScheduledAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CountByStatus(ctx context.Context) (map[store.Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := map[store.Status]int64{
		store.StatusPending:    0,
		store.StatusProcessing: 0,
		store.StatusCompleted:  0,
		store.StatusFailed:     0,
	}
	for _, j := range m.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

var _ store.Store = (*Memory)(nil)
