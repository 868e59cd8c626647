package engine

import (
	"context"
	"errors"
	"log/slog"
	"io"
	"sync"
	"testing"
	"time"

	"jobqueue/internal/clock"
	"jobqueue/internal/host"
	"jobqueue/internal/registry"
	"jobqueue/internal/store"
	"jobqueue/internal/storetest"
)

// fakeHost captures triggers and timer registrations without running any
// goroutines, so tests can drive dispatch/reap deterministically instead
// of racing real tickers.
type fakeHost struct {
	mu       sync.Mutex
	triggers []*int64
	timers   map[string]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{timers: make(map[string]bool)}
}

func (h *fakeHost) AsyncTrigger(jobID *int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.triggers = append(h.triggers, jobID)
}

func (h *fakeHost) RegisterTimer(name string, interval host.Interval, fn func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timers[name] {
		return errors.New("already registered")
	}
	h.timers[name] = true
	return nil
}

func (h *fakeHost) UnregisterTimer(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.timers, name)
}

func (h *fakeHost) RandomToken(bits int) (string, error) {
	return host.RandomToken(bits)
}

func (h *fakeHost) triggerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.triggers)
}

// scriptedHandler returns a different outcome on each successive Invoke,
// the way the "retry then succeed" scenario (spec §8.2) needs.
type scriptedHandler struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (h *scriptedHandler) Decode(data []byte) (any, error) { return data, nil }

func (h *scriptedHandler) Invoke(ctx context.Context, payload any, jobID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var err error
	if h.calls < len(h.results) {
		err = h.results[h.calls]
	}
	h.calls++
	return err
}

func testEngine(t *testing.T) (*Engine, *storetest.Memory, *clock.Fake, *fakeHost, *registry.Registry) {
	t.Helper()
	s := storetest.New()
	c := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	h := newFakeHost()
	r := registry.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(s, c, r, h, DefaultConfig(), log)
	return e, s, c, h, r
}

func TestEnqueueDispatchComplete(t *testing.T) {
	e, _, c, _, r := testEngine(t)
	_ = r.Register("hello", &scriptedHandler{})

	ctx := context.Background()
	id, err := e.Enqueue(ctx, "hello", []byte(`{"x":1}`), 0, 5)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	job, err := e.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if job.ID != id {
		t.Fatalf("claimed wrong job: got %d, want %d", job.ID, id)
	}

	if err := e.Run(ctx, job); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	final, err := e.store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status != store.StatusCompleted {
		t.Errorf("got status %s, want completed", final.Status)
	}
	if final.StartedAt == nil || final.CompletedAt == nil {
		t.Error("expected started_at and completed_at to be set")
	}
	if final.ErrorMessage != nil {
		t.Errorf("expected nil error_message, got %q", *final.ErrorMessage)
	}
	_ = c
}

func TestRetryThenSucceed(t *testing.T) {
	e, _, c, _, r := testEngine(t)
	handler := &scriptedHandler{results: []error{errors.New("boom"), errors.New("boom again")}}
	_ = r.Register("flaky", handler)

	ctx := context.Background()
	id, err := e.Enqueue(ctx, "flaky", nil, 0, 5)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// Attempt 1: fails, reschedules 120s out.
	job, err := e.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if err := e.Run(ctx, job); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	c.Advance(120 * time.Second)

	// Attempt 2: fails, reschedules 240s out.
	job, err = e.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext (attempt 2) failed: %v", err)
	}
	if err := e.Run(ctx, job); err != nil {
		t.Fatalf("Run (attempt 2) failed: %v", err)
	}
	c.Advance(240 * time.Second)

	// Attempt 3: succeeds.
	job, err = e.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext (attempt 3) failed: %v", err)
	}
	if err := e.Run(ctx, job); err != nil {
		t.Fatalf("Run (attempt 3) failed: %v", err)
	}

	final, err := e.store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status != store.StatusCompleted {
		t.Errorf("got status %s, want completed", final.Status)
	}
	if final.Retries != 2 {
		t.Errorf("got retries %d, want 2", final.Retries)
	}
}

func TestPermanentFailure(t *testing.T) {
	e, _, c, _, r := testEngine(t)
	handler := &scriptedHandler{results: []error{
		errors.New("1"), errors.New("2"), errors.New("3"), errors.New("4"), errors.New("5"),
	}}
	_ = r.Register("doomed", handler)

	ctx := context.Background()
	id, err := e.Enqueue(ctx, "doomed", nil, 0, 5)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	delays := []time.Duration{120, 240, 480, 960, 0}
	for i, d := range delays {
		job, err := e.ClaimNext(ctx)
		if err != nil {
			t.Fatalf("ClaimNext (attempt %d) failed: %v", i+1, err)
		}
		if err := e.Run(ctx, job); err != nil {
			t.Fatalf("Run (attempt %d) failed: %v", i+1, err)
		}
		if d > 0 {
			c.Advance(d * time.Second)
		}
	}

	final, err := e.store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status != store.StatusFailed {
		t.Errorf("got status %s, want failed", final.Status)
	}
	if final.Retries != 5 {
		t.Errorf("got retries %d, want 5", final.Retries)
	}
	if final.ErrorMessage == nil {
		t.Error("expected error_message to be captured")
	}
}

func TestCrashRecovery(t *testing.T) {
	e, s, c, _, r := testEngine(t)
	_ = r.Register("crashy", &scriptedHandler{})

	ctx := context.Background()
	id, err := e.Enqueue(ctx, "crashy", nil, 0, 5)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	job, err := e.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext failed: %v", err)
	}
	if job.ID != id {
		t.Fatalf("claimed wrong job")
	}
	// Worker "dies" here: never finalizes.

	c.Advance(301 * time.Second)

	if err := e.Reap(ctx); err != nil {
		t.Fatalf("Reap failed: %v", err)
	}

	reaped, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reaped.Status != store.StatusPending {
		t.Errorf("got status %s, want pending", reaped.Status)
	}
	if reaped.LockKey != nil {
		t.Error("expected lock_key to be cleared")
	}
	if reaped.Retries != 0 {
		t.Errorf("got retries %d, want unchanged 0", reaped.Retries)
	}

	again, err := e.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext after reap failed: %v", err)
	}
	if again.ID != id {
		t.Errorf("expected to reclaim the same job")
	}
}

func TestConcurrentClaim_ExactlyOneWinner(t *testing.T) {
	e, _, _, _, r := testEngine(t)
	_ = r.Register("solo", &scriptedHandler{})

	ctx := context.Background()
	if _, err := e.Enqueue(ctx, "solo", nil, 0, 5); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	const workers = 100
	var wg sync.WaitGroup
	var wins, losses int32
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ClaimNext(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.Is(err, ErrNoJob) {
				losses++
			} else {
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("got %d winners, want exactly 1", wins)
	}
	if losses != workers-1 {
		t.Errorf("got %d losers, want %d", losses, workers-1)
	}
}

func TestAdminRetry(t *testing.T) {
	e, s, c, fh, r := testEngine(t)
	_ = r.Register("anything", &scriptedHandler{})

	ctx := context.Background()
	id, err := e.Enqueue(ctx, "anything", nil, 0, 5)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	failed := store.StatusFailed
	retries := 5
	msg := "permanently dead"
	now := c.Now()
	if _, err := s.UpdateByID(ctx, id, store.Fields{
		Status:       &failed,
		Retries:      &retries,
		ErrorMessage: &msg,
		CompletedAt:  &now,
	}); err != nil {
		t.Fatalf("seed update failed: %v", err)
	}

	if err := e.Retry(ctx, id); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}

	final, err := s.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status != store.StatusPending {
		t.Errorf("got status %s, want pending", final.Status)
	}
	if final.Retries != 0 {
		t.Errorf("got retries %d, want 0", final.Retries)
	}
	if final.ErrorMessage != nil {
		t.Errorf("expected nil error_message, got %q", *final.ErrorMessage)
	}
	if fh.triggerCount() == 0 {
		t.Error("expected Retry to nudge a dispatch trigger")
	}
}

func TestPriorityClamp(t *testing.T) {
	e, s, _, _, r := testEngine(t)
	_ = r.Register("clamped", &scriptedHandler{})
	ctx := context.Background()

	lowID, err := e.Enqueue(ctx, "clamped", nil, 0, 0)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	highID, err := e.Enqueue(ctx, "clamped", nil, 0, 99)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	low, _ := s.GetByID(ctx, lowID)
	high, _ := s.GetByID(ctx, highID)
	if low.Priority != 1 {
		t.Errorf("got priority %d, want clamped to 1", low.Priority)
	}
	if high.Priority != 10 {
		t.Errorf("got priority %d, want clamped to 10", high.Priority)
	}
}

func TestUnknownHandlerAtEnqueue(t *testing.T) {
	e, _, _, _, _ := testEngine(t)
	ctx := context.Background()

	_, err := e.Enqueue(ctx, "nope", nil, 0, 5)
	if !errors.Is(err, ErrUnknownHandler) {
		t.Errorf("got %v, want ErrUnknownHandler", err)
	}
}

func TestDispatchTriggersReadyJobs(t *testing.T) {
	e, _, _, fh, r := testEngine(t)
	_ = r.Register("ready", &scriptedHandler{})
	ctx := context.Background()

	// priority 5, delay 0 is below HighPriorityThreshold? threshold default
	// 3, so priority 5 does NOT trigger immediately on Enqueue.
	if _, err := e.Enqueue(ctx, "ready", nil, 0, 5); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	before := fh.triggerCount()
	if err := e.Dispatch(ctx); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if fh.triggerCount() <= before {
		t.Error("expected Dispatch to trigger the ready job")
	}
}

func TestDispatch_FutureScheduledJobsDoNotStarveReadyWork(t *testing.T) {
	e, s, c, fh, r := testEngine(t)
	_ = r.Register("crowd", &scriptedHandler{})
	_ = r.Register("ready", &scriptedHandler{})
	ctx := context.Background()

	// Fill the dispatch batch with high-priority jobs scheduled far in the
	// future, then enqueue one ready low-priority job behind them.
	batchSize := DefaultConfig().DispatchBatchSize
	for i := 0; i < batchSize; i++ {
		if _, err := e.Enqueue(ctx, "crowd", nil, 3600, 1); err != nil {
			t.Fatalf("Enqueue (crowd %d) failed: %v", i, err)
		}
	}
	readyID, err := e.Enqueue(ctx, "ready", nil, 0, 10)
	if err != nil {
		t.Fatalf("Enqueue (ready) failed: %v", err)
	}

	if err := e.Dispatch(ctx); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	var sawReady bool
	for _, id := range fh.triggers {
		if id != nil && *id == readyID {
			sawReady = true
		}
	}
	if !sawReady {
		t.Error("expected the ready job to be triggered despite a full batch of future-scheduled jobs ahead of it")
	}
	_ = s
	_ = c
}

func TestScheduleRecurring_IdempotentPerName(t *testing.T) {
	e, _, _, _, r := testEngine(t)
	_ = r.Register("tick", &scriptedHandler{})

	ok, err := e.ScheduleRecurring("tick", nil, host.IntervalHourly, 5)
	if err != nil {
		t.Fatalf("ScheduleRecurring failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first registration to succeed")
	}

	ok, err = e.ScheduleRecurring("tick", nil, host.IntervalHourly, 5)
	if err != nil {
		t.Fatalf("ScheduleRecurring (second call) failed: %v", err)
	}
	if ok {
		t.Error("expected second registration for the same job name to be a no-op")
	}
}
