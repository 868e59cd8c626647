// Package redishost implements host.Host's AsyncTrigger over a Redis list
// so an out-of-process worker fleet can BLPOP for a dispatch hint instead
// of sharing an in-process goroutine pool with the producer. Timers and
// RandomToken are unchanged from the in-process default; only the
// trigger transport differs.
package redishost

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"jobqueue/internal/host"
)

const triggerKey = "jobqueue:dispatch:triggers"

// Host is a host.Host whose AsyncTrigger pushes onto a Redis list.
type Host struct {
	rdb *redis.Client

	mu     sync.Mutex
	timers map[string]chan struct{}
}

// New creates a Redis-backed Host against an already-configured client.
func New(rdb *redis.Client) *Host {
	return &Host{rdb: rdb, timers: make(map[string]chan struct{})}
}

type triggerMessage struct {
	JobID *int64 `json:"job_id,omitempty"`
}

// AsyncTrigger RPUSHes a hint onto the trigger list. It never blocks the
// caller on Redis latency; failures are swallowed since a trigger is only
// ever a hint - the Dispatcher's next tick is the fallback.
func (h *Host) AsyncTrigger(jobID *int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		payload, err := json.Marshal(triggerMessage{JobID: jobID})
		if err != nil {
			return
		}
		h.rdb.RPush(ctx, triggerKey, payload)
	}()
}

// Listen blocks popping trigger messages (BLPOP) and invoking onTrigger
// for each, until ctx is cancelled. This is what an out-of-process worker
// fleet runs instead of the in-process goroutine pool.
func (h *Host) Listen(ctx context.Context, onTrigger func(jobID *int64)) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		res, err := h.rdb.BLPop(ctx, 5*time.Second, triggerKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("redishost: blpop failed: %w", err)
		}

		if len(res) < 2 {
			continue
		}

		var msg triggerMessage
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			continue
		}
		onTrigger(msg.JobID)
	}
}

func (h *Host) RegisterTimer(name string, interval host.Interval, fn func()) error {
	d, err := interval.Duration()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.timers[name]; exists {
		return fmt.Errorf("redishost: timer %q already registered", name)
	}

	stop := make(chan struct{})
	h.timers[name] = stop

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return nil
}

func (h *Host) UnregisterTimer(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if stop, ok := h.timers[name]; ok {
		close(stop)
		delete(h.timers, name)
	}
}

func (h *Host) RandomToken(bits int) (string, error) {
	return host.RandomToken(bits)
}

var _ host.Host = (*Host)(nil)
