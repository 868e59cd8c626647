// Package host defines the contracts the engine expects from its
// embedding host (spec §6): a non-blocking dispatch nudge, a periodic
// timer driver, and a secure random token source. The engine core never
// implements HTTP handling, an admin UI, or a CLI - those stay with
// whatever embeds it - but it needs a concrete Host to actually run, so
// this package also ships the default in-process implementation used by
// cmd/queued.
package host

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// Interval names the cadences the engine's own timers need. A host must
// support at least these.
type Interval string

const (
	IntervalEveryMinute Interval = "every_minute"
	IntervalHourly      Interval = "hourly"
	IntervalTwiceDaily  Interval = "twicedaily"
	IntervalDaily       Interval = "daily"
)

// Duration returns the approximate cadence of an Interval.
func (i Interval) Duration() (time.Duration, error) {
	switch i {
	case IntervalEveryMinute:
		return time.Minute, nil
	case IntervalHourly:
		return time.Hour, nil
	case IntervalTwiceDaily:
		return 12 * time.Hour, nil
	case IntervalDaily:
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("host: unknown interval %q", i)
	}
}

// Host is the set of capabilities the engine requires from its embedder.
type Host interface {
	// AsyncTrigger is a fire-and-forget hint that a worker should run
	// soon. jobID is optional context for logging; it does not change
	// dispatch semantics, since claiming still happens inside the worker.
	AsyncTrigger(jobID *int64)

	// RegisterTimer installs a periodic callback under name, firing
	// approximately every interval, until UnregisterTimer(name) is called.
	RegisterTimer(name string, interval Interval, fn func()) error

	// UnregisterTimer stops and removes a previously registered timer.
	// It is a no-op if name is not registered.
	UnregisterTimer(name string)

	// RandomToken returns a cryptographically secure random token with at
	// least bits of entropy, base64url-encoded.
	RandomToken(bits int) (string, error)
}

// RandomToken is the shared crypto/rand-backed implementation used by
// every Host in this package.
func RandomToken(bits int) (string, error) {
	if bits <= 0 {
		bits = 128
	}
	buf := make([]byte, (bits+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("host: failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// InProcess is the default Host: AsyncTrigger enqueues onto an in-process
// worker pool (a buffered channel serviced by N goroutines), and timers
// are plain time.Ticker loops. This collapses the source's self-HTTP-call
// trigger transport into a work channel, per spec §9.
type InProcess struct {
	mu      sync.Mutex
	timers  map[string]chan struct{}
	trigger chan *int64
}

// NewInProcess creates a Host whose AsyncTrigger sends onto a buffered
// channel of the given capacity. onTrigger is invoked by workerCount
// goroutines for every trigger received; stop cancels those goroutines.
func NewInProcess(workerCount, bufferSize int, onTrigger func(jobID *int64)) *InProcess {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}

	h := &InProcess{
		timers:  make(map[string]chan struct{}),
		trigger: make(chan *int64, bufferSize),
	}

	for i := 0; i < workerCount; i++ {
		go func() {
			for jobID := range h.trigger {
				onTrigger(jobID)
			}
		}()
	}

	return h
}

func (h *InProcess) AsyncTrigger(jobID *int64) {
	select {
	case h.trigger <- jobID:
	default:
		// A trigger is already pending; the worker pool is not blocked on
		// producers, so a dropped redundant nudge costs nothing - the next
		// dispatcher tick or claim attempt will find the same work.
	}
}

func (h *InProcess) RegisterTimer(name string, interval Interval, fn func()) error {
	d, err := interval.Duration()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.timers[name]; exists {
		return fmt.Errorf("host: timer %q already registered", name)
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

func (h *InProcess) UnregisterTimer(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if stop, ok := h.timers[name]; ok {
		close(stop)
		delete(h.timers, name)
	}
}

func (h *InProcess) RandomToken(bits int) (string, error) {
	return RandomToken(bits)
}

// Close stops accepting new triggers and shuts down all worker goroutines.
func (h *InProcess) Close() {
	close(h.trigger)
}
