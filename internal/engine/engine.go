// Package engine is the queue engine: the persistent job record's
// surrounding machinery - the atomic claim-and-lease algorithm, the
// retry/backoff state machine, the lease-expiry reaper, and the periodic
// dispatch loop. This is the "core" of spec.md §1: everything here must
// stay correct under concurrent contention from many workers, including
// crash-recovery paths.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jobqueue/internal/clock"
	"jobqueue/internal/host"
	"jobqueue/internal/registry"
	"jobqueue/internal/store"
)

// Config holds the tunables named in spec §6.
type Config struct {
	MaxRetries             int           // default 5
	LeaseDuration          time.Duration // default 300s
	DispatchBatchSize      int           // default 10
	CompletedRetentionDays int           // default 7
	FailedRetentionDays    int           // default 30
	HighPriorityThreshold  int           // default 3
	DispatchTimerInterval  host.Interval // default every_minute
	ReaperTimerInterval    host.Interval // default daily
}

// DefaultConfig returns the configuration spec §6 names as defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:             store.MaxRetries,
		LeaseDuration:          300 * time.Second,
		DispatchBatchSize:      10,
		CompletedRetentionDays: 7,
		FailedRetentionDays:    30,
		HighPriorityThreshold:  3,
		DispatchTimerInterval:  host.IntervalEveryMinute,
		ReaperTimerInterval:    host.IntervalDaily,
	}
}

// Engine is the explicit handle that replaces the source's process-wide
// singleton (spec §9): an engine instance is constructed with a store
// handle, clock, registry, and host, then passed to producers, workers,
// and admin callers rather than reached for as global state.
type Engine struct {
	cfg      Config
	store    store.Store
	clock    clock.Clock
	registry *registry.Registry
	host     host.Host
	log      *slog.Logger

	mu               sync.Mutex
	recurring        map[string]string // jobName -> timer name
	dispatchTimerOn  bool
	reaperTimerOn    bool
}

// New constructs an Engine. Handlers must be registered on registry
// before Start is called; Start seals the registry.
func New(s store.Store, c clock.Clock, r *registry.Registry, h host.Host, cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:       cfg,
		store:     s,
		clock:     c,
		registry:  r,
		host:      h,
		log:       log,
		recurring: make(map[string]string),
	}
}

// Start seals the registry and registers the Dispatcher and Reaper
// timers with the host. It does not block.
func (e *Engine) Start() error {
	e.registry.Seal()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.dispatchTimerOn {
		if err := e.host.RegisterTimer("dispatch", e.cfg.DispatchTimerInterval, e.dispatchTick); err != nil {
			return fmt.Errorf("engine: failed to register dispatch timer: %w", err)
		}
		e.dispatchTimerOn = true
	}

	if !e.reaperTimerOn {
		if err := e.host.RegisterTimer("reap", e.cfg.ReaperTimerInterval, e.reapTick); err != nil {
			return fmt.Errorf("engine: failed to register reap timer: %w", err)
		}
		e.reaperTimerOn = true
	}

	return nil
}

// Stop unregisters every timer the engine owns, including recurring
// producer timers. It does not attempt to cancel in-flight handler
// invocations; graceful shutdown at the worker level just means "stop
// accepting new claims", per spec §5.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dispatchTimerOn {
		e.host.UnregisterTimer("dispatch")
		e.dispatchTimerOn = false
	}
	if e.reaperTimerOn {
		e.host.UnregisterTimer("reap")
		e.reaperTimerOn = false
	}
	for _, timerName := range e.recurring {
		e.host.UnregisterTimer(timerName)
	}
	e.recurring = make(map[string]string)
}

func (e *Engine) dispatchTick() {
	ctx := context.Background()
	if err := e.Dispatch(ctx); err != nil {
		e.log.Error("dispatch tick failed", "error", err)
	}
}

func (e *Engine) reapTick() {
	ctx := context.Background()
	if err := e.Reap(ctx); err != nil {
		e.log.Error("reap tick failed", "error", err)
	}
}
