// Package registry binds job names to handlers. The engine never inspects
// a job's payload bytes itself; encoding and decoding live entirely on the
// Handler bound to that name.
package registry

import (
	"context"
	"errors"
	"sync"
)

// ErrUnknownHandler is returned by Lookup when no handler is registered
// for a job name, and by Register when called after the registry has been
// sealed.
var ErrUnknownHandler = errors.New("registry: unknown handler")

// ErrSealed is returned by Register once the registry has been sealed by
// Seal, since handlers are read-mostly and registered only at
// initialization.
var ErrSealed = errors.New("registry: sealed, cannot register after workers start")

// Handler is the capability a job name is bound to: decode the opaque
// payload bytes into whatever shape this handler expects, then invoke it.
type Handler interface {
	// Decode turns the stored job_data into the payload this handler
	// expects to receive. Decode errors are treated as handler failure.
	Decode(data []byte) (any, error)

	// Invoke runs the handler against a decoded payload. A non-nil error
	// is treated as handler failure and drives the retry/backoff state
	// machine.
	Invoke(ctx context.Context, payload any, jobID int64) error
}

// Registry maps job name to Handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	sealed   bool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds name to handler. It must be called before Seal; calling
// it afterward (i.e. after workers have started) returns ErrSealed.
func (r *Registry) Register(name string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}

	r.handlers[name] = handler
	return nil
}

// Seal prevents further registration. The engine calls this when it
// starts dispatching work.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Lookup returns the handler bound to name, or ErrUnknownHandler.
func (r *Registry) Lookup(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	if !ok {
		return nil, ErrUnknownHandler
	}
	return h, nil
}

// Known reports whether name has a registered handler, used by the
// Producer API to validate Enqueue calls up front.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[name]
	return ok
}
