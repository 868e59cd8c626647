// Package jobs ships a small set of built-in handlers so cmd/queued is
// runnable out of the box. Real deployments are expected to register
// their own handlers on the same registry before calling Engine.Start,
// the way spec §9 leaves handler implementations to the embedding host.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Noop decodes nothing and does nothing. It exists for smoke-testing a
// fresh deployment's claim and dispatch path without any side effects.
type Noop struct{}

func (Noop) Decode(data []byte) (any, error) { return data, nil }

func (Noop) Invoke(ctx context.Context, payload any, jobID int64) error { return nil }

// LogMessagePayload is the JSON payload LogMessage expects.
type LogMessagePayload struct {
	Message string `json:"message"`
}

// LogMessage writes its payload's message field to the given logger.
// It is the simplest handler that actually exercises the payload
// decode path end to end.
type LogMessage struct {
	Log *slog.Logger
}

func (LogMessage) Decode(data []byte) (any, error) {
	var p LogMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("jobs: decoding log_message payload: %w", err)
	}
	return p, nil
}

func (h LogMessage) Invoke(ctx context.Context, payload any, jobID int64) error {
	p, ok := payload.(LogMessagePayload)
	if !ok {
		return fmt.Errorf("jobs: log_message got unexpected payload type %T", payload)
	}
	log := h.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("log_message", "job_id", jobID, "message", p.Message)
	return nil
}
