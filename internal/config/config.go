// Package config loads configuration for the queued daemon: database
// connection, HTTP port, and engine tunables. Values come from an
// optional YAML config file with environment variables taking
// precedence, the way cmd/queuectl and cmd/queued both expect.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for cmd/queued.
type Config struct {
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	// HTTPPort is the port the admin API listens on.
	HTTPPort int

	// WorkerConcurrency is the number of in-process worker goroutines
	// servicing AsyncTrigger nudges.
	WorkerConcurrency int

	// TriggerTransport selects the host.Host implementation: "inprocess"
	// (default) or "redis".
	TriggerTransport string

	// RedisURL is required when TriggerTransport is "redis".
	RedisURL string

	// MaxRetries is the terminal-failure threshold (spec §6).
	MaxRetries int

	// LeaseDuration is the reaper reclaim window (spec §6).
	LeaseDuration time.Duration

	// DispatchBatchSize is the number of jobs triggered per dispatcher tick.
	DispatchBatchSize int

	// CompletedRetentionDays and FailedRetentionDays bound reaper pruning.
	CompletedRetentionDays int
	FailedRetentionDays    int

	// HighPriorityThreshold is the priority at or below which Enqueue
	// triggers immediate async dispatch.
	HighPriorityThreshold int

	// OTELEndpoint is the OTLP collector address for tracing.
	OTELEndpoint string
}

// Load reads configuration from configPath (if non-empty) merged with
// environment variable overrides. Environment variables always win over
// the config file, the way QUEUED_* env vars override queued.yaml.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("http_port", 6161)
	v.SetDefault("worker_concurrency", 4)
	v.SetDefault("trigger_transport", "inprocess")
	v.SetDefault("max_retries", 5)
	v.SetDefault("lease_duration_seconds", 300)
	v.SetDefault("dispatch_batch_size", 10)
	v.SetDefault("completed_retention_days", 7)
	v.SetDefault("failed_retention_days", 30)
	v.SetDefault("high_priority_threshold", 3)
	v.SetDefault("otel_endpoint", "")

	mustBindEnv(v, "database_url", "DATABASE_URL")
	mustBindEnv(v, "http_port", "PORT")
	mustBindEnv(v, "worker_concurrency", "WORKER_CONCURRENCY")
	mustBindEnv(v, "trigger_transport", "TRIGGER_TRANSPORT")
	mustBindEnv(v, "redis_url", "REDIS_URL")
	mustBindEnv(v, "max_retries", "MAX_RETRIES")
	mustBindEnv(v, "lease_duration_seconds", "LEASE_DURATION_SECONDS")
	mustBindEnv(v, "dispatch_batch_size", "DISPATCH_BATCH_SIZE")
	mustBindEnv(v, "completed_retention_days", "COMPLETED_RETENTION_DAYS")
	mustBindEnv(v, "failed_retention_days", "FAILED_RETENTION_DAYS")
	mustBindEnv(v, "high_priority_threshold", "HIGH_PRIORITY_THRESHOLD")
	mustBindEnv(v, "otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	dbURL := v.GetString("database_url")
	if dbURL == "" {
		return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}

	transport := v.GetString("trigger_transport")
	redisURL := v.GetString("redis_url")
	if transport == "redis" && redisURL == "" {
		return nil, fmt.Errorf("redis_url is required when trigger_transport=redis")
	}

	return &Config{
		DatabaseURL:            dbURL,
		HTTPPort:               v.GetInt("http_port"),
		WorkerConcurrency:      v.GetInt("worker_concurrency"),
		TriggerTransport:       transport,
		RedisURL:               redisURL,
		MaxRetries:             v.GetInt("max_retries"),
		LeaseDuration:          time.Duration(v.GetInt("lease_duration_seconds")) * time.Second,
		DispatchBatchSize:      v.GetInt("dispatch_batch_size"),
		CompletedRetentionDays: v.GetInt("completed_retention_days"),
		FailedRetentionDays:    v.GetInt("failed_retention_days"),
		HighPriorityThreshold:  v.GetInt("high_priority_threshold"),
		OTELEndpoint:           v.GetString("otel_endpoint"),
	}, nil
}

func mustBindEnv(v *viper.Viper, key, env string) {
	if err := v.BindEnv(key, env); err != nil {
		panic(fmt.Sprintf("config: bad BindEnv(%s, %s): %v", key, env, err))
	}
}
