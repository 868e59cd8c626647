// Package main is the entry point for queued, the queue engine daemon.
// It wires the Postgres store, the in-process (or Redis) trigger
// transport, the engine, and the admin HTTP API together, then blocks
// until a termination signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobqueue/internal/adminapi"
	"jobqueue/internal/clock"
	"jobqueue/internal/config"
	"jobqueue/internal/engine"
	"jobqueue/internal/host"
	"jobqueue/internal/host/redishost"
	"jobqueue/internal/jobs"
	"jobqueue/internal/logger"
	"jobqueue/internal/observability"
	"jobqueue/internal/registry"
	"jobqueue/internal/store"
	"jobqueue/internal/store/postgres"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file (default: env vars only)")
	apiKey := flag.String("api-key-hash", "", "SHA-256 hash of the admin API key (disables auth if empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log := logger.New()

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *migrateFlag {
		log.Info("running database migrations")
		if err := postgres.Migrate(db.DB()); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations completed")
	}

	shutdownTracer, err := observability.Init(ctx, "queued", cfg.OTELEndpoint)
	if err != nil {
		log.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Error("failed to shutdown metrics", "error", err)
		}
	}()

	meter := otel.Meter("queued")
	_, err = meter.Int64ObservableGauge("queue.depth",
		metric.WithDescription("Number of pending or processing jobs"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			counts, err := db.CountByStatus(ctx)
			if err != nil {
				log.Error("failed to observe queue depth", "error", err)
				return nil
			}
			obs.Observe(counts[store.StatusPending] + counts[store.StatusProcessing])
			return nil
		}),
	)
	if err != nil {
		log.Error("failed to register queue depth metric", "error", err)
	}

	reg := registry.New()
	mustRegister(reg, "noop", jobs.Noop{})
	mustRegister(reg, "log_message", jobs.LogMessage{Log: log})

	// eng is wired up below, but the in-process host's trigger callback
	// needs to call back into it, so the variable is declared first and
	// captured by reference; no trigger fires until Start, by which point
	// eng is assigned.
	var eng *engine.Engine

	var h host.Host
	switch cfg.TriggerTransport {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		rh := redishost.New(rdb)
		h = rh

		for i := 0; i < cfg.WorkerConcurrency; i++ {
			go func() {
				if err := rh.Listen(ctx, func(jobID *int64) {
					runClaimedJob(ctx, eng, log)
				}); err != nil {
					log.Error("redis listen loop stopped", "error", err)
				}
			}()
		}
	default:
		h = host.NewInProcess(cfg.WorkerConcurrency, cfg.WorkerConcurrency*4, func(jobID *int64) {
			runClaimedJob(ctx, eng, log)
		})
	}

	eng = engine.New(db, clock.System{}, reg, h, engine.Config{
		MaxRetries:             cfg.MaxRetries,
		LeaseDuration:          cfg.LeaseDuration,
		DispatchBatchSize:      cfg.DispatchBatchSize,
		CompletedRetentionDays: cfg.CompletedRetentionDays,
		FailedRetentionDays:    cfg.FailedRetentionDays,
		HighPriorityThreshold:  cfg.HighPriorityThreshold,
		DispatchTimerInterval:  host.IntervalEveryMinute,
		ReaperTimerInterval:    host.IntervalDaily,
	}, log)

	if err := eng.Start(); err != nil {
		log.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := adminapi.New(addr, eng, adminapi.Options{
		Pinger:         db,
		APIKeyHash:     *apiKey,
		RateLimit:      50,
		RateLimitBurst: 100,
	})

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		log.Info("metrics listening", "addr", ":6162")
		if err := http.ListenAndServe(":6162", mux); err != nil {
			log.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		log.Info("queued starting", "addr", addr)
		if err := srv.Run(ctx); err != nil {
			log.Error("admin server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	eng.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server forced to shutdown", "error", err)
	}
	log.Info("queued exited properly")
}

// runClaimedJob claims the next eligible job, if any, and runs it to
// completion. This is the callback the in-process host's worker pool
// invokes on every AsyncTrigger and is also what would back an
// out-of-process worker listening on redishost.Listen.
func runClaimedJob(ctx context.Context, eng *engine.Engine, log *slog.Logger) {
	job, err := eng.ClaimNext(ctx)
	if err != nil {
		if err != engine.ErrNoJob {
			log.Error("claim failed", "error", err)
		}
		return
	}
	if err := eng.Run(ctx, job); err != nil {
		log.Error("job run failed", "job_id", job.ID, "job_name", job.JobName, "error", err)
	}
}

func mustRegister(reg *registry.Registry, name string, h registry.Handler) {
	if err := reg.Register(name, h); err != nil {
		log.Fatalf("failed to register handler %q: %v", name, err)
	}
}
