package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/wanderlust-dev/wanderlust/internal/config"
	"github.com/wanderlust-dev/wanderlust/internal/database"
	"github.com/wanderlust-dev/wanderlust/internal/logger"
	"github.com/wanderlust-dev/wanderlust/internal/tasks"
	"github.com/wanderlust-dev/wanderlust/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	log.Info().Str("version", version).Msg("Starting Wanderlust Asynq worker")

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}

	// Initialize Asynq client (used by the purge scheduler)
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	defer asynqClient.Close()

	// Initialize Asynq server
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 10, // Number of concurrent workers
			Queues: map[string]int{
				"critical": 6, // 60% of workers for critical tasks
				"default":  3, // 30% of workers for default queue
				"low":      1, // 10% of workers for low priority
			},
			// Logging
			Logger: &asynqLogger{log: log},
		},
	)

	notifier := workers.LogNotifier{Logger: log.With().Str("component", "notify").Logger()}

	// Register task handlers
	mux := asynq.NewServeMux()

	mux.HandleFunc(tasks.TypeMessageNotify, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleMessageNotify(ctx, t, db, notifier, cfg.Jobs.AdminNotifyEmail, log)
	})
	mux.HandleFunc(tasks.TypePurgeRevokedTokens, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandlePurgeRevokedTokens(ctx, db, log)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start purge scheduler goroutine (enqueues a purge whenever the cron schedule is due)
	go workers.StartPurgeScheduler(ctx, asynqClient, cfg.Jobs.PurgeSchedule, log)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Asynq worker server failed")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")
	cancel()

	log.Info().Msg("Stopping Asynq worker - waiting for tasks to finish...")
	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger is a wrapper to make zerolog compatible with Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
