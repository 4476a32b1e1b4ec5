package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/models"
	"github.com/wanderlust-dev/wanderlust/internal/tasks"
)

// Enqueuer is the part of *asynq.Client the scheduler uses
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// HandlePurgeRevokedTokens deletes revocation records whose token has expired anyway
func HandlePurgeRevokedTokens(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	result := db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to purge revoked tokens: %w", result.Error)
	}

	logger.Info().Int64("deleted", result.RowsAffected).Msg("Purged expired revoked tokens")
	return nil
}

// StartPurgeScheduler checks every minute whether the cron schedule is due and
// enqueues a purge task when it is. It returns when ctx is cancelled.
func StartPurgeScheduler(ctx context.Context, client Enqueuer, schedule string, logger zerolog.Logger) {
	next := calculateNextRun(schedule, time.Now())
	if next == nil {
		logger.Error().Str("schedule", schedule).Msg("Invalid purge schedule - scheduler disabled")
		return
	}
	logger.Info().Str("schedule", schedule).Time("next_run", *next).Msg("Purge scheduler started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			next = checkAndEnqueuePurge(ctx, client, schedule, *next, now, logger)
		}
	}
}

// checkAndEnqueuePurge enqueues the purge when due and returns the next run time
func checkAndEnqueuePurge(ctx context.Context, client Enqueuer, schedule string, due, now time.Time, logger zerolog.Logger) *time.Time {
	if now.Before(due) {
		return &due
	}

	// Unique keeps a slow worker from piling up duplicate purges
	if _, err := client.EnqueueContext(ctx, tasks.NewPurgeRevokedTokensTask(),
		asynq.Queue("low"), asynq.Unique(time.Hour)); err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue purge task")
	} else {
		logger.Info().Msg("Purge task enqueued")
	}

	return calculateNextRun(schedule, now)
}

// calculateNextRun calculates next run time from cron schedule
func calculateNextRun(cronExpr string, from time.Time) *time.Time {
	if cronExpr == "" {
		return nil
	}

	// Parse cron expression (standard 5-field format: minute hour day-of-month month day-of-week)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil
	}

	next := schedule.Next(from)
	return &next
}
