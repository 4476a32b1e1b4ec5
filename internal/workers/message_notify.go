package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wanderlust-dev/wanderlust/internal/models"
	"github.com/wanderlust-dev/wanderlust/internal/tasks"
)

// Notifier delivers a new-message alert to the site owner
type Notifier interface {
	NotifyMessage(ctx context.Context, to string, msg *models.Message) error
}

// LogNotifier writes the alert to the structured log, which ships to the
// operator's log pipeline. It is the default until a mail provider is configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

// NotifyMessage implements Notifier
func (n LogNotifier) NotifyMessage(ctx context.Context, to string, msg *models.Message) error {
	n.Logger.Info().
		Str("to", to).
		Str("message_id", msg.ID).
		Str("from_name", msg.Name).
		Str("from_email", msg.Email).
		Str("phone", msg.Phone).
		Str("subject", msg.Subject).
		Msg("New contact message")
	return nil
}

// HandleMessageNotify sends the alert for one message. Messages already
// notified are skipped, so retries never double-send.
func HandleMessageNotify(ctx context.Context, t *asynq.Task, db *gorm.DB, notifier Notifier, to string, logger zerolog.Logger) error {
	payload, err := tasks.ParseTaskPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := logger.With().Str("message_id", payload.MessageID).Logger()

	var msg models.Message
	if err := db.WithContext(ctx).Where("id = ?", payload.MessageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Msg("Message deleted before notification - skipping")
			return nil
		}
		return fmt.Errorf("failed to load message: %w", err)
	}

	if msg.NotifiedAt != nil {
		log.Debug().Time("notified_at", *msg.NotifiedAt).Msg("Message already notified")
		return nil
	}

	if err := notifier.NotifyMessage(ctx, to, &msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&msg).Update("notified_at", now).Error; err != nil {
		return fmt.Errorf("failed to mark message notified: %w", err)
	}

	log.Info().Msg("Message notification sent")
	return nil
}
