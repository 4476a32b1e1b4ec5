package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Contact form submissions are relayed to the admin inbox out of band
	TypeMessageNotify = "message:notify"

	// Expired entries in the revoked-token table are removed on a schedule
	TypePurgeRevokedTokens = "tokens:purge_revoked"
)

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	MessageID string `json:"message_id,omitempty"`
}

// NewMessageNotifyTask creates a task announcing a new contact message
func NewMessageNotifyTask(messageID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		MessageID: messageID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeMessageNotify, payload), nil
}

// NewPurgeRevokedTokensTask creates a task that deletes revoked tokens past their expiry
func NewPurgeRevokedTokensTask() *asynq.Task {
	return asynq.NewTask(TypePurgeRevokedTokens, nil)
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
