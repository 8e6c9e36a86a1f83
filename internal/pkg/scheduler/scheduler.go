// Package scheduler runs one-shot deferred deletions of delivered messages.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/metrics"
)

const DefaultDelay = time.Hour

const deleteTimeout = 15 * time.Second

// Deleter removes a previously sent message.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

type Scheduler interface {
	ScheduleDeletion(ctx context.Context, chatID int64, messageID int, delay time.Duration) error
}

// Job is one pending deletion.
type Job struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	MessageID int       `json:"message_id"`
	DueAt     time.Time `json:"due_at"`
}

func newJob(chatID int64, messageID int, due time.Time) Job {
	return Job{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		MessageID: messageID,
		DueAt:     due,
	}
}

// execute runs a job once. Failures are logged and dropped.
func execute(ctx context.Context, d Deleter, job Job, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	if err := d.DeleteMessage(ctx, job.ChatID, job.MessageID); err != nil {
		metrics.DeletionsTotal.WithLabelValues("failed").Inc()
		logger.Warn("scheduled deletion failed",
			zap.String("job_id", job.ID),
			zap.Int64("chat_id", job.ChatID),
			zap.Int("message_id", job.MessageID),
			zap.Error(err),
		)
		return
	}
	metrics.DeletionsTotal.WithLabelValues("deleted").Inc()
	logger.Debug("scheduled deletion done",
		zap.String("job_id", job.ID),
		zap.Int64("chat_id", job.ChatID),
		zap.Int("message_id", job.MessageID),
	)
}
