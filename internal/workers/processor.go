package workers

import (
	"context"
	"fmt"

	"github.com/dropnote/dropnote/internal/queue"
	"go.uber.org/zap"
)

// Processor routes queue messages to the job handlers and owns the
// ack/nack/retry decision
type Processor struct {
	drawer   *GiveawayDrawer
	reminder *EventReminder
	logger   *zap.Logger
}

// NewProcessor creates a new processor
func NewProcessor(drawer *GiveawayDrawer, reminder *EventReminder, logger *zap.Logger) *Processor {
	return &Processor{drawer: drawer, reminder: reminder, logger: logger}
}

// ProcessMessage handles one queue message. Expired jobs are acked and
// dropped. Failed jobs are requeued until their retries are exhausted, then
// dead-lettered.
func (p *Processor) ProcessMessage(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		p.logger.Info("job_expired",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		if err := msg.Ack(); err != nil {
			p.logger.Warn("failed_to_ack_expired_job", zap.Error(err))
		}
		return nil
	}

	if !job.ShouldProcess() {
		// Not due yet: requeue
		if err := msg.Nack(true); err != nil {
			p.logger.Warn("failed_to_requeue_early_job", zap.Error(err))
		}
		return nil
	}

	var err error
	switch job.Type {
	case queue.JobTypeGiveawayDraw:
		err = p.drawer.ProcessDrawJob(ctx, job)
	case queue.JobTypeEventReminder:
		err = p.reminder.ProcessReminderJob(ctx, job)
	default:
		// Unknown types go straight to the DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		job.IncrementRetry()
		requeue := job.CanRetry()
		p.logger.Error("job_processing_failed",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		if nackErr := msg.Nack(requeue); nackErr != nil {
			p.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return err
	}

	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Warn("failed_to_ack_job", zap.Error(ackErr))
	}
	return nil
}
