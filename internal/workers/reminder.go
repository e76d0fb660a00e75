package workers

import (
	"context"
	"fmt"
	"log"

	"github.com/dropnote/dropnote/internal/database"
	"github.com/dropnote/dropnote/internal/dateutil"
	"github.com/dropnote/dropnote/internal/queue"
)

// Notifier delivers an announcement to the community channel
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// EventReminder processes event reminder jobs
type EventReminder struct {
	eventRepo database.EventRepositoryInterface
	notifier  Notifier
}

// NewEventReminder creates a new event reminder
func NewEventReminder(eventRepo database.EventRepositoryInterface, notifier Notifier) *EventReminder {
	return &EventReminder{eventRepo: eventRepo, notifier: notifier}
}

// ProcessReminderJob announces an event shortly before it opens. Jobs that
// outlived their event are dropped without error.
func (r *EventReminder) ProcessReminderJob(ctx context.Context, job *queue.Job) error {
	if job.EventID == nil {
		return fmt.Errorf("event_id is required for reminder job")
	}

	if job.IsExpired() {
		log.Printf("Reminder for event %s expired, skipping", *job.EventID)
		return nil
	}

	event, err := r.eventRepo.GetByID(ctx, *job.EventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}

	if r.notifier == nil {
		log.Printf("No notifier configured, dropping reminder for event %s", event.ID)
		return nil
	}

	when := dateutil.ToDisplayFormat(event.StartsAt, "2006-01-02 15:04")
	msg := fmt.Sprintf("Reminder: %q on %s opens at %s", event.Title, event.Site, when)
	if err := r.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	return nil
}
