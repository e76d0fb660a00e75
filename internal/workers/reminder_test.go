package workers

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/dropnote/dropnote/internal/queue"
	"github.com/google/uuid"
)

type fakeEventRepo struct {
	event *models.Event
	err   error
}

func (f *fakeEventRepo) Create(_ context.Context, _ *models.Event) error { return nil }

func (f *fakeEventRepo) GetByID(_ context.Context, _ uuid.UUID) (*models.Event, error) {
	return f.event, f.err
}

func (f *fakeEventRepo) List(_ context.Context, _, _ string) ([]*models.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) Update(_ context.Context, _ *models.Event) error { return nil }

func (f *fakeEventRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func TestProcessReminderJob(t *testing.T) {
	t.Parallel()

	eventID := uuid.New()
	repo := &fakeEventRepo{event: &models.Event{
		ID:       eventID,
		Title:    "Jordan 4 raffle",
		Site:     "SNKRS",
		StartsAt: "2026-09-05T09:00:00",
	}}
	notifier := &recordingNotifier{}
	reminder := NewEventReminder(repo, notifier)

	job := queue.NewEventReminderJob(eventID, time.Now().Add(-5*time.Minute), time.Now().Add(1*time.Hour))
	if err := reminder.ProcessReminderJob(context.Background(), job); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("Expected one announcement, got %d", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "Jordan 4 raffle") {
		t.Errorf("Expected announcement to mention the event, got %q", notifier.messages[0])
	}
	if !strings.Contains(notifier.messages[0], "SNKRS") {
		t.Errorf("Expected announcement to mention the site, got %q", notifier.messages[0])
	}
}

func TestProcessReminderJobExpired(t *testing.T) {
	t.Parallel()

	eventID := uuid.New()
	repo := &fakeEventRepo{err: fmt.Errorf("should not be called")}
	notifier := &recordingNotifier{}
	reminder := NewEventReminder(repo, notifier)

	job := queue.NewEventReminderJob(eventID, time.Now().Add(-2*time.Hour), time.Now().Add(-1*time.Hour))
	if err := reminder.ProcessReminderJob(context.Background(), job); err != nil {
		t.Fatalf("Expected expired job to be dropped silently, got %v", err)
	}
	if len(notifier.messages) != 0 {
		t.Error("Expected no announcement for an expired reminder")
	}
}

func TestProcessReminderJobMissingEventID(t *testing.T) {
	t.Parallel()

	reminder := NewEventReminder(&fakeEventRepo{}, nil)
	job := &queue.Job{ID: uuid.New(), Type: queue.JobTypeEventReminder}
	if err := reminder.ProcessReminderJob(context.Background(), job); err == nil {
		t.Error("Expected an error when event_id is missing")
	}
}

func TestProcessReminderJobNoNotifier(t *testing.T) {
	t.Parallel()

	eventID := uuid.New()
	repo := &fakeEventRepo{event: &models.Event{ID: eventID, Title: "x", Site: "y", StartsAt: "2026-09-05T09:00:00"}}
	reminder := NewEventReminder(repo, nil)

	job := queue.NewEventReminderJob(eventID, time.Now(), time.Now().Add(1*time.Hour))
	if err := reminder.ProcessReminderJob(context.Background(), job); err != nil {
		t.Errorf("Expected no error without a notifier, got %v", err)
	}
}
