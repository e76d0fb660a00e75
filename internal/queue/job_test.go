package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewGiveawayDrawJob(t *testing.T) {
	t.Parallel()

	giveawayID := uuid.New()
	drawAt := time.Now().Add(1 * time.Hour)
	job := NewGiveawayDrawJob(giveawayID, drawAt)

	if job.Type != JobTypeGiveawayDraw {
		t.Errorf("Expected type %s, got %s", JobTypeGiveawayDraw, job.Type)
	}
	if job.GiveawayID == nil || *job.GiveawayID != giveawayID {
		t.Errorf("Expected giveaway ID %s, got %v", giveawayID, job.GiveawayID)
	}
	if job.EventID != nil {
		t.Error("Expected event ID to be nil for a draw job")
	}
	if job.NotBefore == nil || !job.NotBefore.Equal(drawAt) {
		t.Errorf("Expected NotBefore %v, got %v", drawAt, job.NotBefore)
	}
	if job.MaxRetries != 3 {
		t.Errorf("Expected max retries 3, got %d", job.MaxRetries)
	}
}

func TestNewEventReminderJob(t *testing.T) {
	t.Parallel()

	eventID := uuid.New()
	remindAt := time.Now().Add(30 * time.Minute)
	startsAt := time.Now().Add(1 * time.Hour)
	job := NewEventReminderJob(eventID, remindAt, startsAt)

	if job.Type != JobTypeEventReminder {
		t.Errorf("Expected type %s, got %s", JobTypeEventReminder, job.Type)
	}
	if job.EventID == nil || *job.EventID != eventID {
		t.Errorf("Expected event ID %s, got %v", eventID, job.EventID)
	}
	if job.NotAfter == nil || !job.NotAfter.Equal(startsAt) {
		t.Errorf("Expected NotAfter %v, got %v", startsAt, job.NotAfter)
	}
}

func TestJobShouldProcess(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-1 * time.Hour)
	future := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name      string
		notBefore *time.Time
		notAfter  *time.Time
		want      bool
	}{
		{name: "no window", want: true},
		{name: "not before in past", notBefore: &past, want: true},
		{name: "not before in future", notBefore: &future, want: false},
		{name: "not after in future", notAfter: &future, want: true},
		{name: "not after in past", notAfter: &past, want: false},
		{name: "inside window", notBefore: &past, notAfter: &future, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := NewGiveawayDrawJob(uuid.New(), time.Now())
			job.NotBefore = tt.notBefore
			job.NotAfter = tt.notAfter

			if got := job.ShouldProcess(); got != tt.want {
				t.Errorf("Expected ShouldProcess %v, got %v", tt.want, got)
			}
		})
	}
}

func TestJobIsExpired(t *testing.T) {
	t.Parallel()

	job := NewEventReminderJob(uuid.New(), time.Now().Add(-2*time.Hour), time.Now().Add(-1*time.Hour))
	if !job.IsExpired() {
		t.Error("Expected job past its NotAfter to be expired")
	}

	job = NewGiveawayDrawJob(uuid.New(), time.Now())
	if job.IsExpired() {
		t.Error("Expected job without NotAfter to never expire")
	}
}

func TestJobRetry(t *testing.T) {
	t.Parallel()

	job := NewGiveawayDrawJob(uuid.New(), time.Now())
	for i := 0; i < 3; i++ {
		if !job.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Error("Expected retries to be exhausted after max retries")
	}
}
