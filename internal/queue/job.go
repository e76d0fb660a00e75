package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeGiveawayDraw is a job for drawing giveaway winners after the
	// campaign closes
	JobTypeGiveawayDraw JobType = "giveaway_draw"
	// JobTypeEventReminder is a job for reminding members about an event
	// that is about to open
	JobTypeEventReminder JobType = "event_reminder"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	GiveawayID *uuid.UUID     `json:"giveaway_id,omitempty"` // Set for giveaway draw jobs
	EventID    *uuid.UUID     `json:"event_id,omitempty"`    // Set for event reminder jobs
	NotBefore  *time.Time     `json:"not_before,omitempty"`  // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`   // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`    // Job-specific data
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewGiveawayDrawJob creates a job that draws winners for a giveaway. The job
// is held until the campaign's end time.
func NewGiveawayDrawJob(giveawayID uuid.UUID, drawAt time.Time) *Job {
	job := newJob(JobTypeGiveawayDraw)
	job.GiveawayID = &giveawayID
	job.NotBefore = &drawAt
	return job
}

// NewEventReminderJob creates a job that announces an event shortly before it
// opens. The job expires once the event has started.
func NewEventReminderJob(eventID uuid.UUID, remindAt, startsAt time.Time) *Job {
	job := newJob(JobTypeEventReminder)
	job.EventID = &eventID
	job.NotBefore = &remindAt
	job.NotAfter = &startsAt
	return job
}

func newJob(jobType JobType) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
