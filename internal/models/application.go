package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus is the outcome of a raffle application
type ResultStatus string

const (
	// ResultPending means the raffle has not been decided yet
	ResultPending ResultStatus = "pending"
	// ResultWon means the user won the raffle
	ResultWon ResultStatus = "won"
	// ResultLost means the user lost the raffle
	ResultLost ResultStatus = "lost"
)

// Application represents one user's application to a drop event
type Application struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	EventID      uuid.UUID    `json:"event_id"`
	Applied      bool         `json:"applied"`
	ResultStatus ResultStatus `json:"result_status"`
	Profit       *float64     `json:"profit,omitempty"`
	AppliedAt    time.Time    `json:"applied_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Joined event fields, populated by list queries
	EventTitle string `json:"event_title,omitempty"`
	EventSite  string `json:"event_site,omitempty"`
}
