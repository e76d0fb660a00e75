package models

import (
	"time"

	"github.com/google/uuid"
)

// Giveaway is a simple campaign: members enter, winners are drawn at close
type Giveaway struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	WinnerCount int       `json:"winner_count"`
	Drawn       bool      `json:"drawn"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GiveawayEntry records one user's entry. A user may enter a giveaway once.
type GiveawayEntry struct {
	ID         uuid.UUID `json:"id"`
	GiveawayID uuid.UUID `json:"giveaway_id"`
	UserID     uuid.UUID `json:"user_id"`
	Won        bool      `json:"won"`
	CreatedAt  time.Time `json:"created_at"`
}
