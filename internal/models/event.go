package models

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a raffle or advance-sale drop on the community calendar.
// StartsAt and EndsAt are naive local datetime strings ("YYYY-MM-DDTHH:mm:ss").
// The storage layer records wall-clock local time and the dateutil package
// normalizes between storage, input and display shapes without timezone math.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Site      string    `json:"site"`
	URL       *string   `json:"url,omitempty"`
	StartsAt  string    `json:"starts_at"`
	EndsAt    string    `json:"ends_at"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
