package models

import (
	"time"

	"github.com/google/uuid"
)

// GuideDocument is a static reference document injected into the assistant's
// prompt when the user's question matches the guide vocabulary
type GuideDocument struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}
