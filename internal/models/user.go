package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a community member authenticated through Discord
type User struct {
	ID        uuid.UUID `json:"id"`
	DiscordID string    `json:"discord_id"`
	Username  string    `json:"username"`
	Avatar    *string   `json:"avatar,omitempty"`
	Member    bool      `json:"member"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
