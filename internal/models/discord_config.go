package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscordConfig represents Discord OAuth and membership-gating configuration.
// MemberRoleIDs is comma-separated; a guild member holding any of the listed
// roles counts as a member. An empty list means guild membership alone is enough.
type DiscordConfig struct {
	ID            uuid.UUID `json:"id"`
	ClientID      string    `json:"client_id"`
	ClientSecret  *string   `json:"client_secret,omitempty"`
	RedirectURI   string    `json:"redirect_uri"`
	GuildID       string    `json:"guild_id"`
	MemberRoleIDs string    `json:"member_role_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
