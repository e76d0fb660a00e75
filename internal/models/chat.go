package models

import (
	"time"

	"github.com/google/uuid"
)

// TurnRole identifies who produced a conversation turn
type TurnRole string

const (
	// RoleUser marks a turn written by the user
	RoleUser TurnRole = "user"
	// RoleAssistant marks a turn written by the assistant
	RoleAssistant TurnRole = "assistant"
)

// ConversationTurn is one immutable entry in a user's assistant transcript.
// Turns are append-only and ordered by CreatedAt; there is no cross-user visibility.
type ConversationTurn struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Role       TurnRole  `json:"role"`
	Message    string    `json:"message"`
	TokensUsed int       `json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
}

// TokenUsage is the per-user-per-day token ledger row. TokensUsed only ever
// increases within a day; the row is created lazily on first use and retained
// for audit. Quotas reset implicitly at local-calendar-day boundaries because
// the row key includes the date.
type TokenUsage struct {
	UserID     uuid.UUID `json:"user_id"`
	UsageDate  string    `json:"usage_date"` // local calendar day, "YYYY-MM-DD"
	TokensUsed int       `json:"tokens_used"`
	DailyLimit int       `json:"daily_limit"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Remaining returns the unspent quota for the day, floored at zero.
func (t *TokenUsage) Remaining() int {
	remaining := t.DailyLimit - t.TokensUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
