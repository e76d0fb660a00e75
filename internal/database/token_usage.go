package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// TokenUsageRepository tracks per-user daily token consumption for the
// assistant. One row per (user, local calendar day), created lazily on first
// use and never deleted.
type TokenUsageRepository struct {
	db           *DB
	defaultLimit int
}

// NewTokenUsageRepository creates a new token usage repository. defaultLimit
// seeds daily_limit on lazily created rows.
func NewTokenUsageRepository(db *DB, defaultLimit int) *TokenUsageRepository {
	return &TokenUsageRepository{db: db, defaultLimit: defaultLimit}
}

// DefaultLimit returns the per-day limit applied to new usage rows
func (r *TokenUsageRepository) DefaultLimit() int {
	return r.defaultLimit
}

// today returns the local calendar day key
func today() string {
	return time.Now().Format("2006-01-02")
}

// GetToday returns today's usage row for the user, or nil when the user has
// not consumed any tokens today
func (r *TokenUsageRepository) GetToday(ctx context.Context, userID uuid.UUID) (*models.TokenUsage, error) {
	query := `
		SELECT user_id, usage_date, tokens_used, daily_limit, created_at, updated_at
		FROM token_usage
		WHERE user_id = $1 AND usage_date = $2
	`

	usage := &models.TokenUsage{}
	err := r.db.QueryRowContext(ctx, query, userID, today()).Scan(
		&usage.UserID, &usage.UsageDate, &usage.TokensUsed, &usage.DailyLimit,
		&usage.CreatedAt, &usage.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token usage: %w", err)
	}

	return usage, nil
}

// IncrementToday adds tokens to today's row, creating it with the default
// limit when absent. The increment is monotonic; usage is never decremented.
func (r *TokenUsageRepository) IncrementToday(ctx context.Context, userID uuid.UUID, tokens int) error {
	query := `
		INSERT INTO token_usage (user_id, usage_date, tokens_used, daily_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, usage_date)
		DO UPDATE SET tokens_used = token_usage.tokens_used + $3, updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, userID, today(), tokens, r.defaultLimit)
	if err != nil {
		return fmt.Errorf("failed to increment token usage: %w", err)
	}

	return nil
}
