package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// ChatHistoryRepository stores assistant conversation turns. The log is
// append-only and strictly per-user.
type ChatHistoryRepository struct {
	db *DB
}

// NewChatHistoryRepository creates a new chat history repository
func NewChatHistoryRepository(db *DB) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

// Append persists one conversation turn
func (r *ChatHistoryRepository) Append(ctx context.Context, userID uuid.UUID, role models.TurnRole, message string, tokensUsed int) (*models.ConversationTurn, error) {
	turn := &models.ConversationTurn{
		ID:         uuid.New(),
		UserID:     userID,
		Role:       role,
		Message:    message,
		TokensUsed: tokensUsed,
		CreatedAt:  time.Now(),
	}

	query := `
		INSERT INTO conversation_turns (id, user_id, role, message, tokens_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		turn.ID, turn.UserID, turn.Role, turn.Message, turn.TokensUsed, turn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append conversation turn: %w", err)
	}

	return turn, nil
}

// Recent returns the user's last limit turns in chronological order. The query
// selects newest-first so the limit trims old turns, then the slice is reversed
// before returning.
func (r *ChatHistoryRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, role, message, tokens_used, created_at
		FROM conversation_turns
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation turns: %w", err)
	}
	defer rows.Close()

	var turns []*models.ConversationTurn
	for rows.Next() {
		t := &models.ConversationTurn{}
		err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Message, &t.TokensUsed, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation turn: %w", err)
		}
		turns = append(turns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation turns: %w", err)
	}

	reverseTurns(turns)

	return turns, nil
}

// reverseTurns flips a newest-first result set into chronological order in
// place.
func reverseTurns(turns []*models.ConversationTurn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
