package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// ErrAlreadyEntered is returned when a user enters the same giveaway twice
var ErrAlreadyEntered = fmt.Errorf("user already entered this giveaway")

// GiveawayRepository handles giveaway campaigns and their entries
type GiveawayRepository struct {
	db *DB
}

// NewGiveawayRepository creates a new giveaway repository
func NewGiveawayRepository(db *DB) *GiveawayRepository {
	return &GiveawayRepository{db: db}
}

// Create inserts a new giveaway
func (r *GiveawayRepository) Create(ctx context.Context, g *models.Giveaway) error {
	g.ID = uuid.New()
	g.Drawn = false
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	query := `
		INSERT INTO giveaways (id, title, description, starts_at, ends_at, winner_count, drawn, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		g.ID, g.Title, g.Description, g.StartsAt, g.EndsAt, g.WinnerCount, g.Drawn,
		g.CreatedBy, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create giveaway: %w", err)
	}

	return nil
}

// GetByID retrieves a giveaway by ID
func (r *GiveawayRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Giveaway, error) {
	query := `
		SELECT id, title, description, starts_at, ends_at, winner_count, drawn, created_by, created_at, updated_at
		FROM giveaways
		WHERE id = $1
	`

	g := &models.Giveaway{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Title, &g.Description, &g.StartsAt, &g.EndsAt, &g.WinnerCount,
		&g.Drawn, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("giveaway not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get giveaway: %w", err)
	}

	return g, nil
}

// List returns all giveaways, newest campaign first
func (r *GiveawayRepository) List(ctx context.Context) ([]*models.Giveaway, error) {
	query := `
		SELECT id, title, description, starts_at, ends_at, winner_count, drawn, created_by, created_at, updated_at
		FROM giveaways
		ORDER BY starts_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	defer rows.Close()

	var giveaways []*models.Giveaway
	for rows.Next() {
		g := &models.Giveaway{}
		err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.StartsAt, &g.EndsAt,
			&g.WinnerCount, &g.Drawn, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway: %w", err)
		}
		giveaways = append(giveaways, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating giveaways: %w", err)
	}

	return giveaways, nil
}

// AddEntry records a user's entry. A second entry for the same giveaway
// returns ErrAlreadyEntered.
func (r *GiveawayRepository) AddEntry(ctx context.Context, giveawayID, userID uuid.UUID) (*models.GiveawayEntry, error) {
	entry := &models.GiveawayEntry{
		ID:         uuid.New(),
		GiveawayID: giveawayID,
		UserID:     userID,
		CreatedAt:  time.Now(),
	}

	query := `
		INSERT INTO giveaway_entries (id, giveaway_id, user_id, won, created_at)
		VALUES ($1, $2, $3, false, $4)
		ON CONFLICT (giveaway_id, user_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, entry.ID, entry.GiveawayID, entry.UserID, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add giveaway entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check giveaway entry insert: %w", err)
	}
	if rows == 0 {
		return nil, ErrAlreadyEntered
	}

	return entry, nil
}

// ListEntries returns all entries for a giveaway in entry order
func (r *GiveawayRepository) ListEntries(ctx context.Context, giveawayID uuid.UUID) ([]*models.GiveawayEntry, error) {
	query := `
		SELECT id, giveaway_id, user_id, won, created_at
		FROM giveaway_entries
		WHERE giveaway_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaway entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.GiveawayEntry
	for rows.Next() {
		e := &models.GiveawayEntry{}
		err := rows.Scan(&e.ID, &e.GiveawayID, &e.UserID, &e.Won, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating giveaway entries: %w", err)
	}

	return entries, nil
}

// MarkWinners flags the given entries as winners and the giveaway as drawn,
// atomically. A giveaway already marked drawn is left untouched so the draw
// job stays idempotent.
func (r *GiveawayRepository) MarkWinners(ctx context.Context, giveawayID uuid.UUID, entryIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE giveaways SET drawn = true, updated_at = NOW() WHERE id = $1 AND drawn = false`,
		giveawayID)
	if err != nil {
		return fmt.Errorf("failed to mark giveaway drawn: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check draw update: %w", err)
	}
	if rows == 0 {
		// already drawn
		return nil
	}

	for _, entryID := range entryIDs {
		_, err := tx.ExecContext(ctx,
			`UPDATE giveaway_entries SET won = true WHERE id = $1 AND giveaway_id = $2`,
			entryID, giveawayID)
		if err != nil {
			return fmt.Errorf("failed to mark winning entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit winner selection: %w", err)
	}

	return nil
}
