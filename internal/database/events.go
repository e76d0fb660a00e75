package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// EventRepository handles drop event database operations. Event datetimes are
// stored as naive local strings; no timezone arithmetic happens here.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	event.ID = uuid.New()
	query := `
		INSERT INTO events (id, title, site, url, starts_at, ends_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		event.ID,
		event.Title,
		event.Site,
		event.URL,
		event.StartsAt,
		event.EndsAt,
		event.CreatedBy,
		now,
		now,
	).Scan(&event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event := &models.Event{}
	var url sql.NullString

	query := `
		SELECT id, title, site, url, starts_at, ends_at, created_by, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Site,
		&url,
		&event.StartsAt,
		&event.EndsAt,
		&event.CreatedBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if url.Valid {
		event.URL = &url.String
	}

	return event, nil
}

// List retrieves events ordered by start time, optionally bounded to a
// naive-local date range (inclusive from, exclusive to; empty = unbounded).
func (r *EventRepository) List(ctx context.Context, from, to string) ([]*models.Event, error) {
	query := `
		SELECT id, title, site, url, starts_at, ends_at, created_by, created_at, updated_at
		FROM events
	`
	var args []any
	argIndex := 1

	// Lexicographic comparison is valid for the fixed-width storage shape.
	if from != "" {
		query += fmt.Sprintf(" WHERE starts_at >= $%d", argIndex)
		args = append(args, from)
		argIndex++
	}
	if to != "" {
		if argIndex == 1 {
			query += fmt.Sprintf(" WHERE starts_at < $%d", argIndex)
		} else {
			query += fmt.Sprintf(" AND starts_at < $%d", argIndex)
		}
		args = append(args, to)
	}

	query += " ORDER BY starts_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		var url sql.NullString
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Site,
			&url,
			&event.StartsAt,
			&event.EndsAt,
			&event.CreatedBy,
			&event.CreatedAt,
			&event.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if url.Valid {
			event.URL = &url.String
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// Update updates an existing event
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET title = $2, site = $3, url = $4, starts_at = $5, ends_at = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		event.ID,
		event.Title,
		event.Site,
		event.URL,
		event.StartsAt,
		event.EndsAt,
		time.Now(),
	).Scan(&event.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("event not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return nil
}

// Delete deletes an event by ID
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("event not found")
	}

	return nil
}
