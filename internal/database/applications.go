package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// ApplicationRepository handles raffle application database operations
type ApplicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create records a user's application to an event
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (id, user_id, event_id, applied, result_status, profit, applied_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING applied_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		app.ID,
		app.UserID,
		app.EventID,
		app.Applied,
		app.ResultStatus,
		nullFloat(app.Profit),
		now,
		now,
	).Scan(&app.AppliedAt, &app.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	query := `
		SELECT a.id, a.user_id, a.event_id, a.applied, a.result_status, a.profit, a.applied_at, a.updated_at,
		       e.title, e.site
		FROM applications a
		JOIN events e ON e.id = a.event_id
		WHERE a.id = $1
	`

	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("application not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// GetByUserID retrieves a user's applications, most recent first
func (r *ApplicationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Application, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT a.id, a.user_id, a.event_id, a.applied, a.result_status, a.profit, a.applied_at, a.updated_at,
		       e.title, e.site
		FROM applications a
		JOIN events e ON e.id = a.event_id
		WHERE a.user_id = $1
		ORDER BY a.applied_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}

	return apps, nil
}

// UpdateResult sets the outcome (and optional resale profit) of an application
func (r *ApplicationRepository) UpdateResult(ctx context.Context, id uuid.UUID, status models.ResultStatus, profit *float64) error {
	query := `
		UPDATE applications
		SET result_status = $2, profit = $3, updated_at = $4
		WHERE id = $1
		RETURNING updated_at
	`

	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, id, status, nullFloat(profit), time.Now()).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("application not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update application result: %w", err)
	}

	return nil
}

// Delete removes an application
func (r *ApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("application not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	app := &models.Application{}
	var profit sql.NullFloat64

	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.EventID,
		&app.Applied,
		&app.ResultStatus,
		&profit,
		&app.AppliedAt,
		&app.UpdatedAt,
		&app.EventTitle,
		&app.EventSite,
	)
	if err != nil {
		return nil, err
	}

	if profit.Valid {
		app.Profit = &profit.Float64
	}

	return app, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
