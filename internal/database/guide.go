package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dropnote/dropnote/internal/models"
)

// GuideRepository loads the static reference documents the assistant injects
// into its prompt
type GuideRepository struct {
	db *DB
}

// NewGuideRepository creates a new guide repository
func NewGuideRepository(db *DB) *GuideRepository {
	return &GuideRepository{db: db}
}

// GetBySlug returns the guide document for a slug. A missing document is not
// an error for callers that treat the guide as optional; they get nil.
func (r *GuideRepository) GetBySlug(ctx context.Context, slug string) (*models.GuideDocument, error) {
	query := `
		SELECT id, slug, content, updated_at
		FROM guide_documents
		WHERE slug = $1
	`

	doc := &models.GuideDocument{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&doc.ID, &doc.Slug, &doc.Content, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guide document: %w", err)
	}

	return doc, nil
}
