package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dropnote/dropnote/internal/models"
	"github.com/google/uuid"
)

// DiscordConfigRepository handles Discord OAuth configuration database operations
type DiscordConfigRepository struct {
	db *DB
}

// NewDiscordConfigRepository creates a new Discord config repository
func NewDiscordConfigRepository(db *DB) *DiscordConfigRepository {
	return &DiscordConfigRepository{db: db}
}

// Get retrieves the Discord configuration. There is a single row; callers that
// find none should fall back to environment configuration.
func (r *DiscordConfigRepository) Get(ctx context.Context) (*models.DiscordConfig, error) {
	query := `
		SELECT id, client_id, client_secret, redirect_uri, guild_id, member_role_ids, created_at, updated_at
		FROM discord_config
		ORDER BY updated_at DESC
		LIMIT 1
	`

	config := &models.DiscordConfig{}
	var secret sql.NullString
	err := r.db.QueryRowContext(ctx, query).Scan(
		&config.ID,
		&config.ClientID,
		&secret,
		&config.RedirectURI,
		&config.GuildID,
		&config.MemberRoleIDs,
		&config.CreatedAt,
		&config.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discord config: %w", err)
	}
	if secret.Valid {
		config.ClientSecret = &secret.String
	}

	return config, nil
}

// Set replaces the Discord configuration
func (r *DiscordConfigRepository) Set(ctx context.Context, config *models.DiscordConfig) error {
	if config.ClientID == "" {
		return fmt.Errorf("client_id cannot be empty")
	}
	if config.GuildID == "" {
		return fmt.Errorf("guild_id cannot be empty")
	}

	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	now := time.Now()

	query := `
		INSERT INTO discord_config (id, client_id, client_secret, redirect_uri, guild_id, member_role_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			redirect_uri = EXCLUDED.redirect_uri,
			guild_id = EXCLUDED.guild_id,
			member_role_ids = EXCLUDED.member_role_ids,
			updated_at = EXCLUDED.updated_at
	`

	var secret sql.NullString
	if config.ClientSecret != nil {
		secret = sql.NullString{String: *config.ClientSecret, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		config.ID, config.ClientID, secret, config.RedirectURI, config.GuildID,
		strings.TrimSpace(config.MemberRoleIDs), now, now)
	if err != nil {
		return fmt.Errorf("failed to set discord config: %w", err)
	}

	return nil
}

// MemberRoleIDsSlice splits the comma-separated role list
func MemberRoleIDsSlice(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
