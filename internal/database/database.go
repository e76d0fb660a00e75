package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL driver
	_ "github.com/lib/pq"
)

// DB wraps the SQL connection pool used by all repositories
type DB struct {
	*sql.DB
}

// New opens a PostgreSQL connection pool and verifies connectivity
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Ping checks database connectivity
func (d *DB) Ping(ctx context.Context) error {
	return d.PingContext(ctx)
}
