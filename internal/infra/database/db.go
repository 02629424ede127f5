package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	// Alert tasks share one pool, so keep it small.
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
	pingTimeout            = 5 * time.Second
)

// NewPostgresConnection opens a PostgreSQL pool and pings it.
func NewPostgresConnection(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

const notificationsSchema = `
CREATE TABLE IF NOT EXISTS notifications (
    id           UUID PRIMARY KEY,
    type         VARCHAR(64)  NOT NULL,
    status       VARCHAR(32)  NOT NULL,
    title        TEXT         NOT NULL DEFAULT '',
    message      TEXT         NOT NULL DEFAULT '',
    recipient    TEXT         NOT NULL DEFAULT '',
    dedup_key    TEXT,
    payload      JSONB        NOT NULL DEFAULT '{}'::jsonb,
    created_date TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS notifications_status_idx ON notifications (status);
CREATE INDEX IF NOT EXISTS notifications_type_created_idx ON notifications (type, created_date);
`

// EnsureSchema creates the notifications table when missing. The work-item
// tables belong to the main application and are only read here.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, notificationsSchema); err != nil {
		return fmt.Errorf("failed to ensure notifications schema: %w", err)
	}
	return nil
}
