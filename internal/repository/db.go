package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
	namespace  TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	value      BLOB    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
);
CREATE TABLE IF NOT EXISTS notification_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type  TEXT    NOT NULL,
	title       TEXT    NOT NULL,
	body        TEXT    NOT NULL,
	reference   TEXT    NOT NULL DEFAULT '',
	payload     TEXT    NOT NULL,
	received_at INTEGER NOT NULL
);
`

// Open opens the SQLite database at cfg.Path and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	logger.Info("opening local store", "path", cfg.Path)
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	dsn := "file:" + cfg.Path + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open local store", "error", err)
		return nil, err
	}
	// SQLite has a single writer; one connection keeps every transaction serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error("failed to apply schema", "error", err)
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("local store ready")
	return db, nil
}

// Close closes the database gracefully
func Close(db *sql.DB, logger *slog.Logger) {
	logger.Info("closing local store")
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close local store", "error", err)
		return
	}
	logger.Info("local store closed")
}

// HealthCheck pings the database.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging local store")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("local store ping failed", "error", err)
		return err
	}
	logger.Debug("local store ping successful")
	return nil
}
