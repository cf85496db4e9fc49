package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/constants"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// HistoryRepository is the append-only notification history log.
type HistoryRepository interface {
	Append(ctx context.Context, e entity.HistoryEntry) (int64, error)
	// List returns entries in arrival order. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]entity.HistoryEntry, error)
	Count(ctx context.Context) (int, error)
}

type historyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewHistoryRepository(db *sql.DB, logger *slog.Logger) HistoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &historyRepository{db: db, logger: logger}
}

func (r *historyRepository) Append(ctx context.Context, e entity.HistoryEntry) (int64, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notification_history (event_type, title, body, reference, payload, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.EventType), e.Title, e.Body, e.Reference, string(payload), e.ReceivedAt.UnixMilli(),
	)
	if err != nil {
		r.logger.Error("failed to append history entry", "event_type", e.EventType, "error", err)
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return res.LastInsertId()
}

func (r *historyRepository) List(ctx context.Context, limit int) ([]entity.HistoryEntry, error) {
	query := `SELECT id, event_type, title, body, reference, payload, received_at
	          FROM notification_history ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list history", "error", err)
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.HistoryEntry
	for rows.Next() {
		var (
			e          entity.HistoryEntry
			eventType  string
			payload    string
			receivedAt int64
		)
		if err := rows.Scan(&e.ID, &eventType, &e.Title, &e.Body, &e.Reference, &payload, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.EventType = constants.EventType(eventType)
		e.ReceivedAt = time.UnixMilli(receivedAt).UTC()
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			r.logger.Warn("history payload unreadable", "id", e.ID, "error", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *historyRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notification_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
