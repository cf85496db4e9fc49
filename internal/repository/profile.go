package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/constants"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// Sealer encrypts the serialized profile at rest.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// ProfileRepository persists the single active profile as one encrypted
// record plus two plain lookup keys, all in the same namespace.
type ProfileRepository interface {
	// Load returns nil when no profile is stored or the stored record
	// cannot be decrypted or parsed.
	Load(ctx context.Context) (*entity.BusinessProfile, error)
	// Save replaces the record, the setup flag and the active id in one transaction.
	Save(ctx context.Context, p entity.BusinessProfile) error
	Clear(ctx context.Context) error
	SetupComplete(ctx context.Context) (bool, error)
	ActiveBusinessID(ctx context.Context) (string, error)
}

type profileRepository struct {
	db     *sql.DB
	sealer Sealer
	logger *slog.Logger
}

func NewProfileRepository(db *sql.DB, sealer Sealer, logger *slog.Logger) ProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &profileRepository{
		db:     db,
		sealer: sealer,
		logger: logger,
	}
}

func (r *profileRepository) Load(ctx context.Context) (*entity.BusinessProfile, error) {
	raw, err := r.get(ctx, constants.KeyBusinessProfile)
	if err != nil {
		r.logger.Error("failed to read profile record", "error", err)
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	plaintext, err := r.sealer.Open(raw)
	if err != nil {
		r.logger.Warn("stored profile cannot be decrypted, treating as absent", "error", err)
		return nil, nil
	}
	var p entity.BusinessProfile
	if err := json.Unmarshal(plaintext, &p); err != nil {
		r.logger.Warn("stored profile cannot be parsed, treating as absent", "error", err)
		return nil, nil
	}
	if p.BusinessID == "" {
		r.logger.Warn("stored profile has no business id, treating as absent")
		return nil, nil
	}
	return &p, nil
}

func (r *profileRepository) Save(ctx context.Context, p entity.BusinessProfile) error {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	sealed, err := r.sealer.Seal(plaintext)
	if err != nil {
		r.logger.Error("failed to encrypt profile", "business_id", p.BusinessID, "error", err)
		return fmt.Errorf("encrypt profile: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	writes := []struct {
		key   string
		value []byte
	}{
		{constants.KeyBusinessProfile, sealed},
		{constants.KeySetupComplete, []byte("true")},
		{constants.KeyActiveBusinessID, []byte(p.BusinessID)},
	}
	for _, w := range writes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv_store (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			constants.StorageNamespace, w.key, w.value, now,
		); err != nil {
			r.logger.Error("failed to write profile key", "key", w.key, "error", err)
			return fmt.Errorf("write %s: %w", w.key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit profile", "business_id", p.BusinessID, "error", err)
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *profileRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE namespace = ?`, constants.StorageNamespace); err != nil {
		r.logger.Error("failed to clear profile namespace", "error", err)
		return fmt.Errorf("clear namespace: %w", err)
	}
	return nil
}

func (r *profileRepository) SetupComplete(ctx context.Context) (bool, error) {
	raw, err := r.get(ctx, constants.KeySetupComplete)
	if err != nil {
		return false, err
	}
	return string(raw) == "true", nil
}

func (r *profileRepository) ActiveBusinessID(ctx context.Context) (string, error) {
	raw, err := r.get(ctx, constants.KeyActiveBusinessID)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *profileRepository) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE namespace = ? AND key = ?`,
		constants.StorageNamespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}
