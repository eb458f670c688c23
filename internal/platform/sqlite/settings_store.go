package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wanmilin/glin/internal/platform/logger"
	"github.com/wanmilin/glin/internal/store"
)

// SQLiteSettingsStore implements the store.SettingsStore interface
// using SQLite.
type SQLiteSettingsStore struct {
	db store.DBTX
}

// NewSettingsStore creates a new SQLiteSettingsStore.
func NewSettingsStore(db store.DBTX) *SQLiteSettingsStore {
	return &SQLiteSettingsStore{db: db}
}

// Ensure SQLiteSettingsStore implements store.SettingsStore.
var _ store.SettingsStore = (*SQLiteSettingsStore)(nil)

// Get returns the value for a key.
func (s *SQLiteSettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrSettingNotFound
		}
		logger.FromContext(ctx).Error("failed to get setting", "key", key, "error", err)
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// Set stores or replaces the value for a key.
func (s *SQLiteSettingsStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		logger.FromContext(ctx).Error("failed to set setting", "key", key, "error", err)
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// GetAll returns a snapshot of every stored setting.
func (s *SQLiteSettingsStore) GetAll(ctx context.Context) (map[string]string, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		log.Error("failed to list settings", "error", err)
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			log.Error("failed to scan setting row", "error", err)
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating setting rows", "error", err)
		return nil, fmt.Errorf("error iterating setting rows: %w", err)
	}

	return settings, nil
}
