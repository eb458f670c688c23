package store

import "context"

// SettingsStore defines key/value access to runtime settings. The
// desktop shell writes settings; the orchestration core only reads
// them (vendor selection, credentials, retry and download behavior).
type SettingsStore interface {
	// Get returns the value for a key.
	// Returns ErrSettingNotFound if the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores or replaces the value for a key.
	Set(ctx context.Context, key, value string) error

	// GetAll returns a snapshot of every stored setting.
	GetAll(ctx context.Context) (map[string]string, error)
}
