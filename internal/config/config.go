package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Provider ProviderConfig `mapstructure:"provider" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Path is the location of the SQLite database file.
	Path string `mapstructure:"path" validate:"required"`
}

// ProviderConfig contains timeouts for outbound provider HTTP calls.
type ProviderConfig struct {
	// RequestTimeoutSeconds bounds create/query calls.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"gte=0"`

	// DownloadTimeoutSeconds bounds artifact downloads, which move far
	// more bytes than the control-plane calls.
	DownloadTimeoutSeconds int `mapstructure:"download_timeout_seconds" validate:"gte=0"`
}
