package common

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the environment variable prefix, e.g. FIELDQUOTE_STORE_PATH.
const EnvPrefix = "FIELDQUOTE"

// DefaultRemoteTimeout bounds every remote call when no timeout is configured.
const DefaultRemoteTimeout = 30 * time.Second

// Config holds all application configuration
type Config struct {
	Store  StoreConfig
	Remote RemoteConfig
	Push   PushConfig
	Health HealthConfig
	Log    LogConfig
}

// StoreConfig holds local storage configuration
type StoreConfig struct {
	Path    string `default:"fieldquote.db"`
	KeyFile string `split_words:"true" default:"fieldquote.key"`
}

// RemoteConfig holds acceptance-server client configuration
type RemoteConfig struct {
	Timeout   time.Duration `default:"30s"`
	APIPrefix string        `split_words:"true" default:"/api"`
	Workers   int           `default:"2"`
	QueueSize int           `split_words:"true" default:"64"`
}

// PushConfig holds push channel configuration
type PushConfig struct {
	Buffer int `default:"16"`
}

// HealthConfig holds the daemon's gRPC health listener configuration
type HealthConfig struct {
	Addr string `default:":8080"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `default:"info"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, NewAppError(CodeConfig, "process environment", err)
	}
	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = DefaultRemoteTimeout
	}
	if cfg.Health.Addr != "" && !strings.Contains(cfg.Health.Addr, ":") {
		cfg.Health.Addr = ":" + cfg.Health.Addr
	}
	return &cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return NewAppError(CodeConfig, "FIELDQUOTE_STORE_PATH is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Store.KeyFile) == "" {
		return NewAppError(CodeConfig, "FIELDQUOTE_STORE_KEY_FILE is required", ErrInvalidInput)
	}
	if c.Remote.APIPrefix != "" && !strings.HasPrefix(c.Remote.APIPrefix, "/") {
		return NewAppError(CodeConfig, "FIELDQUOTE_REMOTE_API_PREFIX must start with '/'", ErrInvalidInput)
	}
	if c.Remote.Workers <= 0 || c.Remote.QueueSize <= 0 {
		return NewAppError(CodeConfig, "FIELDQUOTE_REMOTE_WORKERS and FIELDQUOTE_REMOTE_QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	if c.Push.Buffer <= 0 {
		return NewAppError(CodeConfig, "FIELDQUOTE_PUSH_BUFFER must be positive", ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
