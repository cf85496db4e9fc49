package common

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Path != "fieldquote.db" || cfg.Store.KeyFile != "fieldquote.key" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Remote.Timeout != 30*time.Second || cfg.Remote.APIPrefix != "/api" {
		t.Errorf("remote = %+v", cfg.Remote)
	}
	if cfg.Remote.Workers != 2 || cfg.Remote.QueueSize != 64 || cfg.Push.Buffer != 16 {
		t.Errorf("pool sizes = %+v %+v", cfg.Remote, cfg.Push)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FIELDQUOTE_STORE_PATH", "/tmp/fq.db")
	t.Setenv("FIELDQUOTE_STORE_KEY_FILE", "/tmp/fq.key")
	t.Setenv("FIELDQUOTE_REMOTE_TIMEOUT", "5s")
	t.Setenv("FIELDQUOTE_REMOTE_API_PREFIX", "/v2")
	t.Setenv("FIELDQUOTE_REMOTE_QUEUE_SIZE", "8")
	t.Setenv("FIELDQUOTE_HEALTH_ADDR", "9090")
	t.Setenv("FIELDQUOTE_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Store.Path != "/tmp/fq.db" || cfg.Store.KeyFile != "/tmp/fq.key" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Remote.Timeout != 5*time.Second || cfg.Remote.APIPrefix != "/v2" || cfg.Remote.QueueSize != 8 {
		t.Errorf("remote = %+v", cfg.Remote)
	}
	if cfg.Health.Addr != ":9090" {
		t.Errorf("health addr = %q, want :9090", cfg.Health.Addr)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.Log.SlogLevel())
	}
}

func TestLoadConfigZeroTimeoutIsReplaced(t *testing.T) {
	t.Setenv("FIELDQUOTE_REMOTE_TIMEOUT", "0s")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Remote.Timeout != DefaultRemoteTimeout {
		t.Errorf("timeout = %v, want %v", cfg.Remote.Timeout, DefaultRemoteTimeout)
	}
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Store:  StoreConfig{Path: "a.db", KeyFile: "a.key"},
			Remote: RemoteConfig{Timeout: time.Second, APIPrefix: "/api", Workers: 1, QueueSize: 1},
			Push:   PushConfig{Buffer: 1},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"blank path", func(c *Config) { c.Store.Path = " " }},
		{"blank key file", func(c *Config) { c.Store.KeyFile = "" }},
		{"relative prefix", func(c *Config) { c.Remote.APIPrefix = "api" }},
		{"no workers", func(c *Config) { c.Remote.Workers = 0 }},
		{"no push buffer", func(c *Config) { c.Push.Buffer = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Code != CodeConfig {
				t.Fatalf("Validate = %v, want CONFIG_ERROR", err)
			}
		})
	}
}
