package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"medianav/database"
	"medianav/domain/paging"
	"medianav/logging"
)

// Source kinds selectable with SOURCE_KIND.
const (
	SourceKindList       = "list"
	SourceKindSQLite     = "sqlite"
	SourceKindHTTP       = "http"
	SourceKindSharePoint = "sharepoint"
)

// AppConfig holds application-wide system configuration.
type AppConfig struct {
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPLogPath        string        `env:"HTTP_LOG_PATH"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"15m"`

	Database *database.Config
	Logging  *logging.Config
	Paging   *paging.Settings
	Source   *SourceConfig
}

// SourceConfig selects and tunes the catalog source behind every session.
type SourceConfig struct {
	Kind             string        `env:"SOURCE_KIND" envDefault:"list"`
	RemoteURL        string        `env:"SOURCE_REMOTE_URL"`
	HTTPTimeout      time.Duration `env:"SOURCE_HTTP_TIMEOUT" envDefault:"10s"`
	RetryAttempts    uint          `env:"SOURCE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay       time.Duration `env:"SOURCE_RETRY_DELAY" envDefault:"200ms"`
	ListSize         int           `env:"SOURCE_LIST_SIZE" envDefault:"500"`
	SharePointListID string        `env:"SP_LIST_ID"`
}

// Validate checks that the selected kind has what it needs.
func (c *SourceConfig) Validate() error {
	switch c.Kind {
	case SourceKindList:
		if c.ListSize < 0 {
			return fmt.Errorf("source_list_size cannot be negative, got: %d", c.ListSize)
		}
	case SourceKindSQLite:
	case SourceKindHTTP:
		if c.RemoteURL == "" {
			return fmt.Errorf("source_remote_url is required for source kind %q", c.Kind)
		}
	case SourceKindSharePoint:
		if c.SharePointListID == "" {
			return fmt.Errorf("sp_list_id is required for source kind %q", c.Kind)
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Kind)
	}
	return nil
}

// LoadAppConfigFromEnv loads complete application configuration from environment variables.
func LoadAppConfigFromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Database: &database.Config{},
		Logging:  &logging.Config{},
		Paging:   &paging.Settings{},
		Source:   &SourceConfig{},
	}

	targets := []struct {
		name string
		dst  any
	}{
		{"app", cfg},
		{"database", cfg.Database},
		{"logging", cfg.Logging},
		{"paging", cfg.Paging},
		{"source", cfg.Source},
	}
	for _, target := range targets {
		if err := env.Parse(target.dst); err != nil {
			return nil, fmt.Errorf("parse %s config: %w", target.name, err)
		}
	}

	if err := cfg.Paging.Validate(); err != nil {
		return nil, fmt.Errorf("paging config: %w", err)
	}
	if err := cfg.Source.Validate(); err != nil {
		return nil, fmt.Errorf("source config: %w", err)
	}
	return cfg, nil
}
