package config

import (
	"fmt"
	"net/url"
)

// APIConfig contains all API server configuration.
type APIConfig struct {
	Server   APIServerConfig   `yaml:"server" mapstructure:"server"`
	Database APIDatabaseConfig `yaml:"database" mapstructure:"database"`
}

// APIServerConfig contains HTTP server settings.
type APIServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
	// BaseURL is prepended to redirect targets. Empty means relative.
	BaseURL      string          `yaml:"base_url,omitempty" mapstructure:"base_url"`
	CORSOrigins  []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	MaxBodyBytes int64           `yaml:"max_body_bytes,omitempty" mapstructure:"max_body_bytes"`
	RateLimit    RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Public  RateLimitTier `yaml:"public,omitempty" mapstructure:"public"`
	// Submit applies to write endpoints in addition to Public.
	Submit RateLimitTier `yaml:"submit,omitempty" mapstructure:"submit"`
}

// RateLimitTier defines request limits for a specific tier.
type RateLimitTier struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// APIDatabaseConfig contains database connection settings.
type APIDatabaseConfig struct {
	Driver   string               `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteDatabaseConfig `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig       `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteDatabaseConfig contains SQLite-specific settings.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Validate checks the API configuration for errors.
func (c *APIConfig) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	if c.Server.BaseURL != "" {
		if _, err := url.Parse(c.Server.BaseURL); err != nil {
			return fmt.Errorf("server.base_url: %w", err)
		}
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}

	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.Public.RequestsPerMinute <= 0 {
			return fmt.Errorf("server.rate_limit.public.requests_per_minute must be positive")
		}

		if c.Server.RateLimit.Submit.RequestsPerMinute <= 0 {
			return fmt.Errorf("server.rate_limit.submit.requests_per_minute must be positive")
		}
	}

	return c.Database.Validate()
}

// Validate checks the database configuration for errors.
func (c *APIDatabaseConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required")
		}
	case "postgres":
		if c.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}

		if c.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Driver)
	}

	return nil
}
