package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variable overrides. Nested keys
	// are joined with underscores, e.g. JSBENCH_API_SERVER_LISTEN.
	EnvPrefix = "JSBENCH"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultListen is the default HTTP listen address.
	DefaultListen = ":8080"

	// DefaultDatabaseDriver is the default database driver.
	DefaultDatabaseDriver = "sqlite"

	// DefaultSQLitePath is the default SQLite database file.
	DefaultSQLitePath = "jsbench.db"

	// DefaultMaxBodyBytes caps the size of request bodies.
	DefaultMaxBodyBytes = 2 << 20

	// DefaultExportConcurrency is the default number of parallel uploads.
	DefaultExportConcurrency = 4
)

// Config is the root configuration for jsbench.
type Config struct {
	Global GlobalConfig `yaml:"global" mapstructure:"global"`
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// defaults lists every known key. Viper only resolves environment overrides
// for keys it knows about, so each leaf needs an entry here.
var defaults = map[string]any{
	"global.log_level": DefaultLogLevel,

	"api.server.listen":                                DefaultListen,
	"api.server.base_url":                              "",
	"api.server.cors_origins":                          []string{"*"},
	"api.server.max_body_bytes":                        DefaultMaxBodyBytes,
	"api.server.rate_limit.enabled":                    false,
	"api.server.rate_limit.public.requests_per_minute": 600,
	"api.server.rate_limit.submit.requests_per_minute": 30,

	"api.database.driver":            DefaultDatabaseDriver,
	"api.database.sqlite.path":       DefaultSQLitePath,
	"api.database.postgres.host":     "localhost",
	"api.database.postgres.port":     5432,
	"api.database.postgres.user":     "",
	"api.database.postgres.password": "",
	"api.database.postgres.database": "jsbench",
	"api.database.postgres.ssl_mode": "disable",

	"export.concurrency":          DefaultExportConcurrency,
	"export.prefix":               "",
	"export.local.enabled":        false,
	"export.local.dir":            "",
	"export.s3.enabled":           false,
	"export.s3.endpoint_url":      "",
	"export.s3.region":            "",
	"export.s3.bucket":            "",
	"export.s3.access_key_id":     "",
	"export.s3.secret_access_key": "",
	"export.s3.force_path_style":  false,
}

// Load reads the given configuration files in order, later files overriding
// earlier ones, then applies JSBENCH_* environment overrides. With no files
// the defaults and the environment are used.
func Load(paths ...string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for i, path := range paths {
		v.SetConfigFile(path)

		read := v.MergeInConfig
		if i == 0 {
			read = v.ReadInConfig
		}

		if err := read(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Global.LogLevel); err != nil {
		return fmt.Errorf("global.log_level: %w", err)
	}

	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	return nil
}
