package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Global.LogLevel)
	assert.Equal(t, DefaultListen, cfg.API.Server.Listen)
	assert.Equal(t, []string{"*"}, cfg.API.Server.CORSOrigins)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.API.Server.MaxBodyBytes)
	assert.False(t, cfg.API.Server.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.API.Server.RateLimit.Submit.RequestsPerMinute)
	assert.Equal(t, "sqlite", cfg.API.Database.Driver)
	assert.Equal(t, DefaultSQLitePath, cfg.API.Database.SQLite.Path)
	assert.Equal(t, 5432, cfg.API.Database.Postgres.Port)
	assert.Equal(t, DefaultExportConcurrency, cfg.Export.Concurrency)
	assert.False(t, cfg.Export.Enabled())

	require.NoError(t, cfg.Validate())
}

func TestLoad_MergesFilesInOrder(t *testing.T) {
	base := writeConfig(t, "base.yaml", `
global:
  log_level: debug
api:
  server:
    listen: ":9000"
  database:
    driver: postgres
    postgres:
      host: db.internal
      user: jsbench
`)
	override := writeConfig(t, "override.yaml", `
api:
  server:
    listen: ":9100"
  database:
    postgres:
      password: secret
export:
  s3:
    enabled: true
    bucket: snapshots
`)

	cfg, err := Load(base, override)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.Equal(t, ":9100", cfg.API.Server.Listen)
	assert.Equal(t, "postgres", cfg.API.Database.Driver)
	assert.Equal(t, "db.internal", cfg.API.Database.Postgres.Host)
	assert.Equal(t, "jsbench", cfg.API.Database.Postgres.User)
	assert.Equal(t, "secret", cfg.API.Database.Postgres.Password)
	assert.True(t, cfg.Export.S3.Enabled)
	assert.Equal(t, "snapshots", cfg.Export.S3.Bucket)

	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
global:
  log_level: info
api:
  server:
    listen: ":8080"
    cors_origins:
      - https://example.com
`)

	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "no env vars uses yaml values",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Global.LogLevel)
				assert.Equal(t, []string{"https://example.com"}, cfg.API.Server.CORSOrigins)
			},
		},
		{
			name:    "string override - log_level",
			envVars: map[string]string{"JSBENCH_GLOBAL_LOG_LEVEL": "debug"},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Global.LogLevel)
			},
		},
		{
			name:    "nested override - listen",
			envVars: map[string]string{"JSBENCH_API_SERVER_LISTEN": "127.0.0.1:7000"},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "127.0.0.1:7000", cfg.API.Server.Listen)
			},
		},
		{
			name:    "default-only key override - sqlite path",
			envVars: map[string]string{"JSBENCH_API_DATABASE_SQLITE_PATH": "/var/lib/jsbench.db"},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/var/lib/jsbench.db", cfg.API.Database.SQLite.Path)
			},
		},
		{
			name:    "boolean override - rate limit",
			envVars: map[string]string{"JSBENCH_API_SERVER_RATE_LIMIT_ENABLED": "true"},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.API.Server.RateLimit.Enabled)
			},
		},
		{
			name:    "integer override - export concurrency",
			envVars: map[string]string{"JSBENCH_EXPORT_CONCURRENCY": "16"},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 16, cfg.Export.Concurrency)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load(path)
			require.NoError(t, err)

			tt.validate(t, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)

		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *Config) { cfg.Global.LogLevel = "loud" },
			wantErr: "global.log_level",
		},
		{
			name:    "empty listen",
			mutate:  func(cfg *Config) { cfg.API.Server.Listen = "" },
			wantErr: "server.listen is required",
		},
		{
			name:    "zero body limit",
			mutate:  func(cfg *Config) { cfg.API.Server.MaxBodyBytes = 0 },
			wantErr: "max_body_bytes",
		},
		{
			name: "rate limit without budget",
			mutate: func(cfg *Config) {
				cfg.API.Server.RateLimit.Enabled = true
				cfg.API.Server.RateLimit.Submit.RequestsPerMinute = 0
			},
			wantErr: "submit.requests_per_minute",
		},
		{
			name:    "unknown driver",
			mutate:  func(cfg *Config) { cfg.API.Database.Driver = "mysql" },
			wantErr: "unsupported database driver",
		},
		{
			name:    "sqlite without path",
			mutate:  func(cfg *Config) { cfg.API.Database.SQLite.Path = "" },
			wantErr: "sqlite.path is required",
		},
		{
			name: "postgres without host",
			mutate: func(cfg *Config) {
				cfg.API.Database.Driver = "postgres"
				cfg.API.Database.Postgres.Host = ""
			},
			wantErr: "postgres.host is required",
		},
		{
			name: "both export backends",
			mutate: func(cfg *Config) {
				cfg.Export.Local = LocalExportConfig{Enabled: true, Dir: "out"}
				cfg.Export.S3 = S3ExportConfig{Enabled: true, Bucket: "b"}
			},
			wantErr: "only one of local or s3",
		},
		{
			name:    "local export without dir",
			mutate:  func(cfg *Config) { cfg.Export.Local.Enabled = true },
			wantErr: "local.dir is required",
		},
		{
			name:    "s3 export without bucket",
			mutate:  func(cfg *Config) { cfg.Export.S3.Enabled = true },
			wantErr: "s3.bucket is required",
		},
		{
			name:    "zero export concurrency",
			mutate:  func(cfg *Config) { cfg.Export.Concurrency = 0 },
			wantErr: "concurrency must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     5433,
		User:     "u",
		Password: "p",
		Database: "jsbench",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db port=5433 user=u password=p dbname=jsbench sslmode=require",
		cfg.DSN(),
	)
}
