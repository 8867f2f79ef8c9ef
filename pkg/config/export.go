package config

import "fmt"

// ExportConfig configures the static snapshot export. Only one backend
// (S3 or local) may be enabled at a time.
type ExportConfig struct {
	Concurrency int               `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
	Prefix      string            `yaml:"prefix,omitempty" mapstructure:"prefix"`
	Local       LocalExportConfig `yaml:"local,omitempty" mapstructure:"local"`
	S3          S3ExportConfig    `yaml:"s3,omitempty" mapstructure:"s3"`
}

// LocalExportConfig writes the snapshot into a directory.
type LocalExportConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// S3ExportConfig uploads the snapshot to an S3-compatible bucket.
type S3ExportConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// Enabled reports whether any export backend is configured.
func (c *ExportConfig) Enabled() bool {
	return c.Local.Enabled || c.S3.Enabled
}

// Validate checks the export configuration for errors.
func (c *ExportConfig) Validate() error {
	if c.Local.Enabled && c.S3.Enabled {
		return fmt.Errorf("only one of local or s3 may be enabled")
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	if c.Local.Enabled && c.Local.Dir == "" {
		return fmt.Errorf("local.dir is required when local export is enabled")
	}

	if c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when s3 export is enabled")
	}

	return nil
}
