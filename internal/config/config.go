// Package config implements configuration loading, validation, and
// platform-specific path resolution for sharepoint-go. Values come from
// defaults, a YAML or TOML config file, a .env file, the process
// environment, and CLI flags, in increasing order of precedence.
package config

import (
	"time"

	"github.com/tonimelisma/sharepoint-go/pkg/sharepoint"
)

// Config is the top-level configuration. Keys are flat in every format:
// the embedded sections only group related fields.
type Config struct {
	TenantID           string `toml:"tenant_id"            yaml:"tenant_id"            env:"TENANT_ID"`
	ClientID           string `toml:"client_id"            yaml:"client_id"            env:"CLIENT_ID"`
	ClientSecret       string `toml:"client_secret"        yaml:"client_secret"        env:"CLIENT_SECRET"`
	ResourceURL        string `toml:"resource_url"         yaml:"resource_url"         env:"RESOURCE_URL"`
	ResourceURLVersion string `toml:"resource_url_version" yaml:"resource_url_version" env:"RESOURCE_URL_VERSION"`

	LoggingConfig  `yaml:",inline"`
	NetworkConfig  `yaml:",inline"`
	TransferConfig `yaml:",inline"`
}

// LoggingConfig controls the process logger and its optional log file.
type LoggingConfig struct {
	LogLevel         string `toml:"log_level"          yaml:"log_level"          env:"LOG_LEVEL"`
	LogFile          string `toml:"log_file"           yaml:"log_file"           env:"LOG_FILE"`
	LogFormat        string `toml:"log_format"         yaml:"log_format"         env:"LOG_FORMAT"`
	LogMaxSizeMB     int    `toml:"log_max_size_mb"    yaml:"log_max_size_mb"    env:"LOG_MAX_SIZE_MB"`
	LogMaxBackups    int    `toml:"log_max_backups"    yaml:"log_max_backups"    env:"LOG_MAX_BACKUPS"`
	LogRetentionDays int    `toml:"log_retention_days" yaml:"log_retention_days" env:"LOG_RETENTION_DAYS"`
}

// NetworkConfig controls HTTP timeouts and the opt-in transient retry.
// MaxRetries of 0 keeps the single 401 refresh as the only retry.
type NetworkConfig struct {
	Timeout    string `toml:"timeout"     yaml:"timeout"     env:"TIMEOUT"`
	MaxRetries int    `toml:"max_retries" yaml:"max_retries" env:"MAX_RETRIES"`
	RetryDelay string `toml:"retry_delay" yaml:"retry_delay" env:"RETRY_DELAY"`
}

// TransferConfig controls downloads.
type TransferConfig struct {
	// DisableDownloadValidation skips the QuickXorHash comparison after
	// each download.
	DisableDownloadValidation bool `toml:"disable_download_validation" yaml:"disable_download_validation" env:"DISABLE_DOWNLOAD_VALIDATION"`
}

// Credentials returns the library credentials described by the config.
func (c *Config) Credentials() sharepoint.Credentials {
	return sharepoint.Credentials{
		TenantID:           c.TenantID,
		ClientID:           c.ClientID,
		ClientSecret:       c.ClientSecret,
		ResourceURL:        c.ResourceURL,
		ResourceURLVersion: c.ResourceURLVersion,
	}
}

// HTTPTimeout returns the parsed timeout. Validate guarantees it parses.
func (c *Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}

	return d
}

// RetryBackoff returns the parsed initial retry delay.
func (c *Config) RetryBackoff() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return 0
	}

	return d
}
