package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.TenantID = "t"
	cfg.ClientID = "c"
	cfg.ClientSecret = "s"

	return cfg
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"blank tenant", func(c *Config) { c.TenantID = "  " }, "tenant_id: is required"},
		{"relative resource url", func(c *Config) { c.ResourceURL = "graph.microsoft.com/" }, "must be an absolute http(s) URL"},
		{"no trailing slash", func(c *Config) { c.ResourceURL = "https://graph.microsoft.com" }, `must end with "/"`},
		{"empty version", func(c *Config) { c.ResourceURLVersion = "" }, "resource_url_version"},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"tiny log size", func(c *Config) { c.LogMaxSizeMB = 0 }, "log_max_size_mb"},
		{"negative backups", func(c *Config) { c.LogMaxBackups = -1 }, "log_max_backups"},
		{"negative retention", func(c *Config) { c.LogRetentionDays = -1 }, "log_retention_days"},
		{"bad timeout", func(c *Config) { c.Timeout = "soon" }, "timeout"},
		{"short timeout", func(c *Config) { c.Timeout = "10ms" }, "timeout: must be >= 1s"},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }, "max_retries"},
		{"negative delay", func(c *Config) { c.RetryDelay = "-1s" }, "retry_delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"

	err := Validate(cfg)
	require.Error(t, err)

	for _, want := range []string{"tenant_id", "client_id", "client_secret", "log_level"} {
		assert.Contains(t, err.Error(), want)
	}
}
