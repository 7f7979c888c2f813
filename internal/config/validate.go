package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validation range constants.
const (
	minLogSizeMB  = 1
	maxRetries    = 10
	minTimeout    = 1 * time.Second
	schemeHTTPS   = "https"
	schemeHTTP    = "http"
	formatText    = "text"
	formatJSON    = "json"
	trailingSlash = "/"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks all configuration values and returns every error found
// joined together.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateCredentials(cfg)...)
	errs = append(errs, validateEndpoint(cfg)...)
	errs = append(errs, validateLogging(&cfg.LoggingConfig)...)
	errs = append(errs, validateNetwork(&cfg.NetworkConfig)...)

	return errors.Join(errs...)
}

func validateCredentials(cfg *Config) []error {
	var errs []error

	required := []struct {
		key, value string
	}{
		{"tenant_id", cfg.TenantID},
		{"client_id", cfg.ClientID},
		{"client_secret", cfg.ClientSecret},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s: is required", r.key))
		}
	}

	return errs
}

func validateEndpoint(cfg *Config) []error {
	var errs []error

	u, err := url.Parse(cfg.ResourceURL)

	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("resource_url: %w", err))
	case (u.Scheme != schemeHTTPS && u.Scheme != schemeHTTP) || u.Host == "":
		errs = append(errs, fmt.Errorf("resource_url: must be an absolute http(s) URL, got %q", cfg.ResourceURL))
	case !strings.HasSuffix(cfg.ResourceURL, trailingSlash):
		errs = append(errs, fmt.Errorf("resource_url: must end with %q, got %q", trailingSlash, cfg.ResourceURL))
	}

	if cfg.ResourceURLVersion == "" {
		errs = append(errs, errors.New("resource_url_version: must not be empty"))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if l.LogFormat != formatText && l.LogFormat != formatJSON {
		errs = append(errs, fmt.Errorf("log_format: must be text or json; got %q", l.LogFormat))
	}

	if l.LogMaxSizeMB < minLogSizeMB {
		errs = append(errs, fmt.Errorf("log_max_size_mb: must be >= %d, got %d", minLogSizeMB, l.LogMaxSizeMB))
	}

	if l.LogMaxBackups < 0 {
		errs = append(errs, fmt.Errorf("log_max_backups: must be >= 0, got %d", l.LogMaxBackups))
	}

	if l.LogRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("log_retention_days: must be >= 0, got %d", l.LogRetentionDays))
	}

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	if d, err := time.ParseDuration(n.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	} else if d < minTimeout {
		errs = append(errs, fmt.Errorf("timeout: must be >= %s, got %s", minTimeout, d))
	}

	if n.MaxRetries < 0 || n.MaxRetries > maxRetries {
		errs = append(errs, fmt.Errorf("max_retries: must be between 0 and %d, got %d", maxRetries, n.MaxRetries))
	}

	if d, err := time.ParseDuration(n.RetryDelay); err != nil {
		errs = append(errs, fmt.Errorf("retry_delay: %w", err))
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("retry_delay: must not be negative, got %s", d))
	}

	return errs
}
