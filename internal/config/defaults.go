package config

import "github.com/tonimelisma/sharepoint-go/pkg/sharepoint"

// Default values for configuration options. These are the bottom layer of
// the override chain.
const (
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
	defaultLogMaxSizeMB     = 10
	defaultLogMaxBackups    = 3
	defaultLogRetentionDays = 30
	defaultTimeout          = "30s"
	defaultMaxRetries       = 0
	defaultRetryDelay       = "1s"
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for decoding, so unset fields keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		ResourceURL:        sharepoint.DefaultResourceURL,
		ResourceURLVersion: sharepoint.DefaultResourceURLVersion,
		LoggingConfig: LoggingConfig{
			LogLevel:         defaultLogLevel,
			LogFormat:        defaultLogFormat,
			LogMaxSizeMB:     defaultLogMaxSizeMB,
			LogMaxBackups:    defaultLogMaxBackups,
			LogRetentionDays: defaultLogRetentionDays,
		},
		NetworkConfig: NetworkConfig{
			Timeout:    defaultTimeout,
			MaxRetries: defaultMaxRetries,
			RetryDelay: defaultRetryDelay,
		},
	}
}
