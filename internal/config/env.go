package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// envPrefix is prepended to every field's env tag.
const envPrefix = "SHAREPOINT_"

// defaultEnvFile is read by FromEnvFile when no path is given.
const defaultEnvFile = ".env"

// Environment variable names that select sources rather than values.
const (
	EnvConfig  = "SHAREPOINT_CONFIG"
	EnvEnvFile = "SHAREPOINT_ENV_FILE"
)

// EnvOverrides holds source locations read from the environment.
type EnvOverrides struct {
	ConfigPath string // SHAREPOINT_CONFIG: config file path
	EnvFile    string // SHAREPOINT_ENV_FILE: .env file path
}

// ReadEnvOverrides reads the source-selection variables. It does not touch
// any Config; Resolve applies them.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		EnvFile:    os.Getenv(EnvEnvFile),
	}
}

// appAliases are the older variable names for the app registration.
// The CLIENT_ names win when both are set.
type appAliases struct {
	AppID     string `env:"APP_ID"`
	AppSecret string `env:"APP_SECRET"`
}

// FromEnv builds a validated Config from defaults and SHAREPOINT_*
// environment variables.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	if err := applyEnv(cfg, environMap(os.Environ())); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// FromEnvFile is FromEnv with the variables of a .env file layered under the
// process environment. An empty path means ".env". The file must exist.
func FromEnvFile(path string) (*Config, error) {
	if path == "" {
		path = defaultEnvFile
	}

	vars, err := readEnvFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if err := applyEnv(cfg, mergeEnv(vars, environMap(os.Environ()))); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// readEnvFile parses a dotenv file. A missing file is reported with
// fs.ErrNotExist in the chain.
func readEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: env file %s not found: %w", path, err)
		}

		return nil, fmt.Errorf("config: reading env file %s: %w", path, err)
	}

	return vars, nil
}

// applyEnv overlays the variables in environ onto cfg. Variables that are
// not set leave the current value alone.
func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: envPrefix, Environment: environ}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("config: parsing environment: %w", err)
	}

	var aliases appAliases
	if err := env.ParseWithOptions(&aliases, opts); err != nil {
		return fmt.Errorf("config: parsing environment: %w", err)
	}

	if environ[envPrefix+"CLIENT_ID"] == "" && aliases.AppID != "" {
		cfg.ClientID = aliases.AppID
	}

	if environ[envPrefix+"CLIENT_SECRET"] == "" && aliases.AppSecret != "" {
		cfg.ClientSecret = aliases.AppSecret
	}

	return nil
}

// environMap converts os.Environ-style KEY=VALUE pairs into a map.
func environMap(pairs []string) map[string]string {
	m := make(map[string]string, len(pairs))

	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		m[k] = v
	}

	return m
}

// mergeEnv returns base with every entry of top applied over it.
func mergeEnv(base, top map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(top))

	for k, v := range base {
		out[k] = v
	}

	for k, v := range top {
		out[k] = v
	}

	return out
}
