package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Overrides are the caller-supplied layers of Resolve. Empty strings leave
// the lower layers in place.
type Overrides struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFile    string
	LogFormat  string
}

// Load reads a YAML or TOML config file, validates it, and returns the
// resulting Config. The format follows the file extension.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// decodeFile overlays the file at path onto cfg. Unknown keys are errors in
// both formats.
func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(path, cfg)
	case ".toml":
		return decodeTOML(path, cfg)
	default:
		return fmt.Errorf("config: unsupported config file extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

func decodeYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parsing config file %s: %w", path, err)
	}

	return nil
}

func decodeTOML(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config: parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	return nil
}

// Resolve applies the override chain: defaults, config file, env file,
// process environment, then the explicit overrides. The result is
// validated.
//
// The config path comes from o, then SHAREPOINT_CONFIG, then the platform
// default. Only the platform default may be missing. The env file comes
// from o or SHAREPOINT_ENV_FILE and is skipped when neither names one.
func Resolve(o Overrides) (*Config, error) {
	fromEnv := ReadEnvOverrides()
	cfg := DefaultConfig()

	cfgPath, explicit := o.ConfigPath, true
	if cfgPath == "" {
		cfgPath = fromEnv.ConfigPath
	}

	if cfgPath == "" {
		cfgPath, explicit = DefaultConfigPath(), false
	}

	if err := overlayFile(cfgPath, explicit, cfg); err != nil {
		return nil, err
	}

	environ := environMap(os.Environ())

	envFile := o.EnvFile
	if envFile == "" {
		envFile = fromEnv.EnvFile
	}

	if envFile != "" {
		vars, err := readEnvFile(envFile)
		if err != nil {
			return nil, err
		}

		environ = mergeEnv(vars, environ)
	}

	if err := applyEnv(cfg, environ); err != nil {
		return nil, err
	}

	applyOverrides(cfg, o)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

func overlayFile(path string, explicit bool, cfg *Config) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}

		return fmt.Errorf("config: %w", err)
	}

	return decodeFile(path, cfg)
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	if o.LogFile != "" {
		cfg.LogFile = o.LogFile
	}

	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
}
