package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const yamlConfig = `
tenant_id: yaml-tenant
client_id: yaml-client
client_secret: yaml-secret
resource_url: https://config-graph.microsoft.com/
resource_url_version: v2.0
log_level: debug
timeout: 45s
max_retries: 2
`

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, "config.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, "yaml-tenant", cfg.TenantID)
	assert.Equal(t, "yaml-client", cfg.ClientID)
	assert.Equal(t, "yaml-secret", cfg.ClientSecret)
	assert.Equal(t, "https://config-graph.microsoft.com/", cfg.ResourceURL)
	assert.Equal(t, "v2.0", cfg.ResourceURLVersion)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "45s", cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	// Untouched keys keep their defaults.
	assert.Equal(t, defaultLogFormat, cfg.LogFormat)
	assert.Equal(t, defaultRetryDelay, cfg.RetryDelay)
}

func TestLoad_YMLExtension(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, "config.yml", yamlConfig))
	require.NoError(t, err)
	assert.Equal(t, "yaml-tenant", cfg.TenantID)
}

func TestLoad_TOML(t *testing.T) {
	path := writeTestConfig(t, "config.toml", `
tenant_id = "toml-tenant"
client_id = "toml-client"
client_secret = "toml-secret"
log_format = "json"
log_max_backups = 7
disable_download_validation = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "toml-tenant", cfg.TenantID)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 7, cfg.LogMaxBackups)
	assert.True(t, cfg.DisableDownloadValidation)
	assert.Equal(t, "https://graph.microsoft.com/", cfg.ResourceURL)
	assert.Equal(t, "v1.0", cfg.ResourceURLVersion)
}

func TestLoad_TOMLUnknownKeySuggests(t *testing.T) {
	path := writeTestConfig(t, "config.toml", `
tenant_id = "t"
client_id = "c"
client_secret = "s"
log_levle = "debug"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config key "log_levle"`)
	assert.Contains(t, err.Error(), `did you mean "log_level"?`)
}

func TestLoad_YAMLUnknownKey(t *testing.T) {
	path := writeTestConfig(t, "config.yaml", "tenant_id: t\nbogus_key: 1\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus_key")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeTestConfig(t, "config.json", `{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file extension")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MissingRequiredFieldsNamed(t *testing.T) {
	_, err := Load(writeTestConfig(t, "config.yaml", "tenant_id: t\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_id: is required")
	assert.Contains(t, err.Error(), "client_secret: is required")
	assert.NotContains(t, err.Error(), "tenant_id")
}

func TestLoad_EmptyYAMLKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, decodeFile(writeTestConfig(t, "config.yaml", ""), cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

// isolateEnv points every source Resolve consults at empty locations.
func isolateEnv(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	for _, k := range []string{
		EnvConfig, EnvEnvFile,
		"SHAREPOINT_TENANT_ID", "SHAREPOINT_CLIENT_ID", "SHAREPOINT_CLIENT_SECRET",
		"SHAREPOINT_APP_ID", "SHAREPOINT_APP_SECRET", "SHAREPOINT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestResolve_Precedence(t *testing.T) {
	isolateEnv(t)

	cfgPath := writeTestConfig(t, "config.yaml", yamlConfig)
	envFile := writeTestConfig(t, ".env", "SHAREPOINT_CLIENT_ID=file-client\nSHAREPOINT_LOG_LEVEL=warn\n")
	t.Setenv("SHAREPOINT_LOG_LEVEL", "error")

	cfg, err := Resolve(Overrides{ConfigPath: cfgPath, EnvFile: envFile, LogFile: "/tmp/sp.log"})
	require.NoError(t, err)

	assert.Equal(t, "yaml-tenant", cfg.TenantID, "file value kept")
	assert.Equal(t, "file-client", cfg.ClientID, "env file over config file")
	assert.Equal(t, "error", cfg.LogLevel, "process env over env file")
	assert.Equal(t, "/tmp/sp.log", cfg.LogFile, "flag applied")

	cfg, err = Resolve(Overrides{ConfigPath: cfgPath, EnvFile: envFile, LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "flag over env")
}

func TestResolve_ConfigPathFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvConfig, writeTestConfig(t, "config.toml", `
tenant_id = "t"
client_id = "c"
client_secret = "s"
`))

	cfg, err := Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "t", cfg.TenantID)
}

func TestResolve_DefaultPathMayBeMissing(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SHAREPOINT_TENANT_ID", "t")
	t.Setenv("SHAREPOINT_APP_ID", "c")
	t.Setenv("SHAREPOINT_APP_SECRET", "s")

	cfg, err := Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "c", cfg.ClientID)
	assert.Equal(t, "s", cfg.ClientSecret)
}

func TestResolve_ExplicitPathMustExist(t *testing.T) {
	isolateEnv(t)

	_, err := Resolve(Overrides{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_InvalidResult(t *testing.T) {
	isolateEnv(t)

	_, err := Resolve(Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_id: is required")
}
