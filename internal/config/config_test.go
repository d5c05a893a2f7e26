package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, DefaultPermissionTimeoutSeconds, cfg.Permission.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadProjectJSONC(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gatehouse.jsonc", `{
		// local overrides
		"port": 9900,
		"permission": {"timeoutSeconds": 5}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9900, cfg.Port)
	assert.Equal(t, 5, cfg.Permission.TimeoutSeconds)
}

func TestLoadProjectYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gatehouse.yaml", "port: 9100\nlog:\n  level: debug\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestProjectOverridesNested(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".gatehouse"), 0o755))
	writeFile(t, dir, "gatehouse.json", `{"port": 9000, "host": "0.0.0.0"}`)
	writeFile(t, filepath.Join(dir, ".gatehouse"), "gatehouse.json", `{"port": 9001}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GATEHOUSE_PORT", "7777")
	t.Setenv("GATEHOUSE_PERMISSION_TIMEOUT_SECONDS", "30")

	dir := t.TempDir()
	writeFile(t, dir, "gatehouse.json", `{"port": 9000}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Port)
	assert.Equal(t, 30, cfg.Permission.TimeoutSeconds)
}

func TestConfigFileOverrideEnvVar(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(override, []byte(`{"host": "10.0.0.1"}`), 0o644))
	t.Setenv("GATEHOUSE_CONFIG", override)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.Host)
}
