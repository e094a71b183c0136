package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/smartmon/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setArgs pins os.Args for the duration of a test, so the test
// binary's own -test.* flags do not leak into Load.
func setArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"smartmon"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func TestLoad(t *testing.T) {
	setArgs(t)
	tempDir := t.TempDir()

	configContent := []byte(`
interval = 60
item_type = "model_serial"
database = "/var/lib/smartmon/state.db"
smartctl = "/usr/sbin/smartctl"
monitor = true
log_level = "debug"
temp_warn = 30.0
temp_crit = 45.0
`)
	configPath := filepath.Join(tempDir, "smartmon.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("SMARTMON_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Interval, "Expected Interval 60")
	assert.Equal(t, "model_serial", cfg.ItemType, "Expected ItemType model_serial")
	assert.Equal(t, "/var/lib/smartmon/state.db", cfg.Database, "Expected Database path from file")
	assert.Equal(t, "/usr/sbin/smartctl", cfg.Smartctl, "Expected Smartctl path from file")
	assert.True(t, cfg.Monitor, "Expected Monitor true")
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.InDelta(t, 30.0, cfg.TempWarn, 0.001, "Expected TempWarn 30")
	assert.InDelta(t, 45.0, cfg.TempCrit, 0.001, "Expected TempCrit 45")
}

func TestLoadDefaults(t *testing.T) {
	setArgs(t)

	// Ensure no config file is used
	t.Setenv("SMARTMON_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := config.Load()
	require.Error(t, err, "Explicit config path must exist")

	t.Setenv("SMARTMON_CONFIG", "")
	tempDir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	defer func() {
		require.NoError(t, os.Chdir(cwd))
	}()

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 300, cfg.Interval, "Expected default Interval 300")
	assert.Equal(t, "device_name", cfg.ItemType, "Expected default ItemType device_name")
	assert.Empty(t, cfg.Database, "Expected default Database empty")
	assert.Equal(t, "smartctl", cfg.Smartctl, "Expected default Smartctl")
	assert.False(t, cfg.Monitor, "Expected default Monitor false")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
	assert.InDelta(t, 35.0, cfg.TempWarn, 0.001, "Expected default TempWarn 35")
	assert.InDelta(t, 40.0, cfg.TempCrit, 0.001, "Expected default TempCrit 40")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	setArgs(t)
	tempDir := t.TempDir()

	configContent := []byte(`
This is not a valid TOML file
`)
	configPath := filepath.Join(tempDir, "smartmon.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("SMARTMON_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	setArgs(t)
	tempDir := t.TempDir()

	configContent := []byte(`
log_level = "loud"
`)
	configPath := filepath.Join(tempDir, "smartmon.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("SMARTMON_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid log level")
}

func TestInvalidItemType(t *testing.T) {
	cfg := &config.Config{
		Interval: 300,
		ItemType: "wwn",
		LogLevel: "info",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid item naming scheme")
}

func TestLogLevelFlag(t *testing.T) {
	setArgs(t, "--log-level", "debug", "--interval", "30")

	t.Setenv("SMARTMON_CONFIG", "")
	tempDir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	defer func() {
		require.NoError(t, os.Chdir(cwd))
	}()

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
	assert.Equal(t, 30, cfg.Interval, "Expected Interval to be set by flag")
}
