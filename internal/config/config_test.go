package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfig(t *testing.T) {
	origConfigDir := configDir
	origConfigFile := configFile

	tmpDir := t.TempDir()
	configDir = tmpDir
	configFile = filepath.Join(tmpDir, "config.yaml")

	t.Cleanup(func() {
		configDir = origConfigDir
		configFile = origConfigFile
	})
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, "", cfg.ThemeName)
	assert.Equal(t, 2, cfg.MaxFilterGroups)
	assert.Equal(t, 20, cfg.MaxConditionsPerGroup)
	assert.Equal(t, 300, cfg.DebounceMS)
	assert.Equal(t, 25, cfg.DefaultPageSize)
}

func TestLoadConfig_Default(t *testing.T) {
	setupTestConfig(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, 25, cfg.DefaultPageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 5*time.Minute, cfg.CountTTL())
}

func TestSaveAndLoadConfig(t *testing.T) {
	setupTestConfig(t)

	cfg := GetDefaultConfig()
	cfg.DBPath = filepath.Join(configDir, "test.db")
	cfg.ThemeName = "dracula"
	cfg.MaxFilterGroups = 4
	cfg.OwnerID = "alice"

	require.NoError(t, SaveConfig(cfg))

	loaded, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, cfg.DBPath, loaded.DBPath)
	assert.Equal(t, "dracula", loaded.ThemeName)
	assert.Equal(t, 4, loaded.MaxFilterGroups)
	assert.Equal(t, "alice", loaded.OwnerID)
	assert.Equal(t, 4, loaded.Limits().MaxGroups)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("VIEWENGINE_MAX_CONDITIONS_PER_GROUP", "7")
	t.Setenv("VIEWENGINE_OWNER_ID", "bob")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxConditionsPerGroup)
	assert.Equal(t, "bob", cfg.OwnerID)
}

func TestLoadConfig_RejectsInvalidCeilings(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("VIEWENGINE_MAX_FILTER_GROUPS", "0")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSaveConfig_CreatesDirectory(t *testing.T) {
	setupTestConfig(t)
	configDir = filepath.Join(configDir, "nested")
	configFile = filepath.Join(configDir, "config.yaml")

	require.NoError(t, SaveConfig(GetDefaultConfig()))

	_, err := os.Stat(configFile)
	assert.NoError(t, err)
}

func TestUpdateTheme(t *testing.T) {
	setupTestConfig(t)

	require.NoError(t, UpdateTheme("nord"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "nord", cfg.ThemeName)
}
