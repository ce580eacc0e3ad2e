package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg := LoadWithDefaults()

	assert.NotNil(t, cfg)
	assert.Equal(t, 8091, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "test-api-key", cfg.APIKey)
	assert.Equal(t, ".ts", cfg.MetaFolder)
	assert.False(t, cfg.ShowUnixHiddenEntries)
}

func TestLoadMissingAPIKeyEntersSetupMode(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.SetupMode)
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("API_KEY", "my-test-key")
	t.Setenv("PORT", "9000")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHOW_UNIX_HIDDEN_ENTRIES", "true")
	t.Setenv("MAX_LOOPS", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "my-test-key", cfg.APIKey)
	assert.Equal(t, "my-test-key", cfg.JWTSecret)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ShowUnixHiddenEntries)
	assert.Equal(t, 42, cfg.MaxLoops)
	assert.False(t, cfg.SetupMode)
}

func TestConfigAddr(t *testing.T) {
	cfg := LoadWithDefaults()
	assert.Equal(t, "0.0.0.0:8091", cfg.Addr())
}

func TestThumbnailsEnabled(t *testing.T) {
	cfg := LoadWithDefaults()
	assert.True(t, cfg.ThumbnailsEnabled())

	cfg.UseGenerateThumbnails = false
	assert.False(t, cfg.ThumbnailsEnabled())

	// Override wins over the user setting
	on := true
	cfg.GenerateThumbnailsOverride = &on
	assert.True(t, cfg.ThumbnailsEnabled())

	off := false
	cfg.UseGenerateThumbnails = true
	cfg.GenerateThumbnailsOverride = &off
	assert.False(t, cfg.ThumbnailsEnabled())
}

func TestGetEnvOptionalBool(t *testing.T) {
	t.Setenv("TAGDECK_OPT", "")
	assert.Nil(t, getEnvOptionalBool("TAGDECK_OPT"))

	t.Setenv("TAGDECK_OPT", "nope")
	assert.Nil(t, getEnvOptionalBool("TAGDECK_OPT"))

	t.Setenv("TAGDECK_OPT", "false")
	v := getEnvOptionalBool("TAGDECK_OPT")
	require.NotNil(t, v)
	assert.False(t, *v)
}

func TestUpdateEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=9000\nAPI_KEY=old\n"), 0600))

	require.NoError(t, UpdateEnvFile(envFile, map[string]string{"API_KEY": "new", "HOST": "127.0.0.1"}))

	data, err := os.ReadFile(envFile)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "API_KEY=new")
	assert.Contains(t, content, "HOST=127.0.0.1")
	assert.Contains(t, content, "PORT=9000")
	assert.NotContains(t, content, "API_KEY=old")
}
