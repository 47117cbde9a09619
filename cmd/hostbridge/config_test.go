package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHostConfigDefaults(t *testing.T) {
	cfg, err := loadHostConfig("")
	require.NoError(t, err)
	assert.Equal(t, "Main", cfg.AppKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Bundle)
}

func TestLoadHostConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
app_key = "Demo"
bundle = "app.lua"
log_level = "debug"
`), 0o644))

	cfg, err := loadHostConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Demo", cfg.AppKey)
	assert.Equal(t, "app.lua", cfg.Bundle)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.DevServer)
}

func TestLoadHostConfigErrors(t *testing.T) {
	_, err := loadHostConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("app_key = ["), 0o644))
	_, err = loadHostConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}
