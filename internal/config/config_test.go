package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0.1, cfg.Limits().Min)
	assert.Equal(t, 2.0, cfg.Limits().Max)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Origins())
	assert.False(t, cfg.AllowAnonymous)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ZOOM_MIN", "0.5")
	t.Setenv("ALLOW_ANONYMOUS", "true")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 0.5, cfg.ZoomMin)
	assert.True(t, cfg.AllowAnonymous)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.OriginHosts())
}

func TestOriginHostsKeepsWildcard(t *testing.T) {
	cfg := Config{AllowedOrigins: "*,localhost:3000"}
	assert.Equal(t, []string{"*", "localhost:3000"}, cfg.OriginHosts())
}

func TestLoadRejectsInvertedZoomRange(t *testing.T) {
	t.Setenv("ZOOM_MIN", "3")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_FORMAT=json\nNODE_TYPES_FILE=/etc/types.toml\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("LOG_FORMAT")
		os.Unsetenv("NODE_TYPES_FILE")
	})

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/etc/types.toml", cfg.NodeTypesFile)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
