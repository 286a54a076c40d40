package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Port)
	assert.False(t, cfg.UseDatabase())
	assert.False(t, cfg.UseRedis())
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, "gotimer_session", cfg.SessionCookie)
	assert.True(t, cfg.AutoMigrate)
	assert.Empty(t, cfg.Origins())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "PORT=8080\nDATABASE_URL=postgres://u:p@localhost/db\nSESSION_TTL=1h\nCORS_ORIGINS=http://a.test, http://b.test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.UseDatabase())
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=warn\n"), 0o600))
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.UseRedis())
}
