package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, int64(2500), cfg.Payments.FeeCents)
	assert.Equal(t, "usd", cfg.Payments.Currency)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.True(t, cfg.Auth.DevMode, "no jwt secret => dev mode")
	assert.Equal(t, "WCU Dog Registry", cfg.Site.RegistryName)
}

func TestLoadFile_EnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/wcu")
	t.Setenv("PAYMENTS_FEE_CENTS", "4000")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SITE_URL", "https://wcu.example/")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/wcu", cfg.DB.DSN)
	assert.Equal(t, int64(4000), cfg.Payments.FeeCents)
	assert.False(t, cfg.Auth.DevMode)
	assert.Equal(t, "https://wcu.example", cfg.Site.URL)
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "port: \":9090\"\nsite:\n  registry_name: Test Registry\nratelimit:\n  per_minute: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("RATELIMIT_PER_MINUTE", "7")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "Test Registry", cfg.Site.RegistryName)
	assert.Equal(t, 7, cfg.RateLimit.PerMinute)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
