package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env files
	for _, key := range []string{
		"HEALTHMAP_API_URL", "HEALTHMAP_STORE", "HEALTHMAP_STORE_DIR", "HEALTHMAP_SESSION",
		"HEALTHMAP_REQUEST_TIMEOUT", "HEALTHMAP_STRICT_ROLES", "DEVAPI_SEED_DEMO",
		"DEVAPI_ADDR", "DATABASE_URL", "DEVAPI_CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.Client.APIURL)
	assert.Equal(t, StoreKeyring, cfg.Client.Store)
	assert.Equal(t, 30*time.Second, cfg.Client.RequestTimeout)
	assert.False(t, cfg.Client.StrictRoles)
	assert.Equal(t, ":8080", cfg.DevAPI.Addr)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.DevAPI.CORSOrigins)
	assert.False(t, cfg.DevAPI.SeedDemo)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HEALTHMAP_API_URL", "https://api.example.sn/api/")
	t.Setenv("HEALTHMAP_STORE", "FILE")
	t.Setenv("HEALTHMAP_REQUEST_TIMEOUT", "5")
	t.Setenv("HEALTHMAP_STRICT_ROLES", "true")
	t.Setenv("DEVAPI_SEED_DEMO", "1")
	t.Setenv("DEVAPI_CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.sn/api", cfg.Client.APIURL)
	assert.Equal(t, StoreFile, cfg.Client.Store)
	assert.Equal(t, 5*time.Second, cfg.Client.RequestTimeout)
	assert.True(t, cfg.Client.StrictRoles)
	assert.True(t, cfg.DevAPI.SeedDemo)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.DevAPI.CORSOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"HEALTHMAP_STORE":           "cloud",
		"HEALTHMAP_REQUEST_TIMEOUT": "soon",
		"HEALTHMAP_STRICT_ROLES":    "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDurationEnv(t *testing.T) {
	t.Setenv("X_TIMEOUT", "1m30s")
	d, err := durationEnv("X_TIMEOUT", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	t.Setenv("X_TIMEOUT", "0")
	d, err = durationEnv("X_TIMEOUT", time.Second)
	require.NoError(t, err)
	assert.Zero(t, d)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
