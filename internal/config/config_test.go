package config

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "RATE_LIMIT", "WITH_NINE", "CORS_ALLOWED_ORIGINS", "STORE_DRIVER"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 300, cfg.RateLimit)
	assert.True(t, cfg.WithNine)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT", "12")
	t.Setenv("WITH_NINE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	cfg := FromEnv()
	assert.Equal(t, 12, cfg.RateLimit)
	assert.False(t, cfg.WithNine)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)

	t.Setenv("RATE_LIMIT", "many")
	t.Setenv("WITH_NINE", "maybe")
	cfg = FromEnv()
	assert.Equal(t, 300, cfg.RateLimit)
	assert.True(t, cfg.WithNine)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_PASSWORD=from-file\n"), 0600))
	t.Setenv("ADMIN_PASSWORD", "")
	os.Unsetenv("ADMIN_PASSWORD")

	cfg := Load(path)
	assert.Equal(t, "from-file", cfg.AdminPassword)

	// a missing file is fine
	cfg = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NotEmpty(t, cfg.HTTPPort)
}

func TestAccessLogPassesStatus(t *testing.T) {
	h := AccessLog()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestInstanceID(t *testing.T) {
	assert.NotEqual(t, InstanceID(), InstanceID())
}
