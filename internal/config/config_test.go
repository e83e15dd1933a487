package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "prod",
		"APP_PORT":               "8000",
		"DB_USER":                "app",
		"DB_HOST":                "127.0.0.1",
		"DB_PORT":                "3306",
		"DB_NAME":                "videohub",
		"ACCESS_TOKEN_SECRET":    "access",
		"REFRESH_TOKEN_SECRET":   "refresh",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "10",
		"BCRYPT_COST":            "10",
		"CORS_ORIGIN":            "https://app.example.com",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad_Success(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PASS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 240*time.Hour, cfg.RefreshTTL())
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "16K", cfg.BodyLimit)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, "https://app.example.com", cfg.CORSOrigin)
}

func TestLoad_DevDisablesSecureCookieByDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.CookieSecure)

	t.Setenv("COOKIE_SECURE", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_ReportsAllMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("ACCESS_TOKEN_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "non numeric ttl", key: "ACCESS_TOKEN_TTL_MIN", val: "soon", want: "invalid int for ACCESS_TOKEN_TTL_MIN"},
		{name: "zero refresh ttl", key: "REFRESH_TOKEN_TTL_DAYS", val: "0", want: "REFRESH_TOKEN_TTL_DAYS must be positive"},
		{name: "negative access ttl", key: "ACCESS_TOKEN_TTL_MIN", val: "-5", want: "ACCESS_TOKEN_TTL_MIN must be positive"},
		{name: "shared secret", key: "REFRESH_TOKEN_SECRET", val: "access", want: "must differ"},
		{name: "missing cors origin", key: "CORS_ORIGIN", val: "", want: "missing required env var: CORS_ORIGIN"},
		{name: "wildcard cors origin", key: "CORS_ORIGIN", val: "*", want: "CORS_ORIGIN must name a concrete origin"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadCacheConfig_Defaults(t *testing.T) {
	t.Setenv("IDENTITY_CACHE_ENABLED", "")
	t.Setenv("IDENTITY_CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "identity", cfg.Prefix)

	t.Setenv("IDENTITY_CACHE_ENABLED", "on")
	t.Setenv("IDENTITY_CACHE_TTL", "5s")
	cfg = LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5*time.Second, cfg.TTL)
}

func TestLoadRedisConfig_HostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "1")

	rc := LoadRedisConfig()
	assert.Equal(t, "cache:6380", rc.Addr)
	assert.Equal(t, 2, rc.DB)
	assert.True(t, rc.TLS)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, NewRedisClient(RedisConfig{Addr: addr}))
}
