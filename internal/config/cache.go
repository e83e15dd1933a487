package config

import "time"

// CacheConfig defines settings for the identity cache consulted by the auth
// middleware. It is off unless IDENTITY_CACHE_ENABLED is set; when disabled
// or when no Redis client is configured, every request loads the user from
// the database, so a deleted account is rejected immediately. TTL bounds how long a profile
// change or deleted account can go unnoticed by the middleware; Prefix
// namespaces the keys.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig. Defaults
// are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled: envBool("IDENTITY_CACHE_ENABLED", false),
		TTL:     envDur("IDENTITY_CACHE_TTL", 30*time.Second),
		Prefix:  envStr("IDENTITY_CACHE_PREFIX", "identity"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}
