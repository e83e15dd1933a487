package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. TTLs are kept in the units operators set them in
// and converted with AccessTTL/RefreshTTL.
type Config struct {
	Env                string // application environment (e.g. "dev", "prod")
	Port               string // HTTP port to listen on
	DBUser             string // database username
	DBPass             string // database password (optional)
	DBHost             string // database host address
	DBPort             string // database port number
	DBName             string // database name
	AccessTokenSecret  string // HMAC secret for access tokens
	RefreshTokenSecret string // HMAC secret for refresh tokens
	AccessTTLMin       int    // access token time-to-live in minutes
	RefreshTTLDays     int    // refresh token time-to-live in days
	BcryptCost         int    // bcrypt cost for password hashing
	CookieSecure       bool   // set the Secure flag on auth cookies
	CORSOrigin         string // allowed origin for credentialed CORS requests (required, no wildcard)
	BodyLimit          string // maximum request body size, echo notation (e.g. "16K")
	LogLevel           string // zap level name
	MigrateOnStart     bool   // run embedded migrations before serving
	AMQPURL            string // broker URL for domain events; empty disables publishing
}

// AccessTTL returns the access token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL returns the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// Load reads configuration values from environment variables. Every missing
// or invalid required variable is reported in the returned error so an
// operator can fix them in one pass.
func Load() (Config, error) {
	var errs []error
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}
	mustInt := func(key string) int {
		s := must(key)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid int for %s: %q", key, s))
		}
		return n
	}

	cfg := Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"),
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		AccessTokenSecret:  must("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:       mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:     mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:         mustInt("BCRYPT_COST"),
		CORSOrigin:         must("CORS_ORIGIN"),
		BodyLimit:          envStr("BODY_LIMIT", "16K"),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		MigrateOnStart:     envBool("MIGRATE_ON_START", true),
		AMQPURL:            envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
	}
	cfg.CookieSecure = envBool("COOKIE_SECURE", cfg.Env != "dev")

	if cfg.AccessTTLMin < 0 || (cfg.AccessTTLMin == 0 && os.Getenv("ACCESS_TOKEN_TTL_MIN") != "") {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	if cfg.RefreshTTLDays < 0 || (cfg.RefreshTTLDays == 0 && os.Getenv("REFRESH_TOKEN_TTL_DAYS") != "") {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
	}
	if cfg.AccessTokenSecret != "" && cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if strings.Contains(cfg.CORSOrigin, "*") {
		// Browsers refuse a wildcard origin on credentialed (cookie) requests.
		errs = append(errs, errors.New("CORS_ORIGIN must name a concrete origin, not a wildcard"))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
