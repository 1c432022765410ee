// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Database
	DBPath string `env:"FOLIO_DB_PATH" envDefault:"./data/folio.db"`

	// Legacy MySQL site to import content from (used by -import-legacy)
	LegacyDBHost      string `env:"FOLIO_LEGACY_DB_HOST"`
	LegacyDBPort      int    `env:"FOLIO_LEGACY_DB_PORT" envDefault:"3306"`
	LegacyDBUser      string `env:"FOLIO_LEGACY_DB_USER"`
	LegacyDBPassword  string `env:"FOLIO_LEGACY_DB_PASSWORD"`
	LegacyDBName      string `env:"FOLIO_LEGACY_DB_NAME"`
	LegacyTablePrefix string `env:"FOLIO_LEGACY_TABLE_PREFIX"`

	// Server
	ServerHost string `env:"FOLIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"FOLIO_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"FOLIO_ENV" envDefault:"development"`
	LogLevel   string `env:"FOLIO_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"FOLIO_LOG_FORMAT" envDefault:"text"` // text or json
	BaseURL    string `env:"FOLIO_BASE_URL" envDefault:"http://localhost:8080"`

	// Cache
	RedisURL     string `env:"FOLIO_REDIS_URL"`                        // Optional Redis URL for distributed caching
	CachePrefix  string `env:"FOLIO_CACHE_PREFIX" envDefault:"folio:"` // Redis key prefix
	CacheTTL     int    `env:"FOLIO_CACHE_TTL" envDefault:"3600"`      // Default cache TTL in seconds
	CacheMaxSize int    `env:"FOLIO_CACHE_MAX_SIZE" envDefault:"10000"`

	// OAuth identity provider
	OAuthClientID     string `env:"FOLIO_OAUTH_CLIENT_ID"`
	OAuthClientSecret string `env:"FOLIO_OAUTH_CLIENT_SECRET"`
	OAuthAuthURL      string `env:"FOLIO_OAUTH_AUTH_URL"`
	OAuthTokenURL     string `env:"FOLIO_OAUTH_TOKEN_URL"`
	OAuthRedirectURL  string `env:"FOLIO_OAUTH_REDIRECT_URL"`
	OAuthScopes       string `env:"FOLIO_OAUTH_SCOPES" envDefault:"openid email profile"`

	// Session lifecycle
	SessionRefreshMarginSec int `env:"FOLIO_SESSION_REFRESH_MARGIN" envDefault:"300"`
	SessionMonitorSec       int `env:"FOLIO_SESSION_MONITOR_INTERVAL" envDefault:"60"`
	ExtendedSessionDays     int `env:"FOLIO_EXTENDED_SESSION_DAYS" envDefault:"30"`
	AdminCacheTTLSec        int `env:"FOLIO_ADMIN_CACHE_TTL" envDefault:"30"`
	ProfileCacheTTLSec      int `env:"FOLIO_PROFILE_CACHE_TTL" envDefault:"10"`

	// Admin debug API (disabled unless a token hash is configured)
	AdminTokenHash string `env:"FOLIO_ADMIN_TOKEN_HASH"`

	// hCaptcha (optional spam protection on the inquiry form)
	HCaptchaSiteKey   string `env:"FOLIO_HCAPTCHA_SITE_KEY"`
	HCaptchaSecretKey string `env:"FOLIO_HCAPTCHA_SECRET_KEY"`

	// GeoIP (optional country lookup for analytics)
	GeoIPDBPath string `env:"FOLIO_GEOIP_DB_PATH"`

	// CORS origins for the JS frontend, comma separated
	CORSOrigins []string `env:"FOLIO_CORS_ORIGINS" envSeparator:","`

	// CSRF
	CSRFKey string `env:"FOLIO_CSRF_KEY"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// OAuthEnabled returns true if the identity provider is fully configured.
func (c Config) OAuthEnabled() bool {
	return c.OAuthClientID != "" && c.OAuthAuthURL != "" && c.OAuthTokenURL != ""
}

// HCaptchaEnabled returns true if hCaptcha is configured.
func (c Config) HCaptchaEnabled() bool {
	return c.HCaptchaSiteKey != "" && c.HCaptchaSecretKey != ""
}

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// AdminAPIEnabled returns true if the admin debug API is configured.
func (c Config) AdminAPIEnabled() bool {
	return c.AdminTokenHash != ""
}

// SessionRefreshMargin returns the proactive refresh margin as a duration.
func (c Config) SessionRefreshMargin() time.Duration {
	return time.Duration(c.SessionRefreshMarginSec) * time.Second
}

// SessionMonitorInterval returns the session monitor tick interval.
func (c Config) SessionMonitorInterval() time.Duration {
	return time.Duration(c.SessionMonitorSec) * time.Second
}

// ExtendedSessionTTL returns the extended-session grace window.
func (c Config) ExtendedSessionTTL() time.Duration {
	return time.Duration(c.ExtendedSessionDays) * 24 * time.Hour
}

// AdminCacheTTL returns the admin-role cache TTL.
func (c Config) AdminCacheTTL() time.Duration {
	return time.Duration(c.AdminCacheTTLSec) * time.Second
}

// ProfileCacheTTL returns the profile-ensure cache TTL.
func (c Config) ProfileCacheTTL() time.Duration {
	return time.Duration(c.ProfileCacheTTLSec) * time.Second
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that env tags cannot express.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("FOLIO_DB_PATH is required")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("FOLIO_SERVER_PORT must be in 1..65535, got %d", c.ServerPort)
	}
	if c.SessionRefreshMarginSec < 0 {
		return fmt.Errorf("FOLIO_SESSION_REFRESH_MARGIN must not be negative")
	}
	if c.OAuthEnabled() && c.OAuthRedirectURL == "" {
		return fmt.Errorf("FOLIO_OAUTH_REDIRECT_URL is required when the identity provider is configured")
	}
	return nil
}
