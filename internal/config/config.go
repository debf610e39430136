// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order (koanf v2):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/dashfeed/config.yaml)
//  3. Environment variables mapped in envTransformFunc
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Cache     CacheConfig     `koanf:"cache"`
	Security  SecurityConfig  `koanf:"security"`
	Refresh   RefreshConfig   `koanf:"refresh"`
	Billing   BillingConfig   `koanf:"billing"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Feedback  FeedbackConfig  `koanf:"feedback"`
	CRM       CRMConfig       `koanf:"crm"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CacheConfig selects the store used for upstream responses and the store
// used for feeder state (rolling best, previous rankings).
//
// Backends: memory (TTL map), lfu (bounded, frequency-evicting), redis
// (shared between replicas), badger (on-disk, survives restarts).
type CacheConfig struct {
	Backend      string        `koanf:"backend"`
	StateBackend string        `koanf:"state_backend"`
	MaxEntries   int           `koanf:"max_entries"`
	DefaultTTL   time.Duration `koanf:"default_ttl"`
	KeyPrefix    string        `koanf:"key_prefix"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	BadgerPath       string        `koanf:"badger_path"`
	BadgerGCInterval time.Duration `koanf:"badger_gc_interval"`
}

// SecurityConfig covers the inbound HTTP surface.
type SecurityConfig struct {
	// APIKey, when set, is required as the Basic auth username on widget
	// routes. Dashboard products poll with the key and an arbitrary password.
	APIKey            string        `koanf:"api_key"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RefreshConfig drives the background warm-up loop.
type RefreshConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	Timeout  time.Duration `koanf:"timeout"`
}

// BillingConfig holds the subscription-analytics integration.
type BillingConfig struct {
	Enabled            bool          `koanf:"enabled"`
	URL                string        `koanf:"url"`
	AccountToken       string        `koanf:"account_token"`
	SecretKey          string        `koanf:"secret_key"`
	Timeout            time.Duration `koanf:"timeout"`
	RateLimitPerSecond float64       `koanf:"rate_limit_per_second"`
	CacheTTL           time.Duration `koanf:"cache_ttl"`

	StartPage int `koanf:"start_page"`
	MaxPages  int `koanf:"max_pages"`

	// NetMovementStartDate is the first day of the net MRR movement series,
	// YYYY-MM-DD.
	NetMovementStartDate string `koanf:"net_movement_start_date"`
}

// AnalyticsConfig holds the web-analytics integration. Tokens come from an
// OAuth2 client-credentials grant against TokenURL, or from a refresh-token
// grant when RefreshToken is set.
type AnalyticsConfig struct {
	Enabled            bool          `koanf:"enabled"`
	URL                string        `koanf:"url"`
	ClientID           string        `koanf:"client_id"`
	ClientSecret       string        `koanf:"client_secret"`
	RefreshToken       string        `koanf:"refresh_token"`
	TokenURL           string        `koanf:"token_url"`
	Scopes             []string      `koanf:"scopes"`
	ViewID             string        `koanf:"view_id"`
	Timeout            time.Duration `koanf:"timeout"`
	RateLimitPerSecond float64       `koanf:"rate_limit_per_second"`
	CacheTTL           time.Duration `koanf:"cache_ttl"`
}

// FeedbackConfig holds the NPS integration.
type FeedbackConfig struct {
	Enabled            bool          `koanf:"enabled"`
	URL                string        `koanf:"url"`
	APIKey             string        `koanf:"api_key"`
	Timeout            time.Duration `koanf:"timeout"`
	RateLimitPerSecond float64       `koanf:"rate_limit_per_second"`
	CacheTTL           time.Duration `koanf:"cache_ttl"`
	PerPage            int           `koanf:"per_page"`
	MaxPages           int           `koanf:"max_pages"`
}

// CRMConfig holds the deal-pipeline integration.
type CRMConfig struct {
	Enabled            bool          `koanf:"enabled"`
	URL                string        `koanf:"url"`
	APIToken           string        `koanf:"api_token"`
	Timeout            time.Duration `koanf:"timeout"`
	RateLimitPerSecond float64       `koanf:"rate_limit_per_second"`
	CacheTTL           time.Duration `koanf:"cache_ttl"`
	PageLimit          int           `koanf:"page_limit"`
	MaxPages           int           `koanf:"max_pages"`
}

// EnabledIntegrations lists the integrations switched on, in a stable order.
func (c *Config) EnabledIntegrations() []string {
	var out []string
	if c.Billing.Enabled {
		out = append(out, "billing")
	}
	if c.Analytics.Enabled {
		out = append(out, "analytics")
	}
	if c.Feedback.Enabled {
		out = append(out, "feedback")
	}
	if c.CRM.Enabled {
		out = append(out, "crm")
	}
	return out
}

// Load reads configuration from defaults, file and environment, then
// validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
