// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dashfeed/config.yaml",
	"/etc/dashfeed/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3030,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Backend:          "memory",
			StateBackend:     "memory",
			MaxEntries:       10000,
			DefaultTTL:       5 * time.Minute,
			KeyPrefix:        "dashfeed:",
			RedisAddr:        "127.0.0.1:6379",
			BadgerPath:       "/data/dashfeed",
			BadgerGCInterval: 5 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Refresh: RefreshConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
			Timeout:  2 * time.Minute,
		},
		Billing: BillingConfig{
			URL:                  "https://api.chartmogul.com",
			Timeout:              30 * time.Second,
			RateLimitPerSecond:   5,
			CacheTTL:             10 * time.Minute,
			StartPage:            1,
			MaxPages:             1000,
			NetMovementStartDate: "2015-01-01",
		},
		Analytics: AnalyticsConfig{
			URL:                "https://www.googleapis.com/analytics",
			TokenURL:           "https://oauth2.googleapis.com/token",
			Scopes:             []string{"https://www.googleapis.com/auth/analytics.readonly"},
			Timeout:            30 * time.Second,
			RateLimitPerSecond: 10,
			CacheTTL:           5 * time.Minute,
		},
		Feedback: FeedbackConfig{
			URL:                "https://api.delighted.com",
			Timeout:            30 * time.Second,
			RateLimitPerSecond: 2,
			CacheTTL:           15 * time.Minute,
			PerPage:            100,
			MaxPages:           1000,
		},
		CRM: CRMConfig{
			URL:                "https://api.pipedrive.com",
			Timeout:            30 * time.Second,
			RateLimitPerSecond: 5,
			CacheTTL:           10 * time.Minute,
			PageLimit:          100,
			MaxPages:           1000,
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and the environment,
// in that order of increasing precedence.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"analytics.scopes",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"cache_backend":       "cache.backend",
	"cache_state_backend": "cache.state_backend",
	"cache_max_entries":   "cache.max_entries",
	"cache_default_ttl":   "cache.default_ttl",
	"cache_key_prefix":    "cache.key_prefix",
	"redis_addr":          "cache.redis_addr",
	"redis_password":      "cache.redis_password",
	"redis_db":            "cache.redis_db",
	"badger_path":         "cache.badger_path",
	"badger_gc_interval":  "cache.badger_gc_interval",

	"api_key":             "security.api_key",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"refresh_enabled":  "refresh.enabled",
	"refresh_interval": "refresh.interval",
	"refresh_timeout":  "refresh.timeout",

	"billing_enabled":                 "billing.enabled",
	"billing_url":                     "billing.url",
	"billing_account_token":           "billing.account_token",
	"billing_secret_key":              "billing.secret_key",
	"billing_timeout":                 "billing.timeout",
	"billing_rate_limit":              "billing.rate_limit_per_second",
	"billing_cache_ttl":               "billing.cache_ttl",
	"billing_start_page":              "billing.start_page",
	"billing_max_pages":               "billing.max_pages",
	"billing_net_movement_start_date": "billing.net_movement_start_date",

	"analytics_enabled":       "analytics.enabled",
	"analytics_url":           "analytics.url",
	"analytics_client_id":     "analytics.client_id",
	"analytics_client_secret": "analytics.client_secret",
	"analytics_refresh_token": "analytics.refresh_token",
	"analytics_token_url":     "analytics.token_url",
	"analytics_scopes":        "analytics.scopes",
	"analytics_view_id":       "analytics.view_id",
	"analytics_timeout":       "analytics.timeout",
	"analytics_rate_limit":    "analytics.rate_limit_per_second",
	"analytics_cache_ttl":     "analytics.cache_ttl",

	"feedback_enabled":    "feedback.enabled",
	"feedback_url":        "feedback.url",
	"feedback_api_key":    "feedback.api_key",
	"feedback_timeout":    "feedback.timeout",
	"feedback_rate_limit": "feedback.rate_limit_per_second",
	"feedback_cache_ttl":  "feedback.cache_ttl",
	"feedback_per_page":   "feedback.per_page",
	"feedback_max_pages":  "feedback.max_pages",

	"crm_enabled":    "crm.enabled",
	"crm_url":        "crm.url",
	"crm_api_token":  "crm.api_token",
	"crm_timeout":    "crm.timeout",
	"crm_rate_limit": "crm.rate_limit_per_second",
	"crm_cache_ttl":  "crm.cache_ttl",
	"crm_page_limit": "crm.page_limit",
	"crm_max_pages":  "crm.max_pages",
}

// envTransformFunc maps known environment variables onto koanf paths.
// Unmapped variables return "" and are skipped, so unrelated environment
// never leaks into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
