// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

package config

import (
	"fmt"
	"strings"
	"time"
)

// NetMovementDateLayout is the format of billing.net_movement_start_date.
const NetMovementDateLayout = "2006-01-02"

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateCache,
		c.validateSecurity,
		c.validateRefresh,
		c.validateBilling,
		c.validateAnalytics,
		c.validateFeedback,
		c.validateCRM,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validBackend(name string) bool {
	switch name {
	case "memory", "lfu", "redis", "badger":
		return true
	}
	return false
}

func (c *Config) validateCache() error {
	if !validBackend(c.Cache.Backend) {
		return fmt.Errorf("CACHE_BACKEND must be memory, lfu, redis or badger, got %q", c.Cache.Backend)
	}
	if !validBackend(c.Cache.StateBackend) {
		return fmt.Errorf("CACHE_STATE_BACKEND must be memory, lfu, redis or badger, got %q", c.Cache.StateBackend)
	}
	if c.Cache.Backend == "lfu" && c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive for the lfu backend")
	}
	if (c.Cache.Backend == "redis" || c.Cache.StateBackend == "redis") && c.Cache.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when a redis backend is selected")
	}
	if (c.Cache.Backend == "badger" || c.Cache.StateBackend == "badger") && c.Cache.BadgerPath == "" {
		return fmt.Errorf("BADGER_PATH is required when a badger backend is selected")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateRefresh() error {
	if !c.Refresh.Enabled {
		return nil
	}
	if c.Refresh.Interval < 10*time.Second {
		return fmt.Errorf("REFRESH_INTERVAL must be at least 10s, got %v", c.Refresh.Interval)
	}
	if c.Refresh.Timeout <= 0 {
		return fmt.Errorf("REFRESH_TIMEOUT must be positive, got %v", c.Refresh.Timeout)
	}
	return nil
}

func validateCommon(prefix, rawURL string, timeout time.Duration, rate float64, maxPages int) error {
	if err := validateHTTPURL(rawURL, prefix+"_URL"); err != nil {
		return err
	}
	if timeout <= 0 {
		return fmt.Errorf("%s_TIMEOUT must be positive, got %v", prefix, timeout)
	}
	if rate < 0 {
		return fmt.Errorf("%s_RATE_LIMIT must not be negative, got %v", prefix, rate)
	}
	if maxPages < 0 {
		return fmt.Errorf("%s_MAX_PAGES must not be negative, got %d", prefix, maxPages)
	}
	return nil
}

func (c *Config) validateBilling() error {
	b := c.Billing
	if !b.Enabled {
		return nil
	}
	if err := validateCommon("BILLING", b.URL, b.Timeout, b.RateLimitPerSecond, b.MaxPages); err != nil {
		return err
	}
	if b.AccountToken == "" || b.SecretKey == "" {
		return fmt.Errorf("BILLING_ACCOUNT_TOKEN and BILLING_SECRET_KEY are required when BILLING_ENABLED=true")
	}
	if b.StartPage < 0 {
		return fmt.Errorf("BILLING_START_PAGE must not be negative, got %d", b.StartPage)
	}
	if _, err := time.Parse(NetMovementDateLayout, b.NetMovementStartDate); err != nil {
		return fmt.Errorf("BILLING_NET_MOVEMENT_START_DATE must be YYYY-MM-DD: %w", err)
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	a := c.Analytics
	if !a.Enabled {
		return nil
	}
	if err := validateCommon("ANALYTICS", a.URL, a.Timeout, a.RateLimitPerSecond, 0); err != nil {
		return err
	}
	if a.ClientID == "" || a.ClientSecret == "" {
		return fmt.Errorf("ANALYTICS_CLIENT_ID and ANALYTICS_CLIENT_SECRET are required when ANALYTICS_ENABLED=true")
	}
	if err := validateHTTPURL(a.TokenURL, "ANALYTICS_TOKEN_URL"); err != nil {
		return err
	}
	if a.ViewID == "" {
		return fmt.Errorf("ANALYTICS_VIEW_ID is required when ANALYTICS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateFeedback() error {
	f := c.Feedback
	if !f.Enabled {
		return nil
	}
	if err := validateCommon("FEEDBACK", f.URL, f.Timeout, f.RateLimitPerSecond, f.MaxPages); err != nil {
		return err
	}
	if f.APIKey == "" {
		return fmt.Errorf("FEEDBACK_API_KEY is required when FEEDBACK_ENABLED=true")
	}
	if f.PerPage <= 0 {
		return fmt.Errorf("FEEDBACK_PER_PAGE must be positive, got %d", f.PerPage)
	}
	return nil
}

func (c *Config) validateCRM() error {
	r := c.CRM
	if !r.Enabled {
		return nil
	}
	if err := validateCommon("CRM", r.URL, r.Timeout, r.RateLimitPerSecond, r.MaxPages); err != nil {
		return err
	}
	if r.APIToken == "" {
		return fmt.Errorf("CRM_API_TOKEN is required when CRM_ENABLED=true")
	}
	if r.PageLimit <= 0 {
		return fmt.Errorf("CRM_PAGE_LIMIT must be positive, got %d", r.PageLimit)
	}
	return nil
}

// IsProduction reports whether server.environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}
