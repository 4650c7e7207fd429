// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration for the propagation service.
type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	SiteBaseURL      string // canonical base URL, e.g. "https://seojobs.example.com"
	RevalidateSecret string // shared secret for the change webhook
	CronSecret       string // bearer secret for the expiry-sweep endpoint
	IndexNowKey      string // IndexNow shared key; empty disables that provider
	GoogleCredsJSON  string // raw service-account JSON; empty disables that provider
	CacheKeyPrefix   string // prefix for cached page-render keys in Redis
	SweepIntervalH   int    // in-process sweep cadence in hours; 0 disables the cron
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	baseURL := strings.TrimRight(os.Getenv("SITE_BASE_URL"), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("SITE_BASE_URL is required")
	}

	revalidateSecret := os.Getenv("REVALIDATE_SECRET")
	if revalidateSecret == "" {
		return nil, fmt.Errorf("REVALIDATE_SECRET is required")
	}

	cronSecret := os.Getenv("CRON_SECRET")
	if cronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET is required")
	}

	interval := 0
	if s := os.Getenv("SWEEP_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("SWEEP_INTERVAL_HOURS must be a non-negative integer, got %q", s)
		}
		interval = v
	}

	prefix := os.Getenv("CACHE_KEY_PREFIX")
	if prefix == "" {
		prefix = "render:"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8083"
	}

	return &Config{
		Port:             port,
		DatabaseURL:      dbURL,
		RedisURL:         redisURL,
		SiteBaseURL:      baseURL,
		RevalidateSecret: revalidateSecret,
		CronSecret:       cronSecret,
		IndexNowKey:      os.Getenv("INDEXNOW_KEY"),
		GoogleCredsJSON:  os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CacheKeyPrefix:   prefix,
		SweepIntervalH:   interval,
	}, nil
}
