package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

// Valid values of DATA_SOURCE and CACHE_BACKEND.
var (
	DataSources   = []string{"http", "fixture"}
	CacheBackends = []string{"memory", "sqlite", "redis"}
)

type Config struct {
	// HTTP Server
	Port             string
	RefreshPerMinute int

	// Upstream
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	DataSource      string
	FixtureDir      string
	ImageOrigin     string

	// Cache
	CacheBackend   string
	CacheTTL       time.Duration
	PanelCacheTTL  time.Duration
	PanelCacheSize int

	// Database
	SQLiteDBPath string

	// Redis
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	RefreshSchedule string
	RefreshTimeout  time.Duration
	Timezone        string

	LogLevel string
}

func Load() *Config {
	upstream := getEnv("UPSTREAM_BASE_URL", "http://localhost:8000")
	cfg := &Config{
		Port:             getEnv("PORT", "8081"),
		RefreshPerMinute: getEnvInt("REFRESH_PER_MINUTE", 6),

		UpstreamBaseURL: upstream,
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		DataSource:      getEnv("DATA_SOURCE", "http"),
		FixtureDir:      getEnv("FIXTURE_DIR", "./data"),
		ImageOrigin:     getEnv("IMAGE_ORIGIN", upstream),

		CacheBackend:   getEnv("CACHE_BACKEND", "sqlite"),
		CacheTTL:       getEnvDuration("CACHE_TTL", 24*time.Hour),
		PanelCacheTTL:  getEnvDuration("PANEL_CACHE_TTL", 5*time.Minute),
		PanelCacheSize: getEnvInt("PANEL_CACHE_SIZE", 64),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/playdash.db"),

		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "playdash:"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "playdash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_requests"),

		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 4 * * *"),
		RefreshTimeout:  getEnvDuration("REFRESH_TIMEOUT", time.Minute),
		Timezone:        getEnv("REFRESH_TIMEZONE", "UTC"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RefreshPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid refresh rate limit %d: must be at least 1", c.RefreshPerMinute))
	}

	// Validate data source
	if !slices.Contains(DataSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, DataSources))
	}
	switch c.DataSource {
	case "http":
		if err := validateHTTPURL(c.UpstreamBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid upstream base URL '%s': %v", c.UpstreamBaseURL, err))
		}
	case "fixture":
		if c.FixtureDir == "" {
			errors = append(errors, "fixture directory cannot be empty when using fixture data source")
		} else if info, err := os.Stat(c.FixtureDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("fixture directory does not exist: %s", c.FixtureDir))
		}
	}
	if c.UpstreamTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid upstream timeout %v: must be at least 1 second", c.UpstreamTimeout))
	}
	if c.ImageOrigin != "" {
		if err := validateHTTPURL(c.ImageOrigin); err != nil {
			errors = append(errors, fmt.Sprintf("invalid image origin '%s': %v", c.ImageOrigin, err))
		}
	}

	// Validate cache backend
	if !slices.Contains(CacheBackends, c.CacheBackend) {
		errors = append(errors, fmt.Sprintf("invalid cache backend '%s': must be one of %v", c.CacheBackend, CacheBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.CacheBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.CacheBackend == "redis" {
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid Redis DB %d: must not be negative", c.RedisDB))
		}
	}

	if c.CacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 minute", c.CacheTTL))
	}
	if c.PanelCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid panel cache TTL %v: must be at least 1 second", c.PanelCacheTTL))
	}
	if c.PanelCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid panel cache size %d: must be at least 1", c.PanelCacheSize))
	} else if c.PanelCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid panel cache size %d: must be at most 10000", c.PanelCacheSize))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
	}

	// Validate AMQP exchange and queue names if AMQP is configured
	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate worker configuration
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid refresh schedule '%s': %v", c.RefreshSchedule, err))
		}
	}
	if c.RefreshTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh timeout %v: must be at least 1 second", c.RefreshTimeout))
	} else if c.RefreshTimeout > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh timeout %v: must be at most 1 hour", c.RefreshTimeout))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be 'http' or 'https'")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
