package backend

import (
	"fmt"

	"playdash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:   BackendType(appConfig.CacheBackend),
		Source: SourceType(appConfig.DataSource),

		SQLiteDBPath: appConfig.SQLiteDBPath,

		RedisAddr:      appConfig.RedisAddr,
		RedisPassword:  appConfig.RedisPassword,
		RedisDB:        appConfig.RedisDB,
		RedisKeyPrefix: appConfig.RedisKeyPrefix,

		UpstreamBaseURL: appConfig.UpstreamBaseURL,
		UpstreamTimeout: appConfig.UpstreamTimeout,
		FixtureDir:      appConfig.FixtureDir,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.Source.IsValid() {
		return fmt.Errorf("invalid data source: %s", c.Source)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis backend")
		}
	case MemoryBackend:
		// Nothing to validate; the entry lives as long as the process.
	}

	switch c.Source {
	case HTTPSource:
		if c.UpstreamBaseURL == "" {
			return fmt.Errorf("upstream base URL is required for http source")
		}
	case FixtureSource:
		if c.FixtureDir == "" {
			return fmt.Errorf("fixture directory is required for fixture source")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, RedisBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
