// Package backend builds the dataset cache store and the upstream source
// selected by configuration.
package backend

import (
	"context"
	"time"

	"playdash/internal/cache"
	"playdash/internal/storage"
	"playdash/internal/upstream"
)

// RunStore records refresh runs. Only the sqlite backend provides one.
type RunStore interface {
	RecordRefresh(ctx context.Context, run storage.RefreshRun) error
	RecentRefreshes(ctx context.Context, limit int) ([]storage.RefreshRun, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instances and optional cleanup function
type BackendResult struct {
	Store   cache.Store
	Source  upstream.Source
	Runs    RunStore
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the store and source described by config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type   BackendType
	Source SourceType

	// SQLite specific
	SQLiteDBPath string

	// Redis specific
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// Upstream
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	FixtureDir      string
}

// BackendType represents the type of cache backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RedisBackend:
		return true
	default:
		return false
	}
}

// SourceType selects where upstream payloads come from.
type SourceType string

const (
	HTTPSource    SourceType = "http"
	FixtureSource SourceType = "fixture"
)

func (st SourceType) IsValid() bool {
	return st == HTTPSource || st == FixtureSource
}
