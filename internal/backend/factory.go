package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"playdash/internal/cache"
	"playdash/internal/log"
	"playdash/internal/storage"
	"playdash/internal/upstream"
	"playdash/internal/upstream/fixture"
	"playdash/internal/upstream/httpapi"
)

const redisPingTimeout = 5 * time.Second

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{
		logger: log.OrDiscard(logger).WithComponent(log.ComponentStorage),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	source, err := f.createSource(config)
	if err != nil {
		return nil, err
	}

	var result *BackendResult
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case RedisBackend:
		result, err = f.createRedisBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	result.Source = source
	return result, nil
}

func (f *DefaultFactory) createSource(config Config) (upstream.Source, error) {
	switch config.Source {
	case FixtureSource:
		f.logger.Info("Using fixture data source", "fixture_dir", config.FixtureDir)
		return fixture.New(config.FixtureDir), nil
	case HTTPSource:
		client, err := httpapi.New(config.UpstreamBaseURL, config.UpstreamTimeout, f.logger.WithComponent(log.ComponentUpstream))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize upstream client: %w", err)
		}
		f.logger.Info("Using upstream API", "base_url", config.UpstreamBaseURL, "timeout", config.UpstreamTimeout.String())
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported data source: %s", config.Source)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", log.FieldBackend, SQLiteBackend, "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   store,
		Runs:    store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	store := storage.NewRedisStore(client, config.RedisKeyPrefix, f.logger)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to Redis at %s: %w", config.RedisAddr, err), store.Close())
	}

	f.logger.Info("Initialized Redis backend", log.FieldBackend, RedisBackend, "addr", config.RedisAddr, "prefix", config.RedisKeyPrefix)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend", log.FieldBackend, MemoryBackend)

	return &BackendResult{
		Store: cache.NewMemoryStore(),
	}, nil
}
