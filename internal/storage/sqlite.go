// Package storage implements the persistent dataset cache backends.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"playdash/internal/cache"
	"playdash/internal/core"
	"playdash/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the cache entry in a local SQLite database. Both cache
// keys are written in a single transaction.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

var _ cache.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies migrations.
func NewSQLiteStore(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, logger: log.OrDiscard(logger)}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Read loads both keys. A missing key on either side means no entry.
func (s *SQLiteStore) Read(ctx context.Context) (core.CacheEntry, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM cache_entries WHERE key IN (?, ?)`,
		cache.KeyDataset, cache.KeyFetchedAt)
	if err != nil {
		return core.CacheEntry{}, false, fmt.Errorf("query cache entries: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return core.CacheEntry{}, false, fmt.Errorf("scan cache entry: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return core.CacheEntry{}, false, fmt.Errorf("iterate cache entries: %w", err)
	}

	dataset, okData := values[cache.KeyDataset]
	fetchedAt, okTime := values[cache.KeyFetchedAt]
	if !okData || !okTime {
		return core.CacheEntry{}, false, nil
	}
	entry, err := cache.Decode([]byte(dataset), fetchedAt)
	if err != nil {
		return core.CacheEntry{}, false, err
	}
	return entry, true, nil
}

// Write replaces both keys in one transaction.
func (s *SQLiteStore) Write(ctx context.Context, entry core.CacheEntry) error {
	dataset, fetchedAt, err := cache.Encode(entry)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, upsert, cache.KeyDataset, string(dataset), now); err != nil {
		return fmt.Errorf("write %s: %w", cache.KeyDataset, err)
	}
	if _, err := tx.ExecContext(ctx, upsert, cache.KeyFetchedAt, fetchedAt, now); err != nil {
		return fmt.Errorf("write %s: %w", cache.KeyFetchedAt, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}

	s.logger.DebugContext(ctx, "Cache entry written",
		log.FieldBackend, "sqlite",
		log.FieldGames, len(entry.Dataset.PlayHistories))
	return nil
}

// RefreshRun records one refresh attempt.
type RefreshRun struct {
	ID         string
	Reason     string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Error      string
	Games      int
	Days       int
}

// RecordRefresh stores the outcome of a refresh attempt.
func (s *SQLiteStore) RecordRefresh(ctx context.Context, run RefreshRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_runs (id, reason, started_at, finished_at, outcome, error, games, days)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Reason, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.Outcome, run.Error, run.Games, run.Days)
	if err != nil {
		return fmt.Errorf("insert refresh run: %w", err)
	}
	return nil
}

// RecentRefreshes returns up to limit runs, newest first.
func (s *SQLiteStore) RecentRefreshes(ctx context.Context, limit int) ([]RefreshRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reason, started_at, finished_at, outcome, error, games, days
		 FROM refresh_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query refresh runs: %w", err)
	}
	defer rows.Close()

	var runs []RefreshRun
	for rows.Next() {
		var (
			r                 RefreshRun
			started, finished int64
		)
		if err := rows.Scan(&r.ID, &r.Reason, &started, &finished, &r.Outcome, &r.Error, &r.Games, &r.Days); err != nil {
			return nil, fmt.Errorf("scan refresh run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh runs: %w", err)
	}
	return runs, nil
}
