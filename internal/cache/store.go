// Package cache holds the dataset cache contract, its TTL policy and the
// in-process caches used for secondary panels.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"playdash/internal/core"
	"playdash/internal/log"
)

// Keys of the two persisted values. They are always written together.
const (
	KeyDataset   = "gameData"
	KeyFetchedAt = "lastUpdated"
)

// DefaultTTL is the age after which a cached dataset is stale.
const DefaultTTL = 24 * time.Hour

// ErrCorrupt is returned when the persisted values cannot be decoded.
var ErrCorrupt = errors.New("corrupt cache entry")

// Store persists a single dataset snapshot. Write replaces both values
// atomically: readers see either the previous entry or the new one.
type Store interface {
	// Read returns the current entry; ok is false when nothing is stored.
	Read(ctx context.Context) (entry core.CacheEntry, ok bool, err error)
	// Write replaces the current entry.
	Write(ctx context.Context, entry core.CacheEntry) error
}

// Policy decides freshness of a cache entry.
type Policy struct {
	TTL time.Duration
}

// Fresh reports whether entry is younger than the TTL at now.
func (p Policy) Fresh(entry core.CacheEntry, now time.Time) bool {
	ttl := p.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return entry.Fresh(now, ttl)
}

// State classifies a read result as fresh, stale or absent.
func (p Policy) State(entry core.CacheEntry, ok bool, now time.Time) string {
	switch {
	case !ok:
		return log.CacheAbsent
	case p.Fresh(entry, now):
		return log.CacheFresh
	default:
		return log.CacheStale
	}
}

// Encode serializes an entry into the dataset JSON and the fetch time in
// epoch milliseconds.
func Encode(entry core.CacheEntry) (dataset []byte, fetchedAt string, err error) {
	dataset, err = json.Marshal(entry.Dataset)
	if err != nil {
		return nil, "", fmt.Errorf("encode dataset: %w", err)
	}
	return dataset, strconv.FormatInt(entry.FetchedAt.UnixMilli(), 10), nil
}

// Decode rebuilds an entry from its two persisted values.
func Decode(dataset []byte, fetchedAt string) (core.CacheEntry, error) {
	var ds core.CanonicalDataset
	if err := json.Unmarshal(dataset, &ds); err != nil {
		return core.CacheEntry{}, fmt.Errorf("%w: dataset: %v", ErrCorrupt, err)
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(fetchedAt), 10, 64)
	if err != nil {
		return core.CacheEntry{}, fmt.Errorf("%w: timestamp %q", ErrCorrupt, fetchedAt)
	}
	return core.CacheEntry{Dataset: ds, FetchedAt: time.UnixMilli(ms).UTC()}, nil
}

// MemoryStore keeps the encoded entry in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	dataset   []byte
	fetchedAt string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read(ctx context.Context) (core.CacheEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.CacheEntry{}, false, err
	}
	s.mu.RLock()
	dataset, fetchedAt := s.dataset, s.fetchedAt
	s.mu.RUnlock()

	if dataset == nil {
		return core.CacheEntry{}, false, nil
	}
	entry, err := Decode(dataset, fetchedAt)
	if err != nil {
		return core.CacheEntry{}, false, err
	}
	return entry, true, nil
}

func (s *MemoryStore) Write(ctx context.Context, entry core.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dataset, fetchedAt, err := Encode(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dataset, s.fetchedAt = dataset, fetchedAt
	s.mu.Unlock()
	return nil
}
