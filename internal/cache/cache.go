package cache

import (
	"time"

	"playdash/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	logger      *log.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// NewManager creates a new cache manager
func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		caches:      make([]Cleaner, 0),
		logger:      log.OrDiscard(logger),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Removed expired panel entries", "count", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// CleanNow runs one cleanup pass over all registered caches.
func (m *Manager) CleanNow() int {
	total := 0
	for _, cache := range m.caches {
		total += cache.CleanExpired()
	}
	return total
}

// Stop gracefully stops the cleanup routine. It must only be called after StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
