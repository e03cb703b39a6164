package cache

import (
	"sync"
	"testing"
	"time"

	"playdash/internal/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1")           // key1 is now most recently used
	c.Set("key4", "value4") // evicts key2

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
}

// TestLRUCacheTTLExpiration tests time-based expiration
func TestLRUCacheTTLExpiration(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCacheWithClock[[]core.MonthTotal](10, 5*time.Minute, clock.Now)

	c.Set("monthly", []core.MonthTotal{{Month: "2024-01", Minutes: 10}})
	clock.Advance(4 * time.Minute)
	if v, found := c.Get("monthly"); !found || v[0].Minutes != 10 {
		t.Fatal("entry should exist before ttl")
	}
	clock.Advance(time.Minute)
	if _, found := c.Get("monthly"); found {
		t.Fatal("entry should expire at ttl")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read, size %d", c.Size())
	}
}

// TestLRUCacheCleanExpired tests the cleanup mechanism
func TestLRUCacheCleanExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCacheWithClock[string](100, time.Minute, clock.Now)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	clock.Advance(30 * time.Second)
	c.Set("key3", "value3")
	clock.Advance(45 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if removed := m.CleanNow(); removed != 2 {
		t.Errorf("Expected 2 items cleaned, got %d", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Expected 1 item left, got %d", c.Size())
	}
}

func TestLRUCachePurge(t *testing.T) {
	c := NewLRUCache[int](5, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size after purge = %d", c.Size())
	}
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("cache unusable after purge")
	}
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewLRUCache[string](1, time.Nanosecond))
	m.StartCleanup(time.Millisecond)
	m.Stop()
}

// BenchmarkLRUCache benchmarks cache performance
func BenchmarkLRUCache(b *testing.B) {
	c := NewLRUCache[[]core.DailyRecord](1000, time.Hour)
	days := []core.DailyRecord{{Date: core.NewDate(2025, 1, 1)}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			c.Set("history", days)
		} else {
			c.Get("history")
		}
	}
}

// TestLRUCacheThroughInterface exercises the cache through Cache[T].
func TestLRUCacheThroughInterface(t *testing.T) {
	var c Cache[int] = NewLRUCache[int](2, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")

	if _, found := c.Get("a"); found {
		t.Error("deleted key should be gone")
	}
	if v, found := c.Get("b"); !found || v != 2 {
		t.Errorf("Get(b) = %d, %v", v, found)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}
