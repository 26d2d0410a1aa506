package cache

import (
	"fmt"
	"testing"
	"time"

	"songbird/internal/structures"
)

func details(url string, at time.Time) structures.StreamDetails {
	return structures.StreamDetails{URL: url, ResolvedAt: at}
}

func TestStreamCacheHitAndMiss(t *testing.T) {
	c := NewStreamCache(4, 40*time.Minute)

	if _, ok := c.Get("v1"); ok {
		t.Error("empty cache should miss")
	}

	c.Put("v1", details("https://cdn/v1", time.Now()))

	got, ok := c.Get("v1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.URL != "https://cdn/v1" {
		t.Errorf("URL = %q", got.URL)
	}
}

func TestStreamCacheExpiry(t *testing.T) {
	c := NewStreamCache(4, 40*time.Minute)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c.SetClock(func() time.Time { return now })

	c.Put("v1", details("https://cdn/v1", base))

	now = base.Add(39 * time.Minute)
	if _, ok := c.Get("v1"); !ok {
		t.Error("entry inside TTL should hit")
	}

	now = base.Add(40 * time.Minute)
	if _, ok := c.Get("v1"); ok {
		t.Error("entry at TTL boundary should miss")
	}

	// Expired entries are removed, not just hidden.
	if c.Len() != 0 {
		t.Errorf("Len = %d after expiry, want 0", c.Len())
	}
}

func TestStreamCacheLRUEviction(t *testing.T) {
	c := NewStreamCache(3, time.Hour)

	for i := 1; i <= 3; i++ {
		c.Put(fmt.Sprintf("v%d", i), details("u", time.Now()))
	}

	// Touch v1 so v2 becomes least recently used.
	if _, ok := c.Get("v1"); !ok {
		t.Fatal("expected v1 hit")
	}

	c.Put("v4", details("u", time.Now()))

	if _, ok := c.Get("v2"); ok {
		t.Error("v2 should have been evicted")
	}
	for _, id := range []string{"v1", "v3", "v4"} {
		if _, ok := c.Get(id); !ok {
			t.Errorf("%s should still be cached", id)
		}
	}
}

func TestStreamCachePutReplaces(t *testing.T) {
	c := NewStreamCache(2, time.Hour)

	c.Put("v1", details("old", time.Now()))
	c.Put("v1", details("new", time.Now()))

	got, ok := c.Get("v1")
	if !ok || got.URL != "new" {
		t.Errorf("got (%v, %v), want new URL", got.URL, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestStreamCacheInvalidateAndClear(t *testing.T) {
	c := NewStreamCache(4, time.Hour)

	c.Put("v1", details("u", time.Now()))
	c.Put("v2", details("u", time.Now()))

	c.Invalidate("v1")
	if _, ok := c.Get("v1"); ok {
		t.Error("v1 should be invalidated")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d after clear, want 0", c.Len())
	}
}
