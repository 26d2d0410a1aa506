package cache

import (
	"container/list"
	"sync"
	"time"

	"songbird/internal/structures"
)

// StreamCache holds resolved stream URLs in memory, keyed by the underlying
// video id. Entries expire after a fixed window (upstream URLs are
// short-lived) and the least recently used entry is evicted under capacity
// pressure. Nothing here is ever persisted; re-resolving is cheap.
type StreamCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List // front = most recently used

	now func() time.Time // test seam
}

type streamEntry struct {
	key     string
	details structures.StreamDetails
}

// NewStreamCache creates a cache with the given capacity and entry TTL.
func NewStreamCache(capacity int, ttl time.Duration) *StreamCache {
	if capacity < 1 {
		capacity = 1
	}

	return &StreamCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached details for a video id if present and not expired.
// A hit refreshes the entry's LRU position. Expired entries are removed so
// the next resolution retries from scratch.
func (c *StreamCache) Get(videoID string) (structures.StreamDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[videoID]
	if !ok {
		return structures.StreamDetails{}, false
	}

	entry := el.Value.(*streamEntry)
	if c.now().Sub(entry.details.ResolvedAt) >= c.ttl {
		c.order.Remove(el)
		delete(c.entries, videoID)
		return structures.StreamDetails{}, false
	}

	c.order.MoveToFront(el)

	return entry.details, true
}

// Put stores resolved details for a video id, evicting the least recently
// used entry if the cache is full.
func (c *StreamCache) Put(videoID string, details structures.StreamDetails) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if details.ResolvedAt.IsZero() {
		details.ResolvedAt = c.now()
	}

	if el, ok := c.entries[videoID]; ok {
		el.Value.(*streamEntry).details = details
		c.order.MoveToFront(el)
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*streamEntry).key)
		}
	}

	el := c.order.PushFront(&streamEntry{key: videoID, details: details})
	c.entries[videoID] = el
}

// Invalidate drops a single entry.
func (c *StreamCache) Invalidate(videoID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[videoID]; ok {
		c.order.Remove(el)
		delete(c.entries, videoID)
	}
}

// Clear drops everything.
func (c *StreamCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len reports the current number of entries.
func (c *StreamCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// SetClock overrides the time source. Only for tests.
func (c *StreamCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
