// Package store builds cached accessors over the catalog network client and
// the durable metadata store. Fetches write through to the database; reads
// are served from the database projection, never from the raw network model,
// so callers always observe exactly what was persisted. A short-lived
// in-memory cache keyed by request key sits in front of both.
package store

import (
	"context"
	"sync"
	"time"

	"songbird/internal/database"
	"songbird/internal/structures"
)

const (
	// DefaultItemTTL bounds how long a single-item response is considered
	// fresh. Item detail churns slowly.
	DefaultItemTTL = 4 * time.Hour

	// DefaultListTTL bounds list responses, which churn faster.
	DefaultListTTL = 30 * time.Minute
)

// memoryCache is a TTL map guarding redundant network calls. Keys are request
// keys, not media ids.
type memoryCache[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[K]memoryEntry[V]
	now     func() time.Time
}

type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newMemoryCache[K comparable, V any](ttl time.Duration) *memoryCache[K, V] {
	return &memoryCache[K, V]{
		ttl:     ttl,
		entries: make(map[K]memoryEntry[V]),
		now:     time.Now,
	}
}

func (c *memoryCache[K, V]) get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		var zero V
		return zero, false
	}

	return entry.value, true
}

func (c *memoryCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *memoryCache[K, V]) invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// ItemConfig wires a single-key accessor: one request key maps to one
// display item.
type ItemConfig[M any, K comparable] struct {
	TTL     time.Duration
	Fetch   func(ctx context.Context, key K) (M, error)
	MapRow  func(M) structures.MetadataRow
	KeyToID func(K) string
}

// ItemStore is a cached single-item accessor.
type ItemStore[M any, K comparable] struct {
	db     *database.DB
	cfg    ItemConfig[M, K]
	memory *memoryCache[K, structures.TrackDisplay]
}

// NewItemStore builds a cached item accessor over the database.
func NewItemStore[M any, K comparable](db *database.DB, cfg ItemConfig[M, K]) *ItemStore[M, K] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultItemTTL
	}

	return &ItemStore[M, K]{
		db:     db,
		cfg:    cfg,
		memory: newMemoryCache[K, structures.TrackDisplay](cfg.TTL),
	}
}

// Get returns the display item for a key. A memory hit bypasses both the
// network and the database; otherwise the network model is fetched, upserted,
// and the result re-read from the database projection.
func (s *ItemStore[M, K]) Get(ctx context.Context, key K) (*structures.TrackDisplay, error) {
	if cached, ok := s.memory.get(key); ok {
		return &cached, nil
	}

	model, err := s.cfg.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	row := s.cfg.MapRow(model)
	if err := s.db.Upsert(row); err != nil {
		return nil, err
	}

	id := s.cfg.KeyToID(key)
	displays, err := s.db.ReadOptimizedBatch([]string{id})
	if err != nil {
		return nil, err
	}

	var display structures.TrackDisplay
	if len(displays) > 0 {
		display = displays[0]
	} else {
		// The row was just written; a miss here means the key maps to a
		// different id than the fetch produced. Serve the mapped row with
		// default interactions rather than nothing.
		display = structures.TrackDisplay{Row: row}
	}

	s.memory.put(key, display)

	return &display, nil
}

// Watch exposes the reactive database projection for a key. Emissions track
// the durable store, independent of any in-flight fetch.
func (s *ItemStore[M, K]) Watch(key K) (<-chan *structures.MetadataRow, func()) {
	return s.db.WatchRow(s.cfg.KeyToID(key))
}

// Invalidate drops the memory entry for a key, forcing the next Get to fetch.
func (s *ItemStore[M, K]) Invalidate(key K) {
	s.memory.invalidate(key)
}

// ListConfig wires a list accessor: one request key maps to an ordered list
// of display items.
type ListConfig[M any, K comparable] struct {
	TTL       time.Duration
	FetchList func(ctx context.Context, key K) ([]M, error)
	MapRow    func(M) structures.MetadataRow
}

// ListStore is a cached list accessor.
type ListStore[M any, K comparable] struct {
	db     *database.DB
	cfg    ListConfig[M, K]
	memory *memoryCache[K, []structures.TrackDisplay]
}

// NewListStore builds a cached list accessor over the database.
func NewListStore[M any, K comparable](db *database.DB, cfg ListConfig[M, K]) *ListStore[M, K] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultListTTL
	}

	return &ListStore[M, K]{
		db:     db,
		cfg:    cfg,
		memory: newMemoryCache[K, []structures.TrackDisplay](cfg.TTL),
	}
}

// Get returns the display list for a key. On a memory miss the fetched models
// are batch-upserted, then re-read through the optimized batch projection so
// the returned list carries the store's interaction flags. Items the re-read
// does not see yet fall back to a default-interaction display built from the
// fetched model, so the list never silently shrinks; the next reactive
// emission corrects any transiently-default flags.
func (s *ListStore[M, K]) Get(ctx context.Context, key K) ([]structures.TrackDisplay, error) {
	if cached, ok := s.memory.get(key); ok {
		return cached, nil
	}

	models, err := s.cfg.FetchList(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		s.memory.put(key, nil)
		return nil, nil
	}

	rows := make([]structures.MetadataRow, len(models))
	ids := make([]string, len(models))
	for i, model := range models {
		rows[i] = s.cfg.MapRow(model)
		ids[i] = rows[i].ID
	}

	if err := s.db.UpsertBatch(rows); err != nil {
		return nil, err
	}

	displays, err := s.db.ReadOptimizedBatch(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]structures.TrackDisplay, len(displays))
	for _, d := range displays {
		byID[d.Row.ID] = d
	}

	result := make([]structures.TrackDisplay, 0, len(ids))
	for i, id := range ids {
		if d, ok := byID[id]; ok {
			result = append(result, d)
		} else {
			result = append(result, structures.TrackDisplay{Row: rows[i]})
		}
	}

	s.memory.put(key, result)

	return result, nil
}

// Invalidate drops the memory entry for a key.
func (s *ListStore[M, K]) Invalidate(key K) {
	s.memory.invalidate(key)
}
