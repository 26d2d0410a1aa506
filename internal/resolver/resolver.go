// Package resolver turns logical media identifiers into playable stream
// URIs. Local downloads win over the in-memory URL cache, which wins over
// network extraction; failures surface as nil results and never reach the
// player as errors.
package resolver

import (
	"context"
	"sync"

	"songbird/internal/cache"
	"songbird/internal/database"
	"songbird/internal/logger"
	"songbird/internal/structures"
)

// Extractor resolves a raw video id into stream details. Implementations are
// expected to be called from background goroutines only.
type Extractor interface {
	Resolve(ctx context.Context, videoID string) (structures.StreamDetails, error)
}

// Coordinator performs just-in-time stream resolution for playback items.
type Coordinator struct {
	db        *database.DB
	cache     *cache.StreamCache
	extractor Extractor

	mu       sync.Mutex
	inflight map[*context.CancelFunc]struct{}
}

// New creates a resolution coordinator.
func New(db *database.DB, streamCache *cache.StreamCache, extractor Extractor) *Coordinator {
	return &Coordinator{
		db:        db,
		cache:     streamCache,
		extractor: extractor,
		inflight:  make(map[*context.CancelFunc]struct{}),
	}
}

// ResolveSingleStream fills in the stream URI for one playback item. The
// interactions batch, when non-nil, answers the download lookup without
// touching the database; pass nil to fall back to a direct lookup.
//
// Resolution order: already resolved > completed local download > cached URL
// for the underlying video > network extraction. Returns nil when the item
// cannot be resolved or the context is cancelled; the caller skips the item.
func (c *Coordinator) ResolveSingleStream(ctx context.Context, item structures.PlaybackItem, batch map[string]database.Interaction) *structures.PlaybackItem {
	if item.StreamURI != "" {
		return &item
	}

	if local := c.localPath(item.ID, batch); local != "" {
		item.StreamURI = local
		return &item
	}

	// Segments of one video share a single resolved URL.
	videoID := structures.UnderlyingVideoID(item.ID)

	if details, ok := c.cache.Get(videoID); ok {
		item.StreamURI = details.URL
		return &item
	}

	if ctx.Err() != nil {
		logger.Debug("resolution cancelled before extraction: %s", item.ID)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.track(&cancel)
	defer c.untrack(&cancel)

	details, err := c.extractor.Resolve(ctx, videoID)
	if err != nil {
		logger.Warn("failed to resolve stream for %s: %v", videoID, err)
		return nil
	}

	c.cache.Put(videoID, details)
	item.StreamURI = details.URL

	return &item
}

// CachedURL peeks at the URL cache for a media id without any network work.
func (c *Coordinator) CachedURL(mediaID string) string {
	details, ok := c.cache.Get(structures.UnderlyingVideoID(mediaID))
	if !ok {
		return ""
	}
	return details.URL
}

// PrefetchInteractions loads the interaction rows for a set of items in one
// query, for callers about to resolve many items.
func (c *Coordinator) PrefetchInteractions(items []structures.PlaybackItem) map[string]database.Interaction {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	batch, err := c.db.GetInteractions(ids)
	if err != nil {
		logger.Warn("failed to prefetch interactions: %v", err)
		return nil
	}

	return batch
}

// CancelAll aborts every in-flight resolution. Calls already past their
// extraction still complete; their results are cached but discarded by the
// cancelled callers.
func (c *Coordinator) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for cancel := range c.inflight {
		(*cancel)()
	}
}

func (c *Coordinator) localPath(mediaID string, batch map[string]database.Interaction) string {
	if batch != nil {
		if in, ok := batch[mediaID]; ok {
			if in.DownloadStatus == structures.Downloaded && in.LocalPath != "" {
				return in.LocalPath
			}
		}
		return ""
	}

	in, ok := c.db.GetInteraction(mediaID)
	if !ok {
		return ""
	}
	if in.DownloadStatus == structures.Downloaded && in.LocalPath != "" {
		return in.LocalPath
	}

	return ""
}

func (c *Coordinator) track(cancel *context.CancelFunc) {
	c.mu.Lock()
	c.inflight[cancel] = struct{}{}
	c.mu.Unlock()
}

func (c *Coordinator) untrack(cancel *context.CancelFunc) {
	c.mu.Lock()
	delete(c.inflight, cancel)
	c.mu.Unlock()
}
