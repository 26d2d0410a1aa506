package continuation

import (
	"context"

	"songbird/internal/logger"
	"songbird/internal/structures"
)

// SegmentExpander fetches the song segments of a video so autoplay can play
// the songs instead of the raw container.
type SegmentExpander interface {
	FetchSegments(ctx context.Context, videoID string) ([]structures.PlaybackItem, error)
}

// SetAutoplayContext replaces the snapshot of the list the user is currently
// looking at. Empty updates are ignored so a transient empty list never wipes
// the context.
func (m *Manager) SetAutoplayContext(items []structures.PlaybackItem) {
	if len(items) == 0 {
		return
	}

	m.ctxMu.Lock()
	m.contextItems = append([]structures.PlaybackItem(nil), items...)
	m.ctxMu.Unlock()
}

// ProvideNextItemsForAutoplay picks what plays after lastPlayedID runs out,
// based on the current context list. Returns nil when autoplay is disabled,
// the context is empty, the last played media is not in the list, or the
// list is exhausted.
//
// A candidate video with a known positive song count is expanded into its
// segments; expansion failure falls back to the raw item. The result never
// repeats lastPlayedID.
func (m *Manager) ProvideNextItemsForAutoplay(ctx context.Context, lastPlayedID string) []structures.PlaybackItem {
	if m.autoplayPref != nil && !m.autoplayPref() {
		return nil
	}

	m.ctxMu.RLock()
	items := m.contextItems
	m.ctxMu.RUnlock()

	if len(items) == 0 {
		return nil
	}

	var candidate *structures.PlaybackItem

	if lastPlayedID == "" {
		candidate = &items[0]
	} else {
		// Segments carry a composite id; match on the underlying video.
		lastVideo := structures.UnderlyingVideoID(lastPlayedID)

		idx := -1
		for i, item := range items {
			if structures.UnderlyingVideoID(item.ID) == lastVideo {
				idx = i
				break
			}
		}

		if idx < 0 || idx+1 >= len(items) {
			return nil
		}
		candidate = &items[idx+1]
	}

	result := m.expandCandidate(ctx, *candidate)
	if len(result) == 1 && result[0].ID == lastPlayedID {
		// A degenerate single-item list would loop on itself forever.
		return nil
	}

	return result
}

func (m *Manager) expandCandidate(ctx context.Context, candidate structures.PlaybackItem) []structures.PlaybackItem {
	if candidate.Type == structures.MediaTypeSegment || candidate.SongCount <= 0 || m.expander == nil {
		return []structures.PlaybackItem{candidate}
	}

	segments, err := m.expander.FetchSegments(ctx, structures.UnderlyingVideoID(candidate.ID))
	if err != nil {
		logger.Warn("autoplay: segment expansion failed for %s: %v", candidate.ID, err)
		return []structures.PlaybackItem{candidate}
	}
	if len(segments) == 0 {
		return []structures.PlaybackItem{candidate}
	}

	return segments
}
