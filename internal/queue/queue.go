// Package queue holds the live playback queue and its durable persistence.
package queue

import (
	"math/rand"

	"songbird/internal/structures"
)

// Queue is the ordered list of items the player walks, plus head state.
// While shuffle is on, Backup preserves the pre-shuffle order by id so
// turning shuffle off restores the exact original sequence.
type Queue struct {
	Items     []structures.PlaybackItem
	Current   int // -1 when empty
	Repeat    structures.RepeatMode
	ShuffleOn bool
	Backup    []string
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{Current: -1}
}

// Replace swaps in a new item list and resets the head to the first item.
func (q *Queue) Replace(items []structures.PlaybackItem) {
	q.Items = items
	q.ShuffleOn = false
	q.Backup = nil
	if len(items) == 0 {
		q.Current = -1
	} else {
		q.Current = 0
	}
}

// Append adds items to the end of the queue.
func (q *Queue) Append(items []structures.PlaybackItem) {
	q.Items = append(q.Items, items...)
	if q.Current < 0 && len(q.Items) > 0 {
		q.Current = 0
	}
}

// CurrentItem returns the item under the head, or nil when empty.
func (q *Queue) CurrentItem() *structures.PlaybackItem {
	if q.Current < 0 || q.Current >= len(q.Items) {
		return nil
	}
	return &q.Items[q.Current]
}

// IDs returns the item ids in active order.
func (q *Queue) IDs() []string {
	ids := make([]string, len(q.Items))
	for i, item := range q.Items {
		ids[i] = item.ID
	}
	return ids
}

// Contains reports whether an id is already queued.
func (q *Queue) Contains(id string) bool {
	for _, item := range q.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Next advances the head. With RepeatOne the head stays; with RepeatAll it
// wraps. Returns false when the queue is exhausted.
func (q *Queue) Next() bool {
	if len(q.Items) == 0 {
		return false
	}

	switch q.Repeat {
	case structures.RepeatOne:
		return true
	case structures.RepeatAll:
		q.Current = (q.Current + 1) % len(q.Items)
		return true
	default:
		if q.Current+1 < len(q.Items) {
			q.Current++
			return true
		}
		return false
	}
}

// Previous moves the head back, wrapping under RepeatAll.
func (q *Queue) Previous() bool {
	if len(q.Items) == 0 {
		return false
	}

	if q.Current > 0 {
		q.Current--
		return true
	}
	if q.Repeat == structures.RepeatAll {
		q.Current = len(q.Items) - 1
		return true
	}

	return false
}

// Shuffle snapshots the current order into Backup, then shuffles the
// unplayed remainder after the current item. Played history and the current
// item keep their positions. A second call while already shuffled reshuffles
// the remainder without touching the original backup.
func (q *Queue) Shuffle(rng *rand.Rand) {
	if !q.ShuffleOn {
		q.Backup = q.IDs()
	}
	q.ShuffleOn = true

	start := q.Current + 1
	if len(q.Items)-start < 2 {
		return
	}

	rest := q.Items[start:]
	rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
}

// Unshuffle restores the exact pre-shuffle order from Backup. Items appended
// after the shuffle (e.g. radio continuation) keep their relative order at
// the end. The backup order itself is never re-sorted.
func (q *Queue) Unshuffle() {
	if !q.ShuffleOn {
		return
	}

	currentID := ""
	if item := q.CurrentItem(); item != nil {
		currentID = item.ID
	}

	byID := make(map[string]structures.PlaybackItem, len(q.Items))
	for _, item := range q.Items {
		byID[item.ID] = item
	}

	restored := make([]structures.PlaybackItem, 0, len(q.Items))
	for _, id := range q.Backup {
		if item, ok := byID[id]; ok {
			restored = append(restored, item)
			delete(byID, id)
		}
	}
	for _, item := range q.Items {
		if _, ok := byID[item.ID]; ok {
			restored = append(restored, item)
			delete(byID, item.ID)
		}
	}

	q.Items = restored
	q.ShuffleOn = false
	q.Backup = nil
	q.reindex(currentID)
}

// Snapshot builds the durable persistence unit for the queue.
func (q *Queue) Snapshot(queueID string, positionMs int64) structures.PersistedPlaybackData {
	data := structures.PersistedPlaybackData{
		QueueID:      queueID,
		Items:        append([]structures.PlaybackItem(nil), q.Items...),
		CurrentIndex: q.Current,
		PositionMs:   positionMs,
		ShuffleOn:    q.ShuffleOn,
		Repeat:       q.Repeat,
	}
	if item := q.CurrentItem(); item != nil {
		data.CurrentMediaID = item.ID
	}
	if q.ShuffleOn {
		data.BackupOrder = append([]string(nil), q.Backup...)
	}
	return data
}

// Restore rebuilds the live queue from a persisted snapshot.
func Restore(data *structures.PersistedPlaybackData) *Queue {
	q := &Queue{
		Items:     append([]structures.PlaybackItem(nil), data.Items...),
		Current:   data.CurrentIndex,
		Repeat:    data.Repeat,
		ShuffleOn: data.ShuffleOn,
	}
	if data.ShuffleOn {
		q.Backup = append([]string(nil), data.BackupOrder...)
	}
	if len(q.Items) == 0 {
		q.Current = -1
	} else if q.Current < 0 || q.Current >= len(q.Items) {
		q.Current = 0
	}
	return q
}

func (q *Queue) reindex(currentID string) {
	if currentID == "" {
		if len(q.Items) == 0 {
			q.Current = -1
		} else {
			q.Current = 0
		}
		return
	}

	for i, item := range q.Items {
		if item.ID == currentID {
			q.Current = i
			return
		}
	}

	q.Current = 0
}
