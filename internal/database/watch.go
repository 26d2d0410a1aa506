package database

import (
	"sync"

	"songbird/internal/structures"
)

// rowWatcher is one subscription to a single media id. The mutex orders sends
// against close: a watcher is marked closed before its channel closes, and
// send never touches a closed channel.
type rowWatcher struct {
	id string

	mu     sync.Mutex
	closed bool
	ch     chan *structures.MetadataRow
}

// WatchRow subscribes to changes of a single media row. The current value
// (nil when absent) is delivered first, then a new value on every upsert or
// delete touching the id. Slow consumers have stale emissions dropped; the
// latest state is always re-readable via Get. The returned cancel func must
// be called to release the subscription.
func (db *DB) WatchRow(id string) (<-chan *structures.MetadataRow, func()) {
	w := &rowWatcher{
		id: id,
		ch: make(chan *structures.MetadataRow, 8),
	}

	db.watchMu.Lock()
	db.watchers[id] = append(db.watchers[id], w)
	db.watchMu.Unlock()

	if row, ok := db.Get(id); ok {
		w.send(row)
	} else {
		w.send(nil)
	}

	cancel := func() {
		db.watchMu.Lock()
		list := db.watchers[id]
		for i, other := range list {
			if other == w {
				db.watchers[id] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(db.watchers[id]) == 0 {
			delete(db.watchers, id)
		}
		db.watchMu.Unlock()

		w.close()
	}

	return w.ch, cancel
}

func (w *rowWatcher) send(row *structures.MetadataRow) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	select {
	case w.ch <- row:
	default:
		// Consumer is behind; drop this emission.
	}
}

// close marks the watcher dead and closes its channel. Safe against a
// concurrent send; idempotent.
func (w *rowWatcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	close(w.ch)
}

// notifyRow re-reads the row and fans it out to subscribers of the id.
func (db *DB) notifyRow(id string) {
	db.watchMu.Lock()
	list := append([]*rowWatcher(nil), db.watchers[id]...)
	db.watchMu.Unlock()

	if len(list) == 0 {
		return
	}

	row, ok := db.Get(id)
	if !ok {
		row = nil
	}

	for _, w := range list {
		w.send(row)
	}
}

// notifyAllCleared tells every subscriber its row is gone.
func (db *DB) notifyAllCleared() {
	db.watchMu.Lock()
	var all []*rowWatcher
	for _, list := range db.watchers {
		all = append(all, list...)
	}
	db.watchMu.Unlock()

	for _, w := range all {
		w.send(nil)
	}
}

// closeAllWatchers closes every subscription channel. Called on Close.
func (db *DB) closeAllWatchers() {
	db.watchMu.Lock()
	var all []*rowWatcher
	for id, list := range db.watchers {
		all = append(all, list...)
		delete(db.watchers, id)
	}
	db.watchMu.Unlock()

	for _, w := range all {
		w.close()
	}
}
