package queue

import (
	"sync"
	"time"

	"songbird/internal/database"
	"songbird/internal/logger"
	"songbird/internal/structures"
)

// DefaultQueueID names the single queue current builds use. The schema keys
// everything by queue id, so more queues are a data change, not a schema one.
const DefaultQueueID = "default"

// DefaultSaveDelay coalesces rapid state churn (scrubber drags, quick skips)
// into a single write.
const DefaultSaveDelay = 750 * time.Millisecond

// Manager persists queue snapshots. Saves are either immediate or debounced;
// a debounced save always persists the latest scheduled state, and immediate
// saves and clears invalidate any pending debounced one so a stale write can
// never land after a newer one.
//
// Timer.Stop cannot abort an AfterFunc whose callback already started, so
// cancellation is a generation check: every Save, Clear, Flush and
// ScheduleSave bumps the generation, writes happen under the mutex, and a
// callback that lost the race finds its generation stale and discards its
// snapshot.
type Manager struct {
	db      *database.DB
	queueID string
	delay   time.Duration

	mu      sync.Mutex
	pending *time.Timer
	gen     uint64
}

// NewManager creates a persistence manager for one queue.
func NewManager(db *database.DB, queueID string, delay time.Duration) *Manager {
	if queueID == "" {
		queueID = DefaultQueueID
	}
	if delay <= 0 {
		delay = DefaultSaveDelay
	}

	return &Manager{db: db, queueID: queueID, delay: delay}
}

// Save writes a snapshot immediately, invalidating any pending scheduled save.
func (m *Manager) Save(data structures.PersistedPlaybackData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelPendingLocked()

	data.QueueID = m.queueID
	if err := m.db.ReplaceQueue(data); err != nil {
		logger.Error("failed to save queue state: %v", err)
		return err
	}

	return nil
}

// ScheduleSave arranges for the snapshot to be written after the debounce
// delay. A newer call replaces the pending one, so only the most recent
// state within the window is persisted.
func (m *Manager) ScheduleSave(data structures.PersistedPlaybackData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil {
		m.pending.Stop()
	}
	m.gen++
	gen := m.gen

	data.QueueID = m.queueID
	m.pending = time.AfterFunc(m.delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if gen != m.gen {
			// Superseded by a newer save or a clear while firing.
			return
		}
		m.pending = nil

		if err := m.db.ReplaceQueue(data); err != nil {
			logger.Error("failed to save queue state: %v", err)
		}
	})
}

// Load reads the persisted snapshot. The second return is false when nothing
// was ever saved; load failures are treated the same way.
func (m *Manager) Load() (*structures.PersistedPlaybackData, bool) {
	return m.db.LoadQueue(m.queueID)
}

// Clear invalidates any pending scheduled save, then deletes the persisted
// rows. The invalidation comes first so a zombie write cannot resurrect
// cleared state.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelPendingLocked()

	if err := m.db.ClearQueue(m.queueID); err != nil {
		logger.Error("failed to clear queue state: %v", err)
		return err
	}

	return nil
}

// Flush invalidates a pending save without writing. Used on shutdown after an
// explicit Save already ran.
func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelPendingLocked()
}

// cancelPendingLocked stops the pending timer and bumps the generation so a
// callback that already fired aborts instead of writing.
func (m *Manager) cancelPendingLocked() {
	m.gen++

	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}
