// Package continuation keeps the playback queue from running dry: a radio
// session transparently extends the queue from a paginated recommendation
// feed, and context-aware autoplay picks the next item off whatever list the
// user is looking at.
package continuation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"songbird/internal/logger"
	"songbird/internal/structures"
)

// DefaultLowWaterMark is the remaining-unplayed count that triggers the next
// radio batch fetch.
const DefaultLowWaterMark = 5

// RadioSource fetches one page of a radio feed.
type RadioSource interface {
	FetchRadio(ctx context.Context, radioID string, offset int) ([]structures.PlaybackItem, error)
}

// QueuePort is the manager's view of the live queue.
type QueuePort interface {
	QueueIDs() []string
	AppendItems(items []structures.PlaybackItem)
}

// QueueSignal is one observed (size, index) pair from the player.
type QueueSignal struct {
	Size    int
	Current int
}

// Manager owns at most one radio session at a time plus the autoplay context.
type Manager struct {
	source       RadioSource
	expander     SegmentExpander
	port         QueuePort
	autoplayPref func() bool
	lowWaterMark int

	mu        sync.Mutex
	sessionID string
	radioID   string
	offset    int
	active    bool
	fetching  bool
	cancel    context.CancelFunc
	signals   chan QueueSignal
	last      QueueSignal
	hasLast   bool

	ctxMu        sync.RWMutex
	contextItems []structures.PlaybackItem
}

// NewManager creates a continuation manager. autoplayPref is consulted on
// every autoplay request so preference flips take effect immediately.
func NewManager(source RadioSource, expander SegmentExpander, port QueuePort, autoplayPref func() bool, lowWaterMark int) *Manager {
	if lowWaterMark <= 0 {
		lowWaterMark = DefaultLowWaterMark
	}

	return &Manager{
		source:       source,
		expander:     expander,
		port:         port,
		autoplayPref: autoplayPref,
		lowWaterMark: lowWaterMark,
	}
}

// StartRadioSession ends any previous session, fetches the initial batch and
// begins monitoring queue depletion. Returns nil when the first fetch is
// empty or fails; no session is started in that case.
func (m *Manager) StartRadioSession(ctx context.Context, radioID string) []structures.PlaybackItem {
	m.EndCurrentSession()

	initial, err := m.source.FetchRadio(ctx, radioID, 0)
	if err != nil {
		logger.Warn("radio session %s: initial fetch failed: %v", radioID, err)
		return nil
	}
	if len(initial) == 0 {
		logger.Info("radio session %s: empty initial batch, not starting", radioID)
		return nil
	}

	monitorCtx, cancel := context.WithCancel(context.Background())
	sessionID := uuid.NewString()

	m.mu.Lock()
	m.sessionID = sessionID
	m.radioID = radioID
	m.offset = len(initial)
	m.active = true
	m.fetching = false
	m.cancel = cancel
	m.signals = make(chan QueueSignal, 1)
	m.hasLast = false
	signals := m.signals
	m.mu.Unlock()

	go m.monitor(monitorCtx, signals)

	logger.Info("radio session %s started for %s with %d items", sessionID, radioID, len(initial))
	return initial
}

// EndCurrentSession stops the monitor and resets all session state. Safe to
// call when no session is active.
func (m *Manager) EndCurrentSession() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	m.sessionID = ""
	m.radioID = ""
	m.offset = 0
	m.active = false
	m.fetching = false
	m.signals = nil
	m.hasLast = false
}

// RadioActive reports whether a radio session is running.
func (m *Manager) RadioActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// NotifyQueueState feeds the monitor one (size, index) observation. Pairs
// identical to the previous one are ignored, so position-only churn never
// reaches the monitor. Only the latest unprocessed signal is kept.
func (m *Manager) NotifyQueueState(size, current int) {
	m.mu.Lock()
	if !m.active || m.signals == nil {
		m.mu.Unlock()
		return
	}

	sig := QueueSignal{Size: size, Current: current}
	if m.hasLast && m.last == sig {
		m.mu.Unlock()
		return
	}
	m.last = sig
	m.hasLast = true
	signals := m.signals
	m.mu.Unlock()

	// Replace any unconsumed signal with the latest.
	for {
		select {
		case signals <- sig:
			return
		default:
			select {
			case <-signals:
			default:
			}
		}
	}
}

func (m *Manager) monitor(ctx context.Context, signals chan QueueSignal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			remaining := sig.Size - sig.Current - 1
			if remaining >= m.lowWaterMark {
				continue
			}
			sessionID, ok := m.beginFetch()
			if !ok {
				continue // a fetch is already in flight
			}
			m.fetchMore(ctx, sessionID)
		}
	}
}

// beginFetch flips the single-flight flag and returns the session the fetch
// belongs to; ok is false if a fetch is already in flight.
func (m *Manager) beginFetch() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || m.fetching {
		return "", false
	}
	m.fetching = true
	return m.sessionID, true
}

func (m *Manager) fetchMore(ctx context.Context, sessionID string) {
	m.mu.Lock()
	radioID := m.radioID
	offset := m.offset
	m.mu.Unlock()

	batch, err := m.source.FetchRadio(ctx, radioID, offset)

	m.mu.Lock()
	if m.sessionID != sessionID {
		// The session ended or was replaced mid-fetch; the result belongs
		// to nobody. Session state (including the fetch flag) was already
		// reset by the transition.
		m.mu.Unlock()
		return
	}
	m.fetching = false
	if err != nil || !m.active {
		m.mu.Unlock()
		if err != nil {
			logger.Warn("radio session %s: batch fetch failed: %v", radioID, err)
		}
		return
	}
	// Advance paging by what the feed returned, even if dedup drops items.
	m.offset += len(batch)
	m.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	appended := m.appendDeduplicated(batch)
	logger.Debug("radio session %s: appended %d of %d fetched items", radioID, appended, len(batch))
}

// appendDeduplicated filters out ids already in the queue and appends the
// residue. Duplicate ids are dropped silently even if the feed re-ranked
// different content under a reused id.
func (m *Manager) appendDeduplicated(batch []structures.PlaybackItem) int {
	existing := make(map[string]bool)
	for _, id := range m.port.QueueIDs() {
		existing[id] = true
	}

	fresh := make([]structures.PlaybackItem, 0, len(batch))
	for _, item := range batch {
		if existing[item.ID] {
			continue
		}
		existing[item.ID] = true
		fresh = append(fresh, item)
	}

	if len(fresh) > 0 {
		m.port.AppendItems(fresh)
	}

	return len(fresh)
}
