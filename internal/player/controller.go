// Package player hosts the playback controller: the single owner of the live
// queue. Actions arrive on a channel and are handled by one goroutine;
// observers read state snapshots. Every queue mutation schedules a debounced
// persistence write and feeds the radio monitor.
package player

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"songbird/internal/continuation"
	"songbird/internal/logger"
	"songbird/internal/queue"
	"songbird/internal/resolver"
	"songbird/internal/structures"
)

// Sink is the platform playback engine the controller drives. Decoding and
// rendering live entirely behind it.
type Sink interface {
	Play(item structures.PlaybackItem) error
	Pause()
	Resume()
	Stop()
	PositionMs() int64
	SeekMs(ms int64)
}

// NopSink discards everything. Used headless and in tests.
type NopSink struct{ pos int64 }

func (s *NopSink) Play(structures.PlaybackItem) error { s.pos = 0; return nil }
func (s *NopSink) Pause()                             {}
func (s *NopSink) Resume()                            {}
func (s *NopSink) Stop()                              { s.pos = 0 }
func (s *NopSink) PositionMs() int64                  { return s.pos }
func (s *NopSink) SeekMs(ms int64)                    { s.pos = ms }

// Controller owns the playback queue and coordinates resolution,
// persistence and continuation.
type Controller struct {
	mu      sync.RWMutex
	q       *queue.Queue
	persist *queue.Manager
	res     *resolver.Coordinator
	cont    *continuation.Manager
	sink    Sink
	rng     *rand.Rand

	isPlaying    bool
	lastPlayedID string

	actionChan chan structures.PlayerAction
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewController creates a controller around an empty queue.
func NewController(persist *queue.Manager, res *resolver.Coordinator, sink Sink) *Controller {
	if sink == nil {
		sink = &NopSink{}
	}

	return &Controller{
		q:          queue.New(),
		persist:    persist,
		res:        res,
		sink:       sink,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		actionChan: make(chan structures.PlayerAction, 100),
		stopChan:   make(chan struct{}),
	}
}

// SetContinuation wires the continuation manager. Done post-construction
// because the manager needs the controller as its queue port.
func (c *Controller) SetContinuation(cont *continuation.Manager) {
	c.cont = cont
}

// Start launches the action loop.
func (c *Controller) Start() {
	go c.run()
}

// Stop shuts the controller down after an immediate state save.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.SaveNow()
		close(c.stopChan)
		c.sink.Stop()
	})
}

// SendAction queues an action for the control loop.
func (c *Controller) SendAction(action structures.PlayerAction) {
	select {
	case c.actionChan <- action:
	default:
		// Channel full, drop action
	}
}

// GetState returns a snapshot of the controller state.
func (c *Controller) GetState() structures.PlayerState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return structures.PlayerState{
		Items:      append([]structures.PlaybackItem(nil), c.q.Items...),
		Current:    c.q.Current,
		PositionMs: c.sink.PositionMs(),
		IsPlaying:  c.isPlaying,
		ShuffleOn:  c.q.ShuffleOn,
		Repeat:     c.q.Repeat,
	}
}

// QueueIDs implements continuation.QueuePort.
func (c *Controller) QueueIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.q.IDs()
}

// AppendItems implements continuation.QueuePort.
func (c *Controller) AppendItems(items []structures.PlaybackItem) {
	c.SendAction(structures.AppendItemsAction{Items: items})
}

// RestoreSaved rehydrates the queue from the persisted snapshot, if any.
func (c *Controller) RestoreSaved() bool {
	data, ok := c.persist.Load()
	if !ok {
		return false
	}

	c.mu.Lock()
	c.q = queue.Restore(data)
	if item := c.q.CurrentItem(); item != nil {
		c.lastPlayedID = item.ID
	}
	c.mu.Unlock()

	c.sink.SeekMs(data.PositionMs)
	logger.Info("restored queue: %d items, index %d", len(data.Items), data.CurrentIndex)

	return true
}

// SaveNow persists the current state immediately, cancelling any pending
// debounced write. Used by lifecycle transitions.
func (c *Controller) SaveNow() {
	c.mu.RLock()
	data := c.q.Snapshot(queue.DefaultQueueID, c.sink.PositionMs())
	c.mu.RUnlock()

	if err := c.persist.Save(data); err == nil {
		logger.Debug("queue saved: %d items", len(data.Items))
	}
}

func (c *Controller) run() {
	for {
		select {
		case action := <-c.actionChan:
			c.handleAction(action)
		case <-c.stopChan:
			return
		}
	}
}

func (c *Controller) handleAction(action structures.PlayerAction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch a := action.(type) {
	case structures.PlayPauseAction:
		if c.isPlaying {
			c.sink.Pause()
			c.isPlaying = false
		} else if c.q.CurrentItem() != nil {
			c.sink.Resume()
			c.isPlaying = true
		}

	case structures.NextAction:
		c.advance()

	case structures.PreviousAction:
		if c.q.Previous() {
			c.loadCurrentLocked()
		}
		c.afterMutationLocked()

	case structures.JumpToIndexAction:
		if a.Index >= 0 && a.Index < len(c.q.Items) {
			c.q.Current = a.Index
			c.loadCurrentLocked()
			c.afterMutationLocked()
		}

	case structures.ReplaceQueueAction:
		c.q.Replace(a.Items)
		c.loadCurrentLocked()
		c.afterMutationLocked()

	case structures.AppendItemsAction:
		c.q.Append(a.Items)
		c.afterMutationLocked()

	case structures.ToggleShuffleAction:
		if c.q.ShuffleOn {
			c.q.Unshuffle()
		} else {
			c.q.Shuffle(c.rng)
		}
		c.afterMutationLocked()

	case structures.CycleRepeatAction:
		c.q.Repeat = (c.q.Repeat + 1) % 3
		c.afterMutationLocked()

	case structures.SeekAction:
		c.sink.SeekMs(a.PositionMs)
		c.persist.ScheduleSave(c.q.Snapshot(queue.DefaultQueueID, a.PositionMs))

	case structures.CleanupAction:
		c.sink.Stop()
		c.isPlaying = false
		c.q = queue.New()
		c.lastPlayedID = ""
		if c.cont != nil {
			c.cont.EndCurrentSession()
		}
		if err := c.persist.Clear(); err == nil {
			logger.Info("queue cleared")
		}
	}
}

// advance moves to the next item; when the queue runs out it falls back to
// the autoplay pathway before giving up.
func (c *Controller) advance() {
	if c.q.Next() {
		c.loadCurrentLocked()
		c.afterMutationLocked()
		return
	}

	if c.cont == nil {
		return
	}

	next := c.cont.ProvideNextItemsForAutoplay(context.Background(), c.lastPlayedID)
	if len(next) == 0 {
		logger.Debug("queue exhausted, nothing to autoplay")
		return
	}

	c.q.Append(next)
	c.q.Next()
	c.loadCurrentLocked()
	c.afterMutationLocked()
}

// loadCurrentLocked resolves the current item and hands it to the sink. An
// unresolvable item is skipped rather than failing playback.
func (c *Controller) loadCurrentLocked() {
	item := c.q.CurrentItem()
	if item == nil {
		return
	}

	resolved := c.res.ResolveSingleStream(context.Background(), *item, nil)
	if resolved == nil {
		logger.Warn("skipping unresolvable item %s", item.ID)
		if c.q.Current+1 < len(c.q.Items) {
			c.q.Current++
			c.loadCurrentLocked()
		}
		return
	}

	c.q.Items[c.q.Current] = *resolved
	c.lastPlayedID = resolved.ID

	if err := c.sink.Play(*resolved); err != nil {
		logger.Error("sink failed to play %s: %v", resolved.ID, err)
		c.isPlaying = false
		return
	}

	c.isPlaying = true
}

// afterMutationLocked schedules persistence and feeds the radio monitor.
func (c *Controller) afterMutationLocked() {
	c.persist.ScheduleSave(c.q.Snapshot(queue.DefaultQueueID, c.sink.PositionMs()))

	if c.cont != nil {
		c.cont.NotifyQueueState(len(c.q.Items), c.q.Current)
	}
}
