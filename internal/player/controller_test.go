package player

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"songbird/internal/cache"
	"songbird/internal/continuation"
	"songbird/internal/database"
	"songbird/internal/queue"
	"songbird/internal/resolver"
	"songbird/internal/structures"
)

type stubExtractor struct {
	url string
	err error
}

func (s *stubExtractor) Resolve(ctx context.Context, videoID string) (structures.StreamDetails, error) {
	if s.err != nil {
		return structures.StreamDetails{}, s.err
	}
	return structures.StreamDetails{URL: s.url + videoID, ResolvedAt: time.Now()}, nil
}

func newTestController(t *testing.T, ex resolver.Extractor) (*Controller, *queue.Manager) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if ex == nil {
		ex = &stubExtractor{url: "https://cdn/"}
	}

	streams := cache.NewStreamCache(8, time.Hour)
	res := resolver.New(db, streams, ex)
	persist := queue.NewManager(db, queue.DefaultQueueID, 10*time.Millisecond)

	c := NewController(persist, res, nil)
	c.Start()
	t.Cleanup(c.Stop)

	return c, persist
}

func playbackItems(ids ...string) []structures.PlaybackItem {
	out := make([]structures.PlaybackItem, len(ids))
	for i, id := range ids {
		out[i] = structures.PlaybackItem{ID: id, Title: id, StreamURI: "stream://" + id}
	}
	return out
}

func waitState(t *testing.T, c *Controller, what string, cond func(structures.PlayerState) bool) structures.PlayerState {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var last structures.PlayerState
	for time.Now().Before(deadline) {
		last = c.GetState()
		if cond(last) {
			return last
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last state: %+v", what, last)
	return last
}

func TestReplaceQueueStartsPlayback(t *testing.T) {
	c, _ := newTestController(t, nil)

	c.SendAction(structures.ReplaceQueueAction{Items: playbackItems("A", "B")})

	state := waitState(t, c, "queue replacement", func(s structures.PlayerState) bool {
		return len(s.Items) == 2
	})
	if state.Current != 0 || !state.IsPlaying {
		t.Errorf("state = (current %d, playing %v), want (0, true)", state.Current, state.IsPlaying)
	}
}

func TestNextAndPrevious(t *testing.T) {
	c, _ := newTestController(t, nil)

	c.SendAction(structures.ReplaceQueueAction{Items: playbackItems("A", "B", "C")})
	waitState(t, c, "queue", func(s structures.PlayerState) bool { return len(s.Items) == 3 })

	c.SendAction(structures.NextAction{})
	waitState(t, c, "advance", func(s structures.PlayerState) bool { return s.Current == 1 })

	c.SendAction(structures.PreviousAction{})
	waitState(t, c, "step back", func(s structures.PlayerState) bool { return s.Current == 0 })
}

func TestJumpToIndex(t *testing.T) {
	c, _ := newTestController(t, nil)

	c.SendAction(structures.ReplaceQueueAction{Items: playbackItems("A", "B", "C")})
	waitState(t, c, "queue", func(s structures.PlayerState) bool { return len(s.Items) == 3 })

	c.SendAction(structures.JumpToIndexAction{Index: 2})
	waitState(t, c, "jump", func(s structures.PlayerState) bool { return s.Current == 2 })

	// Out-of-range jumps are ignored.
	c.SendAction(structures.JumpToIndexAction{Index: 9})
	time.Sleep(50 * time.Millisecond)
	if got := c.GetState().Current; got != 2 {
		t.Errorf("Current = %d after invalid jump, want 2", got)
	}
}

func TestToggleShuffleRoundTrip(t *testing.T) {
	c, _ := newTestController(t, nil)

	c.SendAction(structures.ReplaceQueueAction{Items: playbackItems("A", "B", "C", "D", "E")})
	waitState(t, c, "queue", func(s structures.PlayerState) bool { return len(s.Items) == 5 })

	c.SendAction(structures.ToggleShuffleAction{})
	waitState(t, c, "shuffle on", func(s structures.PlayerState) bool { return s.ShuffleOn })

	c.SendAction(structures.ToggleShuffleAction{})
	state := waitState(t, c, "shuffle off", func(s structures.PlayerState) bool { return !s.ShuffleOn })

	for i, want := range []string{"A", "B", "C", "D", "E"} {
		if state.Items[i].ID != want {
			t.Fatalf("order after unshuffle = %v", state.Items)
		}
	}
}

func TestCycleRepeat(t *testing.T) {
	c, _ := newTestController(t, nil)

	want := []structures.RepeatMode{structures.RepeatOne, structures.RepeatAll, structures.RepeatOff}
	for _, mode := range want {
		c.SendAction(structures.CycleRepeatAction{})
		waitState(t, c, "repeat cycle", func(s structures.PlayerState) bool { return s.Repeat == mode })
	}
}

func TestSaveAndRestore(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	streams := cache.NewStreamCache(8, time.Hour)
	res := resolver.New(db, streams, &stubExtractor{url: "https://cdn/"})
	persist := queue.NewManager(db, queue.DefaultQueueID, 10*time.Millisecond)

	first := NewController(persist, res, nil)
	first.Start()

	first.SendAction(structures.ReplaceQueueAction{Items: playbackItems("A", "B", "C")})
	waitState(t, first, "queue", func(s structures.PlayerState) bool { return len(s.Items) == 3 })
	first.SendAction(structures.NextAction{})
	waitState(t, first, "advance", func(s structures.PlayerState) bool { return s.Current == 1 })

	first.Stop() // saves immediately

	second := NewController(queue.NewManager(db, queue.DefaultQueueID, 10*time.Millisecond), res, nil)
	if !second.RestoreSaved() {
		t.Fatal("RestoreSaved reported nothing saved")
	}

	state := second.GetState()
	if len(state.Items) != 3 || state.Current != 1 {
		t.Errorf("restored state = (%d items, current %d), want (3, 1)", len(state.Items), state.Current)
	}
	if state.Items[1].ID != "B" {
		t.Errorf("restored current item = %q, want B", state.Items[1].ID)
	}
}

func TestAutoplayFallbackOnExhaustion(t *testing.T) {
	c, _ := newTestController(t, nil)

	cont := continuation.NewManager(nil, nil, c, func() bool { return true }, 5)
	c.SetContinuation(cont)

	c.SendAction(structures.ReplaceQueueAction{Items: playbackItems("A")})
	waitState(t, c, "queue", func(s structures.PlayerState) bool { return len(s.Items) == 1 })

	next := playbackItems("A", "B")
	cont.SetAutoplayContext(next)

	c.SendAction(structures.NextAction{})

	state := waitState(t, c, "autoplay append", func(s structures.PlayerState) bool {
		return len(s.Items) == 2 && s.Current == 1
	})
	if state.Items[1].ID != "B" {
		t.Errorf("autoplay appended %q, want B", state.Items[1].ID)
	}
}

func TestUnresolvableItemSkipped(t *testing.T) {
	c, _ := newTestController(t, &stubExtractor{err: errors.New("blocked")})

	// A has no stream and cannot be extracted; B is pre-resolved.
	itemA := structures.PlaybackItem{ID: "A", Title: "A"}
	itemB := structures.PlaybackItem{ID: "B", Title: "B", StreamURI: "stream://B"}

	c.SendAction(structures.ReplaceQueueAction{Items: []structures.PlaybackItem{itemA, itemB}})

	state := waitState(t, c, "skip to playable item", func(s structures.PlayerState) bool {
		return len(s.Items) == 2 && s.Current == 1
	})
	if !state.IsPlaying {
		t.Error("expected playback of the skipped-to item")
	}
}

func TestCleanupClearsEverything(t *testing.T) {
	c, persist := newTestController(t, nil)

	c.SendAction(structures.ReplaceQueueAction{Items: playbackItems("A", "B")})
	waitState(t, c, "queue", func(s structures.PlayerState) bool { return len(s.Items) == 2 })

	c.SendAction(structures.CleanupAction{})
	waitState(t, c, "cleanup", func(s structures.PlayerState) bool {
		return len(s.Items) == 0 && !s.IsPlaying
	})

	time.Sleep(50 * time.Millisecond)
	if _, ok := persist.Load(); ok {
		t.Error("persisted state should be gone after cleanup")
	}
}

func TestPlayPauseToggle(t *testing.T) {
	c, _ := newTestController(t, nil)

	c.SendAction(structures.ReplaceQueueAction{Items: playbackItems("A")})
	waitState(t, c, "playing", func(s structures.PlayerState) bool { return s.IsPlaying })

	c.SendAction(structures.PlayPauseAction{})
	waitState(t, c, "paused", func(s structures.PlayerState) bool { return !s.IsPlaying })

	c.SendAction(structures.PlayPauseAction{})
	waitState(t, c, "resumed", func(s structures.PlayerState) bool { return s.IsPlaying })
}
