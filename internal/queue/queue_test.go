package queue

import (
	"math/rand"
	"testing"

	"songbird/internal/structures"
)

func items(ids ...string) []structures.PlaybackItem {
	out := make([]structures.PlaybackItem, len(ids))
	for i, id := range ids {
		out[i] = structures.PlaybackItem{ID: id, Title: id}
	}
	return out
}

func assertOrder(t *testing.T, q *Queue, want ...string) {
	t.Helper()

	got := q.IDs()
	if len(got) != len(want) {
		t.Fatalf("queue order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue order = %v, want %v", got, want)
		}
	}
}

func TestReplaceAndAppend(t *testing.T) {
	q := New()
	if q.Current != -1 {
		t.Errorf("empty queue Current = %d, want -1", q.Current)
	}

	q.Replace(items("A", "B"))
	if q.Current != 0 {
		t.Errorf("Current = %d after replace, want 0", q.Current)
	}

	q.Append(items("C"))
	assertOrder(t, q, "A", "B", "C")
	if q.Current != 0 {
		t.Errorf("Current = %d after append, want 0", q.Current)
	}

	q.Replace(nil)
	if q.Current != -1 {
		t.Errorf("Current = %d after empty replace, want -1", q.Current)
	}
}

func TestNextRepeatModes(t *testing.T) {
	t.Run("RepeatOff", func(t *testing.T) {
		q := New()
		q.Replace(items("A", "B"))

		if !q.Next() || q.Current != 1 {
			t.Fatalf("Next failed, Current = %d", q.Current)
		}
		if q.Next() {
			t.Error("Next at the end with RepeatOff should report exhaustion")
		}
	})

	t.Run("RepeatOne", func(t *testing.T) {
		q := New()
		q.Replace(items("A", "B"))
		q.Repeat = structures.RepeatOne

		if !q.Next() || q.Current != 0 {
			t.Errorf("RepeatOne should stay put, Current = %d", q.Current)
		}
	})

	t.Run("RepeatAll", func(t *testing.T) {
		q := New()
		q.Replace(items("A", "B"))
		q.Repeat = structures.RepeatAll
		q.Current = 1

		if !q.Next() || q.Current != 0 {
			t.Errorf("RepeatAll should wrap, Current = %d", q.Current)
		}
	})
}

func TestPrevious(t *testing.T) {
	q := New()
	q.Replace(items("A", "B"))
	q.Current = 1

	if !q.Previous() || q.Current != 0 {
		t.Errorf("Previous failed, Current = %d", q.Current)
	}
	if q.Previous() {
		t.Error("Previous at the start with RepeatOff should fail")
	}

	q.Repeat = structures.RepeatAll
	if !q.Previous() || q.Current != 1 {
		t.Errorf("Previous with RepeatAll should wrap, Current = %d", q.Current)
	}
}

func TestShuffleUnshuffleRestoresExactOrder(t *testing.T) {
	q := New()
	q.Replace(items("A", "B", "C", "D", "E"))
	q.Current = 2 // C

	rng := rand.New(rand.NewSource(1))
	q.Shuffle(rng)

	if !q.ShuffleOn {
		t.Fatal("ShuffleOn should be set")
	}
	if item := q.CurrentItem(); item == nil || item.ID != "C" {
		t.Errorf("current item after shuffle = %v, want C", item)
	}
	if len(q.Backup) != 5 || q.Backup[0] != "A" || q.Backup[4] != "E" {
		t.Errorf("Backup = %v, want original order", q.Backup)
	}

	q.Unshuffle()

	assertOrder(t, q, "A", "B", "C", "D", "E")
	if q.ShuffleOn || q.Backup != nil {
		t.Error("shuffle state should be reset")
	}
	if item := q.CurrentItem(); item == nil || item.ID != "C" {
		t.Errorf("current item after unshuffle = %v, want C", item)
	}
}

func TestUnshuffleAppendedItemsGoToEnd(t *testing.T) {
	q := New()
	q.Replace(items("A", "B", "C"))

	rng := rand.New(rand.NewSource(7))
	q.Shuffle(rng)

	// Radio continuation lands mid-shuffle.
	q.Append(items("X", "Y"))

	q.Unshuffle()

	assertOrder(t, q, "A", "B", "C", "X", "Y")
}

func TestShuffleLeavesPlayedHistoryInPlace(t *testing.T) {
	q := New()
	q.Replace(items("A", "B", "C", "D", "E", "F"))
	q.Current = 2 // A and B already played, C playing now

	rng := rand.New(rand.NewSource(5))
	q.Shuffle(rng)

	got := q.IDs()
	for i, want := range []string{"A", "B", "C"} {
		if got[i] != want {
			t.Fatalf("history reshuffled: order = %v, want prefix [A B C]", got)
		}
	}
	if q.Current != 2 {
		t.Errorf("Current = %d after shuffle, want 2", q.Current)
	}

	// The remainder is still a permutation of D, E, F.
	rest := map[string]bool{}
	for _, id := range got[3:] {
		rest[id] = true
	}
	if !rest["D"] || !rest["E"] || !rest["F"] {
		t.Errorf("remainder = %v, want a permutation of [D E F]", got[3:])
	}
}

func TestReshuffleKeepsOriginalBackup(t *testing.T) {
	q := New()
	q.Replace(items("A", "B", "C", "D"))

	rng := rand.New(rand.NewSource(3))
	q.Shuffle(rng)
	q.Shuffle(rng)

	if len(q.Backup) != 4 || q.Backup[0] != "A" || q.Backup[3] != "D" {
		t.Errorf("Backup = %v, want the pre-shuffle order", q.Backup)
	}

	q.Unshuffle()
	assertOrder(t, q, "A", "B", "C", "D")
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	q := New()
	q.Replace(items("A", "B", "C"))
	q.Repeat = structures.RepeatAll
	q.Current = 1

	rng := rand.New(rand.NewSource(11))
	q.Shuffle(rng)

	data := q.Snapshot("default", 5000)
	if data.QueueID != "default" || data.PositionMs != 5000 {
		t.Errorf("head = (%q, %d)", data.QueueID, data.PositionMs)
	}
	if !data.ShuffleOn || len(data.BackupOrder) != 3 {
		t.Errorf("snapshot shuffle state = (%v, %v)", data.ShuffleOn, data.BackupOrder)
	}
	if data.CurrentMediaID != "B" {
		t.Errorf("CurrentMediaID = %q, want B", data.CurrentMediaID)
	}

	restored := Restore(&data)
	if restored.Current != data.CurrentIndex {
		t.Errorf("restored Current = %d, want %d", restored.Current, data.CurrentIndex)
	}

	restored.Unshuffle()
	assertOrder(t, restored, "A", "B", "C")
}

func TestSnapshotOmitsBackupWhenUnshuffled(t *testing.T) {
	q := New()
	q.Replace(items("A", "B"))

	data := q.Snapshot("default", 0)
	if data.BackupOrder != nil {
		t.Errorf("BackupOrder = %v, want nil when shuffle is off", data.BackupOrder)
	}
}

func TestRestoreClampsIndex(t *testing.T) {
	data := structures.PersistedPlaybackData{
		Items:        items("A", "B"),
		CurrentIndex: 9,
	}

	q := Restore(&data)
	if q.Current != 0 {
		t.Errorf("out-of-range index restored to %d, want 0", q.Current)
	}

	empty := structures.PersistedPlaybackData{CurrentIndex: 2}
	q = Restore(&empty)
	if q.Current != -1 {
		t.Errorf("empty restore Current = %d, want -1", q.Current)
	}
}
