package measure

import (
	"testing"
	"time"
)

func TestRecorderSnapshotAndReset(t *testing.T) {
	r := NewRecorder()
	r.Track(time.Now(), "iteration")
	r.Add("draw_attempts", 5)
	r.Add("draw_attempts", 3)

	snap := r.SnapshotAndReset()
	if len(snap.Entries) != 1 || snap.Entries[0].Label != "iteration" {
		t.Fatalf("unexpected entries: %+v", snap.Entries)
	}
	if snap.Counters["draw_attempts"] != 8 {
		t.Fatalf("draw_attempts = %d, want 8", snap.Counters["draw_attempts"])
	}

	empty := r.SnapshotAndReset()
	if len(empty.Entries) != 0 || len(empty.Counters) != 0 {
		t.Fatalf("expected empty snapshot after reset, got %+v", empty)
	}
}
