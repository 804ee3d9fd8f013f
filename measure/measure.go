// Package measure collects in-process telemetry about sampler progress:
// per-iteration timings and counters (draw attempts, acceptance rate,
// active cluster count). It is a telemetry sink, not a logging
// framework — callers decide whether/how to print or export a snapshot.
package measure

import (
	"sync"
	"time"
)

// Entry is a single timed event, e.g. one nested-sampling iteration or
// one constrained-sampler draw loop.
type Entry struct {
	Label string
	Dur   time.Duration
}

// Recorder accumulates Entries and named counters. The zero value is
// ready to use. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	entries  []Entry
	counters map[string]uint64
}

// NewRecorder returns a ready-to-use Recorder.
func NewRecorder() *Recorder {
	return &Recorder{counters: make(map[string]uint64)}
}

// Track records the duration since start under name. Typical use:
//
//	defer measure.Track(time.Now(), "iteration")
func (r *Recorder) Track(start time.Time, name string) {
	elapsed := time.Since(start)
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Label: name, Dur: elapsed})
	r.mu.Unlock()
}

// Add increments a named counter by delta (e.g. "draw_attempts", "accepts").
func (r *Recorder) Add(name string, delta uint64) {
	r.mu.Lock()
	r.counters[name] += delta
	r.mu.Unlock()
}

// Snapshot is a point-in-time, read-only copy of recorded telemetry.
type Snapshot struct {
	Entries  []Entry
	Counters map[string]uint64
}

// SnapshotAndReset returns everything recorded so far and clears the
// recorder for the next window.
func (r *Recorder) SnapshotAndReset() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Snapshot{
		Entries:  append([]Entry(nil), r.entries...),
		Counters: make(map[string]uint64, len(r.counters)),
	}
	for k, v := range r.counters {
		out.Counters[k] = v
	}
	r.entries = nil
	r.counters = make(map[string]uint64)
	return out
}
