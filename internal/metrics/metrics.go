// Package metrics tracks online wait/run-time statistics per task kind,
// using Welford's single-pass algorithm so the scheduler never has to
// retain a growing sample slice just to report a mean and standard
// deviation. Nothing here touches scheduling decisions; it is purely
// observational, recorded by the scheduler loop and surfaced through
// internal/obslog.
package metrics

import (
	"math"
	"sync"
	"time"

	"remoteshell/internal/task"
)

// welford accumulates mean and variance for one stream of samples without
// storing them, per Welford (1962) as popularized by Knuth TAOCP vol 2.
type welford struct {
	n    int64
	mean float64
	m2   float64
}

func (w *welford) add(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	delta2 := x - w.mean
	w.m2 += delta * delta2
}

func (w *welford) variance() float64 {
	if w.n < 2 {
		return 0
	}
	return w.m2 / float64(w.n-1)
}

// Summary is a point-in-time readout of one welford accumulator.
type Summary struct {
	Count  int64
	Mean   time.Duration
	StdDev time.Duration
}

func (w *welford) summary() Summary {
	return Summary{
		Count:  w.n,
		Mean:   time.Duration(w.mean),
		StdDev: time.Duration(math.Sqrt(w.variance())),
	}
}

// Stats holds wait-time and run-time accumulators for each task kind,
// guarded by a single mutex — the same discipline the task queue uses,
// since both are touched from the scheduler's hot path.
type Stats struct {
	mu   sync.Mutex
	wait map[task.Kind]*welford
	run  map[task.Kind]*welford
}

// New builds an empty Stats.
func New() *Stats {
	return &Stats{
		wait: map[task.Kind]*welford{task.Shell: {}, task.Program: {}},
		run:  map[task.Kind]*welford{task.Shell: {}, task.Program: {}},
	}
}

// RecordWait adds one sample of time spent Waiting before a task's first
// selection — the interactive response-time signal worth tracking; later
// rounds of a Program task are resubmissions the anti-starvation rule
// already accounts for.
func (s *Stats) RecordWait(kind task.Kind, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wait[kind].add(float64(d))
}

// RecordRun adds one sample of slice execution duration.
func (s *Stats) RecordRun(kind task.Kind, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run[kind].add(float64(d))
}

// Snapshot returns a stable copy of every accumulator's current summary,
// keyed by kind, for logging.
func (s *Stats) Snapshot() map[task.Kind]struct{ Wait, Run Summary } {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[task.Kind]struct{ Wait, Run Summary }, len(s.wait))
	for k := range s.wait {
		out[k] = struct{ Wait, Run Summary }{
			Wait: s.wait[k].summary(),
			Run:  s.run[k].summary(),
		}
	}
	return out
}
