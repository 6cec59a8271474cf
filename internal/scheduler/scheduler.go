// Package scheduler is the single long-lived loop that binds the task
// queue, the selection policy, and the execution engine together. Every
// piece of state the loop touches lives on *Scheduler rather than behind
// a package-level global.
package scheduler

import (
	"context"
	"time"

	"remoteshell/internal/execengine"
	"remoteshell/internal/metrics"
	"remoteshell/internal/obslog"
	"remoteshell/internal/task"
	"remoteshell/internal/taskqueue"
)

// metricsEvery caps how often a completion triggers a metrics log line,
// so a burst of short Shell commands doesn't flood the log with one
// Welford sample per task.
const metricsEvery = 20

// Scheduler drives the queue→select→execute→update cycle until stopped.
type Scheduler struct {
	queue   *taskqueue.Queue
	engine  *execengine.Engine
	log     *obslog.Logger
	metrics *metrics.Stats

	completions int
}

// New builds a Scheduler over the given queue and engine.
func New(queue *taskqueue.Queue, engine *execengine.Engine, log *obslog.Logger) *Scheduler {
	return &Scheduler{queue: queue, engine: engine, log: log, metrics: metrics.New()}
}

// Run executes the scheduler loop until the queue is stopped or ctx is
// cancelled. It is meant to be called from its own goroutine. ctx is
// checked only between tasks: cancelling it does not wake a loop blocked
// in AwaitNext on an empty queue, so an idle loop exits only on Stop.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		t, ok := s.queue.AwaitNext()
		if !ok {
			return
		}

		if t.Round == 1 && !t.Preempted {
			s.metrics.RecordWait(t.Kind, time.Since(t.ArrivalTime))
		}

		slice := 0
		if t.Kind == task.Program {
			slice = s.engine.Slice(t.Remaining, t.Round)
		}

		sliceStart := time.Now()
		delivered := s.engine.Execute(ctx, t, slice)
		s.metrics.RecordRun(t.Kind, time.Since(sliceStart))

		if t.Kind == task.Shell {
			s.queue.CompleteAndRemove(t, delivered)
			s.log.Ended(t.ClientID, t.ID, -1)
			s.logQueueSummary()
			s.onCompletion()
			continue
		}

		if s.queue.ReturnTask(t, slice, delivered) {
			s.log.Ended(t.ClientID, t.ID, 0)
			s.logQueueSummary()
			s.onCompletion()
		} else {
			s.log.Waiting(t.ClientID, t.ID, t.Remaining)
		}
	}
}

// onCompletion periodically surfaces the accumulated Welford statistics
// through the observability log.
func (s *Scheduler) onCompletion() {
	s.completions++
	if s.completions%metricsEvery != 0 {
		return
	}
	for kind, sample := range s.metrics.Snapshot() {
		if sample.Run.Count == 0 {
			continue
		}
		s.log.MetricsSample(kind.String(), sample.Run.Count,
			sample.Wait.Mean.String(), sample.Wait.StdDev.String(),
			sample.Run.Mean.String(), sample.Run.StdDev.String())
	}
}

// Stop halts selection and discards whatever the queue still holds.
func (s *Scheduler) Stop() {
	s.queue.Stop()
	s.queue.Cleanup()
}

func (s *Scheduler) logQueueSummary() {
	snapshot := s.queue.Snapshot()
	entries := make([]obslog.QueueEntry, len(snapshot))
	for i, e := range snapshot {
		entries[i] = obslog.QueueEntry{ClientID: e.ClientID, Remaining: e.Remaining}
	}
	s.log.QueueSummary(entries)
}
