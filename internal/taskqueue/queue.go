// Package taskqueue implements the scheduler's task container: a bounded,
// thread-safe queue with blocking selection semantics driven by the pure
// policy in policy.go.
package taskqueue

import (
	"errors"
	"sync"
	"time"

	"remoteshell/internal/task"
)

// ErrFull is returned by Submit when the queue is at capacity.
var ErrFull = errors.New("task queue is full")

// DefaultCapacity is the queue's capacity when none is configured.
const DefaultCapacity = 100

// Queue is the single owner of every task record it holds. Exactly one
// mutex protects the container and all task mutable fields; the
// condition variable is signalled on every submission and on Stop.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	tasks    []*task.Task
	capacity int
	nextID   int64
	stopped  bool
}

// New builds an empty queue with the given capacity. capacity <= 0 falls
// back to DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Submit builds and appends a new task for clientID, returning ErrFull if
// the queue is at capacity. burst is ignored for kind == task.Shell.
func (q *Queue) Submit(clientID int64, sink task.Sink, commandText string, kind task.Kind, burst int) (*task.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) >= q.capacity {
		return nil, ErrFull
	}

	q.nextID++
	id := q.nextID
	now := time.Now()

	var t *task.Task
	if kind == task.Shell {
		t = task.NewShell(id, clientID, sink, commandText, now)
	} else {
		t = task.NewProgram(id, clientID, sink, commandText, burst, now)
	}

	q.tasks = append(q.tasks, t)
	q.notEmpty.Signal()
	return t, nil
}

// AwaitNext blocks while the queue has no eligible Waiting task, then
// applies the selection policy, marks the result Running under the lock,
// and returns it. ok is false only once the queue has been stopped and no
// further task will ever be returned.
func (q *Queue) AwaitNext() (t *task.Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.stopped {
			return nil, false
		}
		if chosen := q.selectLocked(); chosen != nil {
			return chosen, true
		}
		q.notEmpty.Wait()
	}
}

func (q *Queue) selectLocked() *task.Task {
	waiting := make([]*task.Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		if t.State == task.Waiting {
			waiting = append(waiting, t)
		}
	}
	chosen := Select(waiting)
	if chosen == nil {
		return nil
	}
	for _, t := range q.tasks {
		t.JustRan = false
	}
	chosen.JustRan = true
	chosen.State = task.Running
	return chosen
}

// ReturnTask applies the post-slice update for a Program task that just
// ran for executedSeconds: remaining is decremented; the task either
// completes (removed, bytesDelivered still added first) or goes back to
// Waiting with round+1 and preempted=true. Returns true if the task
// completed.
func (q *Queue) ReturnTask(t *task.Task, executedSeconds int, bytesDelivered int64) (completed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t.BytesSent += bytesDelivered
	t.Remaining -= executedSeconds

	if t.Remaining <= 0 {
		t.Remaining = 0
		t.State = task.Completed
		q.removeLocked(t)
		return true
	}

	t.State = task.Waiting
	t.Round++
	t.Preempted = true
	return false
}

// CompleteAndRemove marks a Shell task (or any task whose slice ran to
// completion) Completed and removes it, adding any bytes the engine
// delivered during the slice.
func (q *Queue) CompleteAndRemove(t *task.Task, bytesDelivered int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	t.BytesSent += bytesDelivered
	t.State = task.Completed
	q.removeLocked(t)
}

func (q *Queue) removeLocked(t *task.Task) {
	for i, other := range q.tasks {
		if other == t {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return
		}
	}
}

// PurgeClient removes every Waiting task belonging to clientID. A
// currently Running task for that client is left alone: it cannot be
// preempted mid-slice. A Shell task is removed when its slice ends
// (CompleteAndRemove); a Program task with work left goes back to Waiting
// through ReturnTask and stays queued until it completes. Idempotent.
func (q *Queue) PurgeClient(clientID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.ClientID == clientID && t.State == task.Waiting {
			continue
		}
		kept = append(kept, t)
	}
	q.tasks = kept
}

// Snapshot is a read-only view of (client id, remaining) pairs for every
// task currently in the queue, in queue order.
type Entry struct {
	ClientID  int64
	Remaining int
}

func (q *Queue) Snapshot() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = Entry{ClientID: t.ClientID, Remaining: t.Remaining}
	}
	return out
}

// Len reports the current number of tasks held (Waiting + at most one
// Running), useful for tests and backpressure metrics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Stop marks the queue as no longer accepting new selections and wakes
// every blocked AwaitNext call so the scheduler loop can observe the flag
// and exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

// Cleanup discards every task still held once the scheduler has stopped.
func (q *Queue) Cleanup() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = nil
}
