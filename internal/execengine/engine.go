// Package execengine is the scheduler's execution engine: it runs exactly
// one task for exactly one slice and streams the result to the task's
// client sink. It never touches the task queue's mutex — the child
// process and the Demo-line generator both run with the scheduler's lock
// already released, and this package preserves that discipline by
// construction: Engine holds no reference to taskqueue.Queue at all.
package execengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remoteshell/internal/obslog"
	"remoteshell/internal/shellrt"
	"remoteshell/internal/task"
)

// prompt is appended to the sink to signal end-of-output.
const prompt = "$ "

// Engine runs tasks for one slice at a time. It is stateless across calls
// except for the injected runtime and logger, both safe for concurrent use,
// though the scheduler loop only ever calls Execute from one goroutine at a
// time, so at most one task is ever Running.
type Engine struct {
	runtime shellrt.Runtime
	log     *obslog.Logger

	// Tick is the cadence at which Program progress lines are delivered.
	// It defaults to one second and exists as a field so tests can
	// shrink it instead of sleeping in real time.
	Tick time.Duration

	// CaptureCap bounds a Shell task's captured output in bytes before
	// truncation. Zero means unbounded.
	CaptureCap int

	// QuantumRound1 and QuantumLater are the time-slice budgets for a
	// Program task's first round and every round after it. They are
	// deployment config carried on the Engine instance rather than
	// package-level state, so cmd/server/main.go sets them once at
	// startup and every call site reads them off the same value.
	QuantumRound1 int
	QuantumLater  int
}

// New builds an Engine that executes shell text via runtime and logs
// through log, with the default quantum of 3s for round 1 and 7s for
// every round after it.
func New(runtime shellrt.Runtime, log *obslog.Logger) *Engine {
	return &Engine{runtime: runtime, log: log, Tick: time.Second, QuantumRound1: 3, QuantumLater: 7}
}

// Quantum returns the time-slice budget in seconds for a Program task
// currently on the given round: round 1 gets a short slice to keep early
// scheduling decisions cheap; every later round gets the larger
// steady-state slice.
func (e *Engine) Quantum(round int) int {
	if round <= 1 {
		return e.QuantumRound1
	}
	return e.QuantumLater
}

// Slice caps a Program task's quantum at its remaining work.
func (e *Engine) Slice(remaining, round int) int {
	q := e.Quantum(round)
	if remaining < q {
		return remaining
	}
	return q
}

// Execute runs t for one slice and returns the number of payload bytes
// delivered to t.Sink, excluding the trailing prompt. It never mutates
// t.Remaining, t.Round, or t.State — those belong to the queue's
// post-slice update (taskqueue.ReturnTask / CompleteAndRemove); Execute
// only clears t.Preempted, which is safe because a Running task is owned
// exclusively by the engine until the slice ends.
func (e *Engine) Execute(ctx context.Context, t *task.Task, slice int) int64 {
	if t.Kind == task.Shell {
		e.log.Started(t.ClientID, t.ID, -1)
		return e.runShell(ctx, t)
	}
	e.log.Started(t.ClientID, t.ID, t.Remaining)
	return e.runProgram(ctx, t, slice)
}

func (e *Engine) runShell(ctx context.Context, t *task.Task) int64 {
	buf := shellrt.NewCaptureBuffer()
	var out []byte

	err := e.runtime.Run(ctx, t.CommandText, buf)
	switch {
	case err == nil:
		out = buf.Bytes()
	case isParseError(err):
		out = []byte("Parsing error.\n")
	default:
		var notFound *shellrt.CommandNotFoundError
		if errors.As(err, &notFound) {
			out = []byte(fmt.Sprintf("Command not found: %q\n", notFound.Name))
		} else {
			out = []byte(err.Error() + "\n")
		}
	}

	if e.CaptureCap > 0 && len(out) > e.CaptureCap {
		out = out[:e.CaptureCap]
	}

	n := writeSink(t.Sink, out)
	writeSink(t.Sink, []byte(prompt))
	e.log.BytesSent(t.ClientID, int64(n))
	return int64(n)
}

func isParseError(err error) bool {
	return errors.Is(err, shellrt.ErrEmptyPipeSegment) ||
		errors.Is(err, shellrt.ErrNoCommand) ||
		errors.Is(err, shellrt.ErrUnmatchedQuote)
}

// runProgram delivers the contiguous "Demo k/N" lines owed by this slice,
// at roughly e.Tick cadence, and reports resumption / final-completion
// markers.
func (e *Engine) runProgram(ctx context.Context, t *task.Task, slice int) int64 {
	if t.Preempted {
		e.log.Running(t.ClientID, t.ID, t.Remaining)
		t.Preempted = false
	}

	final := slice >= t.Remaining
	base := t.TotalBurst - t.Remaining

	var total int64
	ticker := time.NewTicker(e.Tick)
	defer ticker.Stop()

loop:
	for i := 0; i < slice; i++ {
		line := fmt.Sprintf("Demo %d/%d\n", base+i+1, t.TotalBurst)
		total += int64(writeSink(t.Sink, []byte(line)))

		if i == slice-1 {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			break loop
		}
	}

	if final {
		writeSink(t.Sink, []byte(prompt))
	}
	e.log.BytesSent(t.ClientID, total)
	return total
}

// writeSink writes p to sink, tolerating a closed/broken sink: failures
// are silently dropped and contribute zero to bytes_sent.
func writeSink(sink task.Sink, p []byte) int {
	n, err := sink.Write(p)
	if err != nil {
		return 0
	}
	return n
}
