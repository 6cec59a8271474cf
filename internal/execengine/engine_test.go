package execengine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"remoteshell/internal/obslog"
	"remoteshell/internal/shellrt"
	"remoteshell/internal/task"
)

// stubRuntime lets tests control what the shell path sees without
// depending on shellrt's actual parser/executor.
type stubRuntime struct {
	write []byte
	err   error
}

func (s stubRuntime) Run(_ context.Context, _ string, output io.Writer) error {
	if len(s.write) > 0 {
		output.Write(s.write)
	}
	return s.err
}

type bufSink struct {
	bytes.Buffer
	closed bool
}

func (b *bufSink) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("sink closed")
	}
	return b.Buffer.Write(p)
}

func newEngine(rt shellrt.Runtime) *Engine {
	return New(rt, obslog.New(io.Discard, false))
}

func TestExecuteShellDeliversOutputAndPrompt(t *testing.T) {
	e := newEngine(stubRuntime{write: []byte("hello\n")})
	sink := &bufSink{}
	ts := task.NewShell(1, 1, sink, "echo hello", time.Now())

	n := e.Execute(context.Background(), ts, 0)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, "hello\n$ ", sink.String())
}

func TestExecuteShellParseErrorMessage(t *testing.T) {
	e := newEngine(shellrt.Default)
	sink := &bufSink{}
	ts := task.NewShell(1, 1, sink, "   ", time.Now())

	n := e.Execute(context.Background(), ts, 0)
	assert.Equal(t, "Parsing error.\n$ ", sink.String())
	assert.Equal(t, int64(len("Parsing error.\n")), n)
}

func TestExecuteShellCommandNotFound(t *testing.T) {
	e := newEngine(shellrt.Default)
	sink := &bufSink{}
	ts := task.NewShell(1, 1, sink, "definitely-not-a-real-binary-xyz", time.Now())

	n := e.Execute(context.Background(), ts, 0)
	assert.Equal(t, "Command not found: \"definitely-not-a-real-binary-xyz\"\n$ ", sink.String())
	assert.True(t, n > 0)
}

func TestExecuteProgramFirstSliceLines(t *testing.T) {
	e := newEngine(stubRuntime{})
	e.Tick = time.Millisecond
	sink := &bufSink{}
	p := task.NewProgram(1, 1, sink, "./demo 5", 5, time.Now())
	p.State = task.Running

	n := e.Execute(context.Background(), p, e.Slice(p.Remaining, p.Round))
	assert.Equal(t, "Demo 1/5\nDemo 2/5\nDemo 3/5\n", sink.String())
	assert.Equal(t, int64(len("Demo 1/5\nDemo 2/5\nDemo 3/5\n")), n)
	assert.False(t, p.Preempted)
}

func TestExecuteProgramResumeLogsRunningAndClearsPreempted(t *testing.T) {
	var logBuf bytes.Buffer
	e := New(stubRuntime{}, obslog.New(&logBuf, false))
	e.Tick = time.Millisecond
	sink := &bufSink{}
	p := task.NewProgram(1, 1, sink, "./demo 10", 10, time.Now())
	p.Remaining = 7
	p.Round = 2
	p.Preempted = true

	e.Execute(context.Background(), p, e.Slice(p.Remaining, p.Round))
	assert.False(t, p.Preempted)
	assert.Contains(t, logBuf.String(), "[1]--- running (7)")
	assert.Equal(t, "Demo 4/10\nDemo 5/10\nDemo 6/10\nDemo 7/10\nDemo 8/10\nDemo 9/10\nDemo 10/10\n$ ", sink.String())
}

func TestExecuteProgramFinalSliceAppendsPrompt(t *testing.T) {
	e := newEngine(stubRuntime{})
	e.Tick = time.Millisecond
	sink := &bufSink{}
	p := task.NewProgram(1, 1, sink, "./demo 2", 2, time.Now())

	e.Execute(context.Background(), p, e.Slice(p.Remaining, p.Round))
	assert.Equal(t, "Demo 1/2\nDemo 2/2\n$ ", sink.String())
}

func TestExecuteSinkWriteFailureDoesNotCountBytes(t *testing.T) {
	e := newEngine(stubRuntime{write: []byte("hi\n")})
	sink := &bufSink{closed: true}
	ts := task.NewShell(1, 1, sink, "echo hi", time.Now())

	n := e.Execute(context.Background(), ts, 0)
	assert.Equal(t, int64(0), n)
}

func TestQuantumAndSlice(t *testing.T) {
	e := newEngine(stubRuntime{})
	assert.Equal(t, 3, e.Quantum(1))
	assert.Equal(t, 7, e.Quantum(2))
	assert.Equal(t, 7, e.Quantum(99))
	assert.Equal(t, 2, e.Slice(2, 1))
	assert.Equal(t, 3, e.Slice(10, 1))
	assert.Equal(t, 7, e.Slice(10, 2))
}

func TestQuantumRespectsOverride(t *testing.T) {
	e := newEngine(stubRuntime{})
	e.QuantumRound1 = 1
	e.QuantumLater = 2
	assert.Equal(t, 1, e.Quantum(1))
	assert.Equal(t, 2, e.Quantum(2))
}
