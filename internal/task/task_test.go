package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct{ buf []byte }

func (f *fakeSink) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

func TestNewShellInvariants(t *testing.T) {
	sink := &fakeSink{}
	now := time.Now()
	tk := NewShell(1, 7, sink, "ls -la", now)

	require.Equal(t, Shell, tk.Kind)
	assert.Equal(t, -1, tk.TotalBurst)
	assert.Equal(t, -1, tk.Remaining)
	assert.Equal(t, Waiting, tk.State)
	assert.Equal(t, 1, tk.Round)
	assert.False(t, tk.JustRan)
	assert.False(t, tk.Preempted)
	assert.Equal(t, now, tk.ArrivalTime)
}

func TestNewProgramInvariants(t *testing.T) {
	sink := &fakeSink{}
	tk := NewProgram(2, 3, sink, "./demo 10", 10, time.Now())

	require.Equal(t, Program, tk.Kind)
	assert.Equal(t, 10, tk.TotalBurst)
	assert.Equal(t, 10, tk.Remaining)
	assert.Equal(t, 1, tk.Round)
}

func TestKindAndStateStrings(t *testing.T) {
	assert.Equal(t, "Shell", Shell.String())
	assert.Equal(t, "Program", Program.String())
	assert.Equal(t, "Waiting", Waiting.String())
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Completed", Completed.String())
}
