package taskqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"remoteshell/internal/task"
)

func mkProgram(id int64, remaining int, arrival time.Time) *task.Task {
	return &task.Task{ID: id, Kind: task.Program, Remaining: remaining, State: task.Waiting, ArrivalTime: arrival}
}

func mkShell(id int64, arrival time.Time) *task.Task {
	return &task.Task{ID: id, Kind: task.Shell, Remaining: -1, State: task.Waiting, ArrivalTime: arrival}
}

func TestSelectEmpty(t *testing.T) {
	assert.Nil(t, Select(nil))
}

func TestSelectShellBeatsPrograms(t *testing.T) {
	now := time.Now()
	p := mkProgram(1, 2, now)
	s := mkShell(2, now.Add(time.Millisecond))
	got := Select([]*task.Task{p, s})
	assert.Same(t, s, got)
}

func TestSelectEarliestShellWins(t *testing.T) {
	now := time.Now()
	s1 := mkShell(1, now.Add(2*time.Millisecond))
	s2 := mkShell(2, now)
	got := Select([]*task.Task{s1, s2})
	assert.Same(t, s2, got)
}

func TestSelectSRTFMinRemaining(t *testing.T) {
	now := time.Now()
	p1 := mkProgram(1, 10, now)
	p2 := mkProgram(2, 3, now.Add(time.Millisecond))
	got := Select([]*task.Task{p1, p2})
	assert.Same(t, p2, got)
}

func TestSelectSRTFTiebreakArrival(t *testing.T) {
	now := time.Now()
	p1 := mkProgram(1, 5, now.Add(time.Millisecond))
	p2 := mkProgram(2, 5, now)
	got := Select([]*task.Task{p1, p2})
	assert.Same(t, p2, got)
}

func TestSelectAntiStarvationExcludesJustRan(t *testing.T) {
	now := time.Now()
	p1 := mkProgram(1, 2, now)
	p1.JustRan = true
	p2 := mkProgram(2, 10, now.Add(time.Millisecond))
	got := Select([]*task.Task{p1, p2})
	assert.Same(t, p2, got, "shorter remaining task just ran, must be skipped in favor of the other")
}

func TestSelectAntiStarvationIgnoredWhenOnlyOneCandidate(t *testing.T) {
	now := time.Now()
	p1 := mkProgram(1, 2, now)
	p1.JustRan = true
	got := Select([]*task.Task{p1})
	assert.Same(t, p1, got, "sole waiting task is chosen even if JustRan")
}
