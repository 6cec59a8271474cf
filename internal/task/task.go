// Package task defines the unit of work scheduled by the server: the
// immutable identity and mutable progress state of a single submitted
// command.
package task

import "time"

// Kind distinguishes a shell command (atomic, single slice) from a
// program (quantum-sliced synthetic workload).
type Kind int

const (
	Shell Kind = iota
	Program
)

func (k Kind) String() string {
	if k == Shell {
		return "Shell"
	}
	return "Program"
}

// State is a task's position in its lifecycle.
type State int

const (
	Waiting State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "Waiting"
	case Running:
		return "Running"
	default:
		return "Completed"
	}
}

// Sink is the write side of a byte stream addressed to a client. It may
// become invalid (closed) at any point if the client disconnects; writers
// must tolerate that silently.
type Sink interface {
	Write(p []byte) (int, error)
}

// Task is the central scheduling entity. Every mutable field is guarded by
// the owning queue's mutex — see taskqueue.Queue.
type Task struct {
	ID          int64
	ClientID    int64
	Sink        Sink
	CommandText string
	Kind        Kind

	TotalBurst int // seconds; -1 for Shell
	Remaining  int // seconds; -1 for Shell

	State       State
	Round       int // >= 1
	JustRan     bool
	Preempted   bool
	ArrivalTime time.Time
	BytesSent   int64
}

// NewShell constructs a Shell task. Remaining and TotalBurst are both -1:
// a Shell task's duration is never tracked in seconds.
func NewShell(id, clientID int64, sink Sink, commandText string, arrival time.Time) *Task {
	return &Task{
		ID:          id,
		ClientID:    clientID,
		Sink:        sink,
		CommandText: commandText,
		Kind:        Shell,
		TotalBurst:  -1,
		Remaining:   -1,
		State:       Waiting,
		Round:       1,
		ArrivalTime: arrival,
	}
}

// NewProgram constructs a Program task with the given total CPU burst in
// seconds. The session worker never passes burst <= 0 (it falls back to
// 5); this constructor trusts its input.
func NewProgram(id, clientID int64, sink Sink, commandText string, burst int, arrival time.Time) *Task {
	return &Task{
		ID:          id,
		ClientID:    clientID,
		Sink:        sink,
		CommandText: commandText,
		Kind:        Program,
		TotalBurst:  burst,
		Remaining:   burst,
		State:       Waiting,
		Round:       1,
		ArrivalTime: arrival,
	}
}
