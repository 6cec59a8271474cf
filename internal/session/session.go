// Package session is the per-client worker: it owns one connection,
// classifies each line the client sends, and submits tasks to the shared
// queue. It never touches scheduling decisions or task execution — those
// are the scheduler's and the execution engine's job.
package session

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"

	"remoteshell/internal/obslog"
	"remoteshell/internal/task"
	"remoteshell/internal/taskqueue"
)

const prompt = "$ "

// IDAllocator hands out client IDs from a single monotonic counter guarded
// by its own mutex.
type IDAllocator struct {
	mu   sync.Mutex
	next int64
}

// Next returns the next client ID, starting at 1.
func (a *IDAllocator) Next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	return a.next
}

// Conn is the minimal surface Worker needs from a connection; net.Conn
// satisfies it, as does anything wrapping a pipe for tests.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Worker drives one client's session to completion.
type Worker struct {
	id    int64
	conn  Conn
	queue *taskqueue.Queue
	log   *obslog.Logger
}

// NewWorker builds a Worker for an already-accepted connection. id should
// come from an IDAllocator shared across every connection the server
// accepts.
func NewWorker(id int64, conn Conn, queue *taskqueue.Queue, log *obslog.Logger) *Worker {
	return &Worker{id: id, conn: conn, queue: queue, log: log}
}

// ID reports the client ID assigned to this worker.
func (w *Worker) ID() int64 { return w.id }

// Serve runs the read-classify-submit loop until the client sends "exit",
// disconnects, or its connection otherwise errors. It always purges the
// client's waiting tasks and closes the connection on the way out.
func (w *Worker) Serve() {
	// Defers run LIFO: registering Close first means PurgeClient runs
	// first on the way out, closing the window where the scheduler could
	// still select a Waiting task against an already-closed sink.
	defer w.conn.Close()
	defer w.queue.PurgeClient(w.id)

	io.WriteString(w.conn, prompt)

	scanner := bufio.NewScanner(w.conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case line == "exit":
			io.WriteString(w.conn, "Disconnected from server.\n")
			return
		case line == "":
			io.WriteString(w.conn, prompt)
		default:
			w.submit(line)
		}
	}
}

func (w *Worker) submit(commandText string) {
	kind, burst := classify(commandText)

	w.log.Submitted(w.id, commandText)
	t, err := w.queue.Submit(w.id, w.conn, commandText, kind, burst)
	if err != nil {
		w.log.QueueFull(w.id, commandText)
		return
	}

	created := -1
	if kind == task.Program {
		created = t.TotalBurst
	}
	w.log.Created(w.id, t.ID, created)
}

// classify recognizes a line beginning with "demo" or "./demo" as a
// Program task whose burst is the second whitespace-separated token
// (default 5 if missing or non-positive); everything else is a Shell
// task.
func classify(commandText string) (task.Kind, int) {
	fields := strings.Fields(commandText)
	if len(fields) == 0 {
		return task.Shell, -1
	}
	if fields[0] != "demo" && fields[0] != "./demo" {
		return task.Shell, -1
	}

	n := 5
	if len(fields) > 1 {
		if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
			n = v
		}
	}
	return task.Program, n
}
