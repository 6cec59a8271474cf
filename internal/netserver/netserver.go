// Package netserver runs the TCP accept loop. It binds one listener,
// spawns one session.Worker goroutine per accepted connection, and gives
// each a client ID from a shared session.IDAllocator.
package netserver

import (
	"context"
	"net"

	"github.com/google/uuid"

	"remoteshell/internal/obslog"
	"remoteshell/internal/session"
	"remoteshell/internal/taskqueue"
)

// Server accepts TCP connections and turns each into a session.Worker.
type Server struct {
	addr  string
	queue *taskqueue.Queue
	log   *obslog.Logger
	ids   session.IDAllocator
}

// New builds a Server that will listen on addr once Run is called.
func New(addr string, queue *taskqueue.Queue, log *obslog.Logger) *Server {
	return &Server{addr: addr, queue: queue, log: log}
}

// Run listens on s.addr and serves connections until ctx is cancelled or
// the listener errors. It blocks the calling goroutine.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	id := s.ids.Next()
	traceID := uuid.NewString()
	s.log.ClientConnected(id, conn.RemoteAddr().String(), traceID)
	defer s.log.ClientDisconnected(id)

	w := session.NewWorker(id, conn, s.queue, s.log)
	w.Serve()
}
