package netserver

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"remoteshell/internal/obslog"
	"remoteshell/internal/taskqueue"
)

func TestServerAcceptsAndGreetsClient(t *testing.T) {
	q := taskqueue.New(10)
	log := obslog.New(io.Discard, false)
	srv := New("127.0.0.1:0", q, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	srv.addr = addr

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, time.Second, 10*time.Millisecond)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 2)
	_, err = io.ReadFull(bufio.NewReader(conn), buf)
	require.NoError(t, err)
	require.Equal(t, "$ ", string(buf))

	cancel()
	<-errCh
}
