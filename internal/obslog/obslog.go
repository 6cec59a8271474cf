// Package obslog is the server's observability layer: every scheduler
// log line plus structured fields for everything else, built on
// github.com/rs/zerolog for structured output and github.com/fatih/color
// for toggleable ANSI markers (Config.Color).
package obslog

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// Logger emits the scheduler's observable log lines.
type Logger struct {
	zl    zerolog.Logger
	color bool
}

// New builds a Logger writing to out. When enableColor is false, every
// line is plain text with no ANSI escapes (matching a NO_COLOR / non-tty
// environment).
func New(out io.Writer, enableColor bool) *Logger {
	cw := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true, // we color the message ourselves; zerolog's own level coloring stays off
		TimeFormat: "15:04:05",
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
	}
	return &Logger{zl: zerolog.New(cw).With().Timestamp().Logger(), color: enableColor}
}

func (l *Logger) paint(c *color.Color, s string) string {
	if !l.color {
		return s
	}
	cc := *c
	cc.EnableColor()
	return cc.Sprint(s)
}

var (
	blue   = color.New(color.FgBlue, color.Bold)
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
)

// Submitted logs "[cid]>>> <command>" on task submission.
func (l *Logger) Submitted(clientID int64, commandText string) {
	l.zl.Info().Int64("client_id", clientID).Str("event", "submitted").
		Msg(l.paint(blue, fmt.Sprintf("[%d]>>> %s", clientID, commandText)))
}

// Created logs "[cid]--- created (N)".
func (l *Logger) Created(clientID, taskID int64, n int) {
	l.zl.Info().Int64("client_id", clientID).Int64("task_id", taskID).Int("burst", n).Str("event", "created").
		Msg(l.paint(blue, fmt.Sprintf("[%d]--- created (%d)", clientID, n)))
}

// Started logs "[cid]--- started (N)".
func (l *Logger) Started(clientID, taskID int64, n int) {
	l.zl.Info().Int64("client_id", clientID).Int64("task_id", taskID).Int("remaining", n).Str("event", "started").
		Msg(l.paint(blue, fmt.Sprintf("[%d]--- started (%d)", clientID, n)))
}

// Running logs "[cid]--- running (N)" when a preempted Program resumes.
func (l *Logger) Running(clientID, taskID int64, n int) {
	l.zl.Info().Int64("client_id", clientID).Int64("task_id", taskID).Int("remaining", n).Str("event", "running").
		Msg(l.paint(blue, fmt.Sprintf("[%d]--- running (%d)", clientID, n)))
}

// Waiting logs "[cid]--- waiting (N)" on preemption.
func (l *Logger) Waiting(clientID, taskID int64, n int) {
	l.zl.Info().Int64("client_id", clientID).Int64("task_id", taskID).Int("remaining", n).Str("event", "waiting").
		Msg(l.paint(yellow, fmt.Sprintf("[%d]--- waiting (%d)", clientID, n)))
}

// Ended logs "[cid]--- ended (N)" on completion.
func (l *Logger) Ended(clientID, taskID int64, n int) {
	l.zl.Info().Int64("client_id", clientID).Int64("task_id", taskID).Int("remaining", n).Str("event", "ended").
		Msg(l.paint(red, fmt.Sprintf("[%d]--- ended (%d)", clientID, n)))
}

// BytesSent logs "[cid]<<< N bytes sent".
func (l *Logger) BytesSent(clientID int64, n int64) {
	l.zl.Info().Int64("client_id", clientID).Int64("bytes", n).Str("event", "bytes_sent").
		Msg(l.paint(green, fmt.Sprintf("[%d]<<< %d bytes sent", clientID, n)))
}

// QueueEntry is the (client, remaining) pair shown in a queue summary.
type QueueEntry struct {
	ClientID  int64
	Remaining int
}

// QueueSummary logs "[[cid]-[rem]-[cid]-[rem]-…]" after every completion.
func (l *Logger) QueueSummary(entries []QueueEntry) {
	var b strings.Builder
	b.WriteByte('[')
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("[%d]-[%d]-", e.ClientID, e.Remaining))
	}
	s := b.String()
	s = strings.TrimSuffix(s, "-")
	s += "]"
	l.zl.Info().Int("tasks", len(entries)).Str("event", "queue_summary").Msg(l.paint(blue, s))
}

// QueueFull logs a dropped submission because the queue was at capacity.
func (l *Logger) QueueFull(clientID int64, commandText string) {
	l.zl.Warn().Int64("client_id", clientID).Str("command", commandText).Str("event", "queue_full").
		Msg(l.paint(red, "task queue is full"))
}

// ClientConnected/ClientDisconnected log session lifecycle.
// traceID is a per-connection correlation id (see netserver), never the
// wire-visible client_id; it is logged on the connect line only.
func (l *Logger) ClientConnected(clientID int64, remoteAddr, traceID string) {
	l.zl.Info().Int64("client_id", clientID).Str("remote_addr", remoteAddr).Str("trace_id", traceID).
		Str("event", "connected").
		Msg(fmt.Sprintf("[%d]<<< client connected", clientID))
}

func (l *Logger) ClientDisconnected(clientID int64) {
	l.zl.Info().Int64("client_id", clientID).Str("event", "disconnected").
		Msg(fmt.Sprintf("[%d]<<< client disconnected", clientID))
}

// Listening logs the accept loop coming up on addr.
func (l *Logger) Listening(addr string) {
	l.zl.Info().Str("addr", addr).Str("event", "listening").
		Msg(l.paint(green, fmt.Sprintf("listening on %s", addr)))
}

// MetricsSample logs one kind's wait/run-time Welford summary.
// count is the number of run-time samples the kind has accumulated;
// waitMean/waitStdDev and runMean/runStdDev are already-formatted durations
// so obslog stays free of the metrics package's internal types.
func (l *Logger) MetricsSample(kind string, count int64, waitMean, waitStdDev, runMean, runStdDev string) {
	l.zl.Info().Str("kind", kind).Int64("samples", count).
		Str("wait_mean", waitMean).Str("wait_stddev", waitStdDev).
		Str("run_mean", runMean).Str("run_stddev", runStdDev).
		Str("event", "metrics").
		Msg(fmt.Sprintf("metrics[%s] n=%d wait=%s±%s run=%s±%s", kind, count, waitMean, waitStdDev, runMean, runStdDev))
}
