// Command server runs the multi-client remote shell server: it loads
// configuration, wires the task queue, execution engine and scheduler loop
// together, then accepts TCP connections until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"remoteshell/internal/config"
	"remoteshell/internal/execengine"
	"remoteshell/internal/netserver"
	"remoteshell/internal/obslog"
	"remoteshell/internal/scheduler"
	"remoteshell/internal/shellrt"
	"remoteshell/internal/taskqueue"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := obslog.New(os.Stdout, cfg.Color)

	queue := taskqueue.New(cfg.QueueCapacity)
	engine := execengine.New(shellrt.Default, log)
	engine.CaptureCap = cfg.ShellCaptureCap
	if cfg.QuantumRound1 > 0 {
		engine.QuantumRound1 = cfg.QuantumRound1
	}
	if cfg.QuantumLater > 0 {
		engine.QuantumLater = cfg.QuantumLater
	}
	sched := scheduler.New(queue, engine, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sched.Run(ctx)
	defer sched.Stop()

	srv := netserver.New(cfg.Addr, queue, log)
	log.Listening(cfg.Addr)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("accept loop: %w", err)
	}
	return nil
}
