package shellrt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// CommandNotFoundError reports that neither the builtin table nor the
// host's PATH could resolve a command name.
type CommandNotFoundError struct{ Name string }

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("Command not found: %q", e.Name)
}

// Runtime is the interface the execution engine consumes: parse then
// execute a command line. Both halves are replaceable — the engine
// treats Runtime as opaque.
type Runtime interface {
	Run(ctx context.Context, commandText string, output io.Writer) error
}

// Default is the package-level Runtime backed by Parse and Execute.
var Default Runtime = defaultRuntime{}

type defaultRuntime struct{}

func (defaultRuntime) Run(ctx context.Context, commandText string, output io.Writer) error {
	pipeline, err := Parse(commandText)
	if err != nil {
		return err
	}
	return Execute(ctx, pipeline, output)
}

// Execute runs every stage of pipeline concurrently, piping stdout of one
// stage into stdin of the next, and writes the final stage's combined
// stdout+stderr to output.
func Execute(ctx context.Context, pipeline *Pipeline, output io.Writer) error {
	if len(pipeline.Commands) == 1 && pipeline.Commands[0].Args[0] == "cd" {
		return runCd(pipeline.Commands[0].Args)
	}

	stages := make([]stage, len(pipeline.Commands))
	for i, cmd := range pipeline.Commands {
		stages[i] = newStage(cmd)
	}

	for i := range stages {
		if stages[i].stdinFromPipe != nil {
			stages[i].stdin = stages[i].stdinFromPipe
		}
		if i+1 < len(stages) {
			pr, pw := io.Pipe()
			stages[i].stdout = pw
			stages[i+1].stdinFromPipe = pr
		} else {
			stages[i].stdout = output
		}
	}

	errs := make([]error, len(stages))
	done := make(chan int, len(stages))
	for i := range stages {
		go func(i int) {
			errs[i] = stages[i].run(ctx)
			if pw, ok := stages[i].stdout.(*io.PipeWriter); ok {
				pw.CloseWithError(errs[i])
			}
			done <- i
		}(i)
	}
	for range stages {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// stage is one pipeline command wired up for execution.
type stage struct {
	cmd           Command
	stdin         io.Reader
	stdinFromPipe *io.PipeReader
	stdout        io.Writer
}

func newStage(cmd Command) stage {
	return stage{cmd: cmd}
}

func (s stage) run(ctx context.Context) error {
	stdout := s.stdout
	stderr := s.stdout

	if s.cmd.Redirect.Stdin != "" {
		f, err := os.Open(s.cmd.Redirect.Stdin)
		if err != nil {
			return err
		}
		defer f.Close()
		s.stdin = f
	}
	if s.cmd.Redirect.Stdout != "" {
		f, err := os.Create(s.cmd.Redirect.Stdout)
		if err != nil {
			return err
		}
		defer f.Close()
		stdout = f
	}
	if s.cmd.Redirect.Stderr != "" {
		f, err := os.Create(s.cmd.Redirect.Stderr)
		if err != nil {
			return err
		}
		defer f.Close()
		stderr = f
	}

	name := s.cmd.Args[0]
	if name == "cd" {
		return runCd(s.cmd.Args)
	}
	if b, ok := Lookup(name); ok {
		return b(ctx, s.cmd.Args[1:], s.stdin, stdout)
	}

	if _, err := exec.LookPath(name); err != nil {
		return &CommandNotFoundError{Name: name}
	}

	c := exec.CommandContext(ctx, name, s.cmd.Args[1:]...)
	c.Stdin = s.stdin
	c.Stdout = stdout
	c.Stderr = stderr
	return c.Run()
}

// runCd changes the server process's working directory in place; it
// never forks.
func runCd(args []string) error {
	dir := "."
	if len(args) > 1 {
		dir = args[1]
	} else if home, ok := os.LookupEnv("HOME"); ok {
		dir = home
	}
	return os.Chdir(dir)
}

// CaptureBuffer is a growable output sink for a shell command's captured
// stdout/stderr.
type CaptureBuffer struct {
	bytes.Buffer
}

func NewCaptureBuffer() *CaptureBuffer { return &CaptureBuffer{} }
