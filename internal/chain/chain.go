package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/moby/term"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoStages is returned when a pipeline is started without stages.
	ErrNoStages = errors.New("pipeline has no stages")

	// ErrEmptyStage is returned when a stage has no program name.
	ErrEmptyStage = errors.New("stage has no program")
)

// Stage is the argument vector of one process, program name first.
type Stage []string

func (s Stage) String() string {
	return strings.Join(s, " ")
}

// StageError reports the stage of a pipeline that could not be set up or
// that exited unsuccessfully.
type StageError struct {
	Index int
	Argv  Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index, e.Argv, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type options struct {
	stdin  *os.File
	stderr io.Writer
	env    []string
}

// Option configures a pipeline.
type Option func(*options)

// WithStdin feeds f to the first stage. Terminals are never attached: when f
// is one, the first stage reads from the null device instead.
func WithStdin(f *os.File) Option {
	return func(o *options) {
		o.stdin = f
	}
}

// WithStderr collects the standard error of every stage. It defaults to
// os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(o *options) {
		o.stderr = w
	}
}

// WithEnv sets the environment of every stage. A nil environment inherits
// the parent's.
func WithEnv(env []string) Option {
	return func(o *options) {
		o.env = env
	}
}

// Start spawns every stage, connecting each one's output to the next one's
// input, and returns a Stream over the output of the last stage.
//
// If any stage cannot be set up, every descriptor opened so far is closed,
// the stages already running are killed and reaped, and no Stream is
// returned.
func Start(ctx context.Context, stages []Stage, opts ...Option) (*Stream, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	for i, stage := range stages {
		if len(stage) == 0 || stage[0] == "" {
			return nil, &StageError{Index: i, Argv: stage, Err: ErrEmptyStage}
		}
	}

	o := options{stderr: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		group   errgroup.Group
		started []*exec.Cmd
		prev    *os.File
	)

	abort := func(err error) (*Stream, error) {
		if prev != nil {
			prev.Close()
		}
		for _, cmd := range started {
			cmd.Process.Kill()
		}
		group.Wait()

		return nil, err
	}

	for i, stage := range stages {
		r, w, err := os.Pipe()
		if err != nil {
			return abort(&StageError{Index: i, Argv: stage, Err: fmt.Errorf("failed to create pipe: %w", err)})
		}

		cmd := exec.CommandContext(ctx, stage[0], stage[1:]...)
		cmd.Stdout = w
		cmd.Stderr = o.stderr
		cmd.Env = o.env

		switch {
		case prev != nil:
			cmd.Stdin = prev
		case i == 0 && o.stdin != nil && !term.IsTerminal(o.stdin.Fd()):
			cmd.Stdin = o.stdin
		}

		err = cmd.Start()

		// The child holds its own copies now.
		w.Close()
		if prev != nil {
			prev.Close()
			prev = nil
		}

		if err != nil {
			r.Close()
			return abort(&StageError{Index: i, Argv: stage, Err: fmt.Errorf("failed to start: %w", err)})
		}

		started = append(started, cmd)
		group.Go(func() error {
			if err := cmd.Wait(); err != nil {
				return &StageError{Index: i, Argv: stage, Err: err}
			}
			return nil
		})

		prev = r
	}

	return &Stream{reader: prev, group: &group}, nil
}

// Output runs the stages to completion and returns the output of the last
// one.
func Output(ctx context.Context, stages ...Stage) ([]byte, error) {
	stream, err := Start(ctx, stages)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	output, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline output: %w", err)
	}

	if err := stream.Wait(); err != nil {
		return nil, err
	}

	return output, nil
}
