// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/pkg/platform"
	"github.com/bqinstall/bqinstall/pkg/types"
)

// NotCaptured stands in for a stream that went to the terminal.
const NotCaptured = "None"

// exitCodeNotStarted is reported when the executable could not be started
// at all, matching what a POSIX shell reports for a missing command.
const exitCodeNotStarted types.ExitCode = 127

type (
	// Commander is the port through which every installer component runs
	// external tools. *Runner is the production implementation.
	Commander interface {
		Run(ctx context.Context, argv []string, opts ...Option) (Result, error)
	}

	// Result holds captured output. A stream that was not captured is empty.
	Result struct {
		Stdout string
		Stderr string
	}

	// Option adjusts a single Run call.
	Option func(*Settings)

	// Settings is the resolved form of a list of Options.
	Settings struct {
		Mode OutputMode
		Dir  string
		Env  []string
	}

	// OutputMode selects between capturing and streaming.
	OutputMode int

	// Runner runs commands with the process's own environment.
	Runner struct {
		logger  *log.Logger
		verbose bool
		goos    string
		stdin   io.Reader
		stdout  io.Writer
		stderr  io.Writer
	}

	// ExecutionFailure is returned when a command exits non-zero or cannot
	// be started.
	ExecutionFailure struct {
		Command  []string
		ExitCode types.ExitCode
		// Stdout and Stderr hold captured output, or NotCaptured.
		Stdout string
		Stderr string
		Err    error
	}
)

const (
	// ModeDefault captures at normal verbosity and streams when verbose.
	ModeDefault OutputMode = iota
	ModeCapture
	ModeStream
)

// Capture forces output capture regardless of verbosity.
func Capture() Option { return func(s *Settings) { s.Mode = ModeCapture } }

// Stream forces output to be inherited by the terminal regardless of verbosity.
func Stream() Option { return func(s *Settings) { s.Mode = ModeStream } }

// Dir runs the command in dir.
func Dir(dir string) Option { return func(s *Settings) { s.Dir = dir } }

// Env appends KEY=VALUE entries to the inherited environment.
func Env(kv ...string) Option {
	return func(s *Settings) { s.Env = append(s.Env, kv...) }
}

// Apply resolves opts in order.
func Apply(opts ...Option) Settings {
	var s Settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Captures reports whether output is captured under the given verbosity.
func (s Settings) Captures(verbose bool) bool {
	return s.Mode == ModeCapture || (s.Mode == ModeDefault && !verbose)
}

// New creates a Runner. verbose selects streaming as the default mode.
func New(logger *log.Logger, verbose bool) *Runner {
	return &Runner{
		logger:  logger,
		verbose: verbose,
		goos:    platform.Current(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithOutput redirects streamed output. Used by tests and by the CLI when
// it wraps the terminal.
func (r *Runner) WithOutput(stdout, stderr io.Writer) *Runner {
	cp := *r
	cp.stdout, cp.stderr = stdout, stderr
	return &cp
}

// Run executes argv and waits for it.
func (r *Runner) Run(ctx context.Context, argv []string, opts ...Option) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("runner: empty command")
	}

	co := Apply(opts...)
	capture := co.Captures(r.verbose)

	name, args := argv[0], argv[1:]
	if platform.IsWindows(r.goos) {
		// conda and pip are batch shims on Windows and need cmd to resolve them.
		name, args = "cmd", append([]string{"/C"}, argv...)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = co.Dir
	if len(co.Env) > 0 {
		cmd.Env = append(os.Environ(), co.Env...)
	}

	var stdout, stderr bytes.Buffer
	if capture {
		cmd.Stdout, cmd.Stderr = &stdout, &stderr
	} else {
		cmd.Stdin, cmd.Stdout, cmd.Stderr = r.stdin, r.stdout, r.stderr
	}

	r.logger.Debug("running", "command", Join(argv), "dir", co.Dir, "captured", capture)

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	failure := &ExecutionFailure{
		Command:  append([]string(nil), argv...),
		ExitCode: exitCodeNotStarted,
		Stdout:   NotCaptured,
		Stderr:   NotCaptured,
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		failure.ExitCode = types.ExitCode(exitErr.ExitCode()).Portable()
	}
	if capture {
		failure.Stdout, failure.Stderr = res.Stdout, res.Stderr
	}

	r.logger.Error("error while executing", "command", Join(argv), "status", failure.ExitCode)
	r.logger.Error("stdout:\n" + failure.Stdout)
	r.logger.Error("stderr:\n" + failure.Stderr)

	return res, failure
}

// Output runs argv with capture forced and returns its standard output.
func Output(ctx context.Context, c Commander, argv []string, opts ...Option) (string, error) {
	res, err := c.Run(ctx, argv, append(opts, Capture())...)
	return res.Stdout, err
}

func (e *ExecutionFailure) Error() string {
	var exitErr *exec.ExitError
	if e.Err != nil && !errors.As(e.Err, &exitErr) {
		return fmt.Sprintf("command %q could not be started: %v", Join(e.Command), e.Err)
	}
	return fmt.Sprintf("command %q exited with status %d", Join(e.Command), e.ExitCode)
}

func (e *ExecutionFailure) Unwrap() error { return e.Err }

// Join renders argv for logs, quoting arguments that contain whitespace.
func Join(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}
