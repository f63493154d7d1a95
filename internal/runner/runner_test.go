// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestRunner(t *testing.T, verbose bool) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("runner tests use /bin/sh")
	}

	var logs, out bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
	r := New(logger, verbose).WithOutput(&out, &out)
	return r, &logs, &out
}

func TestRun_CapturesByDefault(t *testing.T) {
	t.Parallel()
	r, _, out := newTestRunner(t, false)

	res, err := r.Run(context.Background(), []string{"sh", "-c", "echo hello; echo oops >&2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "hello\n" || res.Stderr != "oops\n" {
		t.Errorf("Run() = %+v", res)
	}
	if out.Len() != 0 {
		t.Errorf("captured output leaked to terminal: %q", out.String())
	}
}

func TestRun_StreamsWhenVerbose(t *testing.T) {
	t.Parallel()
	r, _, out := newTestRunner(t, true)

	res, err := r.Run(context.Background(), []string{"sh", "-c", "echo live"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "" {
		t.Errorf("streamed run should not capture, got %q", res.Stdout)
	}
	if out.String() != "live\n" {
		t.Errorf("terminal output = %q, want %q", out.String(), "live\n")
	}
}

func TestRun_OverridesBeatVerbosity(t *testing.T) {
	t.Parallel()
	r, _, out := newTestRunner(t, true)

	got, err := Output(context.Background(), r, []string{"sh", "-c", "echo value"})
	if err != nil || got != "value\n" {
		t.Errorf("Output() = %q, %v", got, err)
	}

	quiet, _, qout := newTestRunner(t, false)
	if _, err := quiet.Run(context.Background(), []string{"sh", "-c", "echo shown"}, Stream()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if qout.String() != "shown\n" || out.Len() != 0 {
		t.Errorf("Stream() override not honoured: %q", qout.String())
	}
}

func TestRun_DirAndEnv(t *testing.T) {
	t.Parallel()
	r, _, _ := newTestRunner(t, false)
	dir := t.TempDir()

	got, err := Output(context.Background(), r,
		[]string{"sh", "-c", `printf '%s|%s' "$(pwd -P)" "$BQ_TEST"`},
		Dir(dir), Env("BQ_TEST=yes"))
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if !strings.HasSuffix(got, "|yes") || !strings.Contains(got, filepath.Base(dir)+"|") {
		t.Errorf("Output() = %q", got)
	}
}

func TestRun_FailureCarriesCapturedOutput(t *testing.T) {
	t.Parallel()
	r, logs, _ := newTestRunner(t, false)

	_, err := r.Run(context.Background(), []string{"sh", "-c", "echo partial; echo broken >&2; exit 3"})

	var failure *ExecutionFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Run() error = %v, want *ExecutionFailure", err)
	}
	if failure.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", failure.ExitCode)
	}
	if failure.Stdout != "partial\n" || failure.Stderr != "broken\n" {
		t.Errorf("captured = %q / %q", failure.Stdout, failure.Stderr)
	}
	for _, want := range []string{"error while executing", "partial", "broken"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs missing %q:\n%s", want, logs.String())
		}
	}
}

func TestRun_FailureWithoutCaptureSaysNone(t *testing.T) {
	t.Parallel()
	r, logs, _ := newTestRunner(t, true)

	_, err := r.Run(context.Background(), []string{"sh", "-c", "exit 4"})

	var failure *ExecutionFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Run() error = %v, want *ExecutionFailure", err)
	}
	if failure.Stdout != NotCaptured || failure.Stderr != NotCaptured {
		t.Errorf("uncaptured streams = %q / %q, want %q", failure.Stdout, failure.Stderr, NotCaptured)
	}
	if !strings.Contains(logs.String(), "stdout:\nNone") {
		t.Errorf("logs should mark uncaptured stdout:\n%s", logs.String())
	}
	if !strings.Contains(err.Error(), "exited with status 4") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRun_MissingExecutable(t *testing.T) {
	t.Parallel()
	r, _, _ := newTestRunner(t, false)

	_, err := r.Run(context.Background(), []string{"bqinstall-definitely-not-installed"})

	var failure *ExecutionFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Run() error = %v, want *ExecutionFailure", err)
	}
	if failure.ExitCode != exitCodeNotStarted {
		t.Errorf("ExitCode = %d, want %d", failure.ExitCode, exitCodeNotStarted)
	}
	if !strings.Contains(err.Error(), "could not be started") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	t.Parallel()
	r, _, _ := newTestRunner(t, false)

	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Error("Run(nil) should fail")
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	got := Join([]string{"pip", "install", "", "a b"})
	if got != `pip install "" "a b"` {
		t.Errorf("Join() = %q", got)
	}
}
