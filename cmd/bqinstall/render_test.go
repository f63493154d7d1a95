// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/conda"
	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/internal/runner"
)

func TestRenderFailure(t *testing.T) {
	t.Parallel()

	err := issue.NewErrorContext().
		WithOperation("detect conda environment").
		WithSuggestion("Run 'conda activate base' to enter the base environment, then retry").
		WithIssue(issue.EnvironmentMissingId).
		Wrap(conda.ErrEnvironmentMissing).
		BuildError()

	var buf bytes.Buffer
	renderFailure(&buf, err, false, log.New(io.Discard))

	out := buf.String()
	if !strings.Contains(out, "What to try:") || !strings.Contains(out, "conda activate base") {
		t.Errorf("missing suggestions:\n%s", out)
	}
	if strings.Count(out, "not inside a conda environment") > 0 {
		t.Errorf("the error message itself is printed by fang, not here:\n%s", out)
	}
	if !strings.Contains(out, "--verbose") {
		t.Errorf("missing hint:\n%s", out)
	}
}

func TestRenderFailure_PlainError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderFailure(&buf, errors.New("plain"), true, log.New(io.Discard))
	if buf.Len() != 0 {
		t.Errorf("plain errors render nothing extra, got %q", buf.String())
	}
}

func TestRenderFailure_CommandFailure(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("stage execute_build failed: %w", &runner.ExecutionFailure{Command: []string{"./x.sh"}, ExitCode: 3})

	var buf bytes.Buffer
	renderFailure(&buf, err, false, log.New(io.Discard))
	if !strings.Contains(buf.String(), "--no-cleanup") {
		t.Errorf("expected the command failure card:\n%s", buf.String())
	}
}
