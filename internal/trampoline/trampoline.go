// SPDX-License-Identifier: MPL-2.0

// Package trampoline runs a command in a fresh shell that has re-activated
// the conda environment first, so that packages installed earlier in the
// same process are visible to the command.
//
// The script is generated next to the working directory under a fixed name,
// run with inherited output, and removed afterwards unless cleanup is
// suppressed. A script left over from an earlier run is always replaced.
package trampoline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/conda"
	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/internal/runner"
	"github.com/bqinstall/bqinstall/pkg/platform"
)

type (
	// Activator locates the environment activation script.
	Activator interface {
		ActivationScript(ctx context.Context) (string, error)
	}

	// Trampoline generates and runs activation scripts.
	Trampoline struct {
		// Name is the script file name without extension.
		Name      string
		GOOS      string
		NoCleanup bool

		Activator Activator
		Cmd       runner.Commander
		Logger    *log.Logger
	}

	// dialect renders and invokes a script for one platform family.
	dialect interface {
		extension() string
		render(activate string, env conda.Environment, argv []string) (string, error)
		invocation(file string) []string
		mode() os.FileMode
	}
)

// Path returns the script file name for the configured platform.
func (t *Trampoline) Path() string {
	return t.Name + dialectFor(t.GOOS).extension()
}

// Run writes a script that activates env and runs argv, then executes it
// with live output. The activation script is looked up anew on every call.
func (t *Trampoline) Run(ctx context.Context, env conda.Environment, argv []string) (err error) {
	activate, err := t.Activator.ActivationScript(ctx)
	if err != nil {
		return err
	}

	d := dialectFor(t.GOOS)
	script, err := d.render(activate, env, argv)
	if err != nil {
		return fmt.Errorf("failed to generate trampoline: %w", err)
	}

	file := t.Name + d.extension()
	if err := removeIfExists(file); err != nil {
		return err
	}

	t.Logger.Debug("writing trampoline", "path", file)
	if err := os.WriteFile(file, []byte(script), d.mode()); err != nil {
		return fmt.Errorf("failed to write trampoline: %w", err)
	}
	// WriteFile keeps the mode of an existing file and is subject to umask.
	if err := os.Chmod(file, d.mode()); err != nil {
		return errors.Join(fmt.Errorf("failed to make trampoline executable: %w", err), t.cleanup(file))
	}

	defer func() {
		err = errors.Join(err, t.cleanup(file))
	}()

	t.Logger.Debug("running trampoline", "command", runner.Join(argv))
	_, err = t.Cmd.Run(ctx, d.invocation(file), runner.Stream())
	return err
}

func (t *Trampoline) cleanup(file string) error {
	if t.NoCleanup {
		t.Logger.Debug("keeping trampoline", "path", file)
		return nil
	}
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return issue.NewErrorContext().
			WithOperation("remove trampoline").
			WithResource(file).
			WithIssue(issue.CleanupFailedId).
			Wrap(err).
			BuildError()
	}
	return nil
}

// Render returns the script text the trampoline would write on goos.
func Render(goos, activate string, env conda.Environment, argv []string) (string, error) {
	return dialectFor(goos).render(activate, env, argv)
}

func dialectFor(goos string) dialect {
	if platform.IsWindows(goos) {
		return batch{}
	}
	return bash{}
}

func removeIfExists(file string) error {
	if _, err := os.Lstat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(file); err != nil {
		return fmt.Errorf("failed to remove stale trampoline: %w", err)
	}
	return nil
}
