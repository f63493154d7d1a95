// SPDX-License-Identifier: MPL-2.0

// Package pip drives pip inside the active environment: package installs,
// the upgraded-pip scope, and the introspection used to pick binary wheels.
package pip

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/extract"
	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/internal/runner"
	"github.com/bqinstall/bqinstall/pkg/platform"
)

// pipVersionLine matches the pip row of pip list. Releases may have two
// components (24.0) or more (20.2.4, 23.3.1).
var pipVersionLine = extract.Line(`^pip +(\d+(?:\.[0-9A-Za-z]+)+)\s*$`)

// Client runs pip and python through a runner.Commander.
type Client struct {
	cmd    runner.Commander
	pip    string
	python string
	goos   string
	logger *log.Logger
}

// New creates a Client using the given pip and python executables.
func New(cmd runner.Commander, pip, python, goos string, logger *log.Logger) *Client {
	return &Client{cmd: cmd, pip: pip, python: python, goos: goos, logger: logger}
}

// Install runs pip install with args.
func (c *Client) Install(ctx context.Context, args ...string) error {
	_, err := c.cmd.Run(ctx, append([]string{c.pip, "install"}, args...))
	return issue.WrapWithContext(err, "pip install", strings.Join(args, " "))
}

// InstalledVersion returns the version of pip from pip list. Exactly one
// pip line must be present.
func (c *Client) InstalledVersion(ctx context.Context) (string, error) {
	out, err := runner.Output(ctx, c.cmd, []string{c.pip, "list"})
	if err != nil {
		return "", issue.WrapWithOperation(err, "list installed packages")
	}
	version, err := extract.One(out, pipVersionLine, "pip line")
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("find installed pip version").
			WithIssue(issue.AmbiguousOutputId).
			Wrap(err).
			BuildError()
	}
	return strings.TrimSpace(version), nil
}

// Upgraded runs fn with the latest pip installed. The version found before
// the upgrade is recorded first, so an unreadable listing aborts before
// anything changes. With restore set, that version is reinstalled when the
// scope ends, whatever fn returned.
func (c *Client) Upgraded(ctx context.Context, restore bool, fn func(ctx context.Context) error) (err error) {
	version, err := c.InstalledVersion(ctx)
	if err != nil {
		return err
	}
	c.logger.Debug("upgrading pip", "current", version)

	if _, err := c.cmd.Run(ctx, c.upgradeArgs()); err != nil {
		return issue.WrapWithOperation(err, "upgrade pip")
	}

	if restore {
		defer func() {
			c.logger.Debug("restoring pip version", "version", version)
			_, rerr := c.cmd.Run(ctx, []string{c.python, "-m", "pip", "install", "pip==" + version})
			err = errors.Join(err, issue.WrapWithOperation(rerr, "restore pip "+version))
		}()
	}

	return fn(ctx)
}

// upgradeArgs upgrades through the interpreter so pip can replace itself on
// Windows, where --user also lets the upgrade bypass the locked install.
func (c *Client) upgradeArgs() []string {
	argv := []string{c.python, "-m", "pip", "install", "--upgrade", "pip"}
	if platform.IsWindows(c.goos) {
		argv = []string{c.python, "-m", "pip", "install", "--user", "--upgrade", "pip"}
	}
	return argv
}
