// SPDX-License-Identifier: MPL-2.0

// Package conda talks to the conda command line: it finds the active
// environment and its activation script, and installs packages into it.
package conda

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/extract"
	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/internal/runner"
	"github.com/bqinstall/bqinstall/pkg/platform"
)

// PrefixEnvVar holds the installation prefix of the active environment.
const PrefixEnvVar = "CONDA_PREFIX"

// noEnvironment is what conda info prints when nothing is activated.
const noEnvironment = "None"

var (
	// ErrEnvironmentMissing is returned when no conda environment is active.
	ErrEnvironmentMissing = errors.New("not inside a conda environment")
	// ErrPrefixUnset is returned when CONDA_PREFIX is empty.
	ErrPrefixUnset = errors.New(PrefixEnvVar + " is not set")

	activeEnvLine = extract.Line(`^\s*active environment +: +(.*?)\s*$`)
	baseEnvLine   = extract.Line(`^\s*base environment +: +(.*?)\s*$`)
)

type (
	// Environment is the name of a conda environment.
	Environment string

	// Client runs conda through a runner.Commander.
	Client struct {
		cmd    runner.Commander
		conda  string
		goos   string
		logger *log.Logger
	}
)

// New creates a Client invoking the conda executable named conda.
func New(cmd runner.Commander, conda, goos string, logger *log.Logger) *Client {
	return &Client{cmd: cmd, conda: conda, goos: goos, logger: logger}
}

func (e Environment) String() string { return string(e) }

// Info returns the output of conda info.
func (c *Client) Info(ctx context.Context) (string, error) {
	out, err := runner.Output(ctx, c.cmd, []string{c.conda, "info"})
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("run conda info").
			WithSuggestion("Check that conda is installed and on PATH").
			WithIssue(issue.CondaNotFoundId).
			Wrap(err).
			BuildError()
	}
	return out, nil
}

// ActiveEnvironment returns the name of the active environment. It fails
// with ErrEnvironmentMissing when conda reports none, before anything else
// has been touched.
func (c *Client) ActiveEnvironment(ctx context.Context) (Environment, error) {
	c.logger.Info("detecting conda environment")

	out, err := c.Info(ctx)
	if err != nil {
		return "", err
	}
	name, err := extract.One(out, activeEnvLine, "active environment line")
	if err != nil {
		return "", ambiguous(err)
	}
	c.logger.Debug("detected environment name", "env", name)

	if name == noEnvironment {
		return "", issue.NewErrorContext().
			WithOperation("detect conda environment").
			WithSuggestion("Run 'conda activate base' to enter the base environment, then retry").
			WithIssue(issue.EnvironmentMissingId).
			Wrap(ErrEnvironmentMissing).
			BuildError()
	}

	c.logger.Info("detected environment", "env", name)
	return Environment(name), nil
}

// ActivationScript returns the path of the script that activates an
// environment: bin/activate under the base environment on POSIX and
// Scripts\activate.bat on Windows.
func (c *Client) ActivationScript(ctx context.Context) (string, error) {
	c.logger.Debug("detecting conda activation script location")

	out, err := c.Info(ctx)
	if err != nil {
		return "", err
	}
	base, err := extract.One(out, baseEnvLine, "base environment line")
	if err != nil {
		return "", ambiguous(err)
	}
	base = stripAnnotation(base)

	var script string
	if platform.IsWindows(c.goos) {
		script = platform.Join(c.goos, base, "Scripts", "activate.bat")
	} else {
		script = platform.Join(c.goos, base, "bin", "activate")
	}
	c.logger.Debug("detected activation script", "path", script)
	return script, nil
}

// Install runs conda install -y for pkgs, from channel when non-empty.
// Nothing installed here is ever removed again.
func (c *Client) Install(ctx context.Context, channel string, pkgs ...string) error {
	argv := []string{c.conda, "install", "-y"}
	if channel != "" {
		argv = append(argv, "-c", channel)
	}
	argv = append(argv, pkgs...)

	_, err := c.cmd.Run(ctx, argv)
	return issue.WrapWithContext(err, "install conda packages", strings.Join(pkgs, " "))
}

// Prefix returns the active environment's installation prefix.
func Prefix() (string, error) {
	p := os.Getenv(PrefixEnvVar)
	if p == "" {
		return "", ErrPrefixUnset
	}
	return p, nil
}

// IncludeDir returns the header directory under prefix: Library\include on
// Windows and include elsewhere.
func IncludeDir(prefix, goos string) string {
	if platform.IsWindows(goos) {
		return platform.Join(goos, prefix, "Library", "include")
	}
	return platform.Join(goos, prefix, "include")
}

// stripAnnotation removes the "(writable)" / "(read only)" suffix conda
// prints after the base environment path.
func stripAnnotation(v string) string {
	if strings.HasSuffix(v, ")") {
		if i := strings.LastIndex(v, "("); i >= 0 {
			v = v[:i]
		}
	}
	return strings.TrimSpace(v)
}

func ambiguous(err error) error {
	return issue.NewErrorContext().
		WithOperation("parse conda info").
		WithSuggestion("Update conda; its info output was not in the expected format").
		WithIssue(issue.AmbiguousOutputId).
		Wrap(err).
		BuildError()
}
