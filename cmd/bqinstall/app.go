// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/config"
	"github.com/bqinstall/bqinstall/internal/runner"
	"github.com/bqinstall/bqinstall/internal/stage"
	"github.com/bqinstall/bqinstall/pkg/platform"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives it and builds its per-run session from it.
	App struct {
		Config     ConfigProvider
		GOOS       string
		Executable func() (string, error)
		stdout     io.Writer
		stderr     io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		GOOS       string
		Executable func() (string, error)
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlags are the persistent flags shared by every command.
	rootFlags struct {
		verbose    bool
		noCleanup  bool
		yes        bool
		configPath string
	}

	// session is everything one command invocation works with.
	session struct {
		cfg    *config.Config
		opts   stage.Options
		logger *log.Logger
		runner *runner.Runner
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:     deps.Config,
		GOOS:       deps.GOOS,
		Executable: deps.Executable,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.GOOS == "" {
		app.GOOS = platform.Current()
	}
	if app.Executable == nil {
		app.Executable = os.Executable
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// newLogger builds the logger passed to every component.
func (a *App) newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// newSession loads the configuration and builds the immutable run options
// for stage st.
func (a *App) newSession(ctx context.Context, flags *rootFlags, st stage.Stage) (*session, error) {
	logger := a.newLogger(flags.verbose)

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, err
	}
	if src := cfg.Source(); src != "" {
		logger.Debug("loaded configuration", "path", src)
	}

	opts := stage.Options{
		NoCleanup:  flags.noCleanup,
		Yes:        flags.yes,
		Verbose:    flags.verbose,
		Stage:      st,
		ConfigPath: cfg.Source(),
	}
	return &session{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		runner: runner.New(logger, flags.verbose).WithOutput(a.stdout, a.stderr),
	}, nil
}
