// SPDX-License-Identifier: MPL-2.0

// Package psbody builds and tests the psbody mesh extension inside the
// active conda environment.
package psbody

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/conda"
	"github.com/bqinstall/bqinstall/internal/config"
	"github.com/bqinstall/bqinstall/internal/pip"
	"github.com/bqinstall/bqinstall/internal/resolve"
	"github.com/bqinstall/bqinstall/internal/runner"
	"github.com/bqinstall/bqinstall/internal/stage"
	"github.com/bqinstall/bqinstall/internal/vcs"
	"github.com/bqinstall/bqinstall/pkg/platform"
)

// requirementsFile lists the extension's python dependencies.
const requirementsFile = "requirements.txt"

// Recipe implements stage.Recipe for the mesh extension.
type Recipe struct {
	cfg    *config.Config
	opts   stage.Options
	goos   string
	cmd    runner.Commander
	logger *log.Logger

	pip      *pip.Client
	resolver *resolve.Resolver
	vcs      vcs.VCS
	remover  *vcs.Remover

	// prefix returns the active environment's prefix.
	prefix func() (string, error)
}

var _ stage.Recipe = (*Recipe)(nil)

// New wires a Recipe from the configuration. progress receives go-git clone
// progress when that backend is selected.
func New(cfg *config.Config, opts stage.Options, cmd runner.Commander, goos string, logger *log.Logger, progress io.Writer) (*Recipe, error) {
	v, err := NewVCS(cfg, cmd, progress)
	if err != nil {
		return nil, err
	}
	c := conda.New(cmd, cfg.Tools.Conda, goos, logger)
	p := pip.New(cmd, cfg.Tools.Pip, cfg.Tools.Python, goos, logger)
	return &Recipe{
		cfg:      cfg,
		opts:     opts,
		goos:     goos,
		cmd:      cmd,
		logger:   logger,
		pip:      p,
		resolver: resolve.New(cfg, c, p, goos, logger),
		vcs:      v,
		remover:  vcs.NewRemover(goos),
		prefix:   conda.Prefix,
	}, nil
}

// NewVCS returns the clone backend selected in cfg.
func NewVCS(cfg *config.Config, cmd runner.Commander, progress io.Writer) (vcs.VCS, error) {
	switch cfg.VCS.Backend {
	case config.VCSBackendGit, "":
		return vcs.NewGit(cmd, cfg.Tools.Git), nil
	case config.VCSBackendGoGit:
		return vcs.NewGoGit(progress), nil
	default:
		return nil, &config.InvalidVCSBackendError{Value: cfg.VCS.Backend}
	}
}

func (r *Recipe) checkout() *vcs.Checkout {
	return &vcs.Checkout{
		URL:       r.cfg.Repository.URL,
		Revision:  r.cfg.Repository.Revision,
		Dir:       r.cfg.Repository.Dir,
		NoCleanup: r.opts.NoCleanup,
		VCS:       r.vcs,
		Remover:   r.remover,
		Logger:    r.logger,
	}
}

// Prepare checks out the sources, installs the native dependencies and
// calls next from inside the checkout.
func (r *Recipe) Prepare(ctx context.Context, next func(ctx context.Context) error) error {
	return r.checkout().Within(ctx, func(ctx context.Context) error {
		if err := r.resolver.Compiler(ctx); err != nil {
			return err
		}
		if err := r.resolver.Boost(ctx); err != nil {
			return err
		}
		if err := r.resolver.PyOpenGL(ctx); err != nil {
			return err
		}
		return next(ctx)
	})
}

// ExecuteBuild installs the python requirements with an up to date pip and
// then builds the extension in the working directory against the
// environment's boost headers. The build itself runs with the original pip.
func (r *Recipe) ExecuteBuild(ctx context.Context) error {
	r.logger.Info("installing python dependencies")
	err := r.pip.Upgraded(ctx, r.cfg.Pip.RestoreVersion, func(ctx context.Context) error {
		return r.pip.Install(ctx, "--upgrade", "-r", requirementsFile)
	})
	if err != nil {
		return err
	}

	prefix, err := r.prefix()
	if err != nil {
		return fmt.Errorf("cannot locate boost headers: %w", err)
	}
	include := conda.IncludeDir(prefix, r.goos)

	r.logger.Info("building extension", "boost", include)
	return r.pip.Install(ctx,
		"--no-deps",
		"--install-option=--boost-location="+include,
		"--verbose",
		"--no-cache-dir",
		".",
	)
}

// Validate runs the test suite in a fresh checkout.
func (r *Recipe) Validate(ctx context.Context) error {
	return r.checkout().Within(ctx, func(ctx context.Context) error {
		if r.cfg.Build.RepairFixtures {
			if err := r.repairFixtures(ctx); err != nil {
				return err
			}
		}

		r.logger.Info("running tests")
		if _, err := r.cmd.Run(ctx, r.testCommand()); err != nil {
			return err
		}
		r.logger.Info("all tests passed, installation successful!")
		return nil
	})
}

// repairFixtures rewrites the fixture directory from the repository, undoing
// line ending conversion applied on clone.
func (r *Recipe) repairFixtures(ctx context.Context) error {
	dir := r.cfg.Build.FixturesDir
	r.logger.Debug("restoring test fixtures", "dir", dir)
	if err := r.remover.RemoveTree(dir); err != nil {
		return err
	}
	return r.vcs.Restore(ctx, ".", dir)
}

func (r *Recipe) testCommand() []string {
	if platform.IsWindows(r.goos) {
		return []string{r.cfg.Tools.Python, "-m", "unittest", "-v"}
	}
	return []string{r.cfg.Tools.Make, "tests"}
}
