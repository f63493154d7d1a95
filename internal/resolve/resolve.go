// SPDX-License-Identifier: MPL-2.0

// Package resolve installs the native build dependencies of the mesh
// extension: a C++ compiler toolchain, boost and PyOpenGL. None of them is
// removed afterwards; removing the compiler breaks the built extension.
package resolve

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/conda"
	"github.com/bqinstall/bqinstall/internal/config"
	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/internal/pip"
	"github.com/bqinstall/bqinstall/pkg/platform"
)

// pyOpenGLDist is the distribution name looked up before installing.
const pyOpenGLDist = "PyOpenGL"

// Resolver installs dependencies into the active environment.
type Resolver struct {
	Conda  *conda.Client
	Pip    *pip.Client
	GOOS   string
	Logger *log.Logger

	CompilerChannel  string
	CompilerPackages []string
	BoostPackages    []string
	WheelBaseURL     string
}

// Compiler installs the C++ toolchain.
func (r *Resolver) Compiler(ctx context.Context) error {
	r.Logger.Info("installing compiler toolchain", "packages", r.CompilerPackages)
	return r.Conda.Install(ctx, r.CompilerChannel, r.CompilerPackages...)
}

// Boost installs the boost headers.
func (r *Resolver) Boost(ctx context.Context) error {
	r.Logger.Info("installing boost")
	return r.Conda.Install(ctx, "", r.BoostPackages...)
}

// PyOpenGL installs the OpenGL binding. Outside Windows that is a plain pip
// install. On Windows an unofficial build with the native accelerator is
// required, chosen from a fixed table by the interpreter's wheel tags.
func (r *Resolver) PyOpenGL(ctx context.Context) error {
	r.Logger.Info("installing pyopengl")
	if !platform.IsWindows(r.GOOS) {
		return r.Pip.Install(ctx, "pyopengl")
	}

	r.Logger.Info("running windows, installing unofficial binaries", "from", r.WheelBaseURL)
	version, found, err := r.Pip.PackageVersion(ctx, pyOpenGLDist)
	if err != nil {
		return err
	}
	if found {
		r.Logger.Warn("pyopengl is already installed in this environment, skipping", "version", version)
		r.Logger.Warn("MeshViewer will not work if the installed build lacks the native accelerator")
		return nil
	}

	tags, err := r.Pip.CompatibleTags(ctx)
	if err != nil {
		return err
	}
	pair, version, err := Select(windowsWheels, tags)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("choose a PyOpenGL wheel").
			WithSuggestion("Use a Python version listed at " + r.WheelBaseURL).
			WithIssue(issue.NoCompatibleBinaryId).
			Wrap(err).
			BuildError()
	}
	r.Logger.Debug("selected wheels", "version", version, "gl", pair.GL, "accelerate", pair.Accelerate)

	r.Logger.Info("installing pyopengl", "version", version)
	if err := r.Pip.Install(ctx, DownloadURL(r.WheelBaseURL, pair.GL)); err != nil {
		return err
	}
	return r.Pip.Install(ctx, DownloadURL(r.WheelBaseURL, pair.Accelerate))
}

// New creates a Resolver from cfg's build and pyopengl sections.
func New(cfg *config.Config, c *conda.Client, p *pip.Client, goos string, logger *log.Logger) *Resolver {
	return &Resolver{
		Conda:            c,
		Pip:              p,
		GOOS:             goos,
		Logger:           logger,
		CompilerChannel:  cfg.Build.CompilerChannel,
		CompilerPackages: cfg.Build.CompilerPackages,
		BoostPackages:    cfg.Build.BoostPackages,
		WheelBaseURL:     cfg.PyOpenGL.WheelBaseURL,
	}
}
