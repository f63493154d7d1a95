// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bqinstall/bqinstall/internal/conda"
	"github.com/bqinstall/bqinstall/internal/pip"
	"github.com/bqinstall/bqinstall/internal/resolve"
	"github.com/bqinstall/bqinstall/internal/stage"
)

func newPyOpenGLCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pyopengl",
		Short: "Install PyOpenGL into the active environment",
		Long: `Install PyOpenGL into the active conda environment.

On Windows a prebuilt wheel with the native accelerator is chosen to match
the interpreter, since the package index only carries a build without it.
An existing installation is left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context(), flags, stage.Prepare)
			if err != nil {
				return err
			}

			c := conda.New(s.runner, s.cfg.Tools.Conda, app.GOOS, s.logger)
			if _, err := c.ActiveEnvironment(cmd.Context()); err != nil {
				return err
			}
			p := pip.New(s.runner, s.cfg.Tools.Pip, s.cfg.Tools.Python, app.GOOS, s.logger)
			return resolve.New(s.cfg, c, p, app.GOOS, s.logger).PyOpenGL(cmd.Context())
		},
	}
}
