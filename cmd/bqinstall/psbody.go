// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bqinstall/bqinstall/internal/conda"
	"github.com/bqinstall/bqinstall/internal/psbody"
	"github.com/bqinstall/bqinstall/internal/stage"
	"github.com/bqinstall/bqinstall/internal/trampoline"
)

// stageFlag is set only by the installer when it relaunches itself.
const stageFlag = "stage"

func newPsbodyCommand(app *App, flags *rootFlags) *cobra.Command {
	var stageValue string

	cmd := &cobra.Command{
		Use:   "psbody",
		Short: "Build, install and test psbody mesh",
		Long: `Build, install and test psbody mesh in the active conda environment.

The installer runs in three stages. prepare_environment clones the sources
and installs the compiler, boost and PyOpenGL. execute_build and
validate_build run in fresh shells that re-activate the environment, so the
packages installed first are visible to the build and the tests.

Nothing is touched unless a conda environment is active.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := stage.ParseStage(stageValue)
			if err != nil {
				return err
			}

			s, err := app.newSession(cmd.Context(), flags, st)
			if err != nil {
				return err
			}

			recipe, err := psbody.New(s.cfg, s.opts, s.runner, app.GOOS, s.logger, app.stderr)
			if err != nil {
				return err
			}

			exe, err := app.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate own executable: %w", err)
			}
			self := append([]string{exe}, strings.Fields(cmd.CommandPath())[1:]...)

			c := conda.New(s.runner, s.cfg.Tools.Conda, app.GOOS, s.logger)
			driver := &stage.Driver{
				Options:  s.opts,
				Self:     self,
				Detector: c,
				Relauncher: &trampoline.Trampoline{
					Name:      s.cfg.Trampoline.Name,
					GOOS:      app.GOOS,
					NoCleanup: s.opts.NoCleanup,
					Activator: c,
					Cmd:       s.runner,
					Logger:    s.logger,
				},
				Recipe: recipe,
				Logger: s.logger,
			}
			return driver.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&stageValue, stageFlag, stage.Prepare.String(), "pipeline stage to run")
	_ = cmd.Flags().MarkHidden(stageFlag)

	return cmd
}
