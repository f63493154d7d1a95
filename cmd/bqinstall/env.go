// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bqinstall/bqinstall/internal/conda"
	"github.com/bqinstall/bqinstall/internal/stage"
)

func newEnvCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the detected conda environment",
		Long: `Show the active conda environment, its activation script and prefix
as bqinstall detects them. Nothing is installed or modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context(), flags, stage.Prepare)
			if err != nil {
				return err
			}
			c := conda.New(s.runner, s.cfg.Tools.Conda, app.GOOS, s.logger)

			env, err := c.ActiveEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			script, err := c.ActivationScript(cmd.Context())
			if err != nil {
				return err
			}

			prefix, err := conda.Prefix()
			switch {
			case errors.Is(err, conda.ErrPrefixUnset):
				prefix = SubtitleStyle.Render("(unset)")
			case err != nil:
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render("Conda Environment"))
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s: %s\n", KeyStyle.Render("environment"), SuccessStyle.Render(env.String()))
			fmt.Fprintf(out, "%s: %s\n", KeyStyle.Render("activation script"), script)
			fmt.Fprintf(out, "%s: %s\n", KeyStyle.Render("prefix"), prefix)
			return nil
		},
	}
}
