// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bqinstall/bqinstall/internal/config"
)

// newConfigCommand creates the `bqinstall config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bqinstall configuration",
		Long: `Manage bqinstall configuration.

Configuration is read from the first of:
  - the file given with --config
  - Linux: ~/.config/bqinstall/config.cue
    macOS: ~/Library/Application Support/bqinstall/config.cue
    Windows: %APPDATA%\bqinstall\config.cue
  - bqinstall.cue in the working directory

BQINSTALL_<SECTION>_<KEY> environment variables override file values,
e.g. BQINSTALL_VCS_BACKEND=go-git.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := SubtitleStyle.Render("(using defaults)")
			if cfg.Source() != "" {
				source = cfg.Source()
			}
			fmt.Fprintf(out, "// %s: %s\n", KeyStyle.Render("Config file"), source)
			fmt.Fprint(out, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath("")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig("", force)
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}
