// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "bqinstall",
		Short: "Install the psbody mesh extension into a conda environment",
		Long: TitleStyle.Render("bqinstall") + SubtitleStyle.Render(" - builds and installs psbody mesh into the active conda environment") + `

bqinstall clones the mesh sources at a pinned revision, installs the
compiler, boost and PyOpenGL into the active conda environment, builds
the extension and runs its test suite. The environment is re-activated
in a fresh shell between steps so freshly installed packages are seen.

` + SubtitleStyle.Render("Examples:") + `
  conda activate myenv
  bqinstall psbody              Build, install and test psbody mesh
  bqinstall psbody --verbose    Same, streaming every command's output
  bqinstall env                 Show what bqinstall detects
  bqinstall config show         Show current configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug messages and stream command output")
	rootCmd.PersistentFlags().BoolVar(&flags.noCleanup, "no-cleanup", false, "keep the checkout and trampoline scripts for debugging")
	rootCmd.PersistentFlags().BoolVarP(&flags.yes, "yes", "y", false, "answer yes to confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/bqinstall/config.cue)")

	rootCmd.AddCommand(newPsbodyCommand(app, flags))
	rootCmd.AddCommand(newPyOpenGLCommand(app, flags))
	rootCmd.AddCommand(newEnvCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the status of whatever failed.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		renderFailure(app.stderr, err, verbose, app.newLogger(verbose))
		os.Exit(int(exitCodeOf(err)))
	}
}
