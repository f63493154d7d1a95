// SPDX-License-Identifier: MPL-2.0

package stage

// Options is the run configuration parsed once from the command line and
// passed to every stage, including relaunched ones.
type Options struct {
	NoCleanup bool
	// Yes pre-answers confirmation prompts. Nothing prompts yet.
	Yes     bool
	Verbose bool
	Stage   Stage
	// ConfigPath is the absolute path of the loaded config file, if any.
	ConfigPath string
}

// Args returns the flags that relaunch the program in stage next with the
// same options.
func (o Options) Args(next Stage) []string {
	args := []string{"--stage", next.String()}
	if o.NoCleanup {
		args = append(args, "--no-cleanup")
	}
	if o.Yes {
		args = append(args, "--yes")
	}
	if o.Verbose {
		args = append(args, "--verbose")
	}
	if o.ConfigPath != "" {
		args = append(args, "--config", o.ConfigPath)
	}
	return args
}
