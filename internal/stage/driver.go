// SPDX-License-Identifier: MPL-2.0

package stage

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/conda"
)

type (
	// Recipe implements the work of each stage.
	Recipe interface {
		// Prepare acquires the resources the build needs and calls next
		// while they are held.
		Prepare(ctx context.Context, next func(ctx context.Context) error) error
		ExecuteBuild(ctx context.Context) error
		Validate(ctx context.Context) error
	}

	// Detector finds the active environment.
	Detector interface {
		ActiveEnvironment(ctx context.Context) (conda.Environment, error)
	}

	// Relauncher runs argv in a shell that has activated env.
	Relauncher interface {
		Run(ctx context.Context, env conda.Environment, argv []string) error
	}

	// Driver runs one stage of the pipeline.
	Driver struct {
		Options Options
		// Self is the argv prefix that relaunches this program's command,
		// e.g. the executable path followed by the subcommand name.
		Self []string

		Detector   Detector
		Relauncher Relauncher
		Recipe     Recipe
		Logger     *log.Logger
	}
)

// Run executes the stage named in Options.
func (d *Driver) Run(ctx context.Context) error {
	d.Logger.Debug("entering stage", "stage", d.Options.Stage)

	switch d.Options.Stage {
	case ExecuteBuild:
		return d.Recipe.ExecuteBuild(ctx)
	case Validate:
		return d.Recipe.Validate(ctx)
	case Prepare, "":
		return d.prepare(ctx)
	default:
		return &InvalidStageError{Value: string(d.Options.Stage)}
	}
}

// prepare detects the environment before touching anything, then performs
// the transitions of Prepare. The first failing transition aborts the rest.
func (d *Driver) prepare(ctx context.Context) error {
	env, err := d.Detector.ActiveEnvironment(ctx)
	if err != nil {
		return err
	}

	for _, tr := range Transitions(Prepare) {
		relaunch := func(ctx context.Context) error {
			d.Logger.Debug("relaunching", "stage", tr.To)
			if err := d.Relauncher.Run(ctx, env, d.ChildArgv(tr.To)); err != nil {
				return fmt.Errorf("stage %s failed: %w", tr.To, err)
			}
			return nil
		}

		if tr.Scoped {
			err = d.Recipe.Prepare(ctx, relaunch)
		} else {
			err = relaunch(ctx)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ChildArgv returns the command line that enters stage next.
func (d *Driver) ChildArgv(next Stage) []string {
	return append(slices.Clone(d.Self), d.Options.Args(next)...)
}
