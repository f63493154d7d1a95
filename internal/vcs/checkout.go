// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/issue"
)

// Checkout describes a pinned working copy that lives in the current
// directory under a fixed name.
type Checkout struct {
	URL      string
	Revision string
	Dir      string
	// NoCleanup keeps the directory after the scope ends.
	NoCleanup bool

	VCS     VCS
	Remover *Remover
	Logger  *log.Logger
}

// Within acquires the checkout, runs fn with the process working directory
// inside it, and releases it.
//
// Acquisition removes any stale directory of the same name, clones, changes
// into the clone and checks out the revision. Release changes back to the
// original directory and, unless NoCleanup is set, removes the clone. Release
// runs on every path out of Within; its errors are joined after fn's.
func (c *Checkout) Within(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	abs, err := filepath.Abs(c.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve checkout directory: %w", err)
	}

	if Exists(abs) {
		c.Logger.Debug("path exists, removing it", "dir", c.Dir)
		if err := c.remove(abs); err != nil {
			return err
		}
	}

	c.Logger.Info("cloning repository", "url", c.URL, "dir", c.Dir)
	if err := c.VCS.Clone(ctx, c.URL, c.Dir); err != nil {
		if Exists(abs) && !c.NoCleanup {
			return errors.Join(err, c.remove(abs))
		}
		return err
	}

	origWd, err := os.Getwd()
	if err != nil {
		return errors.Join(fmt.Errorf("failed to get working directory: %w", err), c.release("", abs))
	}
	if err := os.Chdir(abs); err != nil {
		return errors.Join(fmt.Errorf("failed to enter checkout: %w", err), c.release("", abs))
	}

	defer func() {
		err = errors.Join(err, c.release(origWd, abs))
	}()

	c.Logger.Debug("checking out revision", "revision", c.Revision)
	if err := c.VCS.Checkout(ctx, ".", c.Revision); err != nil {
		return err
	}

	return fn(ctx)
}

// release returns to origWd (when set) and removes the checkout.
func (c *Checkout) release(origWd, abs string) error {
	var errs []error
	if origWd != "" {
		if err := os.Chdir(origWd); err != nil {
			errs = append(errs, fmt.Errorf("failed to leave checkout: %w", err))
		}
	}
	if c.NoCleanup {
		c.Logger.Debug("keeping checkout", "dir", c.Dir)
	} else {
		c.Logger.Debug("removing checkout", "dir", c.Dir)
		errs = append(errs, c.remove(abs))
	}
	return errors.Join(errs...)
}

func (c *Checkout) remove(abs string) error {
	if err := c.Remover.RemoveTree(abs); err != nil {
		return issue.NewErrorContext().
			WithOperation("remove checkout").
			WithResource(abs).
			WithIssue(issue.CleanupFailedId).
			Wrap(err).
			BuildError()
	}
	return nil
}
