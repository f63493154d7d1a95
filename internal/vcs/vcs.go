// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"

	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/internal/runner"
)

type (
	// VCS is the version-control port used by the checkout scope.
	VCS interface {
		// Clone clones url into dir, which must not exist.
		Clone(ctx context.Context, url, dir string) error
		// Checkout switches the work tree in dir to revision.
		Checkout(ctx context.Context, dir, revision string) error
		// Restore rewrites path (relative to dir) from the checked-out commit.
		Restore(ctx context.Context, dir, path string) error
	}

	// Git runs the git executable.
	Git struct {
		cmd runner.Commander
		git string
	}
)

// NewGit creates a VCS backed by the git executable.
func NewGit(cmd runner.Commander, git string) *Git {
	return &Git{cmd: cmd, git: git}
}

func (g *Git) Clone(ctx context.Context, url, dir string) error {
	_, err := g.cmd.Run(ctx, []string{g.git, "clone", url, dir})
	return issue.WrapWithContext(err, "clone repository", url)
}

func (g *Git) Checkout(ctx context.Context, dir, revision string) error {
	_, err := g.cmd.Run(ctx, []string{g.git, "checkout", revision}, runner.Dir(dir))
	return issue.WrapWithContext(err, "check out revision", revision)
}

func (g *Git) Restore(ctx context.Context, dir, path string) error {
	_, err := g.cmd.Run(ctx, []string{g.git, "checkout", path}, runner.Dir(dir))
	return issue.WrapWithContext(err, "restore from version control", path)
}
