// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bqinstall/bqinstall/internal/issue"
)

// GoGit clones and checks out in-process, for hosts without a git binary.
type GoGit struct {
	// progress receives clone progress; nil discards it.
	progress io.Writer
}

// NewGoGit creates a VCS backed by go-git.
func NewGoGit(progress io.Writer) *GoGit {
	return &GoGit{progress: progress}
}

func (g *GoGit) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Progress: g.progress,
	})
	return issue.WrapWithContext(err, "clone repository", url)
}

func (g *GoGit) Checkout(_ context.Context, dir, revision string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return issue.WrapWithContext(err, "resolve revision", revision)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	})
	return issue.WrapWithContext(err, "check out revision", revision)
}

// Restore writes every file under path from the HEAD commit back to disk.
func (g *GoGit) Restore(_ context.Context, dir, relPath string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("failed to read HEAD commit: %w", err)
	}
	root, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to read HEAD tree: %w", err)
	}

	treePath := path.Clean(filepath.ToSlash(relPath))
	sub, err := root.Tree(treePath)
	if err != nil {
		return issue.WrapWithContext(err, "restore from version control", relPath)
	}

	return sub.Files().ForEach(func(f *object.File) error {
		return writeBlob(f, filepath.Join(dir, filepath.FromSlash(treePath), filepath.FromSlash(f.Name)))
	})
}

func writeBlob(f *object.File, dest string) error {
	mode, err := f.Mode.ToOSFileMode()
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	r, err := f.Reader()
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	defer r.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close() // the copy error is the one worth reporting
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	return out.Close()
}
