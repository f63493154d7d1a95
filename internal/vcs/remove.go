// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bqinstall/bqinstall/pkg/platform"
)

// Remover deletes directory trees. On Windows, git marks object files
// read-only, which makes plain removal fail with a permission error; the
// Remover clears the attribute across the tree and retries exactly once.
// Any other failure is returned as is.
type Remover struct {
	goos      string
	removeAll func(string) error
	chmod     func(string, os.FileMode) error
	walk      func(string, fs.WalkDirFunc) error
}

// NewRemover creates a Remover for goos operating on the real filesystem.
func NewRemover(goos string) *Remover {
	return &Remover{
		goos:      goos,
		removeAll: os.RemoveAll,
		chmod:     os.Chmod,
		walk:      filepath.WalkDir,
	}
}

// RemoveTree removes path and everything below it.
func (r *Remover) RemoveTree(path string) error {
	err := r.removeAll(path)
	if err == nil || !platform.IsWindows(r.goos) || !errors.Is(err, fs.ErrPermission) {
		return err
	}

	if cerr := r.clearReadOnly(path); cerr != nil {
		return errors.Join(err, cerr)
	}
	return r.removeAll(path)
}

func (r *Remover) clearReadOnly(root string) error {
	return r.walk(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		mode := os.FileMode(0o666)
		if d.IsDir() {
			mode = 0o777
		}
		return r.chmod(p, mode)
	})
}

// Exists reports whether anything is present at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
