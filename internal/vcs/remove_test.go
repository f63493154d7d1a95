// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/bqinstall/bqinstall/pkg/platform"
)

// scriptedRemover fails the first removeAll calls with errs, in order.
func scriptedRemover(goos string, errs ...error) (*Remover, *[]string, *int) {
	var chmodded []string
	calls := 0
	tree := fstest.MapFS{
		"repo/.git/objects/ab/cdef": {Data: []byte("x"), Mode: 0o444},
		"repo/setup.py":             {Data: []byte("x"), Mode: 0o644},
	}
	r := &Remover{
		goos: goos,
		removeAll: func(string) error {
			calls++
			if calls <= len(errs) {
				return errs[calls-1]
			}
			return nil
		},
		chmod: func(p string, _ os.FileMode) error {
			chmodded = append(chmodded, filepath.ToSlash(p))
			return nil
		},
		walk: func(root string, fn fs.WalkDirFunc) error {
			return fs.WalkDir(tree, filepath.ToSlash(root), fn)
		},
	}
	return r, &chmodded, &calls
}

func TestRemoveTree_RetriesReadOnlyOnWindows(t *testing.T) {
	t.Parallel()

	denied := &fs.PathError{Op: "unlinkat", Path: "repo/.git/objects/ab/cdef", Err: fs.ErrPermission}
	r, chmodded, calls := scriptedRemover(platform.Windows, denied)

	if err := r.RemoveTree("repo"); err != nil {
		t.Fatalf("RemoveTree() error = %v", err)
	}
	if *calls != 2 {
		t.Errorf("removeAll called %d times, want 2", *calls)
	}
	if !slices.Contains(*chmodded, "repo/.git/objects/ab/cdef") {
		t.Errorf("read-only file not cleared, chmodded %v", *chmodded)
	}
}

func TestRemoveTree_RetriesOnlyOnce(t *testing.T) {
	t.Parallel()

	denied := &fs.PathError{Op: "unlinkat", Path: "x", Err: fs.ErrPermission}
	r, _, calls := scriptedRemover(platform.Windows, denied, denied)

	if err := r.RemoveTree("repo"); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("RemoveTree() error = %v, want permission error", err)
	}
	if *calls != 2 {
		t.Errorf("removeAll called %d times, want 2", *calls)
	}
}

func TestRemoveTree_NoRetryForOtherErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		goos string
		err  error
	}{
		{"permission on posix", platform.Linux, &fs.PathError{Op: "unlinkat", Path: "x", Err: fs.ErrPermission}},
		{"other error on windows", platform.Windows, errors.New("sharing violation")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, chmodded, calls := scriptedRemover(tt.goos, tt.err)
			if err := r.RemoveTree("repo"); !errors.Is(err, tt.err) {
				t.Errorf("RemoveTree() error = %v, want %v", err, tt.err)
			}
			if *calls != 1 || len(*chmodded) != 0 {
				t.Errorf("unexpected retry: calls=%d chmod=%v", *calls, *chmodded)
			}
		})
	}
}

func TestRemoveTree_RealFilesystem(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "repo")
	if err := os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755); err != nil {
		t.Fatal(err)
	}
	obj := filepath.Join(root, ".git", "objects", "pack")
	if err := os.WriteFile(obj, []byte("x"), 0o444); err != nil {
		t.Fatal(err)
	}

	if err := NewRemover(platform.Current()).RemoveTree(root); err != nil {
		t.Fatalf("RemoveTree() error = %v", err)
	}
	if Exists(root) {
		t.Error("tree should be gone")
	}
}
