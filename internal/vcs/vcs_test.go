// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bqinstall/bqinstall/internal/runner/runnertest"
)

func TestGit_Commands(t *testing.T) {
	t.Parallel()

	fake := runnertest.New()
	g := NewGit(fake, "git")
	ctx := context.Background()

	if err := g.Clone(ctx, "https://example.com/mesh.git", ".bqinstall.mpi-is.mesh"); err != nil {
		t.Fatal(err)
	}
	if err := g.Checkout(ctx, ".", "0d876727"); err != nil {
		t.Fatal(err)
	}
	if err := g.Restore(ctx, ".", "data"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"git clone https://example.com/mesh.git .bqinstall.mpi-is.mesh",
		"git checkout 0d876727",
		"git checkout data",
	}
	if got := fake.Commands(); !slices.Equal(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
	if calls := fake.Calls(); calls[1].Settings.Dir != "." {
		t.Errorf("checkout dir = %q", calls[1].Settings.Dir)
	}
}

func TestGit_CloneFailure(t *testing.T) {
	t.Parallel()

	fake := runnertest.New().Fail(128, "git", "clone")
	err := NewGit(fake, "git").Clone(context.Background(), "https://example.com/x.git", "x")
	if err == nil {
		t.Fatal("Clone() should fail")
	}
}

// commitFiles writes files into a fresh repository at dir and commits them,
// returning the commit hash.
func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, msg string) string {
	t.Helper()

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(1600000000, 0)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return hash.String()
}

func TestGoGit_CheckoutAndRestore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	first := commitFiles(t, repo, dir, map[string]string{
		"setup.py":          "v1\n",
		"data/unittest.ply": "ply\r\nformat ascii 1.0\r\n",
	}, "first")
	commitFiles(t, repo, dir, map[string]string{"setup.py": "v2\n"}, "second")

	g := NewGoGit(nil)
	ctx := context.Background()

	if err := g.Checkout(ctx, dir, first); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "setup.py")); string(data) != "v1\n" {
		t.Errorf("setup.py = %q after checkout, want v1", data)
	}

	if err := os.RemoveAll(filepath.Join(dir, "data")); err != nil {
		t.Fatal(err)
	}
	if err := g.Restore(ctx, dir, "data"); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "data", "unittest.ply"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ply\r\nformat ascii 1.0\r\n" {
		t.Errorf("restored fixture = %q", data)
	}
}

func TestGoGit_Errors(t *testing.T) {
	t.Parallel()

	g := NewGoGit(nil)
	ctx := context.Background()

	if err := g.Clone(ctx, "", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("Clone() with empty URL should fail")
	}
	if err := g.Checkout(ctx, t.TempDir(), "HEAD"); !errors.Is(err, git.ErrRepositoryNotExists) {
		t.Errorf("Checkout() outside a repository error = %v", err)
	}

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	commitFiles(t, repo, dir, map[string]string{"a.txt": "a"}, "only")
	if err := g.Checkout(ctx, dir, "does-not-exist"); err == nil {
		t.Error("Checkout() of unknown revision should fail")
	}
	if err := g.Restore(ctx, dir, "missing"); err == nil {
		t.Error("Restore() of unknown path should fail")
	}
}
