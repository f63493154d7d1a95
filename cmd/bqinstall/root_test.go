// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bqinstall/bqinstall/internal/config"
	"github.com/bqinstall/bqinstall/internal/stage"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

// stubProvider returns a fixed configuration or error.
type stubProvider struct {
	cfg  *config.Config
	err  error
	opts []config.LoadOptions
}

func (s *stubProvider) Load(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
	s.opts = append(s.opts, opts)
	return s.cfg, s.err
}

func newTestApp(provider ConfigProvider) (*App, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config:     provider,
		GOOS:       "linux",
		Executable: func() (string, error) { return "/usr/local/bin/bqinstall", nil },
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	return app, &stdout, &stderr
}

func TestRootCommand_Flags(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(&stubProvider{cfg: config.DefaultConfig()})
	root := NewRootCommand(app)

	for _, name := range []string{"verbose", "no-cleanup", "yes", "config"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}

	psbody, _, err := root.Find([]string{"psbody"})
	if err != nil {
		t.Fatalf("Find(psbody) error = %v", err)
	}
	f := psbody.Flags().Lookup(stageFlag)
	if f == nil {
		t.Fatal("psbody has no --stage flag")
	}
	if !f.Hidden {
		t.Error("--stage should be hidden")
	}
	if f.DefValue != stage.Prepare.String() {
		t.Errorf("--stage default = %q", f.DefValue)
	}
}

func TestPsbody_InvalidStageLoadsNothing(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{cfg: config.DefaultConfig()}
	app, _, _ := newTestApp(provider)
	root := NewRootCommand(app)
	root.SetArgs([]string{"psbody", "--stage", "EXECUTE_BUILD"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.ExecuteContext(context.Background())
	if !errors.Is(err, stage.ErrInvalidStage) {
		t.Fatalf("Execute() error = %v, want ErrInvalidStage", err)
	}
	if len(provider.opts) != 0 {
		t.Error("configuration should not be loaded for an invalid stage")
	}
}

func TestPsbody_ConfigErrorStopsRun(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad config")
	provider := &stubProvider{err: boom}
	app, _, _ := newTestApp(provider)
	root := NewRootCommand(app)
	root.SetArgs([]string{"psbody", "--config", "/tmp/x.cue"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.ExecuteContext(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want %v", err, boom)
	}
	if len(provider.opts) != 1 || provider.opts[0].ConfigFilePath != "/tmp/x.cue" {
		t.Errorf("load options = %+v", provider.opts)
	}
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(&stubProvider{cfg: config.DefaultConfig()})
	root := NewRootCommand(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"using defaults", `url:      "https://github.com/johnbanq/mesh.git"`, `backend: "git"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestNewSession(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(&stubProvider{cfg: config.DefaultConfig()})
	flags := &rootFlags{verbose: true, noCleanup: true, yes: true}

	s, err := app.newSession(context.Background(), flags, stage.Validate)
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}
	want := stage.Options{NoCleanup: true, Yes: true, Verbose: true, Stage: stage.Validate}
	if s.opts != want {
		t.Errorf("opts = %+v, want %+v", s.opts, want)
	}
}
