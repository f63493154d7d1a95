// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bqinstall/bqinstall/pkg/platform"
)

const (
	// VCSBackendGit shells out to the git executable.
	VCSBackendGit VCSBackend = "git"
	// VCSBackendGoGit clones in-process with go-git.
	VCSBackendGoGit VCSBackend = "go-git"
)

var (
	// ErrInvalidVCSBackend is returned when a VCSBackend value is not recognized.
	ErrInvalidVCSBackend = errors.New("invalid vcs backend")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// VCSBackend selects how the pinned repository is cloned.
	VCSBackend string

	// Config is the installer configuration.
	Config struct {
		Tools      ToolsConfig      `json:"tools" mapstructure:"tools"`
		Repository RepositoryConfig `json:"repository" mapstructure:"repository"`
		Trampoline TrampolineConfig `json:"trampoline" mapstructure:"trampoline"`
		VCS        VCSConfig        `json:"vcs" mapstructure:"vcs"`
		Pip        PipConfig        `json:"pip" mapstructure:"pip"`
		Build      BuildConfig      `json:"build" mapstructure:"build"`
		PyOpenGL   PyOpenGLConfig   `json:"pyopengl" mapstructure:"pyopengl"`

		// source is the absolute path the configuration was read from, or
		// empty when only defaults and environment variables applied.
		source string
	}

	// ToolsConfig names the executables the installer drives.
	ToolsConfig struct {
		Conda  string `json:"conda" mapstructure:"conda"`
		Pip    string `json:"pip" mapstructure:"pip"`
		Python string `json:"python" mapstructure:"python"`
		Git    string `json:"git" mapstructure:"git"`
		Make   string `json:"make" mapstructure:"make"`
	}

	// RepositoryConfig pins the source checkout.
	RepositoryConfig struct {
		URL      string `json:"url" mapstructure:"url"`
		Revision string `json:"revision" mapstructure:"revision"`
		Dir      string `json:"dir" mapstructure:"dir"`
	}

	// TrampolineConfig names the generated re-activation script.
	TrampolineConfig struct {
		Name string `json:"name" mapstructure:"name"`
	}

	// VCSConfig selects the clone backend.
	VCSConfig struct {
		Backend VCSBackend `json:"backend" mapstructure:"backend"`
	}

	// PipConfig controls the upgraded-pip scope.
	PipConfig struct {
		// RestoreVersion reinstalls the previously installed pip on scope exit.
		RestoreVersion bool `json:"restore_version" mapstructure:"restore_version"`
	}

	// BuildConfig controls dependency installation and validation.
	BuildConfig struct {
		CompilerChannel  string   `json:"compiler_channel" mapstructure:"compiler_channel"`
		CompilerPackages []string `json:"compiler_packages" mapstructure:"compiler_packages"`
		BoostPackages    []string `json:"boost_packages" mapstructure:"boost_packages"`
		RepairFixtures   bool     `json:"repair_fixtures" mapstructure:"repair_fixtures"`
		FixturesDir      string   `json:"fixtures_dir" mapstructure:"fixtures_dir"`
	}

	// PyOpenGLConfig locates the prebuilt Windows wheels.
	PyOpenGLConfig struct {
		WheelBaseURL string `json:"wheel_base_url" mapstructure:"wheel_base_url"`
	}

	// InvalidVCSBackendError is returned when a VCSBackend value is not recognized.
	InvalidVCSBackendError struct {
		Value VCSBackend
	}

	// InvalidConfigError collects field validation failures.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Conda:  "conda",
			Pip:    "pip",
			Python: "python",
			Git:    "git",
			Make:   "make",
		},
		Repository: RepositoryConfig{
			URL:      "https://github.com/johnbanq/mesh.git",
			Revision: "0d876727d5184161ed085bd3ef74967441b0a0e8",
			Dir:      ".bqinstall.mpi-is.mesh",
		},
		Trampoline: TrampolineConfig{Name: ".bqinstall.trampoline"},
		VCS:        VCSConfig{Backend: VCSBackendGit},
		Pip:        PipConfig{RestoreVersion: true},
		Build: BuildConfig{
			CompilerChannel:  "conda-forge",
			CompilerPackages: []string{"cxx-compiler"},
			BoostPackages:    []string{"boost"},
			RepairFixtures:   true,
			FixturesDir:      "data",
		},
		PyOpenGL: PyOpenGLConfig{
			WheelBaseURL: "https://download.lfd.uci.edu/pythonlibs/w6tyco5e/",
		},
	}
}

// Source returns the file the configuration was loaded from, if any.
func (c *Config) Source() string { return c.source }

// IsValid checks constraints the schema cannot see, such as values that
// arrived through environment variables.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.VCS.Backend.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	required := []struct{ key, value string }{
		{"tools.conda", c.Tools.Conda},
		{"tools.pip", c.Tools.Pip},
		{"tools.python", c.Tools.Python},
		{"tools.git", c.Tools.Git},
		{"tools.make", c.Tools.Make},
		{"repository.url", c.Repository.URL},
		{"repository.revision", c.Repository.Revision},
		{"repository.dir", c.Repository.Dir},
		{"trampoline.name", c.Trampoline.Name},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", r.key))
		}
	}
	if strings.ContainsAny(c.Repository.Dir, `/\`) {
		errs = append(errs, fmt.Errorf("repository.dir %q must be a single path element", c.Repository.Dir))
	}
	if strings.ContainsAny(c.Trampoline.Name, `/\`) {
		errs = append(errs, fmt.Errorf("trampoline.name %q must be a single path element", c.Trampoline.Name))
	}
	for _, name := range []string{c.Repository.Dir, c.Trampoline.Name} {
		if platform.IsWindowsReservedName(name) {
			errs = append(errs, fmt.Errorf("%q is a reserved file name on Windows", name))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func (b VCSBackend) String() string { return string(b) }

// IsValid returns whether the VCSBackend is a known value.
func (b VCSBackend) IsValid() (bool, []error) {
	switch b {
	case VCSBackendGit, VCSBackendGoGit:
		return true, nil
	default:
		return false, []error{&InvalidVCSBackendError{Value: b}}
	}
}

func (e *InvalidVCSBackendError) Error() string {
	return fmt.Sprintf("invalid vcs backend %q (valid: git, go-git)", e.Value)
}

func (e *InvalidVCSBackendError) Unwrap() error { return ErrInvalidVCSBackend }
