// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "bqinstall"
	// ConfigFileName is the name of the config file in the config directory.
	ConfigFileName = "config.cue"
	// LocalConfigFileName is looked up in the working directory.
	LocalConfigFileName = "bqinstall.cue"
	// EnvPrefix prefixes environment overrides (BQINSTALL_TOOLS_CONDA, ...).
	EnvPrefix = "BQINSTALL"

	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the bqinstall configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME
// (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigPath returns the path config init writes to.
func ConfigPath(configDirPath string) (string, error) {
	dir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare it with the output of 'bqinstall config show'").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if ok, errs := cfg.IsValid(); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check BQINSTALL_* environment variables as well as the file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		cfg.source = abs
	}
	return &cfg, nil
}

// resolvePath returns the file to load, or "" when none exists. An explicit
// path must exist; the implicit locations are optional.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Create one with 'bqinstall config init'").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if p := filepath.Join(cfgDir, ConfigFileName); fileExists(p) {
		return p, nil
	}
	if fileExists(LocalConfigFileName) {
		return LocalConfigFileName, nil
	}
	return "", nil
}

func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("tools.conda", d.Tools.Conda)
	v.SetDefault("tools.pip", d.Tools.Pip)
	v.SetDefault("tools.python", d.Tools.Python)
	v.SetDefault("tools.git", d.Tools.Git)
	v.SetDefault("tools.make", d.Tools.Make)
	v.SetDefault("repository.url", d.Repository.URL)
	v.SetDefault("repository.revision", d.Repository.Revision)
	v.SetDefault("repository.dir", d.Repository.Dir)
	v.SetDefault("trampoline.name", d.Trampoline.Name)
	v.SetDefault("vcs.backend", string(d.VCS.Backend))
	v.SetDefault("pip.restore_version", d.Pip.RestoreVersion)
	v.SetDefault("build.compiler_channel", d.Build.CompilerChannel)
	v.SetDefault("build.compiler_packages", d.Build.CompilerPackages)
	v.SetDefault("build.boost_packages", d.Build.BoostPackages)
	v.SetDefault("build.repair_fixtures", d.Build.RepairFixtures)
	v.SetDefault("build.fixtures_dir", d.Build.FixturesDir)
	v.SetDefault("pyopengl.wheel_base_url", d.PyOpenGL.WheelBaseURL)
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper. Concrete(false) is used because every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to the config
// directory and returns its path. An existing file is kept unless force.
func CreateDefaultConfig(configDirPath string, force bool) (string, error) {
	cfgPath, err := ConfigPath(configDirPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if !force && fileExists(cfgPath) {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE renders cfg as a CUE document accepted by the schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// bqinstall configuration\n\n")

	sb.WriteString("tools: {\n")
	fmt.Fprintf(&sb, "\tconda:  %q\n", cfg.Tools.Conda)
	fmt.Fprintf(&sb, "\tpip:    %q\n", cfg.Tools.Pip)
	fmt.Fprintf(&sb, "\tpython: %q\n", cfg.Tools.Python)
	fmt.Fprintf(&sb, "\tgit:    %q\n", cfg.Tools.Git)
	fmt.Fprintf(&sb, "\tmake:   %q\n", cfg.Tools.Make)
	sb.WriteString("}\n")

	sb.WriteString("\nrepository: {\n")
	fmt.Fprintf(&sb, "\turl:      %q\n", cfg.Repository.URL)
	fmt.Fprintf(&sb, "\trevision: %q\n", cfg.Repository.Revision)
	fmt.Fprintf(&sb, "\tdir:      %q\n", cfg.Repository.Dir)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\ntrampoline: name: %q\n", cfg.Trampoline.Name)
	fmt.Fprintf(&sb, "\nvcs: backend: %q\n", cfg.VCS.Backend)
	fmt.Fprintf(&sb, "\npip: restore_version: %v\n", cfg.Pip.RestoreVersion)

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tcompiler_channel:  %q\n", cfg.Build.CompilerChannel)
	fmt.Fprintf(&sb, "\tcompiler_packages: %s\n", cueList(cfg.Build.CompilerPackages))
	fmt.Fprintf(&sb, "\tboost_packages:    %s\n", cueList(cfg.Build.BoostPackages))
	fmt.Fprintf(&sb, "\trepair_fixtures:   %v\n", cfg.Build.RepairFixtures)
	fmt.Fprintf(&sb, "\tfixtures_dir:      %q\n", cfg.Build.FixturesDir)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\npyopengl: wheel_base_url: %q\n", cfg.PyOpenGL.WheelBaseURL)

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
