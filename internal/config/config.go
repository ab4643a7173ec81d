// Package config loads gah-e2e settings from gah-e2e.yaml and GAH_E2E_*
// environment variables.
package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/gahjs/e2e-plugin/internal/synth"
	"github.com/spf13/viper"
)

const (
	// FileName is the config file looked up in the search directories.
	FileName  = "gah-e2e.yaml"
	EnvPrefix = "GAH_E2E"
)

// Config holds every setting of the CLI and the composition engine.
type Config struct {
	LogLevel          string            `mapstructure:"log_level"`
	TemplatesDir      string            `mapstructure:"templates_dir"`
	LinkConcurrency   int               `mapstructure:"link_concurrency"`
	DependencySection string            `mapstructure:"dependency_section"`
	BasePackages      map[string]string `mapstructure:"base_packages"`
	Runner            RunnerConfig      `mapstructure:"runner"`
}

// RunnerConfig describes the external test runner.
type RunnerConfig struct {
	Command       string   `mapstructure:"command"`
	Args          []string `mapstructure:"args"`
	CIArgs        []string `mapstructure:"ci_args"`
	ProjectFlag   string   `mapstructure:"project_flag"`
	ManifestDir   string   `mapstructure:"manifest_dir"`
	GlobField     string   `mapstructure:"glob_field"`
	SnapshotField string   `mapstructure:"snapshot_field"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is used exclusively when set and must exist.
	ConfigFile string

	// SearchDirs are checked in order for FileName; the first hit wins.
	SearchDirs []string
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	basePackages := make(map[string]string, len(synth.DefaultBasePackages))
	for name, version := range synth.DefaultBasePackages {
		basePackages[name] = version
	}

	return &Config{
		LogLevel:          "info",
		LinkConcurrency:   4,
		DependencySection: models.DevDependencies,
		BasePackages:      basePackages,
		Runner: RunnerConfig{
			Command:       "yarn",
			Args:          []string{"playwright", "test"},
			CIArgs:        []string{"--config=playwright-ci.config.ts"},
			ProjectFlag:   "--project",
			ManifestDir:   "projects",
			GlobField:     "testMatch",
			SnapshotField: "snapshotDir",
		},
	}
}

// Load reads the configuration. It returns the path of the file that was used,
// or "" when only defaults and environment variables apply.
func Load(fs filesystem.FileSystem, opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("templates_dir", defaults.TemplatesDir)
	v.SetDefault("link_concurrency", defaults.LinkConcurrency)
	v.SetDefault("dependency_section", defaults.DependencySection)
	v.SetDefault("base_packages", defaults.BasePackages)
	v.SetDefault("runner.command", defaults.Runner.Command)
	v.SetDefault("runner.args", defaults.Runner.Args)
	v.SetDefault("runner.ci_args", defaults.Runner.CIArgs)
	v.SetDefault("runner.project_flag", defaults.Runner.ProjectFlag)
	v.SetDefault("runner.manifest_dir", defaults.Runner.ManifestDir)
	v.SetDefault("runner.glob_field", defaults.Runner.GlobField)
	v.SetDefault("runner.snapshot_field", defaults.Runner.SnapshotField)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(fs, opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		data, err := fs.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", path, err)
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, "", fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, path, nil
}

func resolvePath(fs filesystem.FileSystem, opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if !filesystem.FileExists(fs, opts.ConfigFile) {
			return "", fmt.Errorf("config file not found: %s", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}

	for _, dir := range opts.SearchDirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, FileName)
		if filesystem.FileExists(fs, candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.LinkConcurrency < 1 {
		return fmt.Errorf("link_concurrency must be at least 1, got %d", c.LinkConcurrency)
	}
	switch c.DependencySection {
	case models.DevDependencies, models.Dependencies:
	default:
		return fmt.Errorf("dependency_section must be %q or %q, got %q",
			models.DevDependencies, models.Dependencies, c.DependencySection)
	}
	if strings.TrimSpace(c.Runner.Command) == "" {
		return fmt.Errorf("runner.command must not be empty")
	}
	return nil
}
