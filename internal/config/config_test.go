package config

import (
	"testing"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	fs := filesystem.NewMockFileSystem()

	cfg, path, err := Load(fs, LoadOptions{SearchDirs: []string{"/repo/host"}})
	require.NoError(t, err)
	require.Empty(t, path)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FromSearchDir(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/repo/host/gah-e2e.yaml", []byte(`
log_level: debug
link_concurrency: 2
dependency_section: dependencies
base_packages:
  typescript: ^5.4.0
runner:
  command: npx
  args: [playwright, test, --reporter=list]
`))

	cfg, path, err := Load(fs, LoadOptions{SearchDirs: []string{"/repo/cwd", "/repo/host"}})
	require.NoError(t, err)
	require.Equal(t, "/repo/host/gah-e2e.yaml", path)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 2, cfg.LinkConcurrency)
	require.Equal(t, models.Dependencies, cfg.DependencySection)
	require.Equal(t, "^5.4.0", cfg.BasePackages["typescript"])
	require.Equal(t, "^1.14.1", cfg.BasePackages["@playwright/test"])
	require.Equal(t, "npx", cfg.Runner.Command)
	require.Equal(t, []string{"playwright", "test", "--reporter=list"}, cfg.Runner.Args)
	require.Equal(t, "--project", cfg.Runner.ProjectFlag)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/repo/gah-e2e.yaml", []byte("log_level: debug\n"))
	t.Setenv("GAH_E2E_LOG_LEVEL", "error")
	t.Setenv("GAH_E2E_RUNNER_COMMAND", "pnpm")

	cfg, _, err := Load(fs, LoadOptions{ConfigFile: "/repo/gah-e2e.yaml"})
	require.NoError(t, err)
	require.Equal(t, "error", cfg.LogLevel)
	require.Equal(t, "pnpm", cfg.Runner.Command)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(filesystem.NewMockFileSystem(), LoadOptions{ConfigFile: "/nope.yaml"})
	require.EqualError(t, err, "config file not found: /nope.yaml")
}

func TestLoad_InvalidYAML(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/repo/gah-e2e.yaml", []byte("runner: [unterminated\n"))

	_, _, err := Load(fs, LoadOptions{SearchDirs: []string{"/repo"}})
	require.ErrorContains(t, err, "failed to parse config /repo/gah-e2e.yaml")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown section",
			mutate:  func(c *Config) { c.DependencySection = "peerDependencies" },
			wantErr: `dependency_section must be "devDependencies" or "dependencies", got "peerDependencies"`,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.LinkConcurrency = 0 },
			wantErr: "link_concurrency must be at least 1, got 0",
		},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: `invalid log_level "loud"`,
		},
		{
			name:    "empty command",
			mutate:  func(c *Config) { c.Runner.Command = " " },
			wantErr: "runner.command must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.EqualError(t, cfg.Validate(), tt.wantErr)
		})
	}
}
