package cli

import (
	"fmt"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/runner"
	"github.com/spf13/cobra"
)

// TestCommand handles the test and test-p commands
type TestCommand struct {
	fs     filesystem.FileSystem
	opts   *globalOptions
	runner runner.Runner
	ci     bool
}

// NewTestCommand creates a command running every composed project
func NewTestCommand(fs filesystem.FileSystem, opts *globalOptions, testRunner runner.Runner) *cobra.Command {
	cmd := &TestCommand{fs: fs, opts: opts, runner: testRunner}

	cobraCmd := &cobra.Command{
		Use:   "test",
		Short: "Run all composed tests",
		Long:  `Runs the test runner in the host's .gah directory for every project in playwright.projects.config.json.`,
		Example: `  gah-e2e test
  gah-e2e test --ci`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c, "")
		},
	}
	cobraCmd.Flags().BoolVar(&cmd.ci, "ci", false, "Use the CI runner config")

	return cobraCmd
}

// NewTestProjectCommand creates a command running the tests of one module
func NewTestProjectCommand(fs filesystem.FileSystem, opts *globalOptions, testRunner runner.Runner) *cobra.Command {
	cmd := &TestCommand{fs: fs, opts: opts, runner: testRunner}

	cobraCmd := &cobra.Command{
		Use:     "test-p <project>",
		Short:   "Run the composed tests of one module",
		Example: `  gah-e2e test-p checkout --ci`,
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Run(c, args[0])
		},
	}
	cobraCmd.Flags().BoolVar(&cmd.ci, "ci", false, "Use the CI runner config")

	return cobraCmd
}

// Run executes the runner, scoped to project when it is not empty
func (c *TestCommand) Run(cmd *cobra.Command, project string) error {
	ws, cfg, err := loadWorkspace(c.fs, c.opts)
	if err != nil {
		return err
	}

	if project != "" {
		m, err := ws.GetModule(project)
		if err != nil || m.IsHost {
			return fmt.Errorf("unknown project %s", project)
		}
		if !m.TestSettings().HasTestDirectory() {
			return fmt.Errorf("module %s has no test directory", project)
		}
	}

	spec := runner.Spec{
		Command:     cfg.Runner.Command,
		Args:        cfg.Runner.Args,
		CIArgs:      cfg.Runner.CIArgs,
		ProjectFlag: cfg.Runner.ProjectFlag,
	}
	run, err := spec.Build(ws.Host.BasePath, project, c.ci)
	if err != nil {
		return err
	}

	return c.runner.Run(cmd.Context(), run, cmd.OutOrStdout(), cmd.ErrOrStderr())
}
