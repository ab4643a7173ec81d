package cli

import (
	"fmt"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/orchestrator"
	"github.com/gahjs/e2e-plugin/internal/runner"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command
func NewRootCommand(fs filesystem.FileSystem, testRunner runner.Runner) *cobra.Command {
	opts := &globalOptions{}
	guard := &orchestrator.Guard{}

	rootCmd := &cobra.Command{
		Use:   "gah-e2e",
		Short: "Compose end-to-end tests of gah modules into the host",
		Long: `A CLI tool for composing end-to-end tests in gah workspaces.

Modules opt in with a test directory and/or a shared helper. gah-e2e links
them into the host, keeps the path aliases, runner manifests and package.json
entries in sync, and runs the test runner.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to gah-e2e.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(NewComposeCommand(fs, opts, guard))
	rootCmd.AddCommand(NewCleanCommand(fs, opts, guard))
	rootCmd.AddCommand(NewPlanCommand(fs, opts))
	rootCmd.AddCommand(NewTestCommand(fs, opts, testRunner))
	rootCmd.AddCommand(NewTestProjectCommand(fs, opts, testRunner))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	fs := filesystem.NewOSFileSystem()
	rootCmd := NewRootCommand(fs, runner.NewOSRunner())

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}
