package cli

import (
	"fmt"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/orchestrator"
	"github.com/spf13/cobra"
)

// CleanCommand handles the clean command
type CleanCommand struct {
	fs    filesystem.FileSystem
	opts  *globalOptions
	guard *orchestrator.Guard
}

// NewCleanCommand creates a new clean command
func NewCleanCommand(fs filesystem.FileSystem, opts *globalOptions, guard *orchestrator.Guard) *cobra.Command {
	cmd := &CleanCommand{
		fs:    fs,
		opts:  opts,
		guard: guard,
	}

	return &cobra.Command{
		Use:   "clean",
		Short: "Remove composed test links",
		Long: `Empties the host test directory and the private test directories of
opted-in modules. Only links are removed; module sources stay untouched.`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}
}

// Run executes the clean command
func (c *CleanCommand) Run(cmd *cobra.Command, args []string) error {
	s, err := sessionFromCmd(cmd, c.fs, c.opts, c.guard)
	if err != nil {
		return err
	}

	for _, m := range s.ws.Modules() {
		event := orchestrator.Event{Type: orchestrator.WorkspaceCleaned, Module: m}
		if err := s.bus.Emit(cmd.Context(), event); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf("✓ cleaned %d test roots", len(s.plugin.Outcomes()))))
	return nil
}
