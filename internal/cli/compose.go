package cli

import (
	"fmt"
	"strings"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/graph"
	"github.com/gahjs/e2e-plugin/internal/linker"
	"github.com/gahjs/e2e-plugin/internal/orchestrator"
	"github.com/spf13/cobra"
)

// ComposeCommand handles the compose command
type ComposeCommand struct {
	fs    filesystem.FileSystem
	opts  *globalOptions
	guard *orchestrator.Guard
}

// NewComposeCommand creates a new compose command
func NewComposeCommand(fs filesystem.FileSystem, opts *globalOptions, guard *orchestrator.Guard) *cobra.Command {
	cmd := &ComposeCommand{
		fs:    fs,
		opts:  opts,
		guard: guard,
	}

	return &cobra.Command{
		Use:   "compose",
		Short: "Compose module tests into the host workspace",
		Long: `Raises every lifecycle event for every module, dependencies first and
the host last, the same way gah does during a build.

Test directories and shared helpers of opted-in modules are linked into
.gah/test, path aliases and runner manifests are regenerated, and the test
packages are added to each participating package.json.`,
		Example: `  # Compose from anywhere inside the host
  gah-e2e compose

  # Use a custom config and verbose logs
  gah-e2e compose --config ci/gah-e2e.yaml --log-level debug`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}
}

// Run executes the compose command
func (c *ComposeCommand) Run(cmd *cobra.Command, args []string) error {
	s, err := sessionFromCmd(cmd, c.fs, c.opts, c.guard)
	if err != nil {
		return err
	}

	modules := s.ws.Modules()
	for _, eventType := range orchestrator.Lifecycle {
		for _, m := range modules {
			event := orchestrator.Event{Type: eventType, Module: m}
			if err := s.bus.Emit(cmd.Context(), event); err != nil {
				return err
			}
		}
	}

	saved, err := s.ws.Save()
	if err != nil {
		return fmt.Errorf("failed to save package manifests: %w", err)
	}

	deps, err := graph.DependencySet(s.ws.Host)
	if err != nil {
		return err
	}

	var links linker.Report
	var manifests []string
	for _, o := range s.plugin.Outcomes() {
		if o.Event == orchestrator.AssetsComposed {
			links.Merge(o.Links)
			manifests = append(manifests, o.Manifests...)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, TitleStyle.Render("Composed tests for "+s.ws.Host.Name))
	if len(deps) == 0 {
		fmt.Fprintln(out, SubtleStyle.Render("  no module opted into test integration"))
		return nil
	}
	fmt.Fprintln(out, row("modules", strings.Join(names(deps), ", ")))
	fmt.Fprintln(out, row("links", fmt.Sprintf("%d linked, %d already linked, %d skipped, %d failed",
		links.Count(linker.StatusLinked),
		links.Count(linker.StatusAlreadyLinked),
		links.Count(linker.StatusSkipped),
		links.Count(linker.StatusFailed))))
	fmt.Fprintln(out, row("manifests", orNone(manifests)))
	fmt.Fprintln(out, row("saved", orNone(saved)))

	if links.Degraded() {
		fmt.Fprintln(out, WarningStyle.Render("⚠ some test assets could not be linked, see the log above"))
	} else {
		fmt.Fprintln(out, SuccessStyle.Render("✓ done"))
	}
	return nil
}

func orNone(values []string) string {
	if len(values) == 0 {
		return SubtleStyle.Render("none")
	}
	return strings.Join(values, ", ")
}
