package cli

import (
	"encoding/json"
	"fmt"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/graph"
	"github.com/gahjs/e2e-plugin/internal/layout"
	"github.com/gahjs/e2e-plugin/internal/linker"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/spf13/cobra"
)

// PlanCommand handles the plan command
type PlanCommand struct {
	fs     filesystem.FileSystem
	opts   *globalOptions
	format string
}

// PlanOutput is the JSON form of a composition plan.
type PlanOutput struct {
	Host      string              `json:"host"`
	TestRoot  string              `json:"testRoot"`
	Modules   []PlanModule        `json:"modules"`
	Links     []linker.LinkEntry  `json:"links"`
	Manifests []string            `json:"manifests"`
	Aliases   map[string][]string `json:"aliases"`
}

// PlanModule is one opted-in dependency.
type PlanModule struct {
	Name                  string `json:"name"`
	PackageName           string `json:"packageName"`
	TestDirectoryPath     string `json:"testDirectoryPath,omitempty"`
	SharedHelperPath      string `json:"sharedHelperPath,omitempty"`
	SharedHelperAliasName string `json:"sharedHelperAliasName,omitempty"`
}

// NewPlanCommand creates a new plan command
func NewPlanCommand(fs filesystem.FileSystem, opts *globalOptions) *cobra.Command {
	cmd := &PlanCommand{
		fs:   fs,
		opts: opts,
	}

	cobraCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what compose would do",
		Long: `Prints the opted-in dependencies of the host and the links compose
would create, without touching the workspace.`,
		Example: `  # Human-readable plan
  gah-e2e plan

  # JSON for scripting
  gah-e2e plan --format json > plan.json`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVar(&cmd.format, "format", "text", "Output format: text or json")

	return cobraCmd
}

// Run executes the plan command
func (c *PlanCommand) Run(cmd *cobra.Command, args []string) error {
	if c.format != "text" && c.format != "json" {
		return fmt.Errorf("unknown format %q (use text or json)", c.format)
	}

	ws, _, err := loadWorkspace(c.fs, c.opts)
	if err != nil {
		return err
	}

	plan, err := buildPlan(ws.Host)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.format == "json" {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, TitleStyle.Render("Test composition plan for "+plan.Host))
	if len(plan.Modules) == 0 {
		fmt.Fprintln(out, SubtleStyle.Render("  no module opted into test integration"))
		return nil
	}

	fmt.Fprintln(out, "Modules:")
	for _, m := range plan.Modules {
		line := fmt.Sprintf("  %s (%s)", m.Name, m.PackageName)
		if m.TestDirectoryPath != "" {
			line += "  tests: " + m.TestDirectoryPath
		}
		if m.SharedHelperPath != "" {
			line += "  helper: " + m.SharedHelperPath
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out, "Links:")
	for _, e := range plan.Links {
		line := fmt.Sprintf("  %-14s %s -> %s", e.Kind, e.Destination, e.Source)
		if e.Invalid != "" {
			line += "  " + WarningStyle.Render("invalid: "+e.Invalid)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func buildPlan(host *models.Module) (*PlanOutput, error) {
	deps, err := graph.DependencySet(host)
	if err != nil {
		return nil, err
	}

	root := layout.TestRoot(host)
	plan := &PlanOutput{
		Host:      host.Name,
		TestRoot:  root,
		Modules:   []PlanModule{},
		Links:     linker.Plan(deps, root, true),
		Manifests: []string{},
		Aliases:   map[string][]string{},
	}
	if plan.Links == nil {
		plan.Links = []linker.LinkEntry{}
	}

	for _, dep := range deps {
		settings := dep.TestSettings()
		plan.Modules = append(plan.Modules, PlanModule{
			Name:                  dep.Name,
			PackageName:           dep.PackageName,
			TestDirectoryPath:     settings.TestDirectoryPath,
			SharedHelperPath:      settings.SharedHelperPath,
			SharedHelperAliasName: settings.SharedHelperAliasName,
		})
		if settings.HasTestDirectory() {
			plan.Manifests = append(plan.Manifests, dep.Name)
		}
		if settings.HasSharedHelper() {
			plan.Aliases[layout.AliasKey(dep, settings)] = []string{layout.AliasTarget(host, dep, settings.SharedHelperPath)}
		}
	}
	return plan, nil
}

func names(mods []*models.Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Name
	}
	return out
}
