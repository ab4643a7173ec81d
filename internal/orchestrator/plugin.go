// Package orchestrator wires the graph, linker and synthesizer to the host's
// lifecycle events.
package orchestrator

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/graph"
	"github.com/gahjs/e2e-plugin/internal/layout"
	"github.com/gahjs/e2e-plugin/internal/linker"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/gahjs/e2e-plugin/internal/synth"
)

// Outcome records what one handler did for one module.
type Outcome struct {
	Event     EventType
	Module    string
	Links     linker.Report
	Manifests []string
	Aliases   string
	Packages  int
}

// Plugin composes test assets whenever the host raises a lifecycle event.
// Every handler recomputes its inputs from the current module graph and
// rewrites its outputs from scratch.
type Plugin struct {
	fs       filesystem.FileSystem
	guard    *Guard
	linker   *linker.Linker
	synth    *synth.Synthesizer
	logger   *log.Logger
	outcomes []Outcome
}

// Option configures a Plugin.
type Option func(*Plugin)

func WithLogger(logger *log.Logger) Option {
	return func(p *Plugin) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithLinker(l *linker.Linker) Option {
	return func(p *Plugin) {
		if l != nil {
			p.linker = l
		}
	}
}

func WithSynthesizer(s *synth.Synthesizer) Option {
	return func(p *Plugin) {
		if s != nil {
			p.synth = s
		}
	}
}

// New creates a Plugin. A nil guard gets a fresh one.
func New(fs filesystem.FileSystem, guard *Guard, opts ...Option) *Plugin {
	if guard == nil {
		guard = &Guard{}
	}
	p := &Plugin{
		fs:     fs,
		guard:  guard,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.linker == nil {
		p.linker = linker.New(fs, linker.WithLogger(p.logger))
	}
	if p.synth == nil {
		p.synth = synth.New(fs, synth.WithLogger(p.logger))
	}
	return p
}

// Init registers the lifecycle handlers. Only the first call on a guard
// registers anything; later calls return false.
func (p *Plugin) Init(reg Registrar) bool {
	if !p.guard.Begin() {
		p.logger.Debug("handlers already registered")
		return false
	}

	reg.On(WorkspaceCleaned, p.onWorkspaceCleaned)
	reg.On(AssetsComposed, p.onAssetsComposed)
	reg.On(PathConfigAdjusted, p.onPathConfigAdjusted)
	reg.On(PackagesAboutToInstall, p.onPackagesAboutToInstall)
	return true
}

// Outcomes returns what the handlers did since the plugin was created.
func (p *Plugin) Outcomes() []Outcome {
	return append([]Outcome(nil), p.outcomes...)
}

func (p *Plugin) record(o Outcome) {
	p.outcomes = append(p.outcomes, o)
}

func (p *Plugin) onWorkspaceCleaned(_ context.Context, event Event) error {
	m := event.Module
	if m == nil || (!m.IsHost && !m.IsConfigured()) {
		return nil
	}

	root := layout.TestRoot(m)
	if err := p.linker.Clean(root); err != nil {
		return err
	}
	p.logger.Debug("cleaned test root", "module", m.Name, "root", root)
	p.record(Outcome{Event: event.Type, Module: m.Name})
	return nil
}

func (p *Plugin) onAssetsComposed(ctx context.Context, event Event) error {
	m := event.Module
	if m == nil || !m.IsHost {
		return nil
	}
	deps, ok, err := p.participants(m)
	if err != nil {
		return err
	}

	root := layout.TestRoot(m)
	if err := p.linker.Clean(root); err != nil {
		return err
	}
	if !ok {
		return p.withdrawRunnerManifests(event, m)
	}
	report := p.link(ctx, m, deps, root, true)

	if err := p.synth.WriteRootConfigs(m); err != nil {
		return err
	}
	manifests, err := p.synth.WriteRunnerManifests(m, deps)
	if err != nil {
		return err
	}

	p.logger.Info("composed test assets",
		"module", m.Name,
		"modules", len(deps),
		"linked", report.Count(linker.StatusLinked)+report.Count(linker.StatusAlreadyLinked),
		"manifests", len(manifests))
	p.record(Outcome{Event: event.Type, Module: m.Name, Links: report, Manifests: manifests})
	return nil
}

func (p *Plugin) onPathConfigAdjusted(ctx context.Context, event Event) error {
	m := event.Module
	if m == nil {
		return nil
	}

	if m.IsHost {
		deps, ok, err := p.participants(m)
		if err != nil {
			return err
		}
		if !ok {
			return p.withdrawAliases(event, m)
		}
		path, err := p.synth.CreateHostSpecConfig(m)
		if err != nil {
			return err
		}
		if err := p.synth.WriteAliases(path, m, deps); err != nil {
			return err
		}
		p.record(Outcome{Event: event.Type, Module: m.Name, Aliases: path})
		return nil
	}

	if !m.IsConfigured() {
		return nil
	}
	deps, err := graph.DependencySet(m)
	if err != nil {
		return err
	}

	root := layout.TestRoot(m)
	if err := p.linker.Clean(root); err != nil {
		return err
	}
	report := p.link(ctx, m, deps, root, false)

	path, err := p.synth.CreateModuleSpecConfig(m)
	if err != nil {
		return err
	}
	if path != "" {
		if err := p.synth.WriteAliases(path, m, deps); err != nil {
			return err
		}
	}

	p.record(Outcome{Event: event.Type, Module: m.Name, Links: report, Aliases: path})
	return nil
}

func (p *Plugin) onPackagesAboutToInstall(_ context.Context, event Event) error {
	m := event.Module
	if m == nil {
		return nil
	}
	_, ok, err := p.participants(m)
	if err != nil || !ok {
		return err
	}

	applied, err := p.synth.PatchPackages(m)
	if err != nil {
		return err
	}
	p.logger.Info("package.json adjusted for tests", "module", m.Name)
	p.record(Outcome{Event: event.Type, Module: m.Name, Packages: len(applied)})
	return nil
}

// withdrawRunnerManifests empties the runner manifests of a host that no
// longer takes part. A host that never composed gets no files.
func (p *Plugin) withdrawRunnerManifests(event Event, host *models.Module) error {
	dir := filepath.Join(host.BasePath, filepath.FromSlash(p.synth.ManifestDir()))
	index := filepath.Join(host.BasePath, layout.ProjectsIndexFile)
	if !p.fs.Exists(dir) && !p.fs.Exists(index) {
		return nil
	}

	if _, err := p.synth.WriteRunnerManifests(host, nil); err != nil {
		return err
	}
	p.logger.Info("removed runner manifests", "module", host.Name)
	p.record(Outcome{Event: event.Type, Module: host.Name})
	return nil
}

// withdrawAliases drops the generated aliases of a host that no longer
// takes part and keeps hand-written ones.
func (p *Plugin) withdrawAliases(event Event, host *models.Module) error {
	path := layout.SpecConfigPath(host)
	if !p.fs.Exists(path) {
		return nil
	}

	if err := p.synth.WriteAliases(path, host, nil); err != nil {
		return err
	}
	p.record(Outcome{Event: event.Type, Module: host.Name, Aliases: path})
	return nil
}

// participants returns the DependencySet of m and whether m takes part in
// composition at all.
func (p *Plugin) participants(m *models.Module) ([]*models.Module, bool, error) {
	deps, err := graph.DependencySet(m)
	if err != nil {
		return nil, false, err
	}
	if len(deps) == 0 && !m.IsConfigured() {
		p.logger.Debug("module does not take part in test composition", "module", m.Name)
		return nil, false, nil
	}
	return deps, true, nil
}

func (p *Plugin) link(ctx context.Context, target *models.Module, deps []*models.Module, root string, withTests bool) linker.Report {
	report := p.linker.Apply(ctx, linker.Plan(deps, root, withTests))

	if report.Degraded() {
		p.logger.Warn("some test assets could not be linked",
			"module", target.Name,
			"failed", report.Count(linker.StatusFailed))
	}
	return report
}

