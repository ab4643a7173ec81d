package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gahjs/e2e-plugin/internal/assets"
	"github.com/gahjs/e2e-plugin/internal/config"
	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/linker"
	"github.com/gahjs/e2e-plugin/internal/logging"
	"github.com/gahjs/e2e-plugin/internal/orchestrator"
	"github.com/gahjs/e2e-plugin/internal/synth"
	"github.com/gahjs/e2e-plugin/internal/workspace"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags of the root command.
type globalOptions struct {
	configFile string
	logLevel   string
}

// session is everything a command needs once the workspace is loaded.
type session struct {
	ws     *workspace.Workspace
	cfg    *config.Config
	logger *log.Logger
	plugin *orchestrator.Plugin
	bus    *orchestrator.Bus
}

func loadWorkspace(fs filesystem.FileSystem, opts *globalOptions) (*workspace.Workspace, *config.Config, error) {
	ws := workspace.New(fs)
	if err := ws.Detect(); err != nil {
		return nil, nil, fmt.Errorf("failed to detect workspace: %w", err)
	}

	cwd, err := fs.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, _, err := config.Load(fs, config.LoadOptions{
		ConfigFile: opts.configFile,
		SearchDirs: []string{cwd, ws.RootPath},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	return ws, cfg, nil
}

func newSession(fs filesystem.FileSystem, opts *globalOptions, guard *orchestrator.Guard, stderr io.Writer) (*session, error) {
	ws, cfg, err := loadWorkspace(fs, opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	templates := assets.Embedded()
	if cfg.TemplatesDir != "" {
		dir := cfg.TemplatesDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(ws.RootPath, dir)
		}
		templates = assets.Dir(fs, dir)
	}

	l := linker.New(fs,
		linker.WithLogger(logger),
		linker.WithConcurrency(cfg.LinkConcurrency))
	s := synth.New(fs,
		synth.WithLogger(logger),
		synth.WithTemplates(templates),
		synth.WithDependencySection(cfg.DependencySection),
		synth.WithBasePackages(cfg.BasePackages),
		synth.WithManifestDir(cfg.Runner.ManifestDir),
		synth.WithRunnerFields(cfg.Runner.GlobField, cfg.Runner.SnapshotField))

	plugin := orchestrator.New(fs, guard,
		orchestrator.WithLogger(logger),
		orchestrator.WithLinker(l),
		orchestrator.WithSynthesizer(s))
	bus := orchestrator.NewBus()
	if !plugin.Init(bus) {
		return nil, fmt.Errorf("test composition handlers are already registered")
	}

	return &session{ws: ws, cfg: cfg, logger: logger, plugin: plugin, bus: bus}, nil
}

func sessionFromCmd(cmd *cobra.Command, fs filesystem.FileSystem, opts *globalOptions, guard *orchestrator.Guard) (*session, error) {
	return newSession(fs, opts, guard, cmd.ErrOrStderr())
}
