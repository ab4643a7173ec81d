// Package synth generates the configuration a composed test workspace needs:
// path aliases, runner manifests, root runner configs and manifest entries.
//
// Every artifact is regenerated from scratch, so running a step twice with
// the same inputs produces byte-identical files.
package synth

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/gahjs/e2e-plugin/internal/assets"
	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/tidwall/pretty"
)

// GeneratedMarker tags every alias entry owned by the synthesizer.
const GeneratedMarker = "[gah] This property was generated by gah/e2e-plugin"

const (
	defaultManifestDir   = "projects"
	defaultGlobField     = "testMatch"
	defaultSnapshotField = "snapshotDir"
)

// DefaultBasePackages are added to every participating manifest.
var DefaultBasePackages = map[string]string{
	"@playwright/test": "^1.14.1",
	"ts-node":          "^10.2.1",
	"tsconfig-paths":   "^3.11.0",
	"typescript":       "^4.3.5",
}

var jsonPretty = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// CorruptConfigError is returned when an existing configuration file is not
// valid JSON. Nothing is written in that case.
type CorruptConfigError struct {
	Path string
	Err  error
}

func (e *CorruptConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("corrupt config %s: invalid JSON", e.Path)
}

func (e *CorruptConfigError) Unwrap() error {
	return e.Err
}

// Synthesizer writes generated configuration through a FileSystem.
type Synthesizer struct {
	fs            filesystem.FileSystem
	templates     *assets.Store
	logger        *log.Logger
	section       string
	basePackages  map[string]string
	manifestDir   string
	globField     string
	snapshotField string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

func WithLogger(logger *log.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTemplates replaces the embedded template store.
func WithTemplates(store *assets.Store) Option {
	return func(s *Synthesizer) {
		if store != nil {
			s.templates = store
		}
	}
}

// WithDependencySection selects the package.json section packages go to.
func WithDependencySection(section string) Option {
	return func(s *Synthesizer) {
		if section != "" {
			s.section = section
		}
	}
}

// WithBasePackages replaces the built-in package set.
func WithBasePackages(packages map[string]string) Option {
	return func(s *Synthesizer) {
		if packages != nil {
			s.basePackages = packages
		}
	}
}

// WithManifestDir sets the host-relative directory runner manifests are written to.
func WithManifestDir(dir string) Option {
	return func(s *Synthesizer) {
		if dir != "" {
			s.manifestDir = dir
		}
	}
}

// WithRunnerFields names the glob and snapshot fields of the runner manifest template.
func WithRunnerFields(globField, snapshotField string) Option {
	return func(s *Synthesizer) {
		if globField != "" {
			s.globField = globField
		}
		if snapshotField != "" {
			s.snapshotField = snapshotField
		}
	}
}

// New creates a Synthesizer using the embedded templates.
func New(fs filesystem.FileSystem, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		fs:            fs,
		templates:     assets.Embedded(),
		logger:        log.New(io.Discard),
		section:       models.DevDependencies,
		basePackages:  DefaultBasePackages,
		manifestDir:   defaultManifestDir,
		globField:     defaultGlobField,
		snapshotField: defaultSnapshotField,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ManifestDir returns the host-relative runner manifest directory.
func (s *Synthesizer) ManifestDir() string {
	return s.manifestDir
}

func format(data []byte) []byte {
	return pretty.PrettyOptions(data, jsonPretty)
}
