package synth

import (
	"fmt"
	"path/filepath"

	"github.com/gahjs/e2e-plugin/internal/assets"
	"github.com/gahjs/e2e-plugin/internal/layout"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	RunnerConfigFile   = "playwright.config.ts"
	RunnerConfigCIFile = "playwright-ci.config.ts"

	defaultTestMatch   = `.*(spec)\.(ts)`
	defaultResultsFile = "results/playwright-test.xml"
)

type rootConfigData struct {
	Marker         string
	ProjectsFile   string
	MainConfigFile string
	TestMatch      string
	ResultsFile    string
	Headless       bool
}

// WriteRunnerManifests regenerates one runner manifest per dependency with a
// test directory, plus the projects index the root runner config imports.
// It returns the names of the modules a manifest was written for.
func (s *Synthesizer) WriteRunnerManifests(host *models.Module, deps []*models.Module) ([]string, error) {
	tmpl, err := s.templates.Read(assets.RunnerManifest)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(tmpl) || !gjson.ParseBytes(tmpl).IsObject() {
		return nil, &CorruptConfigError{Path: assets.RunnerManifest}
	}
	hasSnapshotField := gjson.GetBytes(tmpl, gjson.Escape(s.snapshotField)).Exists()

	dir := filepath.Join(host.BasePath, filepath.FromSlash(s.manifestDir))
	if err := s.fs.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	index := []byte("[]")
	var written []string
	for _, dep := range deps {
		if !dep.TestSettings().HasTestDirectory() {
			continue
		}

		manifest, err := s.runnerManifest(tmpl, dep, hasSnapshotField)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, dep.Name+".json")
		if err := s.fs.WriteFile(path, format(manifest), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}

		index, err = sjson.SetRawBytes(index, "-1", manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to index runner manifest of %s: %w", dep.Name, err)
		}
		written = append(written, dep.Name)
	}

	indexPath := filepath.Join(host.BasePath, layout.ProjectsIndexFile)
	if err := s.fs.WriteFile(indexPath, format(index), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", indexPath, err)
	}

	s.logger.Debug("wrote runner manifests", "dir", dir, "count", len(written))
	return written, nil
}

func (s *Synthesizer) runnerManifest(tmpl []byte, dep *models.Module, withSnapshots bool) ([]byte, error) {
	data, err := sjson.SetBytes(tmpl, "name", dep.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to set name of runner manifest %s: %w", dep.Name, err)
	}
	data, err = sjson.SetBytes(data, gjson.Escape(s.globField), layout.RunnerGlob(dep))
	if err != nil {
		return nil, fmt.Errorf("failed to set %s of runner manifest %s: %w", s.globField, dep.Name, err)
	}
	if withSnapshots {
		data, err = sjson.SetBytes(data, gjson.Escape(s.snapshotField), layout.RunnerSnapshotDir(dep))
		if err != nil {
			return nil, fmt.Errorf("failed to set %s of runner manifest %s: %w", s.snapshotField, dep.Name, err)
		}
	}
	return data, nil
}

// WriteRootConfigs renders the runner configs into the host base.
func (s *Synthesizer) WriteRootConfigs(host *models.Module) error {
	data := rootConfigData{
		Marker:         GeneratedMarker,
		ProjectsFile:   layout.ProjectsIndexFile,
		MainConfigFile: "playwright.config",
		TestMatch:      defaultTestMatch,
		ResultsFile:    defaultResultsFile,
	}

	if err := s.fs.MkdirAll(host.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", host.BasePath, err)
	}

	files := []struct {
		template string
		name     string
	}{
		{assets.RunnerConfig, RunnerConfigFile},
		{assets.RunnerConfigCI, RunnerConfigCIFile},
	}
	for _, f := range files {
		content, err := s.templates.Render(f.template, data)
		if err != nil {
			return err
		}
		path := filepath.Join(host.BasePath, f.name)
		if err := s.fs.WriteFile(path, content, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
