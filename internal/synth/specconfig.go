package synth

import (
	"fmt"
	"path/filepath"

	"github.com/gahjs/e2e-plugin/internal/assets"
	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/layout"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// CreateHostSpecConfig writes a fresh tsconfig.spec.json into the host base
// and returns its path.
func (s *Synthesizer) CreateHostSpecConfig(host *models.Module) (string, error) {
	data, err := s.specTemplate()
	if err != nil {
		return "", err
	}

	path := layout.SpecConfigPath(host)
	if err := s.fs.MkdirAll(host.BasePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", host.BasePath, err)
	}
	if err := s.fs.WriteFile(path, format(data), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// CreateModuleSpecConfig writes tsconfig.json into the module's test directory
// with baseUrl pointing back at the module base. It returns "" when the module
// has no test directory on disk.
func (s *Synthesizer) CreateModuleSpecConfig(module *models.Module) (string, error) {
	path := layout.SpecConfigPath(module)
	if path == "" {
		return "", nil
	}

	testDir := filepath.Dir(path)
	if !filesystem.DirExists(s.fs, testDir) {
		s.logger.Warn("test directory does not exist", "module", module.Name, "path", testDir)
		return "", nil
	}

	data, err := s.specTemplate()
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(testDir, module.BasePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base of %s: %w", module.Name, err)
	}
	data, err = sjson.SetBytes(data, "compilerOptions.baseUrl", filepath.ToSlash(rel)+"/")
	if err != nil {
		return "", fmt.Errorf("failed to set baseUrl in %s: %w", path, err)
	}
	data, err = sjson.SetBytes(data, "include", []string{"**/*.ts"})
	if err != nil {
		return "", fmt.Errorf("failed to set include in %s: %w", path, err)
	}

	if err := s.fs.WriteFile(path, format(data), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (s *Synthesizer) specTemplate() ([]byte, error) {
	data, err := s.templates.Read(assets.SpecConfig)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, &CorruptConfigError{Path: assets.SpecConfig}
	}
	return data, nil
}
