// Package layout holds the path conventions of a composed test workspace.
package layout

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gahjs/e2e-plugin/internal/models"
)

const (
	// TestDirName is the directory all test assets are composed into.
	TestDirName = "test"

	// PrivateDirName is the intermediate directory of a dependency module.
	PrivateDirName = ".gah"

	// HostSpecConfigFile is the host's dedicated path-alias config.
	HostSpecConfigFile = "tsconfig.spec.json"

	// ModuleSpecConfigFile is created inside a module's test directory.
	ModuleSpecConfigFile = "tsconfig.json"

	// ProjectsIndexFile lists every runner manifest.
	ProjectsIndexFile = "playwright.projects.config.json"
)

// TestRoot returns the directory test assets are composed into for target.
// The host uses its public test root, other modules a private one.
func TestRoot(target *models.Module) string {
	if target.IsHost {
		return filepath.Join(target.BasePath, TestDirName)
	}
	return filepath.Join(target.SrcBasePath, PrivateDirName, TestDirName)
}

// SpecConfigPath returns the file holding target's path-alias table, or ""
// when a non-host module declares no test directory.
func SpecConfigPath(target *models.Module) string {
	if target.IsHost {
		return filepath.Join(target.BasePath, HostSpecConfigFile)
	}
	settings := target.TestSettings()
	if !settings.HasTestDirectory() {
		return ""
	}
	return filepath.Join(target.BasePath, filepath.FromSlash(settings.TestDirectoryPath), ModuleSpecConfigFile)
}

// HelperDir splits a shared helper entry file into the directory above the
// helper directory and the helper directory itself.
// "test/helpers/index" yields ("test", "helpers").
func HelperDir(helperPath string) (root, dir string, err error) {
	cleaned, err := LocalPath(helperPath)
	if err != nil {
		return "", "", err
	}

	segments := strings.Split(cleaned, "/")
	if len(segments) < 2 {
		return "", "", fmt.Errorf("shared helper path %q has no directory", helperPath)
	}
	segments = segments[:len(segments)-1]
	dir = segments[len(segments)-1]
	root = strings.Join(segments[:len(segments)-1], "/")
	return root, dir, nil
}

// LocalPath normalizes a module-relative path and rejects paths that leave the module.
func LocalPath(p string) (string, error) {
	trimmed := strings.TrimSpace(filepath.ToSlash(p))
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	cleaned := path.Clean(trimmed)
	if !filepath.IsLocal(filepath.FromSlash(cleaned)) {
		return "", fmt.Errorf("path %q must stay inside the module", p)
	}
	return cleaned, nil
}

// AliasKey returns the path-alias key of a dependency's shared helper.
func AliasKey(dep *models.Module, settings *models.TestIntegrationSettings) string {
	if settings != nil && strings.TrimSpace(settings.SharedHelperAliasName) != "" {
		return strings.TrimSpace(settings.SharedHelperAliasName)
	}
	return fmt.Sprintf("@%s/%s/test", dep.PackageName, dep.Name)
}

// AliasTarget returns the path a dependency's helper alias resolves to from
// target's point of view. Host aliases are relative to the host base.
func AliasTarget(target, dep *models.Module, helperPath string) string {
	cleaned := path.Clean(filepath.ToSlash(strings.TrimSpace(helperPath)))
	if target.IsHost {
		return path.Join(TestDirName, dep.PackageName, dep.Name, cleaned)
	}
	return filepath.ToSlash(filepath.Join(TestRoot(target), dep.PackageName, dep.Name, filepath.FromSlash(cleaned)))
}

// RunnerGlob scopes a runner manifest to a module's linked test directory.
func RunnerGlob(dep *models.Module) string {
	return path.Join(TestDirName, dep.Name) + "/**/*"
}

// RunnerSnapshotDir is the snapshot directory matching RunnerGlob.
func RunnerSnapshotDir(dep *models.Module) string {
	return path.Join(TestDirName, dep.Name, "__snapshots__")
}
