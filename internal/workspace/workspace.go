// Package workspace loads a gah workspace (gah-host.json and the
// gah-module.json files it references) into a module graph.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/models"
)

const (
	HostFileName   = "gah-host.json"
	ModuleFileName = "gah-module.json"

	// HostDirName is where the host's generated workspace lives.
	HostDirName = ".gah"

	manifestFileName = "package.json"
)

// Workspace is a loaded gah workspace.
type Workspace struct {
	fs filesystem.FileSystem

	// RootPath is the directory containing gah-host.json.
	RootPath     string
	HostFilePath string
	Host         *models.Module

	modules map[string]*models.Module
	files   map[string]*moduleFile
}

type moduleRef struct {
	Path  string   `json:"path"`
	Names []string `json:"names"`
}

type pluginEntry struct {
	Name     string          `json:"name"`
	Settings json.RawMessage `json:"settings"`
}

type hostFile struct {
	Modules []moduleRef   `json:"modules"`
	Plugins []pluginEntry `json:"plugins"`
}

type moduleEntry struct {
	ModuleName   string      `json:"moduleName"`
	PackageName  string      `json:"packageName"`
	SrcBasePath  string      `json:"srcBasePath"`
	Dependencies []moduleRef `json:"dependencies"`
}

type moduleFile struct {
	Modules []moduleEntry `json:"modules"`
	Plugins []pluginEntry `json:"plugins"`
}

// packageJSON represents a minimal subset of package.json.
type packageJSON struct {
	Name string `json:"name"`
}

// New creates a new Workspace instance.
func New(fs filesystem.FileSystem) *Workspace {
	return &Workspace{
		fs:      fs,
		modules: map[string]*models.Module{},
		files:   map[string]*moduleFile{},
	}
}

// Detect finds gah-host.json above the working directory and loads the graph.
func (w *Workspace) Detect() error {
	cwd, err := w.fs.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	hostPath, found := findFileUp(w.fs, cwd, HostFileName)
	if !found {
		return fmt.Errorf("%s not found in %s or any parent directory", HostFileName, cwd)
	}

	return w.Load(hostPath)
}

// Load reads the host file at hostPath and every module it references.
func (w *Workspace) Load(hostPath string) error {
	var host hostFile
	if err := w.readJSON(hostPath, &host); err != nil {
		return err
	}

	w.RootPath = filepath.Dir(hostPath)
	w.HostFilePath = hostPath

	name := filepath.Base(w.RootPath)
	packageName := name
	if pkg, err := readPackageJSON(w.fs, filepath.Join(w.RootPath, manifestFileName)); err == nil && strings.TrimSpace(pkg.Name) != "" {
		packageName = pkg.Name
	}

	basePath := filepath.Join(w.RootPath, HostDirName)
	h := models.NewModule(name, packageName, basePath, w.RootPath)
	h.IsHost = true
	h.ConfigPath = hostPath
	for _, plugin := range host.Plugins {
		h.AddPluginSettings(plugin.Name, plugin.Settings)
	}

	manifest, err := w.readManifest(filepath.Join(basePath, manifestFileName))
	if err != nil {
		return err
	}
	h.Manifest = manifest

	deps, err := w.resolveRefs(w.RootPath, host.Modules)
	if err != nil {
		return fmt.Errorf("failed to load modules of %s: %w", hostPath, err)
	}
	h.Dependencies = deps

	w.Host = h
	return nil
}

func (w *Workspace) resolveRefs(fromDir string, refs []moduleRef) ([]*models.Module, error) {
	var modules []*models.Module
	for _, ref := range refs {
		path := ref.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(fromDir, filepath.FromSlash(path))
		}
		for _, name := range ref.Names {
			m, err := w.loadModule(path, name)
			if err != nil {
				return nil, err
			}
			modules = append(modules, m)
		}
	}
	return modules, nil
}

func (w *Workspace) loadModule(path, name string) (*models.Module, error) {
	if m, ok := w.modules[name]; ok {
		if m.ConfigPath != path {
			return nil, fmt.Errorf("module %s is declared in both %s and %s", name, m.ConfigPath, path)
		}
		return m, nil
	}

	file, err := w.moduleFile(path)
	if err != nil {
		return nil, err
	}

	var entry *moduleEntry
	for i := range file.Modules {
		if file.Modules[i].ModuleName == name {
			entry = &file.Modules[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("module %s not found in %s", name, path)
	}

	basePath := filepath.Dir(path)
	srcBasePath := basePath
	if entry.SrcBasePath != "" {
		srcBasePath = filepath.Join(basePath, filepath.FromSlash(entry.SrcBasePath))
	}

	m := models.NewModule(entry.ModuleName, entry.PackageName, basePath, srcBasePath)
	m.ConfigPath = path
	for _, plugin := range file.Plugins {
		m.AddPluginSettings(plugin.Name, plugin.Settings)
	}

	manifest, err := w.readManifest(filepath.Join(basePath, manifestFileName))
	if err != nil {
		return nil, err
	}
	m.Manifest = manifest

	// Registered before its dependencies so cyclic references end up as a
	// cyclic graph instead of endless loading.
	w.modules[name] = m

	deps, err := w.resolveRefs(basePath, entry.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies of %s: %w", name, err)
	}
	m.Dependencies = deps

	return m, nil
}

func (w *Workspace) moduleFile(path string) (*moduleFile, error) {
	if file, ok := w.files[path]; ok {
		return file, nil
	}

	var file moduleFile
	if err := w.readJSON(path, &file); err != nil {
		return nil, err
	}
	w.files[path] = &file
	return &file, nil
}

func (w *Workspace) readJSON(path string, v interface{}) error {
	data, err := w.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (w *Workspace) readManifest(path string) (*models.PackageManifest, error) {
	data, err := w.fs.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return models.NewPackageManifest(path, data)
}

// GetModule returns a loaded module by name. The host is found by its name too.
func (w *Workspace) GetModule(name string) (*models.Module, error) {
	if w.Host != nil && w.Host.Name == name {
		return w.Host, nil
	}
	if m, ok := w.modules[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("module %s not found in workspace", name)
}

// Modules returns every module in the order the host processes them:
// dependencies before their dependents, the host last.
func (w *Workspace) Modules() []*models.Module {
	if w.Host == nil {
		return nil
	}

	visited := map[string]bool{}
	var ordered []*models.Module
	var visit func(m *models.Module)
	visit = func(m *models.Module) {
		if visited[m.Name] {
			return
		}
		visited[m.Name] = true
		for _, dep := range m.Dependencies {
			visit(dep)
		}
		ordered = append(ordered, m)
	}

	for _, dep := range w.Host.Dependencies {
		visit(dep)
	}
	return append(ordered, w.Host)
}

// Save writes every manifest that changed and returns the written paths.
func (w *Workspace) Save() ([]string, error) {
	var saved []string
	for _, m := range w.Modules() {
		if m.Manifest == nil || !m.Manifest.Dirty() {
			continue
		}

		path := m.Manifest.Path
		if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return saved, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := w.fs.WriteFile(path, m.Manifest.Bytes(), 0644); err != nil {
			return saved, fmt.Errorf("failed to write %s: %w", path, err)
		}
		saved = append(saved, path)
	}
	return saved, nil
}

func readPackageJSON(fs filesystem.FileSystem, path string) (packageJSON, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return packageJSON{}, err
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return packageJSON{}, err
	}

	return pkg, nil
}
