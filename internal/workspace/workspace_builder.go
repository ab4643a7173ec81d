package workspace

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
)

// WorkspaceBuilder helps create test workspaces
type WorkspaceBuilder struct {
	fs      *filesystem.MockFileSystem
	root    string
	hostDir string
	host    ModuleConfig
	modules []ModuleConfig
}

// ModuleConfig represents a gah module declaration
type ModuleConfig struct {
	Name         string
	PackageName  string
	Dir          string
	SrcBasePath  string
	Dependencies []string
	Settings     []string
}

// NewWorkspaceBuilder creates a new WorkspaceBuilder. The host lives in
// <root>/host unless WithHostDir says otherwise.
func NewWorkspaceBuilder(root string) *WorkspaceBuilder {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir(root)

	return &WorkspaceBuilder{
		fs:      fs,
		root:    root,
		hostDir: "host",
	}
}

// WithHostDir moves the host to <root>/<dir>.
func (wb *WorkspaceBuilder) WithHostDir(dir string) *WorkspaceBuilder {
	wb.hostDir = dir
	return wb
}

// WithHostDependencies sets the modules the host references, by name.
func (wb *WorkspaceBuilder) WithHostDependencies(names ...string) *WorkspaceBuilder {
	wb.host.Dependencies = names
	return wb
}

// WithHostSettings adds a plugin settings record to the host.
func (wb *WorkspaceBuilder) WithHostSettings(settings string) *WorkspaceBuilder {
	wb.host.Settings = append(wb.host.Settings, settings)
	return wb
}

// AddModule declares a module in <root>/<dir>/gah-module.json.
func (wb *WorkspaceBuilder) AddModule(name, packageName, dir string, deps ...string) *WorkspaceBuilder {
	wb.modules = append(wb.modules, ModuleConfig{
		Name:         name,
		PackageName:  packageName,
		Dir:          dir,
		Dependencies: deps,
	})
	wb.fs.AddDir(filepath.Join(wb.root, dir))
	return wb
}

// WithSettings adds a plugin settings record to a module.
func (wb *WorkspaceBuilder) WithSettings(name, settings string) *WorkspaceBuilder {
	for i, m := range wb.modules {
		if m.Name == name {
			wb.modules[i].Settings = append(wb.modules[i].Settings, settings)
			break
		}
	}
	return wb
}

// WithSrcBasePath sets a module's source directory relative to its base.
func (wb *WorkspaceBuilder) WithSrcBasePath(name, src string) *WorkspaceBuilder {
	for i, m := range wb.modules {
		if m.Name == name {
			wb.modules[i].SrcBasePath = src
			break
		}
	}
	return wb
}

// AddFile adds a file relative to the workspace root
func (wb *WorkspaceBuilder) AddFile(path, content string) *WorkspaceBuilder {
	wb.fs.AddFile(filepath.Join(wb.root, path), []byte(content))
	return wb
}

// Build writes the gah files and returns the filesystem, with the working
// directory set to the host.
func (wb *WorkspaceBuilder) Build() *filesystem.MockFileSystem {
	hostDir := filepath.Join(wb.root, wb.hostDir)

	for _, m := range wb.modules {
		dir := filepath.Join(wb.root, m.Dir)
		file := moduleFile{
			Modules: []moduleEntry{{
				ModuleName:   m.Name,
				PackageName:  m.PackageName,
				SrcBasePath:  m.SrcBasePath,
				Dependencies: wb.refs(dir, m.Dependencies),
			}},
			Plugins: plugins(m.Settings),
		}
		wb.fs.AddFile(filepath.Join(dir, ModuleFileName), mustJSON(file))
	}

	host := hostFile{
		Modules: wb.refs(hostDir, wb.host.Dependencies),
		Plugins: plugins(wb.host.Settings),
	}
	wb.fs.AddFile(filepath.Join(hostDir, HostFileName), mustJSON(host))
	wb.fs.SetCurrentDir(hostDir)

	return wb.fs
}

// FileSystem returns the mock filesystem
func (wb *WorkspaceBuilder) FileSystem() *filesystem.MockFileSystem {
	return wb.fs
}

func (wb *WorkspaceBuilder) refs(fromDir string, names []string) []moduleRef {
	var refs []moduleRef
	for _, name := range names {
		for _, m := range wb.modules {
			if m.Name != name {
				continue
			}
			rel, err := filepath.Rel(fromDir, filepath.Join(wb.root, m.Dir, ModuleFileName))
			if err != nil {
				panic(fmt.Sprintf("workspace builder: %v", err))
			}
			refs = append(refs, moduleRef{Path: filepath.ToSlash(rel), Names: []string{name}})
		}
	}
	return refs
}

func plugins(settings []string) []pluginEntry {
	var entries []pluginEntry
	for _, s := range settings {
		entries = append(entries, pluginEntry{Name: "@gah/e2e-plugin", Settings: json.RawMessage(s)})
	}
	return entries
}

func mustJSON(v interface{}) []byte {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("workspace builder: %v", err))
	}
	return data
}
