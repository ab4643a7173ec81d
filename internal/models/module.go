package models

import "encoding/json"

// Module represents a gah module (or the host) in the dependency graph.
//
// Modules are owned by the host build. The composition engine reads them and
// only ever mutates Manifest.
type Module struct {
	// Name is the module identifier (unique within the workspace)
	Name string

	// PackageName is the name of the package that declares the module
	PackageName string

	// BasePath is the absolute path to the module root.
	// For the host this is the generated .gah directory.
	BasePath string

	// SrcBasePath is the absolute path to the module sources
	SrcBasePath string

	// IsHost marks the composition root
	IsHost bool

	// Dependencies lists direct dependencies in declaration order
	Dependencies []*Module

	// Plugins maps a plugin name to the settings records declared for it.
	Plugins map[string][]json.RawMessage

	// Manifest is the module's package.json record.
	Manifest *PackageManifest

	// ConfigPath is the gah configuration file that declared the module.
	ConfigPath string
}

// NewModule creates a new Module instance
func NewModule(name, packageName, basePath, srcBasePath string) *Module {
	if srcBasePath == "" {
		srcBasePath = basePath
	}
	return &Module{
		Name:        name,
		PackageName: packageName,
		BasePath:    basePath,
		SrcBasePath: srcBasePath,
		Plugins:     map[string][]json.RawMessage{},
	}
}

// HasPlugin reports whether the module declares any settings for the plugin.
func (m *Module) HasPlugin(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Plugins[name]
	return ok
}

// AddPluginSettings appends a settings record for the plugin.
func (m *Module) AddPluginSettings(name string, settings json.RawMessage) {
	if m.Plugins == nil {
		m.Plugins = map[string][]json.RawMessage{}
	}
	m.Plugins[name] = append(m.Plugins[name], settings)
}
