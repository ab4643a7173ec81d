package models

import (
	"encoding/json"
	"strings"
)

// PluginName is the key under which test integration settings are stored.
const PluginName = "@gah/e2e-plugin"

// TestIntegrationSettings is the per-module opt-in record for test integration.
type TestIntegrationSettings struct {
	// TestDirectoryPath is relative to the module base and holds the module's own tests.
	TestDirectoryPath string `json:"testDirectoryPath,omitempty"`

	// SharedHelperPath points at a single helper entry file, e.g. "test/helpers/index".
	SharedHelperPath string `json:"sharedHelperPath,omitempty"`

	// SharedHelperAliasName overrides the generated alias key.
	SharedHelperAliasName string `json:"sharedHelperAliasName,omitempty"`

	// ExtraPackages are additional runner dependencies (name -> version range).
	ExtraPackages map[string]string `json:"extraPackages,omitempty"`

	// Configured is set once at least one of the path fields was provided.
	Configured bool `json:"configured"`
}

// HasTestDirectory reports whether a test directory is declared.
func (s *TestIntegrationSettings) HasTestDirectory() bool {
	return s != nil && strings.TrimSpace(s.TestDirectoryPath) != ""
}

// HasSharedHelper reports whether a shared helper entry file is declared.
func (s *TestIntegrationSettings) HasSharedHelper() bool {
	return s != nil && strings.TrimSpace(s.SharedHelperPath) != ""
}

// TestSettings returns the first configured settings record of the module.
// Unconfigured and undecodable records are treated as absent.
func (m *Module) TestSettings() *TestIntegrationSettings {
	if m == nil {
		return nil
	}
	for _, raw := range m.Plugins[PluginName] {
		var settings TestIntegrationSettings
		if err := json.Unmarshal(raw, &settings); err != nil {
			continue
		}
		if settings.Configured {
			return &settings
		}
	}
	return nil
}

// IsConfigured reports whether the module opted into test integration.
func (m *Module) IsConfigured() bool {
	return m.TestSettings() != nil
}

// ExtraPackages returns the extra packages declared by the module itself.
// For modules only the configured record counts. A host never declares test
// paths, so its records count unless they say "configured": false.
func (m *Module) ExtraPackages() map[string]string {
	if m == nil {
		return nil
	}

	packages := map[string]string{}
	if !m.IsHost {
		if settings := m.TestSettings(); settings != nil {
			for name, version := range settings.ExtraPackages {
				packages[name] = version
			}
		}
		return packages
	}

	for _, raw := range m.Plugins[PluginName] {
		var settings struct {
			ExtraPackages map[string]string `json:"extraPackages"`
			Configured    *bool             `json:"configured"`
		}
		if err := json.Unmarshal(raw, &settings); err != nil {
			continue
		}
		if settings.Configured != nil && !*settings.Configured {
			continue
		}
		for name, version := range settings.ExtraPackages {
			packages[name] = version
		}
	}
	return packages
}
