package linker

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gahjs/e2e-plugin/internal/layout"
	"github.com/gahjs/e2e-plugin/internal/models"
)

// Kind identifies what a link composes.
type Kind string

const (
	KindTestDir      Kind = "test-dir"
	KindSharedHelper Kind = "shared-helper"
)

// LinkEntry is a single planned directory link.
type LinkEntry struct {
	Module      string `json:"module"`
	Kind        Kind   `json:"kind"`
	Source      string `json:"source"`
	Destination string `json:"destination"`

	// Root is the test root the destination was planned under.
	Root string `json:"-"`

	// Invalid is set when the entry can never be applied, e.g. a helper path
	// leaving the module. Apply reports such entries as failed.
	Invalid string `json:"invalid,omitempty"`
}

// PlanTestDirs plans <root>/<module> -> <module base>/<testDirectoryPath> for
// every dependency declaring a test directory.
func PlanTestDirs(deps []*models.Module, root string) []LinkEntry {
	var entries []LinkEntry
	for _, dep := range deps {
		settings := dep.TestSettings()
		if !settings.HasTestDirectory() {
			continue
		}

		entry := LinkEntry{
			Module:      dep.Name,
			Kind:        KindTestDir,
			Destination: filepath.Join(root, dep.Name),
			Root:        root,
		}

		rel, err := layout.LocalPath(settings.TestDirectoryPath)
		if err != nil {
			entry.Invalid = err.Error()
		} else {
			entry.Source = filepath.Join(dep.BasePath, filepath.FromSlash(rel))
		}
		entries = append(entries, entry)
	}
	return entries
}

// PlanSharedHelpers plans <root>/<package>/<module>/<helperRoot>/<helperDir>
// -> <module base>/<helperRoot>/<helperDir> for every dependency declaring a
// shared helper. Namespacing by package and module keeps identical relative
// helper paths of different modules apart.
func PlanSharedHelpers(deps []*models.Module, root string) []LinkEntry {
	var entries []LinkEntry
	for _, dep := range deps {
		settings := dep.TestSettings()
		if !settings.HasSharedHelper() {
			continue
		}

		entry := LinkEntry{
			Module: dep.Name,
			Kind:   KindSharedHelper,
			Root:   root,
		}

		helperRoot, helperDir, err := layout.HelperDir(settings.SharedHelperPath)
		if err != nil {
			entry.Invalid = err.Error()
			entry.Destination = filepath.Join(root, dep.PackageName, dep.Name)
		} else {
			entry.Destination = filepath.Join(root, dep.PackageName, dep.Name, filepath.FromSlash(helperRoot), helperDir)
			entry.Source = filepath.Join(dep.BasePath, filepath.FromSlash(helperRoot), helperDir)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Plan combines the test-dir links (when withTests is set) and the shared
// helper links for root. A destination equal to or below another planned
// destination would be created through that link inside a module's sources,
// so the later of the two is marked invalid.
func Plan(deps []*models.Module, root string, withTests bool) []LinkEntry {
	var entries []LinkEntry
	if withTests {
		entries = append(entries, PlanTestDirs(deps, root)...)
	}
	entries = append(entries, PlanSharedHelpers(deps, root)...)

	for i := range entries {
		if entries[i].Invalid != "" {
			continue
		}
		for j := range entries {
			if i == j || entries[j].Invalid != "" {
				continue
			}
			if !nestedIn(entries[i].Destination, entries[j].Destination) {
				continue
			}
			if entries[i].Destination == entries[j].Destination && i < j {
				continue
			}
			entries[i].Invalid = fmt.Sprintf("destination %s lies inside the %s link of %s",
				entries[i].Destination, entries[j].Kind, entries[j].Module)
			break
		}
	}
	return entries
}

// nestedIn reports whether p equals dir or lies below it.
func nestedIn(p, dir string) bool {
	p, dir = filepath.Clean(p), filepath.Clean(dir)
	return p == dir || strings.HasPrefix(p, dir+string(filepath.Separator))
}
