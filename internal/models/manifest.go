package models

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// DevDependencies and Dependencies are the package.json sections packages can be added to.
const (
	DevDependencies = "devDependencies"
	Dependencies    = "dependencies"
)

var manifestPretty = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// PackageManifest is an in-memory package.json. Edits keep unknown fields and
// key order; the host decides when to persist it.
type PackageManifest struct {
	Path  string
	data  []byte
	dirty bool
}

// NewPackageManifest wraps package.json content. Empty content starts an empty object.
func NewPackageManifest(path string, data []byte) (*PackageManifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("invalid package.json at %s", path)
	}
	return &PackageManifest{Path: path, data: append([]byte(nil), data...)}, nil
}

// Get returns the version declared for name in section.
func (m *PackageManifest) Get(section, name string) (string, bool) {
	res := gjson.GetBytes(m.data, manifestKey(section, name))
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// Section returns all entries of a section.
func (m *PackageManifest) Section(section string) map[string]string {
	entries := map[string]string{}
	gjson.GetBytes(m.data, gjson.Escape(section)).ForEach(func(key, value gjson.Result) bool {
		entries[key.String()] = value.String()
		return true
	})
	return entries
}

// Set adds or replaces a single entry. Setting the current value is a no-op.
func (m *PackageManifest) Set(section, name, version string) error {
	if current, ok := m.Get(section, name); ok && current == version {
		return nil
	}

	data, err := sjson.SetBytes(m.data, manifestKey(section, name), version)
	if err != nil {
		return fmt.Errorf("failed to set %s.%s in %s: %w", section, name, m.Path, err)
	}
	m.data = data
	m.dirty = true
	return nil
}

// Dirty reports whether the manifest changed since it was loaded.
func (m *PackageManifest) Dirty() bool {
	return m.dirty
}

// Bytes returns the formatted manifest content.
func (m *PackageManifest) Bytes() []byte {
	return pretty.PrettyOptions(m.data, manifestPretty)
}

func manifestKey(section, name string) string {
	return gjson.Escape(section) + "." + gjson.Escape(name)
}
