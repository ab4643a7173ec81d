// Package assets provides the templates generated test configuration is built from.
package assets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/gahjs/e2e-plugin/internal/filesystem"
)

// Template names.
const (
	SpecConfig       = "tsconfig.spec.json"
	RunnerManifest   = "runner-manifest.json"
	RunnerConfig     = "playwright.config.ts.tmpl"
	RunnerConfigCI   = "playwright-ci.config.ts.tmpl"
	templatesRootDir = "templates"
)

//go:embed templates/*
var embedded embed.FS

// MissingTemplateError is returned when a required template cannot be found.
// Composition cannot continue without it.
type MissingTemplateError struct {
	Name   string
	Source string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("template %s not found in %s", e.Name, e.Source)
}

// Store reads templates from the embedded set or an override directory.
type Store struct {
	source string
	read   func(name string) ([]byte, error)
}

// Embedded returns the store of templates compiled into the binary.
func Embedded() *Store {
	return &Store{
		source: "embedded templates",
		read: func(name string) ([]byte, error) {
			return fs.ReadFile(embedded, templatesRootDir+"/"+name)
		},
	}
}

// Dir returns a store reading templates from dir.
func Dir(fsys filesystem.FileSystem, dir string) *Store {
	return &Store{
		source: dir,
		read: func(name string) ([]byte, error) {
			return fsys.ReadFile(filepath.Join(dir, name))
		},
	}
}

// Read returns the raw template content.
func (s *Store) Read(name string) ([]byte, error) {
	data, err := s.read(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingTemplateError{Name: name, Source: s.source}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return data, nil
}

// Render executes a text template with the sprig function map.
func (s *Store) Render(name string, data interface{}) ([]byte, error) {
	raw, err := s.Read(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
