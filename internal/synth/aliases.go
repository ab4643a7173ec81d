package synth

import (
	"fmt"

	"github.com/gahjs/e2e-plugin/internal/layout"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const aliasTablePath = "compilerOptions.paths"

// WriteAliases rewrites the path-alias table of the config at path so it holds
// one generated entry per shared helper in deps. Entries without the generated
// marker are left untouched.
func (s *Synthesizer) WriteAliases(path string, target *models.Module, deps []*models.Module) error {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return &CorruptConfigError{Path: path}
	}

	var stale []string
	gjson.GetBytes(data, aliasTablePath).ForEach(func(key, value gjson.Result) bool {
		if isGenerated(value) {
			stale = append(stale, key.String())
		}
		return true
	})
	for _, key := range stale {
		data, err = sjson.DeleteBytes(data, aliasKeyPath(key))
		if err != nil {
			return fmt.Errorf("failed to remove alias %s from %s: %w", key, path, err)
		}
	}

	added := 0
	for _, dep := range deps {
		settings := dep.TestSettings()
		if !settings.HasSharedHelper() {
			continue
		}
		key := layout.AliasKey(dep, settings)
		value := []string{layout.AliasTarget(target, dep, settings.SharedHelperPath), GeneratedMarker}
		data, err = sjson.SetBytes(data, aliasKeyPath(key), value)
		if err != nil {
			return fmt.Errorf("failed to set alias %s in %s: %w", key, path, err)
		}
		added++
	}

	if err := s.fs.WriteFile(path, format(data), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.logger.Debug("wrote path aliases", "path", path, "removed", len(stale), "added", added)
	return nil
}

func isGenerated(value gjson.Result) bool {
	if !value.IsArray() {
		return false
	}
	items := value.Array()
	if len(items) == 0 {
		return false
	}
	last := items[len(items)-1]
	return last.Type == gjson.String && last.Str == GeneratedMarker
}

func aliasKeyPath(key string) string {
	return aliasTablePath + "." + gjson.Escape(key)
}
