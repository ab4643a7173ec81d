package synth

import (
	"fmt"
	"sort"

	"github.com/gahjs/e2e-plugin/internal/models"
)

// PatchPackages adds the base packages and the target's extra packages to its
// manifest. Extra packages win over base packages of the same name.
func (s *Synthesizer) PatchPackages(target *models.Module) (map[string]string, error) {
	if target.Manifest == nil {
		return nil, fmt.Errorf("module %s has no package manifest", target.Name)
	}

	packages := make(map[string]string, len(s.basePackages))
	for name, version := range s.basePackages {
		packages[name] = version
	}
	for name, version := range target.ExtraPackages() {
		packages[name] = version
	}

	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := target.Manifest.Set(s.section, name, packages[name]); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("patched package manifest", "module", target.Name, "section", s.section, "packages", len(names))
	return packages, nil
}
