package workspace

import (
	"path/filepath"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
)

func findFileUp(fs filesystem.FileSystem, startDir, filename string) (string, bool) {
	dir := filepath.Clean(startDir)

	for {
		candidate := filepath.Join(dir, filename)
		if filesystem.FileExists(fs, candidate) {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
