package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_SymlinkAndRemoveAll(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "module", "specs")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.spec.ts"), []byte("x"), 0o644))

	osfs := filesystem.NewOSFileSystem()
	root := filepath.Join(tmp, "host", "test")
	require.NoError(t, osfs.MkdirAll(root, 0o755))

	link := filepath.Join(root, "module")
	if err := osfs.Symlink(src, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	target, err := osfs.Readlink(link)
	require.NoError(t, err)
	require.Equal(t, src, target)
	require.True(t, filesystem.DirExists(osfs, link))
	require.True(t, osfs.Exists(filepath.Join(link, "a.spec.ts")))

	require.NoError(t, osfs.RemoveAll(link))
	require.True(t, osfs.Exists(filepath.Join(src, "a.spec.ts")))
	require.False(t, osfs.Exists(link))
}
