package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockSymlink_ResolvesThroughLink(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/modules/a/specs/login.spec.ts", []byte("test"))
	mfs.AddDir("/host/test")

	require.NoError(t, mfs.Symlink("/modules/a/specs", "/host/test/a"))

	data, err := mfs.ReadFile("/host/test/a/login.spec.ts")
	require.NoError(t, err)
	require.Equal(t, "test", string(data))

	info, err := mfs.Stat("/host/test/a")
	require.NoError(t, err)
	require.True(t, info.IsDir())

	linfo, err := mfs.Lstat("/host/test/a")
	require.NoError(t, err)
	require.Equal(t, fs.ModeSymlink, linfo.Mode().Type())

	target, err := mfs.Readlink("/host/test/a")
	require.NoError(t, err)
	require.Equal(t, "/modules/a/specs", target)
}

func TestMockSymlink_RelativeTarget(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/repo/shared/index.ts", []byte("export {}"))
	mfs.AddSymlink("../shared", "/repo/app/shared")

	require.True(t, mfs.Exists("/repo/app/shared/index.ts"))
}

func TestMockSymlink_ExistingDestination(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddDir("/src")
	mfs.AddDir("/dst/taken")

	err := mfs.Symlink("/src", "/dst/taken")
	require.Error(t, err)
	require.True(t, errors.Is(err, fs.ErrExist))
}

func TestMockSymlink_MissingParent(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddDir("/src")

	err := mfs.Symlink("/src", "/missing/link")
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMockSymlink_LoopIsReported(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddSymlink("/loop/b", "/loop/a")
	mfs.AddSymlink("/loop/a", "/loop/b")

	_, err := mfs.Stat("/loop/a")
	require.Error(t, err)
	require.False(t, mfs.Exists("/loop/a"))
}

func TestMockRemoveAll_DoesNotFollowLinks(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/modules/a/specs/login.spec.ts", []byte("test"))
	mfs.AddSymlink("/modules/a/specs", "/host/test/a")
	mfs.AddFile("/host/test/stale.txt", []byte("old"))

	require.NoError(t, mfs.RemoveAll("/host/test/a"))
	require.NoError(t, mfs.RemoveAll("/host/test/stale.txt"))

	require.True(t, mfs.Exists("/modules/a/specs/login.spec.ts"))
	entries, err := mfs.ReadDir("/host/test")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMockRemoveAll_MissingPath(t *testing.T) {
	mfs := NewMockFileSystem()
	require.NoError(t, mfs.RemoveAll("/nothing/here"))
}

func TestMockRemove_NonEmptyDirectory(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/dir/file.txt", []byte("x"))

	require.Error(t, mfs.Remove("/dir"))
	require.NoError(t, mfs.Remove("/dir/file.txt"))
	require.NoError(t, mfs.Remove("/dir"))
}

func TestMockRename_MovesChildren(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/work/old/a.json", []byte("{}"))
	mfs.AddFile("/work/old/nested/b.json", []byte("[]"))

	require.NoError(t, mfs.Rename("/work/old", "/work/new"))

	require.False(t, mfs.Exists("/work/old"))
	data, err := mfs.ReadFile("/work/new/nested/b.json")
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestMockRename_MissingSource(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddDir("/work")

	err := mfs.Rename("/work/old", "/work/new")
	require.True(t, errors.Is(err, fs.ErrNotExist))

	var linkErr *os.LinkError
	require.True(t, errors.As(err, &linkErr))
	require.Equal(t, "/work/old", linkErr.Old)
	require.Equal(t, "/work/new", linkErr.New)
}

func TestMockWriteFile_RequiresParent(t *testing.T) {
	mfs := NewMockFileSystem()

	err := mfs.WriteFile("/missing/file.txt", []byte("x"), 0644)
	require.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, mfs.MkdirAll("/missing", 0755))
	require.NoError(t, mfs.WriteFile("/missing/file.txt", []byte("x"), 0644))
}

func TestMockReadDir_ListsLinksAsLinks(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddDir("/src")
	mfs.AddSymlink("/src", "/root/link")
	mfs.AddFile("/root/file.txt", []byte("x"))

	entries, err := mfs.ReadDir("/root")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "file.txt", entries[0].Name())
	require.Equal(t, "link", entries[1].Name())
	require.Equal(t, fs.ModeSymlink, entries[1].Type())
}

func TestMockTree(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/root/a/file.txt", []byte("abc"))
	mfs.AddSymlink("/elsewhere", "/root/link")

	require.Equal(t, "a/\na/file.txt (3 bytes)\nlink -> /elsewhere\n", mfs.Tree("/root"))
}

func TestDirAndFileExists(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/root/file.txt", []byte("abc"))

	require.True(t, DirExists(mfs, "/root"))
	require.False(t, DirExists(mfs, "/root/file.txt"))
	require.True(t, FileExists(mfs, "/root/file.txt"))
	require.False(t, FileExists(mfs, "/root/missing"))
}
