package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const maxLinkHops = 40

var errTooManyLinks = errors.New("too many levels of symbolic links")

// MockFileSystem provides in-memory filesystem for testing
type MockFileSystem struct {
	mu         sync.RWMutex
	files      map[string]*MockFile
	currentDir string
}

// MockFile represents a file, directory or link in the mock filesystem
type MockFile struct {
	Content []byte
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
	// Link holds the link target when the entry is a symbolic link.
	Link string
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// mockDirEntry implements fs.DirEntry
type mockDirEntry struct {
	info fs.FileInfo
}

func (m *mockDirEntry) Name() string               { return m.info.Name() }
func (m *mockDirEntry) IsDir() bool                { return m.info.IsDir() }
func (m *mockDirEntry) Type() fs.FileMode          { return m.info.Mode().Type() }
func (m *mockDirEntry) Info() (fs.FileInfo, error) { return m.info, nil }

// NewMockFileSystem creates a new MockFileSystem
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:      make(map[string]*MockFile),
		currentDir: "/workspace",
	}
}

// AddFile adds a file to the mock filesystem
func (mfs *MockFileSystem) AddFile(path string, content []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	mfs.files[cleanPath] = &MockFile{
		Content: content,
		Mode:    0644,
		ModTime: time.Now(),
	}
	mfs.addParents(cleanPath)
}

// AddDir adds a directory to the mock filesystem
func (mfs *MockFileSystem) AddDir(path string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.addDir(filepath.Clean(path))
}

// AddSymlink adds a link at path pointing to target, creating parent directories.
func (mfs *MockFileSystem) AddSymlink(target, path string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	mfs.files[cleanPath] = &MockFile{
		Mode:    fs.ModeSymlink | 0777,
		ModTime: time.Now(),
		Link:    target,
	}
	mfs.addParents(cleanPath)
}

func (mfs *MockFileSystem) addDir(cleanPath string) {
	if _, exists := mfs.files[cleanPath]; !exists {
		mfs.files[cleanPath] = &MockFile{
			Mode:    0755 | fs.ModeDir,
			ModTime: time.Now(),
			IsDir:   true,
		}
	}
	mfs.addParents(cleanPath)
}

func (mfs *MockFileSystem) addParents(cleanPath string) {
	dir := filepath.Dir(cleanPath)
	for dir != "." && dir != "/" && dir != cleanPath {
		if _, exists := mfs.files[dir]; !exists {
			mfs.files[dir] = &MockFile{
				Mode:    0755 | fs.ModeDir,
				ModTime: time.Now(),
				IsDir:   true,
			}
		}
		dir = filepath.Dir(dir)
	}
}

// resolve rewrites every link found along path. The final element is only
// followed when followLast is set, mirroring Stat versus Lstat.
func (mfs *MockFileSystem) resolve(path string, followLast bool) (string, error) {
	p := filepath.Clean(path)
	hops := 0

	for {
		rewritten := false
		parts := splitPath(p)
		prefix := ""

		for i, part := range parts {
			prefix = joinPrefix(prefix, part, filepath.IsAbs(p))
			if i == len(parts)-1 && !followLast {
				break
			}

			file, exists := mfs.files[prefix]
			if !exists || file.Link == "" {
				continue
			}

			hops++
			if hops > maxLinkHops {
				return "", &fs.PathError{Op: "resolve", Path: path, Err: errTooManyLinks}
			}

			target := file.Link
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(prefix), target)
			}
			p = filepath.Join(append([]string{target}, parts[i+1:]...)...)
			rewritten = true
			break
		}

		if !rewritten {
			return p, nil
		}
	}
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, string(filepath.Separator)) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func joinPrefix(prefix, part string, abs bool) string {
	if prefix == "" {
		if abs {
			return string(filepath.Separator) + part
		}
		return part
	}
	return filepath.Join(prefix, part)
}

func (mfs *MockFileSystem) info(p string, file *MockFile) *mockFileInfo {
	return &mockFileInfo{
		name:    filepath.Base(p),
		size:    int64(len(file.Content)),
		mode:    file.Mode,
		modTime: file.ModTime,
		isDir:   file.IsDir,
	}
}

func (mfs *MockFileSystem) ReadFile(path string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolve(path, true)
	if err != nil {
		return nil, err
	}
	file, exists := mfs.files[p]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if file.IsDir {
		return nil, errors.New("is a directory")
	}
	return append([]byte(nil), file.Content...), nil
}

func (mfs *MockFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath, err := mfs.resolve(path, true)
	if err != nil {
		return err
	}

	// Ensure parent directory exists
	dir := filepath.Dir(cleanPath)
	if dir != "." && dir != "/" {
		parent, exists := mfs.files[dir]
		if !exists {
			return &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
		}
		if !parent.IsDir {
			return &fs.PathError{Op: "open", Path: path, Err: errors.New("not a directory")}
		}
	}
	if existing, exists := mfs.files[cleanPath]; exists && existing.IsDir {
		return &fs.PathError{Op: "open", Path: path, Err: errors.New("is a directory")}
	}

	mfs.files[cleanPath] = &MockFile{
		Content: append([]byte(nil), data...),
		Mode:    perm,
		ModTime: time.Now(),
	}
	return nil
}

func (mfs *MockFileSystem) Remove(path string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath, err := mfs.resolve(path, false)
	if err != nil {
		return err
	}
	file, exists := mfs.files[cleanPath]
	if !exists {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	if file.IsDir && mfs.hasChildren(cleanPath) {
		return &fs.PathError{Op: "remove", Path: path, Err: errors.New("directory not empty")}
	}
	delete(mfs.files, cleanPath)
	return nil
}

func (mfs *MockFileSystem) RemoveAll(path string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath, err := mfs.resolve(path, false)
	if err != nil {
		return err
	}

	prefix := cleanPath + string(filepath.Separator)
	for p := range mfs.files {
		if p == cleanPath || strings.HasPrefix(p, prefix) {
			delete(mfs.files, p)
		}
	}
	return nil
}

func (mfs *MockFileSystem) Rename(oldPath, newPath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	from, err := mfs.resolve(oldPath, false)
	if err != nil {
		return err
	}
	to, err := mfs.resolve(newPath, false)
	if err != nil {
		return err
	}

	if _, exists := mfs.files[from]; !exists {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: fs.ErrNotExist}
	}
	if parent, exists := mfs.files[filepath.Dir(to)]; filepath.Dir(to) != "/" && (!exists || !parent.IsDir) {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: fs.ErrNotExist}
	}

	prefix := from + string(filepath.Separator)
	moved := make(map[string]*MockFile)
	for p, file := range mfs.files {
		switch {
		case p == from:
			moved[to] = file
		case strings.HasPrefix(p, prefix):
			moved[filepath.Join(to, strings.TrimPrefix(p, prefix))] = file
		default:
			continue
		}
		delete(mfs.files, p)
	}
	for p, file := range moved {
		mfs.files[p] = file
	}
	return nil
}

func (mfs *MockFileSystem) hasChildren(dir string) bool {
	for p := range mfs.files {
		if p != dir && filepath.Dir(p) == dir {
			return true
		}
	}
	return false
}

func (mfs *MockFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	cleanPath, err := mfs.resolve(path, true)
	if err != nil {
		return nil, err
	}

	file, exists := mfs.files[cleanPath]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if !file.IsDir {
		return nil, errors.New("not a directory")
	}

	var entries []fs.DirEntry
	for p, f := range mfs.files {
		if p != cleanPath && filepath.Dir(p) == cleanPath {
			entries = append(entries, &mockDirEntry{info: mfs.info(p, f)})
		}
	}

	// Sort entries by name for consistent ordering
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

func (mfs *MockFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath, err := mfs.resolve(path, true)
	if err != nil {
		return err
	}

	current := ""
	for _, part := range splitPath(cleanPath) {
		current = joinPrefix(current, part, filepath.IsAbs(cleanPath))

		existing, exists := mfs.files[current]
		if !exists {
			mfs.files[current] = &MockFile{
				Mode:    perm | fs.ModeDir,
				ModTime: time.Now(),
				IsDir:   true,
			}
			continue
		}
		if !existing.IsDir {
			return &fs.PathError{Op: "mkdir", Path: path, Err: errors.New("not a directory")}
		}
	}
	return nil
}

func (mfs *MockFileSystem) Stat(path string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolve(path, true)
	if err != nil {
		return nil, err
	}
	file, exists := mfs.files[p]
	if !exists {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}

	info := mfs.info(p, file)
	info.name = filepath.Base(path)
	return info, nil
}

func (mfs *MockFileSystem) Lstat(path string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolve(path, false)
	if err != nil {
		return nil, err
	}
	file, exists := mfs.files[p]
	if !exists {
		return nil, &fs.PathError{Op: "lstat", Path: path, Err: fs.ErrNotExist}
	}
	return mfs.info(p, file), nil
}

func (mfs *MockFileSystem) Exists(path string) bool {
	_, err := mfs.Stat(path)
	return err == nil
}

func (mfs *MockFileSystem) Getwd() (string, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	return mfs.currentDir, nil
}

func (mfs *MockFileSystem) Symlink(target, link string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath, err := mfs.resolve(link, false)
	if err != nil {
		return err
	}
	if _, exists := mfs.files[cleanPath]; exists {
		return &fs.PathError{Op: "symlink", Path: link, Err: fs.ErrExist}
	}
	if dir := filepath.Dir(cleanPath); dir != "/" && dir != "." {
		parent, exists := mfs.files[dir]
		if !exists || !parent.IsDir {
			return &fs.PathError{Op: "symlink", Path: link, Err: fs.ErrNotExist}
		}
	}

	mfs.files[cleanPath] = &MockFile{
		Mode:    fs.ModeSymlink | 0777,
		ModTime: time.Now(),
		Link:    target,
	}
	return nil
}

func (mfs *MockFileSystem) Readlink(link string) (string, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolve(link, false)
	if err != nil {
		return "", err
	}
	file, exists := mfs.files[p]
	if !exists {
		return "", &fs.PathError{Op: "readlink", Path: link, Err: fs.ErrNotExist}
	}
	if file.Link == "" {
		return "", &fs.PathError{Op: "readlink", Path: link, Err: errors.New("invalid argument")}
	}
	return file.Link, nil
}

// SetCurrentDir sets the current working directory for the mock
func (mfs *MockFileSystem) SetCurrentDir(dir string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.currentDir = dir
}

// Tree renders every entry below root, one per line, links as "path -> target".
// Used by tests to compare whole workspaces.
func (mfs *MockFileSystem) Tree(root string) string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	cleanRoot := filepath.Clean(root)
	prefix := cleanRoot + string(filepath.Separator)

	var paths []string
	for p := range mfs.files {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		file := mfs.files[p]
		rel := strings.TrimPrefix(p, prefix)
		switch {
		case file.Link != "":
			fmt.Fprintf(&b, "%s -> %s\n", rel, file.Link)
		case file.IsDir:
			fmt.Fprintf(&b, "%s/\n", rel)
		default:
			fmt.Fprintf(&b, "%s (%d bytes)\n", rel, len(file.Content))
		}
	}
	return b.String()
}
