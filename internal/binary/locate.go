package binary

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/nexo-app/runtimes/internal/platform"
)

// Finder locates one executable below an install root. It only reads the
// filesystem and may be used concurrently. A missing executable is reported
// as ErrNotFound.
type Finder interface {
	Find(fs afero.Fs, root string, t platform.Target) (string, error)
}

// KnownLayout finds an executable at a fixed relative path.
type KnownLayout struct {
	// Dir is the directory below root holding the tree. Empty means the
	// first directory entry of root, for archives whose top-level folder
	// carries the version and platform.
	Dir string
	// Posix and Windows are slash-separated paths relative to Dir.
	Posix   string
	Windows string
}

// Find resolves the layout path and checks that a file exists there. There is
// no search fallback.
func (k KnownLayout) Find(fs afero.Fs, root string, t platform.Target) (string, error) {
	dir := k.Dir
	if dir == "" {
		first, err := firstDir(fs, root)
		if err != nil {
			return "", err
		}
		dir = first
	}

	rel := k.Posix
	if t.IsWindows() {
		rel = k.Windows
	}

	p := filepath.Join(root, filepath.FromSlash(dir), filepath.FromSlash(rel))
	if !fileExists(fs, p) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return p, nil
}

// firstDir returns the lexically first directory in root, ignoring hidden
// entries such as staging directories and lock files.
func firstDir(fs afero.Fs, root string) (string, error) {
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrNotFound, root, err)
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			return e.Name(), nil
		}
	}
	return "", fmt.Errorf("%w: no directory in %s", ErrNotFound, root)
}

// Search walks root for a file with an exact name. ".exe" is appended on
// Windows targets unless Name already carries it.
type Search struct {
	Name string
}

// Find returns the first match. Files in a directory are checked before its
// subdirectories are entered, and directories are visited in lexical order.
func (s Search) Find(fs afero.Fs, root string, t platform.Target) (string, error) {
	name := s.Name
	if t.IsWindows() && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}

	p, err := search(fs, root, name)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("%w: %s in %s", ErrNotFound, name, root)
	}
	return p, nil
}

func search(fs afero.Fs, dir, name string) (string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrNotFound, dir, err)
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		if e.Name() == name {
			return filepath.Join(dir, e.Name()), nil
		}
	}

	sort.Strings(subdirs)
	for _, sub := range subdirs {
		p, err := search(fs, filepath.Join(dir, sub), name)
		if err != nil {
			return "", err
		}
		if p != "" {
			return p, nil
		}
	}
	return "", nil
}
