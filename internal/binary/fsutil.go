package binary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// fileExists reports whether path exists and is not a directory.
func fileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists reports whether path exists and is a directory.
func dirExists(fs afero.Fs, path string) bool {
	ok, err := afero.DirExists(fs, path)
	return err == nil && ok
}

// copyFile copies src to dst, creating dst's parent directory.
func copyFile(fs afero.Fs, src, dst string, mode os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		fs.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	}
	return out.Close()
}

// CopyFile copies src to dst on fs. It is exported for the sidecar bundler.
func CopyFile(fs afero.Fs, src, dst string, mode os.FileMode) error {
	return copyFile(fs, src, dst, mode)
}
