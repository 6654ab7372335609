package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/spf13/afero"
)

// Unpacker extracts an archive of a known format into destDir.
type Unpacker interface {
	Unpack(ctx context.Context, archivePath, destDir string, format ArchiveFormat, layout Layout) error
}

// Extractor handles archive extraction in-process.
type Extractor struct {
	fs afero.Fs
}

// NewExtractor creates an extractor operating on fs (the OS filesystem when
// nil).
func NewExtractor(fs afero.Fs) *Extractor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Extractor{fs: fs}
}

// Unpack dispatches on format.
func (e *Extractor) Unpack(ctx context.Context, archivePath, destDir string, format ArchiveFormat, layout Layout) error {
	switch format {
	case FormatTarGz:
		return e.ExtractTarGz(ctx, archivePath, destDir, layout)
	case FormatZip:
		return e.ExtractZip(ctx, archivePath, destDir, layout)
	default:
		return fmt.Errorf("unsupported archive format %q", format)
	}
}

// ExtractTarGz extracts a .tar.gz archive to destDir. In LayoutStripped the
// first path component of every entry is dropped and entries with nothing
// left are skipped.
func (e *Extractor) ExtractTarGz(ctx context.Context, archivePath, destDir string, layout Layout) error {
	archiveFile, err := e.fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	if err := e.fs.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, skip, err := entryTarget(destDir, header.Name, layout)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		if header.Typeflag == tar.TypeSymlink {
			if err := e.symlink(destDir, target, header.Linkname); err != nil {
				return err
			}
			continue
		}

		target, err = e.resolve(destDir, target)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := e.fs.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := e.writeFile(target, fileMode(header.Mode), tarReader); err != nil {
				return err
			}

		case tar.TypeLink:
			source, skip, err := entryTarget(destDir, header.Linkname, layout)
			if err != nil {
				return err
			}
			if skip {
				continue
			}
			if source, err = e.resolve(destDir, source); err != nil {
				return err
			}
			if err := e.copyFile(source, target, fileMode(header.Mode)); err != nil {
				return fmt.Errorf("create hard link %s: %w", target, err)
			}

		default:
			// Skip other types (char devices, block devices, fifos).
			continue
		}
	}

	return nil
}

// ExtractZip extracts a .zip archive to destDir, honouring layout the same
// way ExtractTarGz does.
func (e *Extractor) ExtractZip(ctx context.Context, archivePath, destDir string, layout Layout) error {
	archiveFile, err := e.fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	info, err := archiveFile.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	reader, err := zip.NewReader(archiveFile, info.Size())
	if err != nil {
		return fmt.Errorf("open zip reader: %w", err)
	}

	if err := e.fs.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, skip, err := entryTarget(destDir, file.Name, layout)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		if target, err = e.resolve(destDir, target); err != nil {
			return err
		}

		if file.FileInfo().IsDir() || strings.HasSuffix(file.Name, "/") {
			if err := e.fs.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("open %s in zip: %w", file.Name, err)
		}
		err = e.writeFile(target, fileMode(int64(file.Mode().Perm())), rc)
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Extractor) writeFile(target string, mode os.FileMode, r io.Reader) error {
	if err := e.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	outFile, err := e.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}

	return outFile.Close()
}

func (e *Extractor) copyFile(source, target string, mode os.FileMode) error {
	in, err := e.fs.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	return e.writeFile(target, mode, in)
}

// symlink creates target pointing at linkname. Links must be relative and
// resolve inside destDir from the real location of their parent directory,
// so a chain of links cannot climb out. Filesystems without symlink support
// skip links.
func (e *Extractor) symlink(destDir, target, linkname string) error {
	linker, ok := e.fs.(afero.Linker)
	if !ok {
		return nil
	}
	if filepath.IsAbs(linkname) || path.IsAbs(linkname) || !canonicalLink(linkname) {
		return fmt.Errorf("illegal symlink %s -> %s", target, linkname)
	}

	parent := filepath.Clean(destDir)
	if dir := filepath.Dir(target); dir != parent {
		var err error
		if parent, err = e.resolve(destDir, dir); err != nil {
			return err
		}
	}
	target = filepath.Join(parent, filepath.Base(target))

	resolved := filepath.Join(parent, filepath.FromSlash(linkname))
	if !within(destDir, resolved) {
		return fmt.Errorf("illegal symlink %s -> %s", target, linkname)
	}
	if err := e.fs.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}
	if err := e.fs.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	if err := linker.SymlinkIfPossible(linkname, target); err != nil {
		return fmt.Errorf("create symlink %s: %w", target, err)
	}
	return nil
}

// canonicalLink reports whether every ".." in linkname comes before the
// first named component. "a/../.." is refused: the OS resolves it through
// whatever a is, not lexically.
func canonicalLink(linkname string) bool {
	named := false
	for _, part := range strings.Split(strings.ReplaceAll(linkname, "\\", "/"), "/") {
		switch part {
		case "", ".":
		case "..":
			if named {
				return false
			}
		default:
			named = true
		}
	}
	return true
}

// resolve maps a lexical target below destDir to its physical location,
// following symlinks already extracted and keeping the result inside
// destDir.
func (e *Extractor) resolve(destDir, target string) (string, error) {
	rel, err := filepath.Rel(destDir, target)
	if err != nil {
		return "", fmt.Errorf("illegal file path: %s", target)
	}
	resolved, err := securejoin.SecureJoinVFS(destDir, rel, aferoVFS{e.fs})
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", target, err)
	}
	if !within(destDir, resolved) {
		return "", fmt.Errorf("illegal file path: %s", target)
	}
	return resolved, nil
}

// aferoVFS lets securejoin inspect links on an afero filesystem.
type aferoVFS struct {
	fs afero.Fs
}

func (v aferoVFS) Lstat(name string) (os.FileInfo, error) {
	if l, ok := v.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return v.fs.Stat(name)
}

func (v aferoVFS) Readlink(name string) (string, error) {
	if r, ok := v.fs.(afero.LinkReader); ok {
		return r.ReadlinkIfPossible(name)
	}
	return "", &os.PathError{Op: "readlink", Path: name, Err: afero.ErrNoReadlink}
}

// entryTarget maps an archive entry name onto destDir. skip is true for
// entries that map to destDir itself, including single-component entries in
// stripped mode.
func entryTarget(destDir, name string, layout Layout) (string, bool, error) {
	clean := strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(clean) || filepath.IsAbs(name) {
		return "", false, fmt.Errorf("illegal file path: %s", name)
	}
	clean = path.Clean(clean)
	if clean == "." {
		return "", true, nil
	}

	if layout == LayoutStripped {
		i := strings.IndexByte(clean, '/')
		if i < 0 {
			return "", true, nil
		}
		clean = clean[i+1:]
	}

	target := filepath.Join(destDir, filepath.FromSlash(clean))
	if !within(destDir, target) {
		return "", false, fmt.Errorf("illegal file path: %s", name)
	}
	return target, false, nil
}

// within reports whether p lies strictly below dir.
func within(dir, p string) bool {
	return strings.HasPrefix(filepath.Clean(p), filepath.Clean(dir)+string(os.PathSeparator))
}

func fileMode(mode int64) os.FileMode {
	m := os.FileMode(mode).Perm()
	if m == 0 {
		return 0644
	}
	return m
}

// CommandExtractor unpacks with external programs: tar for gzip-tar archives
// and PowerShell's Expand-Archive for zip archives on Windows hosts. Archives
// the host tools cannot handle go to Fallback.
type CommandExtractor struct {
	Runner   Runner
	HostOS   string
	Fallback Unpacker
}

// NewCommandExtractor returns an extractor for the running host with an
// in-process fallback.
func NewCommandExtractor() *CommandExtractor {
	return &CommandExtractor{
		Runner:   ExecRunner{Stderr: os.Stderr},
		HostOS:   runtime.GOOS,
		Fallback: NewExtractor(nil),
	}
}

// Unpack runs the external extraction program and checks its exit status.
func (c *CommandExtractor) Unpack(ctx context.Context, archivePath, destDir string, format ArchiveFormat, layout Layout) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	switch format {
	case FormatTarGz:
		args := []string{"xzf", archivePath, "-C", destDir}
		if layout == LayoutStripped {
			args = append(args, "--strip-components=1")
		}
		if err := c.Runner.Run(ctx, "tar", args...); err != nil {
			return fmt.Errorf("extract tar.gz: %w", err)
		}
		return nil

	case FormatZip:
		if c.HostOS == "windows" && layout != LayoutStripped {
			script := fmt.Sprintf("Expand-Archive -Path '%s' -DestinationPath '%s' -Force",
				psQuote(archivePath), psQuote(destDir))
			if err := c.Runner.Run(ctx, "powershell", "-NoProfile", "-Command", script); err != nil {
				return fmt.Errorf("extract zip: %w", err)
			}
			return nil
		}
		if c.Fallback == nil {
			return fmt.Errorf("cannot extract zip on %s host", c.HostOS)
		}
		return c.Fallback.Unpack(ctx, archivePath, destDir, format, layout)

	default:
		return fmt.Errorf("unsupported archive format %q", format)
	}
}

// psQuote escapes a value for a single-quoted PowerShell string.
func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
