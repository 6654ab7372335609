package binary

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

// testEntry is one member of a synthetic archive.
type testEntry struct {
	name    string
	content string
	dir     bool
	link    string
	mode    int64
}

// buildTarGz returns a gzip-tar archive of entries in order.
func buildTarGz(t *testing.T, entries []testEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, e := range entries {
		header := &tar.Header{Name: e.name, Mode: e.mode}
		switch {
		case e.dir:
			header.Typeflag = tar.TypeDir
			if header.Mode == 0 {
				header.Mode = 0755
			}
		case e.link != "":
			header.Typeflag = tar.TypeSymlink
			header.Linkname = e.link
		default:
			header.Typeflag = tar.TypeReg
			header.Size = int64(len(e.content))
			if header.Mode == 0 {
				header.Mode = 0644
			}
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", e.name, err)
		}
		if header.Typeflag == tar.TypeReg {
			if _, err := tarWriter.Write([]byte(e.content)); err != nil {
				t.Fatalf("failed to write content for %s: %v", e.name, err)
			}
		}
	}

	if err := tarWriter.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gzipWriter.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// buildZip returns a zip archive of entries in order. Symlinks are ignored.
func buildZip(t *testing.T, entries []testEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for _, e := range entries {
		if e.link != "" {
			continue
		}
		name := e.name
		if e.dir && name[len(name)-1] != '/' {
			name += "/"
		}
		w, err := zipWriter.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if !e.dir {
			if _, err := w.Write([]byte(e.content)); err != nil {
				t.Fatalf("failed to write zip entry %s: %v", name, err)
			}
		}
	}
	if err := zipWriter.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

// writeArchive writes data into a fresh temp dir and returns its path.
func writeArchive(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
	return path
}

// toolArchive is the canonical release layout used across tests.
var toolArchive = []testEntry{
	{name: "toolname-1.0.0/", dir: true},
	{name: "toolname-1.0.0/bin/", dir: true},
	{name: "toolname-1.0.0/bin/toolname", content: "#!/bin/sh\necho tool\n", mode: 0755},
}
