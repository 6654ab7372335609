package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// Entry is one member of a synthetic release archive. Names ending in "/"
// are directories.
type Entry struct {
	Name    string
	Content string
	Mode    int64
}

// TarGz builds a gzip-tar archive holding entries in order.
func TarGz(t *testing.T, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, e := range entries {
		header := &tar.Header{Name: e.Name, Mode: e.Mode, Typeflag: tar.TypeReg, Size: int64(len(e.Content))}
		if strings.HasSuffix(e.Name, "/") {
			header.Typeflag = tar.TypeDir
			header.Size = 0
		}
		if header.Mode == 0 {
			header.Mode = 0644
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", e.Name, err)
		}
		if header.Typeflag == tar.TypeReg {
			if _, err := tarWriter.Write([]byte(e.Content)); err != nil {
				t.Fatalf("failed to write content for %s: %v", e.Name, err)
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

// Zip builds a zip archive holding entries in order.
func Zip(t *testing.T, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zipWriter.Create(e.Name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", e.Name, err)
		}
		if !strings.HasSuffix(e.Name, "/") {
			if _, err := w.Write([]byte(e.Content)); err != nil {
				t.Fatalf("failed to write zip entry %s: %v", e.Name, err)
			}
		}
	}
	if err := zipWriter.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

// ReleaseServer serves release assets by URL path and counts requests.
// Unknown paths get 404.
type ReleaseServer struct {
	*httptest.Server

	mu       sync.Mutex
	assets   map[string][]byte
	requests int32
	paths    []string
}

// NewReleaseServer starts a server that is closed when the test ends.
func NewReleaseServer(t *testing.T) *ReleaseServer {
	t.Helper()
	rs := &ReleaseServer{assets: make(map[string][]byte)}
	rs.Server = httptest.NewServer(http.HandlerFunc(rs.serve))
	t.Cleanup(rs.Close)
	return rs
}

// Add registers body under path.
func (rs *ReleaseServer) Add(path string, body []byte) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.assets[path] = body
}

// Requests returns the number of requests served so far.
func (rs *ReleaseServer) Requests() int {
	return int(atomic.LoadInt32(&rs.requests))
}

// Paths returns the requested paths in order.
func (rs *ReleaseServer) Paths() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.paths...)
}

func (rs *ReleaseServer) serve(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&rs.requests, 1)

	rs.mu.Lock()
	rs.paths = append(rs.paths, r.URL.Path)
	body, ok := rs.assets[r.URL.Path]
	rs.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(body)
}
