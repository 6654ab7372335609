package binary

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/nexo-app/runtimes/internal/platform"
)

var (
	linuxTarget   = platform.MustResolve("linux", "amd64")
	darwinTarget  = platform.MustResolve("darwin", "arm64")
	windowsTarget = platform.MustResolve("windows", "amd64")
)

func writeFiles(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := afero.WriteFile(fs, filepath.FromSlash(p), []byte("bin"), 0644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func TestKnownLayout(t *testing.T) {
	root := filepath.FromSlash("/data/node-runtimes/22.21.1")

	tests := []struct {
		name    string
		files   []string
		layout  KnownLayout
		target  platform.Target
		want    string
		wantErr bool
	}{
		{
			name:   "fixed dir posix",
			files:  []string{"/data/node-runtimes/22.21.1/python/bin/python3"},
			layout: KnownLayout{Dir: "python", Posix: "bin/python3", Windows: "python.exe"},
			target: linuxTarget,
			want:   "/data/node-runtimes/22.21.1/python/bin/python3",
		},
		{
			name:   "fixed dir windows",
			files:  []string{"/data/node-runtimes/22.21.1/python/python.exe"},
			layout: KnownLayout{Dir: "python", Posix: "bin/python3", Windows: "python.exe"},
			target: windowsTarget,
			want:   "/data/node-runtimes/22.21.1/python/python.exe",
		},
		{
			name: "first directory entry",
			files: []string{
				"/data/node-runtimes/22.21.1/node-v22.21.1-darwin-arm64/bin/node",
				"/data/node-runtimes/22.21.1/zz-other/bin/node",
			},
			layout: KnownLayout{Posix: "bin/node", Windows: "node.exe"},
			target: darwinTarget,
			want:   "/data/node-runtimes/22.21.1/node-v22.21.1-darwin-arm64/bin/node",
		},
		{
			name: "hidden entries ignored",
			files: []string{
				"/data/node-runtimes/22.21.1/.partial/bin/node",
				"/data/node-runtimes/22.21.1/node-v22.21.1-linux-x64/bin/node",
			},
			layout: KnownLayout{Posix: "bin/node", Windows: "node.exe"},
			target: linuxTarget,
			want:   "/data/node-runtimes/22.21.1/node-v22.21.1-linux-x64/bin/node",
		},
		{
			name:    "missing file is not searched for",
			files:   []string{"/data/node-runtimes/22.21.1/python/deep/bin/python3"},
			layout:  KnownLayout{Dir: "python", Posix: "bin/python3", Windows: "python.exe"},
			target:  linuxTarget,
			wantErr: true,
		},
		{
			name:    "no directory",
			files:   []string{"/data/node-runtimes/22.21.1/README"},
			layout:  KnownLayout{Posix: "bin/node", Windows: "node.exe"},
			target:  linuxTarget,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFiles(t, fs, tt.files...)

			got, err := tt.layout.Find(fs, root, tt.target)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("Find() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestKnownLayout_MissingRoot(t *testing.T) {
	_, err := KnownLayout{Posix: "bin/node"}.Find(afero.NewMemMapFs(), "/nope", linuxTarget)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		search  Search
		target  platform.Target
		want    string
		wantErr bool
	}{
		{
			name:   "root level",
			files:  []string{"/r/uv", "/r/uvx"},
			search: Search{Name: "uv"},
			target: linuxTarget,
			want:   "/r/uv",
		},
		{
			name:   "nested",
			files:  []string{"/r/uv-aarch64-apple-darwin/uv"},
			search: Search{Name: "uv"},
			target: darwinTarget,
			want:   "/r/uv-aarch64-apple-darwin/uv",
		},
		{
			name:   "files before subdirectories",
			files:  []string{"/r/a/uv", "/r/uv"},
			search: Search{Name: "uv"},
			target: linuxTarget,
			want:   "/r/uv",
		},
		{
			name:   "exe suffix on windows",
			files:  []string{"/r/uv", "/r/bin/uv.exe"},
			search: Search{Name: "uv"},
			target: windowsTarget,
			want:   "/r/bin/uv.exe",
		},
		{
			name:   "suffix already present",
			files:  []string{"/r/uv.exe"},
			search: Search{Name: "uv.exe"},
			target: windowsTarget,
			want:   "/r/uv.exe",
		},
		{
			name:    "exact name only",
			files:   []string{"/r/uvx", "/r/uv-helper"},
			search:  Search{Name: "uv"},
			target:  linuxTarget,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFiles(t, fs, tt.files...)

			got, err := tt.search.Find(fs, filepath.FromSlash("/r"), tt.target)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("Find() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFinders_ConcurrentUse(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, "/r/node-v1/bin/node", "/r/tools/uv")
	root := filepath.FromSlash("/r")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := KnownLayout{Posix: "bin/node"}.Find(fs, root, linuxTarget)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := Search{Name: "uv"}.Find(fs, root, linuxTarget)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Find() error = %v", err)
		}
	}
}

func TestMakeExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions are not available on windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fs := afero.NewOsFs()

	if err := MakeExecutable(fs, windowsTarget, path); err != nil {
		t.Fatalf("MakeExecutable(windows) error = %v", err)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0644 {
		t.Errorf("windows target should not change mode, got %v", info.Mode().Perm())
	}

	if err := MakeExecutable(fs, linuxTarget, path); err != nil {
		t.Fatalf("MakeExecutable(linux) error = %v", err)
	}
	info, _ = os.Stat(path)
	if info.Mode().Perm() != ExecutableMode {
		t.Errorf("mode = %v, want %v", info.Mode().Perm(), ExecutableMode)
	}

	if err := MakeExecutable(fs, linuxTarget, filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
