package platform

import (
	"testing"
)

func TestResolve_SupportedTargets(t *testing.T) {
	tests := []struct {
		os      string
		arch    string
		triple  string
		wantExt string
	}{
		{"darwin", "arm64", "aarch64-apple-darwin", "tar.gz"},
		{"darwin", "amd64", "x86_64-apple-darwin", "tar.gz"},
		{"windows", "amd64", "x86_64-pc-windows-msvc", "zip"},
		{"linux", "amd64", "x86_64-unknown-linux-gnu", "tar.gz"},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.os+"_"+tt.arch, func(t *testing.T) {
			target, ok := Resolve(tt.os, tt.arch)
			if !ok {
				t.Fatalf("Resolve(%q, %q) reported unsupported", tt.os, tt.arch)
			}
			if target.Triple == "" {
				t.Fatal("empty triple")
			}
			if target.Triple != tt.triple {
				t.Errorf("Triple = %q, want %q", target.Triple, tt.triple)
			}
			if got := target.ArchiveExt(); got != tt.wantExt {
				t.Errorf("ArchiveExt() = %q, want %q", got, tt.wantExt)
			}
			if seen[target.Triple] {
				t.Errorf("triple %q returned for more than one target", target.Triple)
			}
			seen[target.Triple] = true
		})
	}
}

func TestResolve_Aliases(t *testing.T) {
	target, ok := Resolve("Linux", "x86_64")
	if !ok {
		t.Fatal("expected x86_64 alias to resolve")
	}
	if target.Arch != ArchAMD64 {
		t.Errorf("Arch = %q, want amd64", target.Arch)
	}

	target, ok = Resolve("macos", "aarch64")
	if !ok || target.Triple != "aarch64-apple-darwin" {
		t.Errorf("Resolve(macos, aarch64) = %+v, %v", target, ok)
	}
}

func TestResolve_Unsupported(t *testing.T) {
	tests := []struct {
		os   string
		arch string
	}{
		{"linux", "arm64"},
		{"windows", "arm64"},
		{"linux", "386"},
		{"freebsd", "amd64"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.os+"_"+tt.arch, func(t *testing.T) {
			target, ok := Resolve(tt.os, tt.arch)
			if ok {
				t.Errorf("Resolve(%q, %q) = %+v, want unsupported", tt.os, tt.arch, target)
			}
		})
	}
}

func TestTarget_ExeName(t *testing.T) {
	if got := MustResolve("windows", "amd64").ExeName("uv"); got != "uv.exe" {
		t.Errorf("windows ExeName = %q", got)
	}
	if got := MustResolve("linux", "amd64").ExeName("uv"); got != "uv" {
		t.Errorf("linux ExeName = %q", got)
	}
}

func TestSupportedTargets(t *testing.T) {
	targets := SupportedTargets()
	if len(targets) != 4 {
		t.Fatalf("len(SupportedTargets()) = %d, want 4", len(targets))
	}
	for _, target := range targets {
		got, ok := Resolve(target.OS, target.Arch)
		if !ok || got != target {
			t.Errorf("Resolve(%s) = %+v, %v; want %+v", target.Key(), got, ok, target)
		}
	}
}

func TestMustResolve_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unsupported target")
		}
	}()
	MustResolve("plan9", "amd64")
}
