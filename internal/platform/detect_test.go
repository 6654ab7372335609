package platform

import (
	"context"
	"runtime"
	"testing"
)

// MockDetector is a test implementation of Detector.
type MockDetector struct {
	info *Info
	err  error
}

// NewMockDetector creates a mock detector with specified return values.
func NewMockDetector(info *Info, err error) Detector {
	return &MockDetector{info: info, err: err}
}

// Detect returns the pre-configured info and error.
func (m *MockDetector) Detect(ctx context.Context) (*Info, error) {
	return m.info, m.err
}

func TestRealDetector_Detect(t *testing.T) {
	detector := NewDetector()

	info, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}
	if info.ArchRaw != runtime.GOARCH {
		t.Errorf("ArchRaw = %v, want %v", info.ArchRaw, runtime.GOARCH)
	}
	if info.Arch == "" {
		t.Error("Arch should not be empty")
	}

	if runtime.GOOS == "linux" && info.Platform != "" && info.Family == "" {
		t.Error("Family should be set when Platform is set")
	}
	if runtime.GOOS != "linux" && info.GetDistro() != nil {
		t.Errorf("GetDistro() should be nil on %s", runtime.GOOS)
	}
}

func TestRealDetector_UnknownArchIsNotAnError(t *testing.T) {
	detector := &RealDetector{goos: "linux", goarch: "riscv64"}

	info, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if info.Arch != "riscv64" {
		t.Errorf("Arch = %q, want riscv64", info.Arch)
	}
	if _, ok := info.Target(); ok {
		t.Error("riscv64 should not resolve to a supported target")
	}
}

func TestStaticDetector(t *testing.T) {
	detector := StaticDetector{Info: Info{OS: "darwin", Arch: "aarch64"}}

	info, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if info.Arch != ArchARM64 || info.ArchRaw != "aarch64" {
		t.Errorf("info = %+v, want normalized arm64 with raw aarch64", info)
	}

	target, ok := info.Target()
	if !ok {
		t.Fatal("darwin/arm64 should be supported")
	}
	if target.Triple != "aarch64-apple-darwin" {
		t.Errorf("Triple = %q", target.Triple)
	}
}

func TestInfo_GetDistro(t *testing.T) {
	tests := []struct {
		name string
		info *Info
		want *Distro
	}{
		{
			name: "Linux with distro info",
			info: &Info{OS: "linux", Arch: "amd64", Platform: "ubuntu", Family: "debian", Version: "22.04"},
			want: &Distro{ID: "ubuntu", Family: "debian", Version: "22.04"},
		},
		{
			name: "Linux without distro info",
			info: &Info{OS: "linux", Arch: "amd64"},
			want: nil,
		},
		{
			name: "macOS",
			info: &Info{OS: "darwin", Arch: "arm64"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.GetDistro()
			if got == nil && tt.want == nil {
				return
			}
			if got == nil || tt.want == nil {
				t.Errorf("GetDistro() = %v, want %v", got, tt.want)
				return
			}
			if *got != *tt.want {
				t.Errorf("GetDistro() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfo_BooleanMethods(t *testing.T) {
	tests := []struct {
		name                                string
		info                                *Info
		linux, macos, windows, appleSilicon bool
	}{
		{"linux amd64", &Info{OS: "linux", Arch: "amd64"}, true, false, false, false},
		{"darwin arm64", &Info{OS: "darwin", Arch: "arm64"}, false, true, false, true},
		{"darwin amd64", &Info{OS: "darwin", Arch: "amd64"}, false, true, false, false},
		{"windows amd64", &Info{OS: "windows", Arch: "amd64"}, false, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.IsLinux(); got != tt.linux {
				t.Errorf("IsLinux() = %v", got)
			}
			if got := tt.info.IsMacOS(); got != tt.macos {
				t.Errorf("IsMacOS() = %v", got)
			}
			if got := tt.info.IsWindows(); got != tt.windows {
				t.Errorf("IsWindows() = %v", got)
			}
			if got := tt.info.IsAppleSilicon(); got != tt.appleSilicon {
				t.Errorf("IsAppleSilicon() = %v", got)
			}
		})
	}
}

func TestMockDetector(t *testing.T) {
	expected := &Info{OS: "linux", Arch: "amd64", Platform: "ubuntu", Family: "debian", Version: "22.04"}

	info, err := NewMockDetector(expected, nil).Detect(context.Background())
	if err != nil {
		t.Fatalf("MockDetector.Detect() error = %v", err)
	}
	if info != expected {
		t.Errorf("MockDetector.Detect() = %+v, want %+v", info, expected)
	}
}
