package binary

import (
	"path"
	"strings"
	"time"

	"github.com/nexo-app/runtimes/internal/platform"
)

// Layout describes how archive entries map onto the destination directory.
type Layout int

const (
	// LayoutDefault defers to the descriptor's layout.
	LayoutDefault Layout = iota
	// LayoutFlat keeps every stored path component.
	LayoutFlat
	// LayoutStripped drops the first path component of every entry,
	// typically a versioned top-level folder such as "tool-1.2.3/".
	LayoutStripped
)

func (l Layout) String() string {
	switch l {
	case LayoutFlat:
		return "flat"
	case LayoutStripped:
		return "stripped"
	default:
		return "default"
	}
}

// ArchiveFormat is the container format of a release archive.
type ArchiveFormat string

const (
	FormatTarGz ArchiveFormat = "tar.gz"
	FormatZip   ArchiveFormat = "zip"
)

// FormatFromURL picks the archive format from the URL's file extension.
// Content is never inspected. The boolean is false for unknown extensions.
func FormatFromURL(rawURL string) (ArchiveFormat, bool) {
	name := strings.ToLower(path.Base(strings.SplitN(rawURL, "?", 2)[0]))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz, true
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, true
	default:
		return "", false
	}
}

// Artifact is a resolved release artifact for one target.
type Artifact struct {
	URL string
	// BinaryName is the file name of the primary executable inside the
	// archive, e.g. "uv" or "uv.exe".
	BinaryName string
	// Format is derived from URL when empty.
	Format ArchiveFormat
	// Layout overrides the descriptor's layout when not LayoutDefault.
	Layout Layout
}

// URLGenerator maps a version and target to a release artifact.
// It returns false when the tool publishes nothing for the target.
type URLGenerator func(version string, t platform.Target) (Artifact, bool)

// Role distinguishes a toolchain's main executable from its companions.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleCompanion Role = "companion"
)

// BinarySpec declares one executable an installed descriptor provides.
type BinarySpec struct {
	// Name is the logical name, e.g. "python", "uv", "npm".
	Name string
	Role Role
	Find Finder
}

// Descriptor defines one provisionable release artifact. Descriptors are
// built once from static configuration and never mutated.
type Descriptor struct {
	Name     string
	Version  string
	URL      URLGenerator
	Layout   Layout
	Binaries []BinarySpec
}

// Resolve produces the artifact for t. The boolean is false when the
// descriptor has no artifact for t.
func (d Descriptor) Resolve(t platform.Target) (Artifact, bool, error) {
	if d.URL == nil {
		return Artifact{}, false, nil
	}
	if err := ValidateVersion(d.Version); err != nil {
		return Artifact{}, false, err
	}
	a, ok := d.URL(d.Version, t)
	if !ok {
		return Artifact{}, false, nil
	}
	if a.Format == "" {
		f, known := FormatFromURL(a.URL)
		if !known {
			f = FormatTarGz
			if t.IsWindows() {
				f = FormatZip
			}
		}
		a.Format = f
	}
	if a.Layout == LayoutDefault {
		a.Layout = d.Layout
	}
	if a.Layout == LayoutDefault {
		a.Layout = LayoutFlat
	}
	return a, true, nil
}

// Toolchain is a family of descriptors installed together under one
// version-scoped root, <DataDir>/<Dir>/<version>. Build returns the
// descriptors for a requested version; companions pinned independently of
// the requested version (e.g. a package manager) carry their own Version.
type Toolchain struct {
	Name  string
	Dir   string
	Build func(version string) ([]Descriptor, error)
}

// Status is the outcome of an install attempt.
type Status string

const (
	StatusInstalled        Status = "installed"
	StatusAlreadyInstalled Status = "already_installed"
	StatusSkipped          Status = "skipped"
	StatusFailed           Status = "failed"
)

// Result describes a completed Install call.
type Result struct {
	Tool     string
	Version  string
	Status   Status
	Root     string
	Duration time.Duration
	// Reason explains a skip, e.g. the unsupported target.
	Reason string
}

// Installation is the set of resolved executables of an installed toolchain.
type Installation struct {
	Tool       string
	Version    string
	Root       string
	Primary    string
	Companions map[string]string
}

// Companion returns the path of the named companion executable.
func (i *Installation) Companion(name string) (string, bool) {
	p, ok := i.Companions[name]
	return p, ok
}
