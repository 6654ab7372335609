// Package runtimes defines the toolchain families the application provisions:
// a standalone CPython build paired with the uv package manager, and Node.js
// with npm.
package runtimes

import (
	"github.com/nexo-app/runtimes/internal/binary"
	"github.com/nexo-app/runtimes/internal/config"
	"github.com/nexo-app/runtimes/internal/platform"
)

// Toolchain names.
const (
	PythonTool = "python"
	NodeTool   = "node"
)

// Install directories below the data directory.
const (
	PythonDir = "python-runtimes"
	NodeDir   = "node-runtimes"
)

// NodeNaming is the platform naming used by nodejs.org release archives.
func NodeNaming() binary.PlatformNaming {
	return binary.PlatformNaming{
		{OS: platform.OSDarwin, Arch: platform.ArchARM64}:  "darwin-arm64",
		{OS: platform.OSDarwin, Arch: platform.ArchAMD64}:  "darwin-x64",
		{OS: platform.OSWindows, Arch: platform.ArchAMD64}: "win-x64",
		{OS: platform.OSLinux, Arch: platform.ArchAMD64}:   "linux-x64",
	}
}

// PythonDescriptor describes a python-build-standalone install_only archive.
// The archive unpacks to a "python" folder.
func PythonDescriptor(t config.Templates, version string) binary.Descriptor {
	return binary.Descriptor{
		Name:    PythonTool,
		Version: version,
		URL: binary.TemplateGenerator(t.Python, binary.TripleNaming(), binary.TemplateOptions{
			ReleaseDate: t.PythonReleaseDate,
			BinaryName:  "python3",
		}),
		Layout: binary.LayoutFlat,
		Binaries: []binary.BinarySpec{{
			Name: PythonTool,
			Role: binary.RolePrimary,
			Find: binary.KnownLayout{Dir: "python", Posix: "bin/python3", Windows: "python.exe"},
		}},
	}
}

// UVDescriptor describes the uv release pinned in t. The gzip-tar archives
// wrap uv in a per-target folder that is stripped; the Windows zip is flat.
func UVDescriptor(t config.Templates) binary.Descriptor {
	return binary.Descriptor{
		Name:    "uv",
		Version: t.UVVersion,
		URL: binary.TemplateGenerator(t.UV, binary.TripleNaming(), binary.TemplateOptions{
			BinaryName: "uv",
			LayoutFor: map[binary.ArchiveFormat]binary.Layout{
				binary.FormatTarGz: binary.LayoutStripped,
				binary.FormatZip:   binary.LayoutFlat,
			},
		}),
		Layout: binary.LayoutStripped,
		Binaries: []binary.BinarySpec{{
			Name: "uv",
			Role: binary.RoleCompanion,
			Find: binary.Search{Name: "uv"},
		}},
	}
}

// NodeDescriptor describes a nodejs.org release archive. The archive unpacks
// to a single node-v<version>-<platform> folder.
func NodeDescriptor(t config.Templates, version string) binary.Descriptor {
	return binary.Descriptor{
		Name:    NodeTool,
		Version: version,
		URL: binary.TemplateGenerator(t.Node, NodeNaming(), binary.TemplateOptions{
			BinaryName: "node",
		}),
		Layout: binary.LayoutFlat,
		Binaries: []binary.BinarySpec{
			{
				Name: NodeTool,
				Role: binary.RolePrimary,
				Find: binary.KnownLayout{Posix: "bin/node", Windows: "node.exe"},
			},
			{
				Name: "npm",
				Role: binary.RoleCompanion,
				Find: binary.KnownLayout{Posix: "bin/npm", Windows: "npm.cmd"},
			},
		},
	}
}

// PythonToolchain installs an interpreter and uv into
// python-runtimes/<version>.
func PythonToolchain(t config.Templates) binary.Toolchain {
	return binary.Toolchain{
		Name: PythonTool,
		Dir:  PythonDir,
		Build: func(version string) ([]binary.Descriptor, error) {
			return []binary.Descriptor{PythonDescriptor(t, version), UVDescriptor(t)}, nil
		},
	}
}

// NodeToolchain installs Node.js into node-runtimes/<version>.
func NodeToolchain(t config.Templates) binary.Toolchain {
	return binary.Toolchain{
		Name: NodeTool,
		Dir:  NodeDir,
		Build: func(version string) ([]binary.Descriptor, error) {
			return []binary.Descriptor{NodeDescriptor(t, version)}, nil
		},
	}
}

// Default returns every toolchain family.
func Default(t config.Templates) []binary.Toolchain {
	return []binary.Toolchain{PythonToolchain(t), NodeToolchain(t)}
}
