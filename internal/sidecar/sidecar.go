// Package sidecar bundles helper executables into an application project at
// packaging time. Each tool's binary for the build host lands in
// <project>/binaries, where the application bundler picks it up.
package sidecar

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/nexo-app/runtimes/internal/binary"
	"github.com/nexo-app/runtimes/internal/config"
	"github.com/nexo-app/runtimes/internal/platform"
	"github.com/nexo-app/runtimes/internal/runtimes"
)

// BinariesDir is the project subdirectory sidecars are written to.
const BinariesDir = "binaries"

// Result is the outcome of bundling one tool.
type Result struct {
	Tool     string
	Version  string
	Path     string
	Status   binary.Status
	Reason   string
	Err      error
	Duration time.Duration
}

// Bundler downloads and places sidecar binaries for one target.
type Bundler struct {
	// ProjectDir receives <ProjectDir>/binaries/<name>.
	ProjectDir string
	// WorkDir holds temporary archives and scratch directories. A fresh
	// temporary directory is used when empty.
	WorkDir  string
	Target   platform.Target
	Fetcher  binary.Fetcher
	Unpacker binary.Unpacker
	Fs       afero.Fs
	Logger   config.Logger
}

// NewBundler returns a bundler that shells out to curl and tar like a build
// script would.
func NewBundler(projectDir string, target platform.Target, logger config.Logger) *Bundler {
	return &Bundler{
		ProjectDir: projectDir,
		Target:     target,
		Fetcher:    binary.NewCommandFetcher(),
		Unpacker:   binary.NewCommandExtractor(),
		Fs:         afero.NewOsFs(),
		Logger:     logger,
	}
}

// DefaultSidecars returns the tools bundled with the application.
func DefaultSidecars(t config.Templates) []binary.Descriptor {
	return []binary.Descriptor{runtimes.UVDescriptor(t)}
}

// Bundle processes descs in order. A failing tool is recorded in its Result
// and does not stop the remaining tools.
func (b *Bundler) Bundle(ctx context.Context, descs []binary.Descriptor) []Result {
	b.defaults()

	workDir := b.WorkDir
	if workDir == "" {
		dir, err := afero.TempDir(b.Fs, "", "nexo-sidecars-")
		if err != nil {
			results := make([]Result, 0, len(descs))
			for _, d := range descs {
				results = append(results, Result{
					Tool: d.Name, Version: d.Version, Status: binary.StatusFailed,
					Err: fmt.Errorf("create work dir: %w", err),
				})
			}
			return results
		}
		defer b.Fs.RemoveAll(dir)
		workDir = dir
	}

	results := make([]Result, 0, len(descs))
	for _, d := range descs {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Tool: d.Name, Version: d.Version, Status: binary.StatusFailed, Err: err})
			continue
		}

		start := time.Now()
		res := b.bundle(ctx, workDir, d)
		res.Duration = time.Since(start)

		switch res.Status {
		case binary.StatusFailed:
			b.Logger.Error("failed to bundle sidecar", "tool", d.Name, "target", b.Target.Triple, "error", res.Err)
		case binary.StatusSkipped:
			b.Logger.Warn("sidecar not available for target", "tool", d.Name, "target", b.Target.Triple)
		case binary.StatusAlreadyInstalled:
			b.Logger.Info("sidecar already exists", "tool", d.Name, "path", res.Path)
		default:
			b.Logger.Info("sidecar bundled", "tool", d.Name, "version", d.Version, "path", res.Path)
		}
		results = append(results, res)
	}
	return results
}

func (b *Bundler) bundle(ctx context.Context, workDir string, d binary.Descriptor) Result {
	res := Result{Tool: d.Name, Version: d.Version}
	fail := func(err error) Result {
		res.Status = binary.StatusFailed
		res.Err = err
		return res
	}

	if b.Target.Triple == "" {
		res.Status = binary.StatusSkipped
		res.Reason = "unsupported host platform"
		return res
	}

	a, ok, err := d.Resolve(b.Target)
	if err != nil {
		return fail(&binary.Error{Tool: d.Name, Version: d.Version, Stage: binary.StageResolve, Err: err})
	}
	if !ok {
		res.Status = binary.StatusSkipped
		res.Reason = fmt.Sprintf("%s publishes no artifact for %s", d.Name, b.Target.Triple)
		return res
	}

	name := a.BinaryName
	if name == "" {
		name = b.Target.ExeName(d.Name)
	}
	res.Path = filepath.Join(b.ProjectDir, BinariesDir, name)

	if exists, _ := afero.Exists(b.Fs, res.Path); exists {
		res.Status = binary.StatusAlreadyInstalled
		return res
	}

	archivePath := filepath.Join(workDir, fmt.Sprintf("%s-%s.tmp", d.Name, b.Target.Triple))
	scratch := filepath.Join(workDir, fmt.Sprintf("%s-extract-%s", d.Name, b.Target.Triple))
	defer b.Fs.Remove(archivePath)
	defer b.Fs.RemoveAll(scratch)

	b.Logger.Info("downloading sidecar", "tool", d.Name, "version", d.Version, "target", b.Target.Triple, "url", a.URL)
	if err := b.Fetcher.Fetch(ctx, a.URL, archivePath); err != nil {
		return fail(&binary.Error{Tool: d.Name, Version: d.Version, Stage: binary.StageFetch, Ref: a.URL, Err: err})
	}

	if err := b.Fs.MkdirAll(scratch, 0755); err != nil {
		return fail(&binary.Error{Tool: d.Name, Version: d.Version, Stage: binary.StageExtract, Ref: scratch, Err: err})
	}
	// The whole archive is unpacked as stored; the binary is found by name.
	if err := b.Unpacker.Unpack(ctx, archivePath, scratch, a.Format, binary.LayoutFlat); err != nil {
		return fail(&binary.Error{Tool: d.Name, Version: d.Version, Stage: binary.StageExtract, Ref: archivePath, Err: err})
	}

	source, err := binary.Search{Name: name}.Find(b.Fs, scratch, b.Target)
	if err != nil {
		return fail(&binary.Error{Tool: d.Name, Version: d.Version, Stage: binary.StageLocate, Ref: scratch, Err: err})
	}

	if err := binary.CopyFile(b.Fs, source, res.Path, 0644); err != nil {
		return fail(&binary.Error{Tool: d.Name, Version: d.Version, Stage: binary.StageInstall, Ref: res.Path, Err: err})
	}

	if err := binary.MakeExecutable(b.Fs, b.Target, res.Path); err != nil {
		b.Logger.Warn("failed to set executable permissions", "path", res.Path, "error", err)
	}

	res.Status = binary.StatusInstalled
	return res
}

func (b *Bundler) defaults() {
	if b.Fs == nil {
		b.Fs = afero.NewOsFs()
	}
	if b.Fetcher == nil {
		b.Fetcher = binary.NewHTTPFetcher(b.Fs, 0)
	}
	if b.Unpacker == nil {
		b.Unpacker = binary.NewExtractor(b.Fs)
	}
	if b.Logger == nil {
		b.Logger = config.DefaultLogger()
	}
}
