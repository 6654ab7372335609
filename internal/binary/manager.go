package binary

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/im7mortal/kmutex"
	"github.com/juju/clock"
	"github.com/spf13/afero"

	"github.com/nexo-app/runtimes/internal/config"
	"github.com/nexo-app/runtimes/internal/platform"
)

// stagingPrefix names the temporary directories installs are built in.
const stagingPrefix = ".staging-"

// Manager orchestrates download, extraction and installation of toolchains
type Manager struct {
	dataDir    string
	target     platform.Target
	toolchains map[string]Toolchain
	fetcher    Fetcher
	unpacker   Unpacker
	fs         afero.Fs
	logger     config.Logger
	clock      clock.Clock
	keys       *kmutex.Kmutex
}

// Config holds configuration for the manager
type Config struct {
	// DataDir is the application data directory; toolchains install into
	// <DataDir>/<Toolchain.Dir>/<version>.
	DataDir string
	// Target is the platform to install for. A zero Target means the host
	// is unsupported and every install is skipped.
	Target     platform.Target
	Toolchains []Toolchain
	// Fetcher defaults to an HTTPFetcher without timeout.
	Fetcher Fetcher
	// Unpacker defaults to the in-process Extractor.
	Unpacker Unpacker
	// Fs defaults to the OS filesystem.
	Fs     afero.Fs
	Logger config.Logger
	// Clock drives lock polling and staleness. Defaults to the wall clock.
	Clock clock.Clock
}

// NewManager creates a new manager
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DataDir is required")
	}

	toolchains := make(map[string]Toolchain, len(cfg.Toolchains))
	for _, tc := range cfg.Toolchains {
		if tc.Name == "" || tc.Dir == "" || tc.Build == nil {
			return nil, fmt.Errorf("toolchain %q: name, dir and build are required", tc.Name)
		}
		if _, dup := toolchains[tc.Name]; dup {
			return nil, fmt.Errorf("toolchain %q registered twice", tc.Name)
		}
		toolchains[tc.Name] = tc
	}

	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	m := &Manager{
		dataDir:    cfg.DataDir,
		target:     cfg.Target,
		toolchains: toolchains,
		fetcher:    cfg.Fetcher,
		unpacker:   cfg.Unpacker,
		fs:         fs,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
		keys:       kmutex.New(),
	}
	if m.fetcher == nil {
		m.fetcher = NewHTTPFetcher(fs, 0)
	}
	if m.unpacker == nil {
		m.unpacker = NewExtractor(fs)
	}
	if m.logger == nil {
		m.logger = config.DefaultLogger()
	}
	if m.clock == nil {
		m.clock = clock.WallClock
	}
	return m, nil
}

// Target returns the platform the manager installs for.
func (m *Manager) Target() platform.Target {
	return m.target
}

// Tools returns the registered toolchain names in sorted order.
func (m *Manager) Tools() []string {
	names := make([]string, 0, len(m.toolchains))
	for name := range m.toolchains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Root returns the install directory of a toolchain version.
func (m *Manager) Root(name, version string) (string, error) {
	tc, ok := m.toolchains[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if err := ValidateVersion(version); err != nil {
		return "", err
	}
	return filepath.Join(m.dataDir, tc.Dir, version), nil
}

// IsInstalled reports whether every binary of the toolchain version resolves
// on disk. Only I/O failures other than absence are returned as errors.
func (m *Manager) IsInstalled(name, version string) (bool, error) {
	_, err := m.Detect(name, version)
	if err == nil {
		return true, nil
	}
	if IsNotInstalled(err) {
		return false, nil
	}
	return false, err
}

// Detect resolves the executables of an installed toolchain version.
// It returns an error matching ErrNotInstalled when any is missing.
func (m *Manager) Detect(name, version string) (*Installation, error) {
	root, err := m.Root(name, version)
	if err != nil {
		return nil, err
	}
	descs, err := m.toolchains[name].Build(version)
	if err != nil {
		return nil, fmt.Errorf("build %s descriptors: %w", name, err)
	}
	if !dirExists(m.fs, root) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotInstalled, name, version)
	}

	inst, err := m.locate(root, descs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNotInstalled, name, version, err)
	}
	inst.Tool = name
	inst.Version = version
	return inst, nil
}

// locate runs every descriptor's finders against root.
func (m *Manager) locate(root string, descs []Descriptor) (*Installation, error) {
	inst := &Installation{Root: root, Companions: make(map[string]string)}
	for _, d := range descs {
		for _, b := range d.Binaries {
			p, err := b.Find.Find(m.fs, root, m.target)
			if err != nil {
				return nil, stageError(d, StageLocate, root, err)
			}
			if b.Role == RolePrimary && inst.Primary == "" {
				inst.Primary = p
			} else {
				inst.Companions[b.Name] = p
			}
		}
	}
	if inst.Primary == "" {
		return nil, fmt.Errorf("%w: no primary binary declared", ErrNotFound)
	}
	return inst, nil
}

// Install provisions a toolchain version. Installing a version that is
// already complete performs no network activity and reports
// StatusAlreadyInstalled. A target the toolchain publishes nothing for is
// reported as StatusSkipped with a nil error.
func (m *Manager) Install(ctx context.Context, name, version string) (Result, error) {
	start := m.clock.Now()
	result := Result{Tool: name, Version: version}

	root, err := m.Root(name, version)
	if err != nil {
		result.Status = StatusFailed
		return result, err
	}
	result.Root = root

	descs, err := m.toolchains[name].Build(version)
	if err != nil {
		result.Status = StatusFailed
		return result, &Error{Tool: name, Version: version, Stage: StageResolve, Err: err}
	}

	artifacts, reason, err := m.resolve(descs)
	if err != nil {
		result.Status = StatusFailed
		return result, err
	}
	if reason != "" {
		m.logger.Warn("skipping install: platform not supported",
			"tool", name, "version", version, "reason", reason)
		result.Status = StatusSkipped
		result.Reason = reason
		return result, nil
	}

	m.keys.Lock(root)
	defer m.keys.Unlock(root)

	lock, err := acquireLock(ctx, m.fs, m.clock, lockPath(root))
	if err != nil {
		result.Status = StatusFailed
		return result, &Error{Tool: name, Version: version, Stage: StageInstall, Ref: root, Err: err}
	}
	defer func() {
		if err := lock.Release(); err != nil {
			m.logger.Warn("failed to release install lock", "root", root, "error", err)
		}
	}()

	if _, err := m.Detect(name, version); err == nil {
		m.logger.Debug("toolchain already installed", "tool", name, "version", version, "root", root)
		result.Status = StatusAlreadyInstalled
		result.Duration = m.clock.Now().Sub(start)
		return result, nil
	} else if !IsNotInstalled(err) {
		result.Status = StatusFailed
		return result, err
	}

	if err := m.build(ctx, root, descs, artifacts); err != nil {
		result.Status = StatusFailed
		return result, err
	}

	result.Status = StatusInstalled
	result.Duration = m.clock.Now().Sub(start)
	m.logger.Info("toolchain installed",
		"tool", name, "version", version, "root", root, "duration", result.Duration)
	return result, nil
}

// resolve produces one artifact per descriptor. A non-empty reason means
// some descriptor has no artifact for the target.
func (m *Manager) resolve(descs []Descriptor) ([]Artifact, string, error) {
	if m.target.Triple == "" {
		return nil, "unsupported host platform", nil
	}
	artifacts := make([]Artifact, 0, len(descs))
	for _, d := range descs {
		a, ok, err := d.Resolve(m.target)
		if err != nil {
			return nil, "", stageError(d, StageResolve, "", err)
		}
		if !ok {
			return nil, fmt.Sprintf("%s publishes no artifact for %s", d.Name, m.target.Triple), nil
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, "", nil
}

// build fetches and unpacks every artifact into a fresh staging directory,
// verifies the binaries, and renames the staging directory to root.
func (m *Manager) build(ctx context.Context, root string, descs []Descriptor, artifacts []Artifact) error {
	if dirExists(m.fs, root) {
		// Left behind by an interrupted install or a manual edit.
		m.logger.Warn("removing incomplete installation", "root", root)
		if err := m.fs.RemoveAll(root); err != nil {
			return &Error{Tool: descs[0].Name, Version: descs[0].Version, Stage: StageInstall, Ref: root, Err: err}
		}
	}

	staging := filepath.Join(filepath.Dir(root), stagingPrefix+uuid.NewString())
	if err := m.fs.MkdirAll(staging, 0755); err != nil {
		return stageError(descs[0], StageInstall, staging, err)
	}
	defer m.fs.RemoveAll(staging)

	for i, d := range descs {
		a := artifacts[i]
		archivePath := filepath.Join(staging, fmt.Sprintf(".%s-%s.%s", d.Name, m.target.Triple, a.Format))

		m.logger.Info("downloading", "tool", d.Name, "version", d.Version, "url", a.URL)
		if err := m.fetcher.Fetch(ctx, a.URL, archivePath); err != nil {
			return stageError(d, StageFetch, a.URL, err)
		}

		m.logger.Debug("extracting", "tool", d.Name, "archive", archivePath, "layout", a.Layout.String())
		if err := m.unpacker.Unpack(ctx, archivePath, staging, a.Format, a.Layout); err != nil {
			return stageError(d, StageExtract, archivePath, err)
		}

		if err := m.fs.Remove(archivePath); err != nil {
			m.logger.Warn("failed to remove archive", "path", archivePath, "error", err)
		}
	}

	inst, err := m.locate(staging, descs)
	if err != nil {
		return err
	}

	paths := []string{inst.Primary}
	for _, p := range inst.Companions {
		paths = append(paths, p)
	}
	if err := MakeExecutable(m.fs, m.target, paths...); err != nil {
		return stageError(descs[0], StagePermissions, staging, err)
	}

	if err := m.fs.Rename(staging, root); err != nil {
		return stageError(descs[0], StageInstall, root, err)
	}
	return nil
}

// Uninstall removes a toolchain version. Removing a version that is not
// installed succeeds.
func (m *Manager) Uninstall(ctx context.Context, name, version string) error {
	root, err := m.Root(name, version)
	if err != nil {
		return err
	}

	m.keys.Lock(root)
	defer m.keys.Unlock(root)

	lock, err := acquireLock(ctx, m.fs, m.clock, lockPath(root))
	if err != nil {
		return &Error{Tool: name, Version: version, Stage: StageUninstall, Ref: root, Err: err}
	}
	defer func() {
		if err := lock.Release(); err != nil {
			m.logger.Warn("failed to release install lock", "root", root, "error", err)
		}
	}()

	if err := m.fs.RemoveAll(root); err != nil {
		return &Error{Tool: name, Version: version, Stage: StageUninstall, Ref: root, Err: err}
	}
	m.logger.Info("toolchain uninstalled", "tool", name, "version", version, "root", root)
	return nil
}

// Installed lists the complete installed versions of a toolchain, oldest
// first. Partial roots are omitted.
func (m *Manager) Installed(name string) ([]string, error) {
	tc, ok := m.toolchains[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	dir := filepath.Join(m.dataDir, tc.Dir)
	entries, err := afero.ReadDir(m.fs, dir)
	if err != nil {
		if exists, _ := afero.Exists(m.fs, dir); !exists {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var versions []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ValidateVersion(e.Name()) != nil {
			continue
		}
		ok, err := m.IsInstalled(name, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			versions = append(versions, e.Name())
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})
	return versions, nil
}

// lockPath places the lock beside root so it never appears inside it.
func lockPath(root string) string {
	return filepath.Join(filepath.Dir(root), "."+filepath.Base(root)+".lock")
}
