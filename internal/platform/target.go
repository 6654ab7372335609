package platform

import "fmt"

// Archive extensions published for each target OS.
const (
	ExtTarGz = "tar.gz"
	ExtZip   = "zip"
)

// Key identifies an (OS, architecture) pair.
type Key struct {
	OS   string
	Arch string
}

// String returns "os/arch".
func (k Key) String() string {
	return k.OS + "/" + k.Arch
}

// Target is a resolved, supported release target.
type Target struct {
	OS     string
	Arch   string
	Triple string // e.g. "x86_64-unknown-linux-gnu"
}

// supportedTargets is the closed set of targets releases are fetched for.
var supportedTargets = map[Key]string{
	{OS: OSDarwin, Arch: ArchARM64}:  "aarch64-apple-darwin",
	{OS: OSDarwin, Arch: ArchAMD64}:  "x86_64-apple-darwin",
	{OS: OSWindows, Arch: ArchAMD64}: "x86_64-pc-windows-msvc",
	{OS: OSLinux, Arch: ArchAMD64}:   "x86_64-unknown-linux-gnu",
}

// Resolve maps an OS and architecture to a Target. It performs no I/O.
// The boolean is false for combinations outside the supported set.
func Resolve(goos, goarch string) (Target, bool) {
	key := Key{OS: normalizeOS(goos), Arch: normalizeArch(goarch)}
	triple, ok := supportedTargets[key]
	if !ok {
		return Target{}, false
	}
	return Target{OS: key.OS, Arch: key.Arch, Triple: triple}, true
}

// MustResolve is like Resolve but panics on an unsupported pair.
// It is intended for tests and static tables.
func MustResolve(goos, goarch string) Target {
	t, ok := Resolve(goos, goarch)
	if !ok {
		panic(fmt.Sprintf("platform: unsupported target %s/%s", goos, goarch))
	}
	return t
}

// SupportedTargets returns every supported target.
func SupportedTargets() []Target {
	keys := []Key{
		{OS: OSDarwin, Arch: ArchARM64},
		{OS: OSDarwin, Arch: ArchAMD64},
		{OS: OSWindows, Arch: ArchAMD64},
		{OS: OSLinux, Arch: ArchAMD64},
	}
	targets := make([]Target, 0, len(keys))
	for _, k := range keys {
		targets = append(targets, Target{OS: k.OS, Arch: k.Arch, Triple: supportedTargets[k]})
	}
	return targets
}

// Key returns the (OS, arch) key of the target.
func (t Target) Key() Key {
	return Key{OS: t.OS, Arch: t.Arch}
}

// IsWindows reports whether the target OS is Windows.
func (t Target) IsWindows() bool {
	return t.OS == OSWindows
}

// ArchiveExt returns the archive extension releases use on this target:
// zip on Windows, gzip-tar everywhere else.
func (t Target) ArchiveExt() string {
	if t.IsWindows() {
		return ExtZip
	}
	return ExtTarGz
}

// ExeName appends ".exe" to name on Windows targets.
func (t Target) ExeName(name string) string {
	if t.IsWindows() {
		return name + ".exe"
	}
	return name
}

func (t Target) String() string {
	return t.Triple
}
