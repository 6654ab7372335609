package binary

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/nexo-app/runtimes/internal/platform"
)

// Template placeholders.
const (
	PlaceholderVersion     = "{version}"
	PlaceholderPlatform    = "{platform}"
	PlaceholderExt         = "{ext}"
	PlaceholderReleaseDate = "{release_date}"
)

// TemplateValues are the substitutions for a URL template.
type TemplateValues struct {
	Version     string
	Platform    string
	Ext         string
	ReleaseDate string
}

// ExpandTemplate substitutes every placeholder in tmpl literally. Values are
// not URL-encoded. Placeholders whose value is empty are left untouched so a
// missing value stays visible in the resulting URL.
func ExpandTemplate(tmpl string, v TemplateValues) string {
	pairs := make([]string, 0, 8)
	add := func(placeholder, value string) {
		if value != "" {
			pairs = append(pairs, placeholder, value)
		}
	}
	add(PlaceholderReleaseDate, v.ReleaseDate)
	add(PlaceholderVersion, v.Version)
	add(PlaceholderPlatform, v.Platform)
	add(PlaceholderExt, v.Ext)
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// PlatformNaming maps targets to a tool family's own platform name.
// Release naming differs between projects, so every family carries its own
// table instead of sharing one.
type PlatformNaming map[platform.Key]string

// TripleNaming names every supported target by its target triple.
func TripleNaming() PlatformNaming {
	naming := make(PlatformNaming)
	for _, t := range platform.SupportedTargets() {
		naming[t.Key()] = t.Triple
	}
	return naming
}

// TemplateOptions tunes TemplateGenerator.
type TemplateOptions struct {
	// ReleaseDate fills {release_date}.
	ReleaseDate string
	// BinaryName is the executable's base name inside the archive; ".exe" is
	// appended on Windows targets.
	BinaryName string
	// LayoutFor overrides the descriptor layout per archive format.
	LayoutFor map[ArchiveFormat]Layout
}

// TemplateGenerator builds a URLGenerator from a template and a naming table.
// Targets missing from naming are unsupported.
func TemplateGenerator(tmpl string, naming PlatformNaming, opts TemplateOptions) URLGenerator {
	return func(version string, t platform.Target) (Artifact, bool) {
		name, ok := naming[t.Key()]
		if !ok || name == "" {
			return Artifact{}, false
		}
		url := ExpandTemplate(tmpl, TemplateValues{
			Version:     version,
			Platform:    name,
			Ext:         t.ArchiveExt(),
			ReleaseDate: opts.ReleaseDate,
		})
		format, known := FormatFromURL(url)
		if !known {
			format = ArchiveFormat(t.ArchiveExt())
		}
		a := Artifact{
			URL:    url,
			Format: format,
			Layout: opts.LayoutFor[format],
		}
		if opts.BinaryName != "" {
			a.BinaryName = t.ExeName(opts.BinaryName)
		}
		return a, true
	}
}

// ValidateVersion checks that version is a semantic version, with or without
// a leading "v".
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("%w: empty", ErrInvalidVersion)
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return nil
}

// CompareVersions orders two versions by semantic version precedence.
func CompareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
