// Package addon holds the add-on index: the runtime versions the
// application offers for each toolchain family and the pinned uv version.
// A built-in default is used until a remote index has been fetched.
package addon

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nexo-app/runtimes/internal/binary"
	"github.com/nexo-app/runtimes/internal/config"
	"github.com/nexo-app/runtimes/internal/runtimes"
)

// Index is the add-on index document.
type Index struct {
	Addons Addons `yaml:"addons" json:"addons"`
}

// Addons lists the families.
type Addons struct {
	Python PythonAddon `yaml:"python" json:"python"`
	NodeJS NodeJSAddon `yaml:"nodejs" json:"nodejs"`
}

// PythonAddon lists interpreter versions and the uv release shipped with them.
type PythonAddon struct {
	Versions []string `yaml:"versions" json:"versions"`
	UV       UVConfig `yaml:"uv" json:"uv"`
}

// UVConfig pins the uv release.
type UVConfig struct {
	Version string `yaml:"version" json:"version"`
}

// NodeJSAddon lists Node.js versions.
type NodeJSAddon struct {
	Versions []string `yaml:"versions" json:"versions"`
}

// Default returns the built-in index.
func Default() *Index {
	return &Index{
		Addons: Addons{
			Python: PythonAddon{
				Versions: []string{"3.12.12", "3.13.11", "3.14.2"},
				UV:       UVConfig{Version: config.DefaultUVVersion},
			},
			NodeJS: NodeJSAddon{
				Versions: []string{"20.19.6", "22.21.1", "24.12.0"},
			},
		},
	}
}

// Parse decodes and validates an index document.
func Parse(data []byte) (*Index, error) {
	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return &idx, nil
}

// Marshal encodes the index as YAML.
func (i *Index) Marshal() ([]byte, error) {
	return yaml.Marshal(i)
}

// Validate checks that every version is a semantic version and that each
// family offers at least one.
func (i *Index) Validate() error {
	var errs []error
	check := func(field string, versions []string) {
		if len(versions) == 0 {
			errs = append(errs, fmt.Errorf("%s: no versions", field))
		}
		for _, v := range versions {
			if err := binary.ValidateVersion(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", field, err))
			}
		}
	}
	check("addons.python.versions", i.Addons.Python.Versions)
	check("addons.nodejs.versions", i.Addons.NodeJS.Versions)
	if err := binary.ValidateVersion(i.Addons.Python.UV.Version); err != nil {
		errs = append(errs, fmt.Errorf("addons.python.uv.version: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid index: %w", errors.Join(errs...))
	}
	return nil
}

// Versions returns the offered versions of a toolchain, or nil for an
// unknown toolchain.
func (i *Index) Versions(tool string) []string {
	switch tool {
	case runtimes.PythonTool:
		return i.Addons.Python.Versions
	case runtimes.NodeTool:
		return i.Addons.NodeJS.Versions
	default:
		return nil
	}
}

// Supports reports whether version is offered for tool.
func (i *Index) Supports(tool, version string) bool {
	for _, v := range i.Versions(tool) {
		if binary.CompareVersions(v, version) == 0 {
			return true
		}
	}
	return false
}

// Apply pins the index's uv version into t.
func (i *Index) Apply(t config.Templates) config.Templates {
	if i.Addons.Python.UV.Version != "" {
		t.UVVersion = i.Addons.Python.UV.Version
	}
	return t
}
