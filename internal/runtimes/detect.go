package runtimes

import (
	"fmt"

	"github.com/nexo-app/runtimes/internal/binary"
)

// Detector resolves installed executables; *binary.Manager implements it.
type Detector interface {
	Detect(name, version string) (*binary.Installation, error)
}

// PythonRuntime holds the paths of an installed interpreter and its uv.
type PythonRuntime struct {
	Version    string
	PythonPath string
	UVPath     string
}

// NodeRuntime holds the paths of an installed node and npm.
type NodeRuntime struct {
	Version  string
	NodePath string
	NPMPath  string
}

// DetectPython returns the installed Python runtime for version. The error
// matches binary.ErrNotInstalled when it is absent or incomplete.
func DetectPython(d Detector, version string) (*PythonRuntime, error) {
	inst, err := d.Detect(PythonTool, version)
	if err != nil {
		return nil, err
	}
	uv, ok := inst.Companion("uv")
	if !ok {
		return nil, fmt.Errorf("%w: python %s has no uv", binary.ErrNotInstalled, version)
	}
	return &PythonRuntime{Version: version, PythonPath: inst.Primary, UVPath: uv}, nil
}

// DetectNode returns the installed Node.js runtime for version.
func DetectNode(d Detector, version string) (*NodeRuntime, error) {
	inst, err := d.Detect(NodeTool, version)
	if err != nil {
		return nil, err
	}
	npm, ok := inst.Companion("npm")
	if !ok {
		return nil, fmt.Errorf("%w: node %s has no npm", binary.ErrNotInstalled, version)
	}
	return &NodeRuntime{Version: version, NodePath: inst.Primary, NPMPath: npm}, nil
}
