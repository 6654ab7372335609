package binary

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool is returned for a toolchain name the manager was not
	// configured with.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrNotInstalled reports that a (tool, version) has no complete
	// installation on disk.
	ErrNotInstalled = errors.New("not installed")
	// ErrNotFound reports that a binary could not be located.
	ErrNotFound = errors.New("binary not found")
	// ErrUnsupportedPlatform reports that a tool publishes no artifact for
	// the target. Install reports it as StatusSkipped rather than failing.
	ErrUnsupportedPlatform = errors.New("platform not supported")
	// ErrInvalidVersion reports a version that is not a semantic version.
	ErrInvalidVersion = errors.New("invalid version")
)

// Stage names the pipeline step an Error occurred in.
type Stage string

const (
	StageResolve     Stage = "resolve"
	StageFetch       Stage = "fetch"
	StageExtract     Stage = "extract"
	StageLocate      Stage = "locate"
	StagePermissions Stage = "permissions"
	StageInstall     Stage = "install"
	StageUninstall   Stage = "uninstall"
)

// Error describes a failed provisioning step. Ref is the URL for fetch
// failures and the archive or file path otherwise.
type Error struct {
	Tool    string
	Version string
	Stage   Stage
	Ref     string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Tool, e.Version, e.Stage)
	if e.Ref != "" {
		msg += " " + e.Ref
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func stageError(d Descriptor, stage Stage, ref string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) && be.Tool == d.Name && be.Stage == stage {
		return err
	}
	return &Error{Tool: d.Name, Version: d.Version, Stage: stage, Ref: ref, Err: err}
}

// IsNotInstalled reports whether err means the toolchain is absent, as
// opposed to a transport, archive or filesystem failure.
func IsNotInstalled(err error) bool {
	return errors.Is(err, ErrNotInstalled) || errors.Is(err, ErrNotFound)
}
