package shell

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// parentProcessName returns the executable name of the parent process.
var parentProcessName = func(ctx context.Context) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getppid()))
	if err != nil {
		return "", err
	}
	return p.NameWithContext(ctx)
}

// DetectShell detects the user's shell using multiple methods
func DetectShell(ctx context.Context) (*DetectionResult, error) {
	// Method 1: Try $SHELL environment variable (most reliable)
	if shell := os.Getenv("SHELL"); shell != "" {
		shellType := parseShellFromPath(shell)
		if shellType.IsValid() {
			return &DetectionResult{
				Shell:      shellType,
				Method:     "$SHELL environment variable",
				ShellPath:  shell,
				Confidence: "high",
			}, nil
		}
	}

	// Method 2: Try parent process (Windows has no $SHELL)
	if name, err := parentProcessName(ctx); err == nil {
		if shellType := parseShellFromPath(name); shellType.IsValid() {
			return &DetectionResult{
				Shell:      shellType,
				Method:     "parent process",
				ShellPath:  name,
				Confidence: "medium",
			}, nil
		}
	}

	// Method 3: Could not detect shell
	return &DetectionResult{
		Shell:      ShellUnknown,
		Method:     "detection failed",
		ShellPath:  "",
		Confidence: "none",
	}, nil
}

// parseShellFromPath extracts the shell type from a shell binary path
// Examples:
//   - /bin/bash -> bash
//   - /usr/local/bin/fish -> fish
//   - pwsh.exe -> powershell
func parseShellFromPath(shellPath string) ShellType {
	baseName := strings.ToLower(shellPath)
	if i := strings.LastIndexAny(baseName, `/\`); i >= 0 {
		baseName = baseName[i+1:]
	}
	baseName = strings.TrimSuffix(baseName, ".exe")
	// Login shells are reported as "-bash".
	baseName = strings.TrimPrefix(baseName, "-")

	switch baseName {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	case "pwsh", "powershell":
		return ShellPowerShell
	default:
		return ShellUnknown
	}
}
