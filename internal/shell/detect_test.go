package shell

import (
	"context"
	"errors"
	"testing"
)

// stubParent replaces parent process lookup for the duration of the test.
func stubParent(t *testing.T, name string, err error) {
	t.Helper()
	orig := parentProcessName
	parentProcessName = func(context.Context) (string, error) { return name, err }
	t.Cleanup(func() { parentProcessName = orig })
}

func TestDetectShell(t *testing.T) {
	tests := []struct {
		name       string
		shellEnv   string
		parent     string
		want       ShellType
		method     string
		confidence string
	}{
		{"bash from SHELL", "/bin/bash", "", ShellBash, "$SHELL environment variable", "high"},
		{"zsh from SHELL", "/usr/bin/zsh", "fish", ShellZsh, "$SHELL environment variable", "high"},
		{"fish from SHELL", "/usr/local/bin/fish", "", ShellFish, "$SHELL environment variable", "high"},
		{"powershell parent without SHELL", "", "pwsh.exe", ShellPowerShell, "parent process", "medium"},
		{"login shell parent behind unknown SHELL", "/bin/ksh", "-zsh", ShellZsh, "parent process", "medium"},
		{"unknown SHELL and parent", "/bin/ksh", "go", ShellUnknown, "detection failed", "none"},
		{"nothing to go on", "", "", ShellUnknown, "detection failed", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHELL", tt.shellEnv)
			if tt.parent != "" {
				stubParent(t, tt.parent, nil)
			} else {
				stubParent(t, "", errors.New("no parent"))
			}

			res, err := DetectShell(context.Background())
			if err != nil {
				t.Fatalf("DetectShell() error = %v", err)
			}
			if res.Shell != tt.want {
				t.Errorf("DetectShell() shell = %v, want %v", res.Shell, tt.want)
			}
			if res.Method != tt.method {
				t.Errorf("DetectShell() method = %q, want %q", res.Method, tt.method)
			}
			if res.Confidence != tt.confidence {
				t.Errorf("DetectShell() confidence = %q, want %q", res.Confidence, tt.confidence)
			}
		})
	}
}

func TestParseShellFromPath(t *testing.T) {
	tests := map[string]ShellType{
		"/bin/bash":                              ShellBash,
		"/usr/local/bin/zsh":                     ShellZsh,
		"/usr/bin/fish":                          ShellFish,
		"-bash":                                  ShellBash,
		`C:\Program Files\PowerShell\7\pwsh.exe`: ShellPowerShell,
		`C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`: ShellPowerShell,
		"/bin/ksh":  ShellUnknown,
		"/bin/tcsh": ShellUnknown,
		"cmd.exe":   ShellUnknown,
	}

	for path, want := range tests {
		if got := parseShellFromPath(path); got != want {
			t.Errorf("parseShellFromPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestValidateShell(t *testing.T) {
	for _, s := range GetSupportedShells() {
		if err := ValidateShell(s); err != nil {
			t.Errorf("ValidateShell(%v) error = %v", s, err)
		}
		if !s.IsValid() {
			t.Errorf("%v.IsValid() = false", s)
		}
	}

	for _, s := range []ShellType{ShellUnknown, "ksh", ""} {
		err := ValidateShell(s)
		var unsupported *UnsupportedShellError
		if !errors.As(err, &unsupported) {
			t.Errorf("ValidateShell(%q) error = %v, want *UnsupportedShellError", s, err)
		}
	}
}

func TestGetSupportedShells(t *testing.T) {
	want := []ShellType{ShellBash, ShellZsh, ShellFish, ShellPowerShell}
	got := GetSupportedShells()
	if len(got) != len(want) {
		t.Fatalf("GetSupportedShells() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetSupportedShells()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
