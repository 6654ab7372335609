package shell

import (
	"fmt"
	"strings"
)

// PathExports returns a snippet for shell that prepends dirs to PATH, in
// order. An empty dirs yields an empty snippet.
func PathExports(shell ShellType, dirs []string) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		return "", nil
	}

	switch shell {
	case ShellFish:
		quoted := make([]string, len(dirs))
		for i, d := range dirs {
			quoted[i] = fishQuote(d)
		}
		return fmt.Sprintf("set -gx PATH %s $PATH\n", strings.Join(quoted, " ")), nil
	case ShellPowerShell:
		return fmt.Sprintf("$env:PATH = %s + $env:PATH\n", powerShellQuote(strings.Join(dirs, ";")+";")), nil
	default:
		return fmt.Sprintf("export PATH=\"%s:$PATH\"\n", posixEscape(strings.Join(dirs, ":"))), nil
	}
}

// posixEscape escapes s for use inside double quotes.
func posixEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return r.Replace(s)
}

func fishQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

func powerShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
