package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nexo-app/runtimes/internal/binary"
	"github.com/nexo-app/runtimes/internal/shell"
)

func newEnvCmd(a *app) *cobra.Command {
	var shellName string

	cmd := &cobra.Command{
		Use:   "env <tool> <version>",
		Short: "Print shell commands that put an installed runtime on PATH",
		Example: `  eval "$(nexo-runtimes env python 3.12.12)"
  nexo-runtimes env node 22.21.1 --shell fish | source`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var sh shell.ShellType
			if shellName != "" {
				parsed, err := shell.ParseShell(shellName)
				if err != nil {
					return err
				}
				sh = parsed
			} else {
				res, err := shell.DetectShell(ctx)
				if err != nil {
					return err
				}
				if !res.Shell.IsValid() {
					return fmt.Errorf("could not detect shell, pass --shell")
				}
				sh = res.Shell
			}

			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			inst, err := m.Detect(args[0], args[1])
			if err != nil {
				return err
			}

			snippet, err := shell.PathExports(sh, binDirs(inst))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), snippet)
			return err
		},
	}

	cmd.Flags().StringVar(&shellName, "shell", "", "Shell to render for: bash, zsh, fish or powershell")
	return cmd
}

// binDirs returns the directories holding inst's executables, primary first.
func binDirs(inst *binary.Installation) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(p string) {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	add(inst.Primary)
	for _, name := range sortedKeys(inst.Companions) {
		add(inst.Companions[name])
	}
	return dirs
}
