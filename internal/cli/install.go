package cli

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nexo-app/runtimes/internal/binary"
)

type installOutput struct {
	Tool     string `json:"tool"`
	Version  string `json:"version"`
	Status   string `json:"status"`
	Root     string `json:"root,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Duration string `json:"duration"`
}

func newInstallCmd(a *app) *cobra.Command {
	var anyVersion bool

	cmd := &cobra.Command{
		Use:   "install <tool> <version>",
		Short: "Download and install a runtime version",
		Example: `  nexo-runtimes install python 3.12.12
  nexo-runtimes install node 22.21.1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tool, version := args[0], args[1]

			if !anyVersion && !a.index.Get(ctx).Supports(tool, version) {
				return fmt.Errorf("%s %s is not offered by the add-on index (use --any-version to override)", tool, version)
			}

			m, err := a.manager(ctx)
			if err != nil {
				return err
			}

			res, err := m.Install(ctx, tool, version)
			if err != nil {
				if !a.jsonOut {
					printStatus(cmd.OutOrStdout(), tool, version, binary.StatusFailed, err.Error())
				}
				return err
			}

			if a.jsonOut {
				return writeJSON(cmd, installOutput{
					Tool:     res.Tool,
					Version:  res.Version,
					Status:   string(res.Status),
					Root:     res.Root,
					Reason:   res.Reason,
					Duration: res.Duration.String(),
				})
			}
			detail := res.Root
			if res.Status == binary.StatusSkipped {
				detail = res.Reason
			}
			printStatus(cmd.OutOrStdout(), tool, version, res.Status, detail)
			return nil
		},
	}

	cmd.Flags().BoolVar(&anyVersion, "any-version", false, "Install versions the add-on index does not list")
	return cmd
}

func newUninstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <tool> <version>",
		Short: "Remove an installed runtime version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.Uninstall(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd, map[string]string{"tool": args[0], "version": args[1], "status": "uninstalled"})
			}
			fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintfln("%s %s uninstalled", args[0], args[1]))
			return nil
		},
	}
}

type statusOutput struct {
	Tool       string            `json:"tool"`
	Version    string            `json:"version"`
	Installed  bool              `json:"installed"`
	Root       string            `json:"root,omitempty"`
	Primary    string            `json:"primary,omitempty"`
	Companions map[string]string `json:"companions,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <tool> <version>",
		Short: "Show whether a runtime version is installed and where its executables are",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, version := args[0], args[1]
			m, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}

			out := statusOutput{Tool: tool, Version: version}
			inst, err := m.Detect(tool, version)
			switch {
			case err == nil:
				out.Installed = true
				out.Root = inst.Root
				out.Primary = inst.Primary
				out.Companions = inst.Companions
			case errors.Is(err, binary.ErrNotInstalled):
			default:
				return err
			}

			if a.jsonOut {
				return writeJSON(cmd, out)
			}
			w := cmd.OutOrStdout()
			if !out.Installed {
				fmt.Fprint(w, pterm.Info.Sprintfln("%s %s is not installed", tool, version))
				return nil
			}
			data := pterm.TableData{
				{"Executable", "Path"},
				{tool, inst.Primary},
			}
			for _, name := range sortedKeys(inst.Companions) {
				data = append(data, []string{name, inst.Companions[name]})
			}
			fmt.Fprint(w, pterm.Success.Sprintfln("%s %s is installed at %s", tool, version, inst.Root))
			return writeTable(w, data)
		},
	}
}
