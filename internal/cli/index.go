package cli

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nexo-app/runtimes/internal/addon"
	"github.com/nexo-app/runtimes/internal/runtimes"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect or refresh the add-on index",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the offered runtime versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printIndex(cmd, a.index.Get(cmd.Context()))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch the add-on index from its remote URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := a.index.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh add-on index: %w", err)
			}
			if !a.jsonOut {
				fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintfln("add-on index refreshed from %s", a.settings.IndexURL))
			}
			return a.printIndex(cmd, idx)
		},
	})
	return cmd
}

func (a *app) printIndex(cmd *cobra.Command, idx *addon.Index) error {
	if a.jsonOut {
		return writeJSON(cmd, idx)
	}
	data := [][]string{
		{"Tool", "Versions"},
		{runtimes.PythonTool, strings.Join(idx.Versions(runtimes.PythonTool), ", ")},
		{"uv", idx.Addons.Python.UV.Version},
		{runtimes.NodeTool, strings.Join(idx.Versions(runtimes.NodeTool), ", ")},
	}
	return writeTable(cmd.OutOrStdout(), data)
}
