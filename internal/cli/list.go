package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

type listEntry struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Offered   bool   `json:"offered"`
	Installed bool   `json:"installed"`
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [tool]",
		Short: "List offered and installed runtime versions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			idx := a.index.Get(ctx)

			tools := m.Tools()
			if len(args) == 1 {
				tools = []string{args[0]}
			}

			var entries []listEntry
			for _, tool := range tools {
				installed, err := m.Installed(tool)
				if err != nil {
					return err
				}
				seen := make(map[string]*listEntry)
				var order []string
				for _, v := range idx.Versions(tool) {
					seen[v] = &listEntry{Tool: tool, Version: v, Offered: true}
					order = append(order, v)
				}
				for _, v := range installed {
					if e, ok := seen[v]; ok {
						e.Installed = true
						continue
					}
					seen[v] = &listEntry{Tool: tool, Version: v, Installed: true}
					order = append(order, v)
				}
				for _, v := range order {
					entries = append(entries, *seen[v])
				}
			}

			if a.jsonOut {
				if entries == nil {
					entries = []listEntry{}
				}
				return writeJSON(cmd, entries)
			}

			data := [][]string{{"Tool", "Version", "Offered", "Installed"}}
			for _, e := range entries {
				data = append(data, []string{e.Tool, e.Version, yesNo(e.Offered), yesNo(e.Installed)})
			}
			return writeTable(cmd.OutOrStdout(), data)
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitTarget(s string) (string, string, bool) {
	goos, goarch, ok := strings.Cut(s, "/")
	return goos, goarch, ok && goos != "" && goarch != ""
}
