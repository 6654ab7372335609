package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nexo-app/runtimes/internal/platform"
)

type platformOutput struct {
	OS        string   `json:"os"`
	Arch      string   `json:"arch"`
	ArchRaw   string   `json:"arch_raw,omitempty"`
	Platform  string   `json:"platform,omitempty"`
	Family    string   `json:"family,omitempty"`
	Version   string   `json:"version,omitempty"`
	Supported bool     `json:"supported"`
	Triple    string   `json:"triple,omitempty"`
	Targets   []string `json:"targets"`
}

func newPlatformCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "platform",
		Short: "Show the detected host platform and its target triple",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, t, ok, err := a.target(cmd.Context())
			if err != nil {
				return err
			}

			out := platformOutput{
				OS:        info.OS,
				Arch:      info.Arch,
				ArchRaw:   info.ArchRaw,
				Platform:  info.Platform,
				Family:    info.Family,
				Version:   info.Version,
				Supported: ok,
				Triple:    t.Triple,
			}
			for _, st := range platform.SupportedTargets() {
				out.Targets = append(out.Targets, st.Triple)
			}
			if a.jsonOut {
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			data := pterm.TableData{
				{"Field", "Value"},
				{"OS", info.OS},
				{"Arch", info.Arch},
			}
			if info.Platform != "" {
				data = append(data, []string{"Distribution", info.Platform + " " + info.Version})
			}
			if info.Family != "" {
				data = append(data, []string{"Family", info.Family})
			}
			if ok {
				data = append(data, []string{"Target", t.Triple})
			}
			if err := writeTable(w, data); err != nil {
				return err
			}
			if !ok {
				fmt.Fprint(w, pterm.Warning.Sprintfln("%s/%s is not a supported platform", info.OS, info.ArchRaw))
			}
			return nil
		},
	}
}
