package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nexo-app/runtimes/internal/binary"
)

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// printStatus renders one install outcome.
func printStatus(w io.Writer, tool, version string, status binary.Status, detail string) {
	subject := tool + " " + version
	switch status {
	case binary.StatusInstalled:
		fmt.Fprint(w, pterm.Success.Sprintfln("%s installed at %s", subject, detail))
	case binary.StatusAlreadyInstalled:
		fmt.Fprint(w, pterm.Info.Sprintfln("%s already installed at %s", subject, detail))
	case binary.StatusSkipped:
		fmt.Fprint(w, pterm.Warning.Sprintfln("%s skipped: %s", subject, detail))
	default:
		fmt.Fprint(w, pterm.Error.Sprintfln("%s failed: %s", subject, detail))
	}
}
