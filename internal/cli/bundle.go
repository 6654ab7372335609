package cli

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nexo-app/runtimes/internal/binary"
	"github.com/nexo-app/runtimes/internal/platform"
	"github.com/nexo-app/runtimes/internal/sidecar"
)

type bundleOutput struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	Status  string `json:"status"`
	Path    string `json:"path,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newBundleCmd(a *app) *cobra.Command {
	var (
		targetFlag string
		inProcess  bool
	)

	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Place sidecar binaries for the build host into <project>/binaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var t platform.Target
			if targetFlag != "" {
				goos, goarch, ok := splitTarget(targetFlag)
				if !ok {
					return fmt.Errorf("invalid --target %q, want os/arch", targetFlag)
				}
				// An unsupported override is reported per tool as skipped.
				t, _ = platform.Resolve(goos, goarch)
			} else {
				_, host, _, err := a.target(ctx)
				if err != nil {
					return err
				}
				t = host
			}

			b := sidecar.NewBundler(a.settings.ProjectDir, t, a.logger)
			if inProcess {
				b.Fetcher = binary.NewHTTPFetcher(b.Fs, a.settings.HTTPTimeout)
				b.Unpacker = binary.NewExtractor(b.Fs)
			}

			results := b.Bundle(ctx, sidecar.DefaultSidecars(a.templates(ctx)))

			failed := 0
			out := make([]bundleOutput, 0, len(results))
			for _, r := range results {
				o := bundleOutput{Tool: r.Tool, Version: r.Version, Status: string(r.Status), Path: r.Path, Reason: r.Reason}
				if r.Err != nil {
					o.Error = r.Err.Error()
					failed++
				}
				out = append(out, o)
			}

			if a.jsonOut {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				for _, o := range out {
					detail := o.Path
					switch binary.Status(o.Status) {
					case binary.StatusSkipped:
						detail = o.Reason
					case binary.StatusFailed:
						detail = o.Error
					}
					printStatus(w, o.Tool, o.Version, binary.Status(o.Status), detail)
				}
				if failed == 0 {
					fmt.Fprint(w, pterm.Success.Sprintfln("sidecars ready in %s", a.settings.ProjectDir))
				}
			}

			if failed > 0 {
				return errors.New("one or more sidecars failed to bundle")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&targetFlag, "target", "", "Bundle for os/arch instead of the host, e.g. windows/amd64")
	cmd.Flags().BoolVar(&inProcess, "in-process", false, "Download and unpack in-process instead of using curl and tar")
	return cmd
}
