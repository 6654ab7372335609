// Package cli implements the nexo-runtimes command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexo-app/runtimes/internal/platform"
)

// Version is set at build time via -ldflags.
var Version = "v0.1.0"

// Execute runs the root cobra command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree for the running host.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{detector: platform.NewDetector(), v: viper.New()})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nexo-runtimes",
		Short:         "Provision Python and Node.js runtimes and bundle sidecar binaries",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to a YAML config file")
	flags.String("data-dir", "", "Directory runtimes are installed into")
	flags.String("project-dir", "", "Application project root for sidecar bundling")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.BoolVar(&a.jsonOut, "json", false, "Output machine-readable JSON")

	bind := map[string]string{
		"data_dir":    "data-dir",
		"project_dir": "project-dir",
		"log_level":   "log-level",
	}
	for key, flag := range bind {
		// Only fails for a missing flag, which is a programming error.
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(newPlatformCmd(a))
	cmd.AddCommand(newInstallCmd(a))
	cmd.AddCommand(newUninstallCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newBundleCmd(a))
	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newEnvCmd(a))

	return cmd
}
