// Package cli implements the packhealth command line.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "packhealth",
		Short:         "Score proof packs and plan remediation",
		Long:          "Offline pack health scoring, XLSX export and an MCP server backed by the pack health service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.AddCommand(newScoreCmd(), newExportCmd(), newMCPCmd())
	return root
}
