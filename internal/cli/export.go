package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/proofpack-health/internal/infrastructure/report/xlsx"
)

func newExportCmd() *cobra.Command {
	var (
		flags scoreFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Score a proof pack and write an XLSX report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := flags.report(cmd.InOrStdin())
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create report file: %w", err)
			}
			if err := xlsx.Write(f, *report); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close report file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (overall score %d, %d gaps)\n", out, report.Score.OverallScore, len(report.Gaps))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "pack-health.xlsx", "Output XLSX path")
	return cmd
}
