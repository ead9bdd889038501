package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/convocatorias/core/report"
)

func (cli *commandLine) reportCmd() *cobra.Command {
	var start, end, out string

	cmd := &cobra.Command{
		Use:   "report --start YYYY-MM-DD --end YYYY-MM-DD [--out FILE]",
		Short: "Render the PDF report of a period. Use --out - to write it to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pdf, err := cli.renderer.RenderReport(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(pdf)
				return err
			}
			if err = os.WriteFile(out, pdf, 0o644); err != nil {
				return errors.Wrap(err, "writing report")
			}
			cli.logger.Info(fmt.Sprintf("report written to %s (%d bytes)", out, len(pdf)))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day of the period")
	cmd.Flags().StringVar(&end, "end", "", "last day of the period")
	cmd.Flags().StringVarP(&out, "out", "o", report.Filename, "output file")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
