// =============================================================================
// Pharmacy Records - Export Command
// =============================================================================
//
// This file defines the 'export' command, which writes every record file to
// one XLSX workbook.
//
// COMMAND USAGE:
//   pharmacy export [--out records.xlsx]
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pharmacy-records/internal/report"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export inventory, sales and suppliers to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		medicines, err := app.inventory.LoadAll(ctx)
		if err != nil {
			return err
		}
		sold, err := app.purchases.LoadAll(ctx)
		if err != nil {
			return err
		}
		batch, err := app.suppliers.Load(ctx)
		if err != nil {
			return err
		}

		err = report.Export(exportOut, report.Workbook{
			Medicines:   medicines,
			Purchases:   sold,
			Suppliers:   batch.Suppliers(),
			GeneratedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		app.log.WithField("path", exportOut).Info("workbook exported")
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d medicines, %d sales and %d suppliers to %s\n",
			len(medicines), len(sold), batch.Len(), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "records.xlsx", "Output workbook")
	rootCmd.AddCommand(exportCmd)
}
