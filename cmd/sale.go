// =============================================================================
// Pharmacy Records - Sale Commands
// =============================================================================
//
// This file defines the 'sale' command group over the sales ledger.
//
// COMMAND USAGE:
//   pharmacy sale record --name Aspirin --qty 10 [--price 2.5]
//   pharmacy sale history
//   pharmacy sale revenue [--from 2025-01-01] [--to 2025-02-01]
//   pharmacy sale reset --yes [--backup]
//   pharmacy sale pending [--discard --yes]
//
// 'sale record' decrements the inventory and appends to the ledger as one
// operation. Without --price the current unit price of the medicine is used.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pharmacy-records/internal/records"
)

// =============================================================================
// FLAGS
// =============================================================================

var (
	saleName    string
	saleQty     int
	salePrice   float64
	saleFrom    string
	saleTo      string
	saleYes     bool
	saleBackup  bool
	saleDiscard bool
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Record sales and read the sales ledger",
}

var saleRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Sell --qty units of --name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		price := salePrice
		if !cmd.Flags().Changed("price") {
			m, _, err := app.inventory.FindByName(ctx, saleName)
			if err != nil {
				return err
			}
			price = m.UnitPrice
		}

		p, err := app.sales.RecordPurchase(ctx, saleName, saleQty, price)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sold %d x %s for $%.2f\n", p.Quantity, p.MedicineName, p.Total)
		return nil
	},
}

var saleHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Print every sale and the total revenue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := app.purchases.AsDisplayString(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var saleRevenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Print revenue, optionally over [--from, --to)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if saleFrom == "" && saleTo == "" {
			total, err := app.purchases.TotalRevenue(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "TOTAL REVENUE: $%.2f\n", total)
			return nil
		}

		from, err := parseBound("from", saleFrom)
		if err != nil {
			return err
		}
		to, err := parseBound("to", saleTo)
		if err != nil {
			return err
		}
		s, err := app.purchases.Summarize(ctx, from, to)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Sales: %d | Units: %d | Revenue: $%.2f\n", s.Sales, s.Units, s.Revenue)
		return nil
	},
}

var saleResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase the sales ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm(saleYes, "erase the sales ledger"); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if saleBackup {
			snap, err := app.backups.Backup(app.purchases.Path())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Backed up to %s\n", snap.Dir)
		}
		if err := app.purchases.ResetHistory(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(out, "Sales history cleared.")
		return nil
	},
}

var salePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show, or discard, a sale the journal could not resolve",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		intent, err := app.sales.Pending(ctx)
		if err != nil {
			return err
		}
		if intent == nil {
			fmt.Fprintln(out, "No pending sale.")
			return nil
		}

		p := intent.Purchase
		fmt.Fprintf(out, "Pending sale %s: %d x %s at %s (stock %d -> %d)\n",
			intent.ID, p.Quantity, p.MedicineName, p.Timestamp.Format(records.TimestampLayout),
			intent.StockBefore, intent.StockAfter)

		if !saleDiscard {
			return nil
		}
		if err := confirm(saleYes, "discard the pending sale"); err != nil {
			return err
		}
		if err := app.sales.Discard(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Pending sale discarded.")
		return nil
	},
}

// parseBound reads a yyyy-MM-dd bound as local midnight. Empty is open.
func parseBound(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(records.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return t, nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	saleRecordCmd.Flags().StringVar(&saleName, "name", "", "Medicine name (exact)")
	saleRecordCmd.Flags().IntVar(&saleQty, "qty", 0, "Units sold")
	saleRecordCmd.Flags().Float64Var(&salePrice, "price", 0, "Unit price (default: the inventory price)")
	saleRecordCmd.MarkFlagRequired("name")
	saleRecordCmd.MarkFlagRequired("qty")

	saleRevenueCmd.Flags().StringVar(&saleFrom, "from", "", "First day included (yyyy-MM-dd)")
	saleRevenueCmd.Flags().StringVar(&saleTo, "to", "", "First day excluded (yyyy-MM-dd)")

	saleResetCmd.Flags().BoolVar(&saleYes, "yes", false, "Confirm the reset")
	saleResetCmd.Flags().BoolVar(&saleBackup, "backup", false, "Back up the ledger first")

	salePendingCmd.Flags().BoolVar(&saleDiscard, "discard", false, "Drop the pending intent without touching the ledgers")
	salePendingCmd.Flags().BoolVar(&saleYes, "yes", false, "Confirm --discard")

	saleCmd.AddCommand(saleRecordCmd, saleHistoryCmd, saleRevenueCmd, saleResetCmd, salePendingCmd)
	rootCmd.AddCommand(saleCmd)
}
