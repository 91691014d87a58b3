// =============================================================================
// Pharmacy Records - Medicine Commands
// =============================================================================
//
// This file defines the 'medicine' command group over the inventory file.
//
// COMMAND USAGE:
//   pharmacy medicine add --name Aspirin --qty 100 --price 2.5 --expiry 2025-12-31
//   pharmacy medicine update --index 0 --name Aspirin --qty 90 --price 2.5 --expiry 2025-12-31
//   pharmacy medicine delete --index 0 --yes
//   pharmacy medicine list
//   pharmacy medicine exists Aspirin
//   pharmacy medicine search asp
//   pharmacy medicine expiring [--days 30]
//
// Records are addressed by their zero-based position in 'medicine list'.
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pharmacy-records/internal/records"
)

// =============================================================================
// FLAGS
// =============================================================================

var (
	medName   string
	medQty    int
	medPrice  float64
	medExpiry string
	medIndex  int
	medYes    bool
	medDays   int
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var medicineCmd = &cobra.Command{
	Use:   "medicine",
	Short: "Manage the medicine inventory",
}

var medicineAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a medicine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		expiry, err := records.ParseDate(medExpiry)
		if err != nil {
			return fmt.Errorf("invalid --expiry: %w", err)
		}
		if err := app.inventory.AddMedicine(cmd.Context(), medName, medQty, medPrice, expiry); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", medName)
		return nil
	},
}

var medicineUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace the medicine at --index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		expiry, err := records.ParseDate(medExpiry)
		if err != nil {
			return fmt.Errorf("invalid --expiry: %w", err)
		}
		if err := app.inventory.UpdateMedicineAt(cmd.Context(), medIndex, medName, medQty, medPrice, expiry); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated medicine %d\n", medIndex)
		return nil
	},
}

var medicineDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the medicine at --index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm(medYes, "delete a medicine"); err != nil {
			return err
		}
		if err := app.inventory.DeleteMedicineAt(cmd.Context(), medIndex); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted medicine %d\n", medIndex)
		return nil
	},
}

var medicineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every medicine with its index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := app.inventory.AsDisplayString(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if text == "" {
			fmt.Fprintln(out, "No medicines.")
			return nil
		}
		for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
			fmt.Fprintf(out, "[%d] %s\n", i, line)
		}
		return nil
	},
}

var medicineExistsCmd = &cobra.Command{
	Use:   "exists NAME",
	Short: "Report whether a medicine exists (case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := app.inventory.MedicineExists(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s exists\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s not found\n", args[0])
		}
		return nil
	},
}

var medicineSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "List in-stock medicines whose name contains QUERY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.inventory.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printMedicines(cmd, list)
		return nil
	},
}

var medicineExpiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List medicines expiring within --days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days := app.cfg.ExpiryAlertDays
		if cmd.Flags().Changed("days") {
			days = medDays
		}
		list, err := app.inventory.ExpiringWithin(cmd.Context(), time.Now(), days)
		if err != nil {
			return err
		}
		printMedicines(cmd, list)
		return nil
	},
}

func printMedicines(cmd *cobra.Command, list []records.Medicine) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No medicines.")
		return
	}
	for _, m := range list {
		fmt.Fprintf(out, "Name: %s | Qty: %d | Price: $%.2f | Expiry: %s\n",
			m.Name, m.Quantity, m.UnitPrice, m.ExpiryDate.Format(records.DateLayout))
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	for _, c := range []*cobra.Command{medicineAddCmd, medicineUpdateCmd} {
		c.Flags().StringVar(&medName, "name", "", "Medicine name")
		c.Flags().IntVar(&medQty, "qty", 0, "Quantity in stock")
		c.Flags().Float64Var(&medPrice, "price", 0, "Unit price")
		c.Flags().StringVar(&medExpiry, "expiry", "", "Expiry date (yyyy-MM-dd)")
		c.MarkFlagRequired("name")
		c.MarkFlagRequired("expiry")
	}
	// An update replaces the whole record.
	medicineUpdateCmd.MarkFlagRequired("qty")
	medicineUpdateCmd.MarkFlagRequired("price")
	for _, c := range []*cobra.Command{medicineUpdateCmd, medicineDeleteCmd} {
		c.Flags().IntVar(&medIndex, "index", -1, "Position in 'medicine list'")
		c.MarkFlagRequired("index")
	}
	medicineDeleteCmd.Flags().BoolVar(&medYes, "yes", false, "Confirm the deletion")
	medicineExpiringCmd.Flags().IntVar(&medDays, "days", 30, "Window in days (default from expiry_alert_days)")

	medicineCmd.AddCommand(
		medicineAddCmd,
		medicineUpdateCmd,
		medicineDeleteCmd,
		medicineListCmd,
		medicineExistsCmd,
		medicineSearchCmd,
		medicineExpiringCmd,
	)
	rootCmd.AddCommand(medicineCmd)
}
