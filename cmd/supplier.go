// =============================================================================
// Pharmacy Records - Supplier Commands
// =============================================================================
//
// This file defines the 'supplier' command group over the suppliers file.
//
// COMMAND USAGE:
//   pharmacy supplier add --name Acme --phone 555-0100 --address "1 Main St" [--medicines "Aspirin, Ibuprofen"]
//   pharmacy supplier delete --index 0 --yes
//   pharmacy supplier list
//
// Changes are saved only if the file is unchanged since it was loaded.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pharmacy-records/internal/records"
	"github.com/ginjaninja78/pharmacy-records/internal/suppliers"
)

// =============================================================================
// FLAGS
// =============================================================================

var (
	supName      string
	supPhone     string
	supAddress   string
	supMedicines string
	supIndex     int
	supYes       bool
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var supplierCmd = &cobra.Command{
	Use:   "supplier",
	Short: "Manage suppliers",
}

var supplierAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a supplier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := editSuppliers(cmd, func(b *suppliers.Batch) error {
			return b.Add(records.Supplier{
				Name:              supName,
				Phone:             supPhone,
				Address:           supAddress,
				SuppliedMedicines: supMedicines,
			})
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added supplier %s\n", supName)
		return nil
	},
}

var supplierDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the supplier at --index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm(supYes, "delete a supplier"); err != nil {
			return err
		}
		err := editSuppliers(cmd, func(b *suppliers.Batch) error {
			return b.DeleteAt(supIndex)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted supplier %d\n", supIndex)
		return nil
	},
}

var supplierListCmd = &cobra.Command{
	Use:   "list",
	Short: "List suppliers with their index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := app.suppliers.Load(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if batch.Len() == 0 {
			fmt.Fprintln(out, "No suppliers.")
			return nil
		}
		for i, s := range batch.Suppliers() {
			fmt.Fprintf(out, "[%d] %s | %s | %s | %s\n", i, s.Name, s.Phone, s.Address, s.SuppliedMedicines)
		}
		return nil
	},
}

// editSuppliers loads the suppliers, applies fn and saves the result if
// nobody else changed the file meanwhile.
func editSuppliers(cmd *cobra.Command, fn func(*suppliers.Batch) error) error {
	ctx := cmd.Context()
	batch, err := app.suppliers.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(batch); err != nil {
		return err
	}
	return app.suppliers.SaveIfUnchanged(ctx, batch)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	supplierAddCmd.Flags().StringVar(&supName, "name", "", "Supplier name")
	supplierAddCmd.Flags().StringVar(&supPhone, "phone", "", "Phone number")
	supplierAddCmd.Flags().StringVar(&supAddress, "address", "", "Postal address")
	supplierAddCmd.Flags().StringVar(&supMedicines, "medicines", "", "Free-text list of supplied medicines")

	supplierDeleteCmd.Flags().IntVar(&supIndex, "index", -1, "Position in 'supplier list'")
	supplierDeleteCmd.Flags().BoolVar(&supYes, "yes", false, "Confirm the deletion")
	supplierDeleteCmd.MarkFlagRequired("index")

	supplierCmd.AddCommand(supplierAddCmd, supplierDeleteCmd, supplierListCmd)
	rootCmd.AddCommand(supplierCmd)
}
