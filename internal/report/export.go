// =============================================================================
// Pharmacy Records - XLSX Export
// =============================================================================
//
// This module writes a read-only snapshot of the record files to an XLSX
// workbook for people who want the data in a spreadsheet.
//
// WORKBOOK LAYOUT:
//
//   | Sheet     | Columns                                           |
//   |-----------|---------------------------------------------------|
//   | Inventory | Name, Quantity, Unit Price, Expiry Date           |
//   | Sales     | Medicine, Quantity, Unit Price, Total, Timestamp  |
//   | Suppliers | Name, Phone, Address, Supplied Medicines          |
//
//   The Sales sheet ends with a TOTAL REVENUE row. Headers are bold.
//
// =============================================================================

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pharmacy-records/internal/records"
)

// Sheet names.
const (
	SheetInventory = "Inventory"
	SheetSales     = "Sales"
	SheetSuppliers = "Suppliers"
)

// Workbook is the data written by Export.
type Workbook struct {
	Medicines   []records.Medicine
	Purchases   []records.Purchase
	Suppliers   []records.Supplier
	GeneratedAt time.Time
}

// Export writes the workbook to path, creating parent directories.
//
// PARAMETERS:
//   - path: The output .xlsx file. An existing file is replaced.
//   - wb: The records to export.
//
// RETURNS:
//   - An error if the workbook could not be built or saved.
func Export(path string, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// NewFile starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", SheetInventory); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}
	for _, name := range []string{SheetSales, SheetSuppliers} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	medicines := [][]interface{}{{"Name", "Quantity", "Unit Price", "Expiry Date"}}
	for _, m := range wb.Medicines {
		medicines = append(medicines, []interface{}{m.Name, m.Quantity, m.UnitPrice, m.ExpiryDate.Format(records.DateLayout)})
	}

	sales := [][]interface{}{{"Medicine", "Quantity", "Unit Price", "Total", "Timestamp"}}
	var revenue float64
	for _, p := range wb.Purchases {
		sales = append(sales, []interface{}{p.MedicineName, p.Quantity, p.UnitPrice, p.Total, p.Timestamp.Format(records.TimestampLayout)})
		revenue += p.Total
	}
	sales = append(sales, []interface{}{}, []interface{}{"TOTAL REVENUE", nil, nil, revenue})

	suppliers := [][]interface{}{{"Name", "Phone", "Address", "Supplied Medicines"}}
	for _, s := range wb.Suppliers {
		suppliers = append(suppliers, []interface{}{s.Name, s.Phone, s.Address, s.SuppliedMedicines})
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetInventory: medicines,
		SheetSales:     sales,
		SheetSuppliers: suppliers,
	} {
		if err := writeRows(f, sheet, rows, header); err != nil {
			return err
		}
	}

	if !wb.GeneratedAt.IsZero() {
		err := f.SetDocProps(&excelize.DocProperties{
			Created: wb.GeneratedAt.UTC().Format(time.RFC3339),
			Title:   "Pharmacy records export",
		})
		if err != nil {
			return fmt.Errorf("failed to set document properties: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}
