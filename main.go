// =============================================================================
// Pharmacy Records - Main Entry Point
// =============================================================================
//
// This is the main entry point for the pharmacy records CLI. It delegates
// command execution to the cmd package.
//
// USAGE:
//   pharmacy medicine ...   - Manage the inventory
//   pharmacy sale ...       - Record sales and read the sales ledger
//   pharmacy user ...       - Manage accounts
//   pharmacy supplier ...   - Manage suppliers
//   pharmacy export         - Write an XLSX workbook
//   pharmacy backup         - Copy the record files
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Record types, flat-file stores, ledgers, sale coordinator
//   - pkg/       : Shared utilities (backups)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/pharmacy-records/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
