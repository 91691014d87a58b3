// =============================================================================
// Pharmacy Records - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI and the application
// wiring every subcommand shares.
//
// COBRA CLI STRUCTURE:
//   rootCmd (pharmacy)
//   ├── medicine  add | update | delete | list | exists | search | expiring
//   ├── sale      record | history | revenue | reset | pending
//   ├── user      login | add | update | delete | list | admin
//   ├── supplier  add | delete | list
//   ├── export    (XLSX workbook)
//   ├── backup    (copy data files, prune old copies)
//   ├── config    init
//   └── version
//
// START-UP (before any command that touches data):
//   1. Load .env if present
//   2. Load the configuration file and PHARMACY_* overrides
//   3. Build the logger
//   4. Bootstrap the users file with its administrator
//   5. Resolve any sale interrupted by a previous run
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pharmacy-records/internal/config"
	"github.com/ginjaninja78/pharmacy-records/internal/inventory"
	"github.com/ginjaninja78/pharmacy-records/internal/logging"
	"github.com/ginjaninja78/pharmacy-records/internal/purchases"
	"github.com/ginjaninja78/pharmacy-records/internal/sales"
	"github.com/ginjaninja78/pharmacy-records/internal/suppliers"
	"github.com/ginjaninja78/pharmacy-records/internal/users"
	"github.com/ginjaninja78/pharmacy-records/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// dataDirOverride replaces data_dir from the configuration when set.
var dataDirOverride string

// verbose forces debug logging.
var verbose bool

// app is built by PersistentPreRunE for commands that need the data files.
var app *application

// skipApp marks commands that run without loading the data files.
const skipApp = "skip-app"

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// application holds the stores shared by every command.
type application struct {
	cfg       *config.Config
	log       *logrus.Logger
	logCloser io.Closer

	inventory *inventory.Ledger
	purchases *purchases.Ledger
	users     *users.Store
	suppliers *suppliers.Store
	sales     *sales.Coordinator
	backups   *utils.BackupManager
}

// newApplication builds the stores over cfg, bootstraps the users file and
// recovers the sale journal.
func newApplication(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*application, error) {
	hasher, err := users.NewHasher(cfg.PasswordHashing, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	a := &application{
		cfg:       cfg,
		log:       log,
		inventory: inventory.New(cfg.Path(cfg.MedicinesFile), log),
		purchases: purchases.New(cfg.Path(cfg.PurchasesFile), log),
		users: users.New(cfg.Path(cfg.UsersFile), users.Options{
			Hasher: hasher,
			DefaultAdmin: users.Credentials{
				Username: cfg.DefaultAdmin.Username,
				Password: cfg.DefaultAdmin.Password,
			},
		}, log),
		suppliers: suppliers.New(cfg.Path(cfg.SuppliersFile), log),
		backups:   utils.NewBackupManager(cfg.BackupDir),
	}
	a.sales = sales.New(a.inventory, a.purchases, cfg.Path(cfg.JournalFile), log)

	if err := a.users.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("failed to bootstrap users: %w", err)
	}

	rec, err := a.sales.Recover(ctx)
	switch {
	case errors.Is(err, sales.ErrJournalConflict):
		// Sales stay blocked until the intent is resolved; other commands
		// keep working.
		log.WithError(err).Warn("unresolved sale in journal, see 'pharmacy sale pending'")
	case err != nil:
		return nil, fmt.Errorf("failed to recover sale journal: %w", err)
	case rec.Outcome != sales.NothingPending:
		log.WithField("outcome", rec.Outcome.String()).Info("recovered interrupted sale")
	}

	return a, nil
}

// dataFiles lists every record file and the sale journal, for backups.
func (a *application) dataFiles() []string {
	return []string{
		a.inventory.Path(),
		a.purchases.Path(),
		a.users.Path(),
		a.suppliers.Path(),
		a.cfg.Path(a.cfg.JournalFile),
	}
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pharmacy",
	Short: "Pharmacy records - inventory, sales, users and suppliers in flat files",
	Long: `pharmacy manages a pharmacy's operational records: the medicine inventory,
the sales ledger, user accounts and suppliers. Every record type lives in its
own line-delimited text file under the data directory.

Recording a sale decrements the inventory and appends to the sales ledger as
one operation. An interrupted sale is completed or undone on the next run.

Example Usage:
  pharmacy medicine add --name Aspirin --qty 100 --price 2.5 --expiry 2025-12-31
  pharmacy sale record --name Aspirin --qty 10
  pharmacy sale history
  pharmacy export --out records.xlsx`,

	SilenceUsage:  true,
	SilenceErrors: true,
	Annotations:   map[string]string{skipApp: "true"},

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipApp] == "true" {
			return nil
		}
		return setup(cmd.Context())
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// setup loads configuration and builds app.
func setup(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(cfgFile, config.WithDataDir(dataDirOverride))
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, closer, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return err
	}

	a, err := newApplication(ctx, cfg, log)
	if err != nil {
		closer.Close()
		return err
	}
	a.logCloser = closer
	app = a
	return nil
}

func teardown() {
	if app != nil && app.logCloser != nil {
		app.logCloser.Close()
	}
	app = nil
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		teardown()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&dataDirOverride,
		"data-dir",
		"",
		"Directory holding the record files (overrides data_dir)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// confirm refuses a destructive command unless --yes was given.
func confirm(yes bool, action string) error {
	if !yes {
		return fmt.Errorf("refusing to %s without --yes", action)
	}
	return nil
}
