// =============================================================================
// Pharmacy Records - Backup Command
// =============================================================================
//
// This file defines the 'backup' command, which copies every record file into
// a timestamped directory under backup_dir.
//
// COMMAND USAGE:
//   pharmacy backup                 # take a snapshot
//   pharmacy backup --prune 720h    # take a snapshot, then drop older copies
//   pharmacy backup --list
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	backupPrune time.Duration
	backupList  bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the record files to the backup directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if backupList {
			dirs, err := app.backups.List()
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No backups.")
			}
			for _, d := range dirs {
				fmt.Fprintln(out, d)
			}
			return nil
		}

		snap, err := app.backups.Backup(app.dataFiles()...)
		if err != nil {
			return err
		}
		app.log.WithFields(logrus.Fields{
			"dir":     snap.Dir,
			"files":   len(snap.Files),
			"skipped": len(snap.Skipped),
		}).Info("backup written")
		fmt.Fprintf(out, "Backed up %d files to %s\n", len(snap.Files), snap.Dir)

		if backupPrune > 0 {
			n, err := app.backups.Prune(backupPrune)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Pruned %d old files\n", n)
		}
		return nil
	},
}

func init() {
	backupCmd.Flags().DurationVar(&backupPrune, "prune", 0, "After backing up, remove copies older than this (e.g. 720h)")
	backupCmd.Flags().BoolVar(&backupList, "list", false, "List existing snapshots instead of taking one")
	rootCmd.AddCommand(backupCmd)
}
