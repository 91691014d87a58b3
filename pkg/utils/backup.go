// =============================================================================
// Pharmacy Records - Backup Manager Utility
// =============================================================================
//
// This module copies the record files into timestamped backup directories
// and enforces a retention policy on old backups.
//
// BACKUP LAYOUT:
//   backups/20250304_103015_1a2b3c4d/medicines.txt
//   backups/20250304_103015_1a2b3c4d/purchases.txt
//   ...
//   With UseDateSubdirs the snapshot lands under backups/2025/03/04/.
//
//   Files that do not exist yet are skipped. Backups are copies; the
//   originals are never moved.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// BACKUP MANAGER
// =============================================================================

// BackupManager writes snapshots of data files.
type BackupManager struct {
	// BackupDir is the root of every snapshot.
	BackupDir string

	// UseDateSubdirs nests snapshots under year/month/day.
	UseDateSubdirs bool

	now func() time.Time
}

// NewBackupManager creates a BackupManager rooted at backupDir.
func NewBackupManager(backupDir string) *BackupManager {
	return &BackupManager{BackupDir: backupDir, now: time.Now}
}

// Snapshot describes one completed backup.
type Snapshot struct {
	// Dir is the snapshot directory.
	Dir string

	// Files are the copies written, in the order given.
	Files []string

	// Skipped are sources that did not exist.
	Skipped []string
}

// Backup copies every existing file in paths into a new snapshot directory.
//
// PARAMETERS:
//   - paths: The files to copy. Base names must be distinct.
//
// RETURNS:
//   - The snapshot written.
//   - An error if a directory cannot be created or a copy fails.
func (bm *BackupManager) Backup(paths ...string) (*Snapshot, error) {
	dir := bm.snapshotDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	snap := &Snapshot{Dir: dir}
	for _, src := range paths {
		if !FileExists(src) {
			snap.Skipped = append(snap.Skipped, src)
			continue
		}
		dst := filepath.Join(dir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return snap, fmt.Errorf("failed to back up %s: %w", src, err)
		}
		snap.Files = append(snap.Files, dst)
	}
	return snap, nil
}

// snapshotDir names a new snapshot directory. The short random suffix
// keeps two backups in the same second apart.
func (bm *BackupManager) snapshotDir() string {
	now := bm.now()
	name := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), strings.SplitN(uuid.New().String(), "-", 2)[0])

	if bm.UseDateSubdirs {
		return filepath.Join(
			bm.BackupDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			name,
		)
	}
	return filepath.Join(bm.BackupDir, name)
}

// List returns every snapshot directory, oldest first.
func (bm *BackupManager) List() ([]string, error) {
	var dirs []string
	err := filepath.Walk(bm.BackupDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			dir := filepath.Dir(path)
			if len(dirs) == 0 || dirs[len(dirs)-1] != dir {
				dirs = append(dirs, dir)
			}
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Prune removes backup files older than maxAge and the directories they
// leave empty.
//
// RETURNS:
//   - The number of files removed.
func (bm *BackupManager) Prune(maxAge time.Duration) (int, error) {
	cutoff := bm.now().Add(-maxAge)
	removed := 0
	var dirs []string

	err := filepath.Walk(bm.BackupDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != bm.BackupDir {
				dirs = append(dirs, path)
			}
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return removed, fmt.Errorf("failed to prune backups: %w", err)
	}

	// Deepest first, so parents empty out after their children.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
			_ = os.Remove(dir)
		}
	}
	return removed, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists reports whether a regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
