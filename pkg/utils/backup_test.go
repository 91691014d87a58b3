package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeData(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBackupCopiesExistingFiles(t *testing.T) {
	data := t.TempDir()
	meds := writeData(t, data, "medicines.txt", "Aspirin,100,2.5,2025-12-31\n")
	missing := filepath.Join(data, "purchases.txt")

	bm := NewBackupManager(filepath.Join(t.TempDir(), "backups"))
	bm.now = func() time.Time { return time.Date(2025, 3, 4, 10, 30, 15, 0, time.UTC) }

	snap, err := bm.Backup(meds, missing)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(snap.Dir), "20250304_103015_")
	require.Len(t, snap.Files, 1)
	assert.Equal(t, []string{missing}, snap.Skipped)

	copied, err := os.ReadFile(snap.Files[0])
	require.NoError(t, err)
	assert.Equal(t, "Aspirin,100,2.5,2025-12-31\n", string(copied))

	// The original stays in place.
	assert.True(t, FileExists(meds))
}

func TestBackupDateSubdirs(t *testing.T) {
	data := t.TempDir()
	meds := writeData(t, data, "medicines.txt", "x")
	root := filepath.Join(t.TempDir(), "backups")

	bm := NewBackupManager(root)
	bm.UseDateSubdirs = true
	bm.now = func() time.Time { return time.Date(2025, 3, 4, 10, 30, 15, 0, time.UTC) }

	snap, err := bm.Backup(meds)
	require.NoError(t, err)
	rel, err := filepath.Rel(root, snap.Dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("2025", "03", "04"), filepath.Dir(rel))
}

func TestListAndPrune(t *testing.T) {
	data := t.TempDir()
	meds := writeData(t, data, "medicines.txt", "x")
	bm := NewBackupManager(filepath.Join(t.TempDir(), "backups"))

	dirs, err := bm.List()
	require.NoError(t, err)
	assert.Empty(t, dirs)

	old, err := bm.Backup(meds)
	require.NoError(t, err)
	fresh, err := bm.Backup(meds)
	require.NoError(t, err)

	dirs, err = bm.List()
	require.NoError(t, err)
	assert.Len(t, dirs, 2)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old.Files[0], past, past))

	removed, err := bm.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(old.Dir)
	assert.True(t, os.IsNotExist(err))
	assert.True(t, FileExists(fresh.Files[0]))
}

func TestPruneMissingDir(t *testing.T) {
	bm := NewBackupManager(filepath.Join(t.TempDir(), "none"))
	removed, err := bm.Prune(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
