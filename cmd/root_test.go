package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness runs the CLI against a private data directory.
type harness struct {
	t       *testing.T
	dir     string
	cfgPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pharmacy.yaml")
	content := "data_dir: " + filepath.Join(dir, "data") + "\n" +
		"backup_dir: " + filepath.Join(dir, "backups") + "\n" +
		"log_file: " + filepath.Join(dir, "pharmacy.log") + "\n" +
		"bcrypt_cost: 4\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return &harness{t: t, dir: dir, cfgPath: cfgPath}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	teardown()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "pharmacy %v: %s", args, out)
	return out
}

// resetFlags restores every flag to its default; cobra keeps values
// between Execute calls in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestMedicineAndSaleFlow(t *testing.T) {
	h := newHarness(t)

	h.mustRun("medicine", "add", "--name", "Aspirin", "--qty", "100", "--price", "2.5", "--expiry", "2099-12-31")

	_, err := h.run("medicine", "add", "--name", "aspirin", "--qty", "1", "--price", "1", "--expiry", "2099-01-01")
	assert.Error(t, err)

	out := h.mustRun("sale", "record", "--name", "Aspirin", "--qty", "10")
	assert.Equal(t, "Sold 10 x Aspirin for $25.00\n", out)

	out = h.mustRun("medicine", "list")
	assert.Equal(t, "[0] Name: Aspirin | Qty: 90 | Price: $2.50 | Expiry: 2099-12-31\n", out)

	_, err = h.run("sale", "record", "--name", "Aspirin", "--qty", "1000")
	assert.Error(t, err)
	assert.Contains(t, h.mustRun("medicine", "list"), "Qty: 90 |")

	assert.Contains(t, h.mustRun("sale", "history"), "TOTAL REVENUE: $25.00")
	assert.Equal(t, "TOTAL REVENUE: $25.00\n", h.mustRun("sale", "revenue"))
	assert.Equal(t, "No pending sale.\n", h.mustRun("sale", "pending"))

	assert.Equal(t, "Aspirin exists\n", h.mustRun("medicine", "exists", "ASPIRIN"))
	assert.Contains(t, h.mustRun("medicine", "search", "spi"), "Name: Aspirin")

	_, err = h.run("sale", "reset")
	assert.ErrorContains(t, err, "--yes")
	out = h.mustRun("sale", "reset", "--yes", "--backup")
	assert.Contains(t, out, "Sales history cleared.")
	assert.Equal(t, "TOTAL REVENUE: $0.00\n", h.mustRun("sale", "revenue"))

	h.mustRun("medicine", "delete", "--index", "0", "--yes")
	assert.Equal(t, "No medicines.\n", h.mustRun("medicine", "list"))
}

func TestMedicineUpdateRequiresEveryField(t *testing.T) {
	h := newHarness(t)
	h.mustRun("medicine", "add", "--name", "Aspirin", "--qty", "100", "--price", "2.5", "--expiry", "2099-12-31")

	_, err := h.run("medicine", "update", "--index", "0", "--name", "Aspirin", "--qty", "90", "--expiry", "2099-12-31")
	assert.ErrorContains(t, err, "price")
	_, err = h.run("medicine", "update", "--index", "0", "--name", "Aspirin", "--price", "3", "--expiry", "2099-12-31")
	assert.ErrorContains(t, err, "qty")
	assert.Equal(t, "[0] Name: Aspirin | Qty: 100 | Price: $2.50 | Expiry: 2099-12-31\n", h.mustRun("medicine", "list"))

	h.mustRun("medicine", "update", "--index", "0", "--name", "Aspirin", "--qty", "90", "--price", "3", "--expiry", "2099-12-31")
	assert.Equal(t, "[0] Name: Aspirin | Qty: 90 | Price: $3.00 | Expiry: 2099-12-31\n", h.mustRun("medicine", "list"))
}

func TestSaleUsesExplicitPrice(t *testing.T) {
	h := newHarness(t)
	h.mustRun("medicine", "add", "--name", "Ibuprofen", "--qty", "5", "--price", "4", "--expiry", "2099-06-30")

	out := h.mustRun("sale", "record", "--name", "Ibuprofen", "--qty", "2", "--price", "3.5")
	assert.Equal(t, "Sold 2 x Ibuprofen for $7.00\n", out)

	_, err := h.run("sale", "record", "--name", "Unknown", "--qty", "1")
	assert.Error(t, err)
}

func TestUserCommands(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "Logged in as admin (Admin)\n", h.mustRun("user", "login", "--username", "admin", "--password", "admin"))
	_, err := h.run("user", "login", "--username", "admin", "--password", "wrong")
	assert.ErrorContains(t, err, "invalid username or password")

	h.mustRun("user", "add", "--username", "alice", "--password", "s3cret", "--role", "Pharmacist")
	_, err = h.run("user", "add", "--username", "bob", "--password", "x", "--role", "Admin")
	assert.Error(t, err)

	out := h.mustRun("user", "list")
	assert.Equal(t, "[0] admin | Admin\n[1] alice | Pharmacist\n", out)
	assert.NotContains(t, out, "s3cret")

	h.mustRun("user", "admin", "--password", "changed")
	_, err = h.run("user", "login", "--username", "admin", "--password", "admin")
	assert.Error(t, err)
	h.mustRun("user", "login", "--username", "admin", "--password", "changed")

	_, err = h.run("user", "delete", "--index", "0", "--yes")
	assert.Error(t, err)
	h.mustRun("user", "delete", "--index", "1", "--yes")
	assert.Equal(t, "[0] admin | Admin\n", h.mustRun("user", "list"))
}

func TestSupplierCommands(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "No suppliers.\n", h.mustRun("supplier", "list"))
	h.mustRun("supplier", "add", "--name", "Acme", "--phone", "555", "--address", "1 Main St", "--medicines", "Aspirin")
	_, err := h.run("supplier", "add", "--name", "ACME", "--phone", "1", "--address", "x")
	assert.Error(t, err)
	_, err = h.run("supplier", "add", "--name", "Bad||Name", "--phone", "1", "--address", "x")
	assert.Error(t, err)

	assert.Equal(t, "[0] Acme | 555 | 1 Main St | Aspirin\n", h.mustRun("supplier", "list"))

	h.mustRun("supplier", "delete", "--index", "0", "--yes")
	assert.Equal(t, "No suppliers.\n", h.mustRun("supplier", "list"))
}

func TestExportAndBackup(t *testing.T) {
	h := newHarness(t)
	h.mustRun("medicine", "add", "--name", "Aspirin", "--qty", "3", "--price", "1", "--expiry", "2099-12-31")

	path := filepath.Join(h.dir, "out", "records.xlsx")
	out := h.mustRun("export", "--out", path)
	assert.Contains(t, out, "Exported 1 medicines, 0 sales and 0 suppliers")
	_, err := os.Stat(path)
	assert.NoError(t, err)

	assert.Contains(t, h.mustRun("backup"), "Backed up 2 files")
	assert.Contains(t, h.mustRun("backup", "--list"), filepath.Join(h.dir, "backups"))
}

func TestBackupIncludesSaleJournal(t *testing.T) {
	h := newHarness(t)
	h.mustRun("medicine", "add", "--name", "Aspirin", "--qty", "3", "--price", "1", "--expiry", "2099-12-31")
	h.mustRun("sale", "record", "--name", "Aspirin", "--qty", "1")

	assert.Contains(t, h.mustRun("backup"), "Backed up 4 files")

	dirs := strings.Fields(h.mustRun("backup", "--list"))
	require.Len(t, dirs, 1)
	for _, name := range []string{"medicines.txt", "purchases.txt", "users.txt", "sales.journal"} {
		_, err := os.Stat(filepath.Join(dirs[0], name))
		assert.NoError(t, err, name)
	}
}

func TestConfigInitAndVersion(t *testing.T) {
	h := newHarness(t)
	h.cfgPath = filepath.Join(h.dir, "fresh", "pharmacy.yaml")

	out := h.mustRun("config", "init")
	assert.Contains(t, out, "Wrote")
	_, err := h.run("config", "init")
	assert.Error(t, err)
	h.mustRun("config", "init", "--force")

	// Neither command touches the data directory.
	_, err = os.Stat(filepath.Join(h.dir, "data"))
	assert.True(t, os.IsNotExist(err))

	out = h.mustRun("version")
	assert.Contains(t, out, "Pharmacy Records")
	assert.Contains(t, out, "Build Date: "+BuildDate)
	assert.Equal(t, Version+"\n", h.mustRun("version", "--short"))
}
