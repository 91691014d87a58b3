package suppliers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pharmacy-records/internal/records"
)

func setup(t *testing.T) (*Store, context.Context) {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "suppliers.txt"), nil), context.Background()
}

var acme = records.Supplier{
	Name:              "Acme Pharma",
	Phone:             "555-0100",
	Address:           "1 Main St, Springfield",
	SuppliedMedicines: "Aspirin, Ibuprofen",
}

func TestLoadMissingFile(t *testing.T) {
	s, ctx := setup(t)

	b, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Suppliers())
}

func TestAddSaveLoad(t *testing.T) {
	s, ctx := setup(t)
	b, err := s.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Add(acme))
	require.NoError(t, b.Add(records.Supplier{Name: "Beta", Phone: "2", Address: "x"}))

	// Nothing is written before a save.
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.SaveAll(ctx, b))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "Acme Pharma||555-0100||1 Main St, Springfield||Aspirin, Ibuprofen\nBeta||2||x||\n", string(data))

	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.Suppliers(), again.Suppliers())
}

func TestAddRejects(t *testing.T) {
	s, ctx := setup(t)
	b, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Add(acme))

	err = b.Add(records.Supplier{Name: "ACME pharma", Phone: "1", Address: "y"})
	assert.True(t, errors.Is(err, records.ErrDuplicateName))

	for _, sup := range []records.Supplier{
		{Name: "", Phone: "1", Address: "x"},
		{Name: "N", Phone: "", Address: "x"},
		{Name: "N", Phone: "1", Address: " "},
		{Name: "N||M", Phone: "1", Address: "x"},
		{Name: "N", Phone: "1", Address: "x", SuppliedMedicines: "a||b"},
	} {
		assert.True(t, errors.Is(b.Add(sup), records.ErrInvalidInput), "supplier %+v", sup)
	}
	assert.Equal(t, 1, b.Len())
}

func TestDeleteAt(t *testing.T) {
	s, ctx := setup(t)
	b, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Add(acme))
	require.NoError(t, b.Add(records.Supplier{Name: "Beta", Phone: "2", Address: "x"}))

	assert.True(t, errors.Is(b.DeleteAt(2), records.ErrInvalidIndex))
	assert.True(t, errors.Is(b.DeleteAt(-1), records.ErrInvalidIndex))

	require.NoError(t, b.DeleteAt(0))
	require.Equal(t, 1, b.Len())
	assert.Equal(t, "Beta", b.Suppliers()[0].Name)
}

func TestSuppliersReturnsCopy(t *testing.T) {
	s, ctx := setup(t)
	b, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Add(acme))

	list := b.Suppliers()
	list[0].Name = "Changed"
	assert.Equal(t, "Acme Pharma", b.Suppliers()[0].Name)
}

func TestSaveAllOverwritesLaterSession(t *testing.T) {
	s, ctx := setup(t)
	first, err := s.Load(ctx)
	require.NoError(t, err)
	second, err := s.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, first.Add(acme))
	require.NoError(t, s.SaveAll(ctx, first))

	require.NoError(t, second.Add(records.Supplier{Name: "Beta", Phone: "2", Address: "x"}))
	require.NoError(t, s.SaveAll(ctx, second))

	final, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, final.Len())
	assert.Equal(t, "Beta", final.Suppliers()[0].Name)
}

func TestSaveIfUnchangedDetectsLostUpdate(t *testing.T) {
	s, ctx := setup(t)
	first, err := s.Load(ctx)
	require.NoError(t, err)
	second, err := s.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, first.Add(acme))
	require.NoError(t, s.SaveIfUnchanged(ctx, first))

	require.NoError(t, second.Add(records.Supplier{Name: "Beta", Phone: "2", Address: "x"}))
	err = s.SaveIfUnchanged(ctx, second)
	assert.True(t, errors.Is(err, records.ErrConcurrentModification))

	// The saving session can keep saving.
	require.NoError(t, first.DeleteAt(0))
	require.NoError(t, s.SaveIfUnchanged(ctx, first))

	final, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, final.Len())
}

func TestLoadSkipsMalformed(t *testing.T) {
	s, ctx := setup(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("A||1||x||\nbroken line\n"), 0644))

	b, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())
}
