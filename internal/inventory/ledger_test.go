package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pharmacy-records/internal/records"
)

func date(s string) time.Time {
	d, err := records.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func setup(t *testing.T) (*Ledger, context.Context) {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "medicines.txt"), nil), context.Background()
}

func seed(t *testing.T, l *Ledger, ctx context.Context) {
	t.Helper()
	require.NoError(t, l.AddMedicine(ctx, "Aspirin", 100, 2.5, date("2025-12-31")))
	require.NoError(t, l.AddMedicine(ctx, "Ibuprofen", 0, 4, date("2025-06-30")))
	require.NoError(t, l.AddMedicine(ctx, "Paracetamol", 20, 1.25, date("2026-01-15")))
}

func TestAddMedicine(t *testing.T) {
	l, ctx := setup(t)
	require.NoError(t, l.AddMedicine(ctx, "Aspirin", 100, 2.5, date("2025-12-31")))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, records.Medicine{Name: "Aspirin", Quantity: 100, UnitPrice: 2.5, ExpiryDate: date("2025-12-31")}, list[0])
}

func TestAddMedicineRejectsDuplicateIgnoringCase(t *testing.T) {
	l, ctx := setup(t)
	require.NoError(t, l.AddMedicine(ctx, "Aspirin", 100, 2.5, date("2025-12-31")))

	err := l.AddMedicine(ctx, "aSPIRIN", 5, 1, date("2026-01-01"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, records.ErrDuplicateName))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddMedicineValidation(t *testing.T) {
	l, ctx := setup(t)

	for _, tc := range []struct {
		name  string
		qty   int
		price float64
	}{
		{"", 1, 1},
		{"   ", 1, 1},
		{"Bad,Name", 1, 1},
		{"Aspirin", -1, 1},
		{"Aspirin", 1, -0.01},
	} {
		err := l.AddMedicine(ctx, tc.name, tc.qty, tc.price, date("2025-12-31"))
		assert.True(t, errors.Is(err, records.ErrInvalidInput), "input %+v", tc)
	}

	_, err := os.Stat(l.Path())
	assert.True(t, os.IsNotExist(err), "rejected adds must not create the file")
}

func TestUpdateMedicineAt(t *testing.T) {
	l, ctx := setup(t)
	seed(t, l, ctx)

	require.NoError(t, l.UpdateMedicineAt(ctx, 1, "Ibuprofen 200mg", 7, 3.75, date("2027-02-01")))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, records.Medicine{Name: "Ibuprofen 200mg", Quantity: 7, UnitPrice: 3.75, ExpiryDate: date("2027-02-01")}, list[1])
	assert.Equal(t, "Aspirin", list[0].Name)
	assert.Equal(t, "Paracetamol", list[2].Name)
}

func TestUpdateMedicineAtKeepsOwnNameInAnyCase(t *testing.T) {
	l, ctx := setup(t)
	seed(t, l, ctx)

	require.NoError(t, l.UpdateMedicineAt(ctx, 0, "ASPIRIN", 90, 2.5, date("2025-12-31")))

	err := l.UpdateMedicineAt(ctx, 0, "paracetamol", 90, 2.5, date("2025-12-31"))
	assert.True(t, errors.Is(err, records.ErrDuplicateName))
}

func TestIndexOutOfRange(t *testing.T) {
	l, ctx := setup(t)
	seed(t, l, ctx)

	for _, index := range []int{-1, 3, 100} {
		err := l.UpdateMedicineAt(ctx, index, "X", 1, 1, date("2025-12-31"))
		assert.True(t, errors.Is(err, records.ErrInvalidIndex))
		err = l.DeleteMedicineAt(ctx, index)
		assert.True(t, errors.Is(err, records.ErrInvalidIndex))
	}
}

func TestDeleteMedicineAt(t *testing.T) {
	l, ctx := setup(t)
	seed(t, l, ctx)

	require.NoError(t, l.DeleteMedicineAt(ctx, 0))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ibuprofen", list[0].Name)

	// Positions shift after a delete.
	require.NoError(t, l.DeleteMedicineAt(ctx, 0))
	list, err = l.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Paracetamol", list[0].Name)
}

func TestMedicineExists(t *testing.T) {
	l, ctx := setup(t)
	seed(t, l, ctx)

	ok, err := l.MedicineExists(ctx, "paracetamol")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.MedicineExists(ctx, "Codeine")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindByNameIsExact(t *testing.T) {
	l, ctx := setup(t)
	seed(t, l, ctx)

	m, i, err := l.FindByName(ctx, "Paracetamol")
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.Equal(t, 20, m.Quantity)

	_, _, err = l.FindByName(ctx, "paracetamol")
	assert.True(t, errors.Is(err, records.ErrMedicineNotFound))
}

func TestSearchSkipsOutOfStock(t *testing.T) {
	l, ctx := setup(t)
	seed(t, l, ctx)

	got, err := l.Search(ctx, "PRO")
	require.NoError(t, err)
	assert.Empty(t, got, "Ibuprofen has no stock")

	got, err = l.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Aspirin", got[0].Name)
	assert.Equal(t, "Paracetamol", got[1].Name)
}

func TestExpiringWithin(t *testing.T) {
	l, ctx := setup(t)
	seed(t, l, ctx)
	now := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)

	got, err := l.ExpiringWithin(ctx, now, 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ibuprofen", got[0].Name)

	got, err = l.ExpiringWithin(ctx, now, 365)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Ibuprofen", "Aspirin", "Paracetamol"}, []string{got[0].Name, got[1].Name, got[2].Name})

	_, err = l.ExpiringWithin(ctx, now, -1)
	assert.True(t, errors.Is(err, records.ErrInvalidInput))
}

func TestAsDisplayString(t *testing.T) {
	l, ctx := setup(t)
	require.NoError(t, l.AddMedicine(ctx, "Aspirin", 100, 2.5, date("2025-12-31")))

	out, err := l.AsDisplayString(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Name: Aspirin | Qty: 100 | Price: $2.50 | Expiry: 2025-12-31\n", out)
}

func TestMalformedLinePolicy(t *testing.T) {
	l, ctx := setup(t)
	content := "Aspirin,100,2.5,2025-12-31\ngarbage\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0644))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = l.AddMedicine(ctx, "Biotin", 1, 1, date("2026-01-01"))
	assert.True(t, errors.Is(err, records.ErrMalformedRecord))
	err = l.DeleteMedicineAt(ctx, 0)
	assert.True(t, errors.Is(err, records.ErrMalformedRecord))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestOutOfRangeValuesAreMalformed(t *testing.T) {
	l, ctx := setup(t)
	content := "Broken,-3,1,2025-01-01\nAspirin,100,2.5,2025-12-31\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0644))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Aspirin", list[0].Name)

	_, err = l.Snapshot(ctx)
	var bad *records.MalformedRecordError
	require.True(t, errors.As(err, &bad))
	assert.Equal(t, 1, bad.Line)
	assert.Equal(t, "Broken,-3,1,2025-01-01", bad.Raw)
}

func TestLoadAllUnreadableIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medicines.txt")
	require.NoError(t, os.Mkdir(path, 0755))
	l := New(path, nil)

	list, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
