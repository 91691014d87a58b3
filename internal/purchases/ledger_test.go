package purchases

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

func setup(t *testing.T) (*Ledger, context.Context) {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "purchases.txt"), nil), context.Background()
}

func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.Local)
}

func TestAppendAndLoadAll(t *testing.T) {
	l, ctx := setup(t)
	first := records.NewPurchase("Aspirin", 10, 2.5, at(1, 9))
	second := records.NewPurchase("Ibuprofen", 1, 4, at(1, 10))

	require.NoError(t, l.Append(ctx, first))
	require.NoError(t, l.Append(ctx, second))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []records.Purchase{first, second}, list)
}

func TestAppendValidation(t *testing.T) {
	l, ctx := setup(t)

	err := l.Append(ctx, records.NewPurchase("Aspirin", 0, 2.5, at(1, 9)))
	assert.True(t, errors.Is(err, records.ErrInvalidInput))
	err = l.Append(ctx, records.NewPurchase("Aspirin", 1, -1, at(1, 9)))
	assert.True(t, errors.Is(err, records.ErrInvalidInput))
	err = l.Append(ctx, records.NewPurchase("", 1, 1, at(1, 9)))
	assert.True(t, errors.Is(err, records.ErrInvalidInput))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTotalRevenue(t *testing.T) {
	l, ctx := setup(t)
	require.NoError(t, l.Append(ctx, records.NewPurchase("Aspirin", 10, 2.5, at(1, 9))))
	require.NoError(t, l.Append(ctx, records.NewPurchase("Ibuprofen", 2, 4, at(2, 9))))

	total, err := l.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 33.0, total, 1e-9)
}

func TestTotalRevenueUsesStoredTotals(t *testing.T) {
	l, ctx := setup(t)
	content := "Aspirin,10,2.5,20,2025-03-01 09:00:00\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0644))

	total, err := l.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.0, total)
}

func TestResetHistory(t *testing.T) {
	l, ctx := setup(t)
	require.NoError(t, l.Append(ctx, records.NewPurchase("Aspirin", 10, 2.5, at(1, 9))))

	require.NoError(t, l.ResetHistory(ctx))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	total, err := l.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAsDisplayString(t *testing.T) {
	l, ctx := setup(t)
	require.NoError(t, l.Append(ctx, records.NewPurchase("Aspirin", 10, 2.5, at(1, 9))))

	out, err := l.AsDisplayString(ctx)
	require.NoError(t, err)
	want := "Medicine: Aspirin | Qty: 10 | Price: $2.50 | Total: $25.00 | Time: 2025-03-01 09:00:00\n" +
		"\n=========================\n" +
		"TOTAL REVENUE: $25.00"
	assert.Equal(t, want, out)
}

func TestAsDisplayStringEmpty(t *testing.T) {
	l, ctx := setup(t)

	out, err := l.AsDisplayString(ctx)
	require.NoError(t, err)
	assert.Equal(t, "\n=========================\nTOTAL REVENUE: $0.00", out)
}

func TestLoadAllSkipsMalformed(t *testing.T) {
	l, ctx := setup(t)
	content := "Aspirin,10,2.5,25,2025-03-01 09:00:00\nAspirin,ten,2.5,25,2025-03-01 09:00:00\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0644))

	list, err := l.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSummarize(t *testing.T) {
	l, ctx := setup(t)
	require.NoError(t, l.Append(ctx, records.NewPurchase("Aspirin", 10, 2.5, at(1, 9))))
	require.NoError(t, l.Append(ctx, records.NewPurchase("Aspirin", 2, 2.5, at(2, 9))))
	require.NoError(t, l.Append(ctx, records.NewPurchase("Ibuprofen", 1, 4, at(3, 0))))

	s, err := l.Summarize(ctx, at(2, 0), at(3, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Sales)
	assert.Equal(t, 2, s.Units)
	assert.InDelta(t, 5.0, s.Revenue, 1e-9)

	all, err := l.Summarize(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Sales)
	assert.InDelta(t, 34.0, all.Revenue, 1e-9)
}

func TestContains(t *testing.T) {
	l, ctx := setup(t)
	p := records.NewPurchase("Aspirin", 10, 2.5, at(1, 9))
	require.NoError(t, l.Append(ctx, p))

	ok, err := l.Contains(ctx, p, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Contains(ctx, records.NewPurchase("Aspirin", 10, 2.5, at(1, 10)), 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContainsIgnoresEntriesBeforeOffset(t *testing.T) {
	l, ctx := setup(t)
	p := records.NewPurchase("Aspirin", 1, 2.5, at(1, 9))
	require.NoError(t, l.Append(ctx, p))

	n, err := l.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := l.Contains(ctx, p, n)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Append(ctx, p))
	ok, err = l.Contains(ctx, p, n)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Contains(ctx, p, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}
