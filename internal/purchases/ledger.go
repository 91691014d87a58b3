// =============================================================================
// Pharmacy Records - Purchase Ledger
// =============================================================================
//
// The purchase ledger owns purchases.txt, an append-only log of sales.
// Records are never edited; the whole history can be cleared with
// ResetHistory. Confirmation before a reset is the caller's job.
//
// =============================================================================

package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/pharmacy-records/internal/flatfile"
	"github.com/ginjaninja78/pharmacy-records/internal/records"
	"github.com/ginjaninja78/pharmacy-records/internal/validation"
)

// Ledger manages the purchase history file.
type Ledger struct {
	store *flatfile.Store[records.Purchase]
	log   logrus.FieldLogger
}

// New creates a ledger over the given purchases file.
func New(path string, log logrus.FieldLogger) *Ledger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("ledger", "purchases")
	return &Ledger{
		store: flatfile.New[records.Purchase](path, records.PurchaseCodec{}, flatfile.NewGate(), log),
		log:   log,
	}
}

// Gate returns the single-writer section guarding purchases.txt.
func (l *Ledger) Gate() *flatfile.Gate { return l.store.Gate() }

// Path returns the backing file.
func (l *Ledger) Path() string { return l.store.Path() }

// Append adds one purchase to the end of the ledger.
func (l *Ledger) Append(ctx context.Context, p records.Purchase) error {
	err := validation.First(
		validation.Required("medicine name", p.MedicineName),
		validation.PositiveInt("quantity", p.Quantity),
		validation.NonNegativeDecimal("price", p.UnitPrice),
		validation.NonNegativeDecimal("total", p.Total),
	)
	if err != nil {
		return err
	}
	if err := l.store.AppendOne(ctx, p); err != nil {
		return err
	}
	l.log.WithFields(logrus.Fields{"medicine": p.MedicineName, "quantity": p.Quantity}).Debug("purchase appended")
	return nil
}

// LoadAll returns every readable purchase in ledger order. Malformed lines
// are skipped and logged; an unreadable file is treated as empty.
func (l *Ledger) LoadAll(ctx context.Context) ([]records.Purchase, error) {
	list, err := l.store.LoadTolerant(ctx)
	if errors.Is(err, records.ErrIOUnavailable) {
		l.log.WithError(err).Warn("purchase history unavailable, treating as empty")
		return []records.Purchase{}, nil
	}
	return list, err
}

// TotalRevenue sums the stored total of every purchase.
func (l *Ledger) TotalRevenue(ctx context.Context) (float64, error) {
	list, err := l.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return sumTotals(list), nil
}

// ResetHistory empties the ledger.
func (l *Ledger) ResetHistory(ctx context.Context) error {
	if err := l.store.Truncate(ctx); err != nil {
		return err
	}
	l.log.Info("purchase history reset")
	return nil
}

// AsDisplayString renders the history followed by the revenue total.
func (l *Ledger) AsDisplayString(ctx context.Context) (string, error) {
	list, err := l.LoadAll(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range list {
		fmt.Fprintf(&b, "Medicine: %s | Qty: %d | Price: $%.2f | Total: $%.2f | Time: %s\n",
			p.MedicineName, p.Quantity, p.UnitPrice, p.Total, p.Timestamp.Format(records.TimestampLayout))
	}
	b.WriteString("\n=========================\n")
	fmt.Fprintf(&b, "TOTAL REVENUE: $%.2f", sumTotals(list))
	return b.String(), nil
}

// Len returns the number of readable purchases, the position the next
// append takes in LoadAll order.
func (l *Ledger) Len(ctx context.Context) (int, error) {
	list, err := l.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// Contains reports whether a purchase equal to p in every stored field is
// in the ledger at position from or later.
func (l *Ledger) Contains(ctx context.Context, p records.Purchase, from int) (bool, error) {
	list, err := l.store.LoadTolerant(ctx)
	if err != nil {
		return false, err
	}
	if from < 0 {
		from = 0
	}
	if from > len(list) {
		return false, nil
	}
	for _, existing := range list[from:] {
		if samePurchase(existing, p) {
			return true, nil
		}
	}
	return false, nil
}

func samePurchase(a, b records.Purchase) bool {
	return a.MedicineName == b.MedicineName &&
		a.Quantity == b.Quantity &&
		a.UnitPrice == b.UnitPrice &&
		a.Total == b.Total &&
		a.Timestamp.Equal(b.Timestamp)
}

// =============================================================================
// REPORTS
// =============================================================================

// Summary aggregates purchases over a time range.
type Summary struct {
	From    time.Time
	To      time.Time
	Sales   int
	Units   int
	Revenue float64
}

// Summarize aggregates purchases with from <= Timestamp < to. A zero from
// or to leaves that side open.
func (l *Ledger) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	list, err := l.LoadAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{From: from, To: to}
	for _, p := range list {
		if !from.IsZero() && p.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !p.Timestamp.Before(to) {
			continue
		}
		s.Sales++
		s.Units += p.Quantity
		s.Revenue += p.Total
	}
	return s, nil
}

func sumTotals(list []records.Purchase) float64 {
	var total float64
	for _, p := range list {
		total += p.Total
	}
	return total
}
