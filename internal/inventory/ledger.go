// =============================================================================
// Pharmacy Records - Inventory Ledger
// =============================================================================
//
// The inventory ledger owns medicines.txt. Records are addressed by their
// position in the current load order; every operation reloads the file
// before interpreting an index, and no positions are cached between calls.
//
// MALFORMED LINES:
//   - Read operations (LoadAll, MedicineExists, Search, ...) skip and log
//     them.
//   - Mutations load strictly and fail, because a rewrite would drop the
//     bad line without anyone noticing.
//
// =============================================================================

package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/pharmacy-records/internal/flatfile"
	"github.com/ginjaninja78/pharmacy-records/internal/records"
	"github.com/ginjaninja78/pharmacy-records/internal/validation"
)

// Ledger manages the medicine inventory file.
type Ledger struct {
	store *flatfile.Store[records.Medicine]
	log   logrus.FieldLogger
}

// New creates a ledger over the given medicines file.
func New(path string, log logrus.FieldLogger) *Ledger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("ledger", "inventory")
	return &Ledger{
		store: flatfile.New[records.Medicine](path, records.MedicineCodec{}, flatfile.NewGate(), log),
		log:   log,
	}
}

// Gate returns the single-writer section guarding medicines.txt.
func (l *Ledger) Gate() *flatfile.Gate { return l.store.Gate() }

// Path returns the backing file.
func (l *Ledger) Path() string { return l.store.Path() }

func validateMedicine(m records.Medicine) error {
	return validation.First(
		validation.Required("name", m.Name),
		validation.NoDelimiter("name", m.Name, records.MedicineCodec{}.Delimiter()),
		validation.NonNegativeInt("quantity", m.Quantity),
		validation.NonNegativeDecimal("price", m.UnitPrice),
	)
}

func newMedicine(name string, qty int, price float64, expiry time.Time) records.Medicine {
	y, m, d := expiry.Date()
	return records.Medicine{
		Name:       name,
		Quantity:   qty,
		UnitPrice:  price,
		ExpiryDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddMedicine appends a medicine.
//
// RETURNS:
//   - records.ErrDuplicateName if a medicine with the same name (ignoring
//     case) exists; nothing is written.
func (l *Ledger) AddMedicine(ctx context.Context, name string, qty int, price float64, expiry time.Time) error {
	med := newMedicine(name, qty, price, expiry)
	if err := validateMedicine(med); err != nil {
		return err
	}

	return l.store.Gate().Write(ctx, func(ctx context.Context) error {
		list, err := l.store.LoadStrict(ctx)
		if err != nil {
			return err
		}
		if indexOf(list, name) >= 0 {
			return fmt.Errorf("%w: medicine %q already exists", records.ErrDuplicateName, name)
		}
		if err := l.store.AppendOne(ctx, med); err != nil {
			return err
		}
		l.log.WithField("name", name).Info("medicine added")
		return nil
	})
}

// UpdateMedicineAt replaces the record at index in the current load order.
//
// RETURNS:
//   - records.ErrInvalidIndex if index is out of range.
//   - records.ErrDuplicateName if the new name belongs to a different
//     record.
func (l *Ledger) UpdateMedicineAt(ctx context.Context, index int, name string, qty int, price float64, expiry time.Time) error {
	med := newMedicine(name, qty, price, expiry)
	if err := validateMedicine(med); err != nil {
		return err
	}

	return l.store.Gate().Write(ctx, func(ctx context.Context) error {
		list, err := l.store.LoadStrict(ctx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(list) {
			return records.IndexError(index, len(list))
		}
		if other := indexOf(list, name); other >= 0 && other != index {
			return fmt.Errorf("%w: medicine %q already exists", records.ErrDuplicateName, name)
		}

		list[index] = med
		if err := l.store.OverwriteAll(ctx, list); err != nil {
			return err
		}
		l.log.WithFields(logrus.Fields{"index": index, "name": name}).Info("medicine updated")
		return nil
	})
}

// DeleteMedicineAt removes the record at index in the current load order.
func (l *Ledger) DeleteMedicineAt(ctx context.Context, index int) error {
	return l.store.Gate().Write(ctx, func(ctx context.Context) error {
		list, err := l.store.LoadStrict(ctx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(list) {
			return records.IndexError(index, len(list))
		}

		removed := list[index]
		list = append(list[:index], list[index+1:]...)
		if err := l.store.OverwriteAll(ctx, list); err != nil {
			return err
		}
		l.log.WithFields(logrus.Fields{"index": index, "name": removed.Name}).Info("medicine deleted")
		return nil
	})
}

// Snapshot loads every record strictly. Callers that rewrite the file from
// the result use it instead of LoadAll.
func (l *Ledger) Snapshot(ctx context.Context) ([]records.Medicine, error) {
	return l.store.LoadStrict(ctx)
}

// Replace overwrites the whole file.
func (l *Ledger) Replace(ctx context.Context, list []records.Medicine) error {
	for _, m := range list {
		if err := validateMedicine(m); err != nil {
			return err
		}
	}
	return l.store.OverwriteAll(ctx, list)
}

// =============================================================================
// READS
// =============================================================================

// LoadAll returns every readable record. An unreadable file is logged and
// treated as empty.
func (l *Ledger) LoadAll(ctx context.Context) ([]records.Medicine, error) {
	list, err := l.store.LoadTolerant(ctx)
	if errors.Is(err, records.ErrIOUnavailable) {
		l.log.WithError(err).Warn("inventory unavailable, treating as empty")
		return []records.Medicine{}, nil
	}
	return list, err
}

// MedicineExists reports whether a medicine with that name exists,
// ignoring case.
func (l *Ledger) MedicineExists(ctx context.Context, name string) (bool, error) {
	list, err := l.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(list, name) >= 0, nil
}

// FindByName returns the record whose name equals name exactly, and its
// position.
func (l *Ledger) FindByName(ctx context.Context, name string) (records.Medicine, int, error) {
	list, err := l.LoadAll(ctx)
	if err != nil {
		return records.Medicine{}, -1, err
	}
	for i, m := range list {
		if m.Name == name {
			return m, i, nil
		}
	}
	return records.Medicine{}, -1, fmt.Errorf("%w: %q", records.ErrMedicineNotFound, name)
}

// Search returns in-stock medicines whose name contains query, ignoring
// case. An empty query matches every in-stock medicine.
func (l *Ledger) Search(ctx context.Context, query string) ([]records.Medicine, error) {
	list, err := l.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	matches := []records.Medicine{}
	for _, m := range list {
		if m.Quantity > 0 && strings.Contains(strings.ToLower(m.Name), q) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// ExpiringWithin returns medicines whose expiry date falls on or before
// now plus days, soonest first. Already-expired medicines are included.
func (l *Ledger) ExpiringWithin(ctx context.Context, now time.Time, days int) ([]records.Medicine, error) {
	if err := validation.First(validation.NonNegativeInt("days", days)); err != nil {
		return nil, err
	}
	list, err := l.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)

	expiring := []records.Medicine{}
	for _, med := range list {
		if !med.ExpiryDate.After(cutoff) {
			expiring = append(expiring, med)
		}
	}
	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].ExpiryDate.Before(expiring[j].ExpiryDate)
	})
	return expiring, nil
}

// AsDisplayString renders the inventory one medicine per line.
func (l *Ledger) AsDisplayString(ctx context.Context) (string, error) {
	list, err := l.LoadAll(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, m := range list {
		fmt.Fprintf(&b, "Name: %s | Qty: %d | Price: $%s | Expiry: %s\n",
			m.Name, m.Quantity, formatPrice(m.UnitPrice), m.ExpiryDate.Format(records.DateLayout))
	}
	return b.String(), nil
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func indexOf(list []records.Medicine, name string) int {
	for i, m := range list {
		if strings.EqualFold(m.Name, name) {
			return i
		}
	}
	return -1
}
