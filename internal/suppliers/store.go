// =============================================================================
// Pharmacy Records - Supplier Store
// =============================================================================
//
// Suppliers are edited as a session batch: Load reads suppliers.txt once,
// Add and DeleteAt change only the in-memory batch, and a save writes the
// whole batch back.
//
// SAVING:
//   - SaveAll replaces the file unconditionally. A session that loaded
//     earlier and saves later discards any save made in between.
//   - SaveIfUnchanged compares the file with the fingerprint taken at load
//     time and refuses to save over someone else's changes.
//
// =============================================================================

package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/pharmacy-records/internal/flatfile"
	"github.com/ginjaninja78/pharmacy-records/internal/records"
	"github.com/ginjaninja78/pharmacy-records/internal/validation"
)

// Store loads and saves supplier batches.
type Store struct {
	store *flatfile.Store[records.Supplier]
	log   logrus.FieldLogger
}

// New creates a supplier store over the given file.
func New(path string, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("store", "suppliers")
	return &Store{
		store: flatfile.New[records.Supplier](path, records.SupplierCodec{}, flatfile.NewGate(), log),
		log:   log,
	}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.store.Path() }

// Batch is a session's mutable copy of the supplier list.
type Batch struct {
	suppliers   []records.Supplier
	fingerprint string
}

// Load reads the supplier file into a new batch. Malformed lines are
// skipped and logged; an unreadable file yields an empty batch.
func (s *Store) Load(ctx context.Context) (*Batch, error) {
	batch := &Batch{}
	err := s.store.Gate().Read(ctx, func(ctx context.Context) error {
		list, err := s.store.LoadTolerant(ctx)
		if errors.Is(err, records.ErrIOUnavailable) {
			s.log.WithError(err).Warn("suppliers file unavailable, starting empty")
			list, err = []records.Supplier{}, nil
		}
		if err != nil {
			return err
		}
		batch.suppliers = list

		// An unreadable file has no usable fingerprint; leaving it empty
		// matches a missing file.
		if sum, err := s.store.Fingerprint(ctx); err == nil {
			batch.fingerprint = sum
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// SaveAll writes the batch, replacing the file's contents.
func (s *Store) SaveAll(ctx context.Context, b *Batch) error {
	return s.store.Gate().Write(ctx, func(ctx context.Context) error {
		return s.save(ctx, b)
	})
}

// SaveIfUnchanged writes the batch only if the file still matches what the
// batch was loaded from.
//
// RETURNS:
//   - records.ErrConcurrentModification if the file changed since Load.
func (s *Store) SaveIfUnchanged(ctx context.Context, b *Batch) error {
	return s.store.Gate().Write(ctx, func(ctx context.Context) error {
		current, err := s.store.Fingerprint(ctx)
		if err != nil {
			return err
		}
		if current != b.fingerprint {
			return fmt.Errorf("%w: %s", records.ErrConcurrentModification, s.store.Path())
		}
		return s.save(ctx, b)
	})
}

func (s *Store) save(ctx context.Context, b *Batch) error {
	if err := s.store.OverwriteAll(ctx, b.suppliers); err != nil {
		return err
	}
	sum, err := s.store.Fingerprint(ctx)
	if err != nil {
		return err
	}
	b.fingerprint = sum
	s.log.WithField("suppliers", len(b.suppliers)).Info("suppliers saved")
	return nil
}

// =============================================================================
// BATCH OPERATIONS
// =============================================================================

// Add appends a supplier to the batch.
//
// RETURNS:
//   - A validation error if name, phone or address is empty or a field
//     contains the "||" delimiter.
//   - records.ErrDuplicateName if the batch already has that name,
//     ignoring case.
func (b *Batch) Add(sup records.Supplier) error {
	delim := records.SupplierCodec{}.Delimiter()
	err := validation.First(
		validation.Required("name", sup.Name),
		validation.Required("phone", sup.Phone),
		validation.Required("address", sup.Address),
		validation.NoDelimiter("name", sup.Name, delim),
		validation.NoDelimiter("phone", sup.Phone, delim),
		validation.NoDelimiter("address", sup.Address, delim),
		validation.NoDelimiter("supplied medicines", sup.SuppliedMedicines, delim),
	)
	if err != nil {
		return err
	}
	for _, existing := range b.suppliers {
		if strings.EqualFold(existing.Name, sup.Name) {
			return fmt.Errorf("%w: supplier %q already exists", records.ErrDuplicateName, sup.Name)
		}
	}
	b.suppliers = append(b.suppliers, sup)
	return nil
}

// DeleteAt removes the supplier at index from the batch.
func (b *Batch) DeleteAt(index int) error {
	if index < 0 || index >= len(b.suppliers) {
		return records.IndexError(index, len(b.suppliers))
	}
	b.suppliers = append(b.suppliers[:index], b.suppliers[index+1:]...)
	return nil
}

// Suppliers returns a copy of the batch contents.
func (b *Batch) Suppliers() []records.Supplier {
	out := make([]records.Supplier, len(b.suppliers))
	copy(out, b.suppliers)
	return out
}

// Len returns the number of suppliers in the batch.
func (b *Batch) Len() int { return len(b.suppliers) }
