// =============================================================================
// Pharmacy Records - Sale Coordinator
// =============================================================================
//
// The coordinator records a sale across two files: it decrements the
// medicine in medicines.txt and appends the purchase to purchases.txt.
// Those are two independent writes, so the sale is framed by an intent
// journal (sales.journal):
//
// SALE PIPELINE:
//   1. Validate quantity and price
//   2. Enter the inventory gate, then the purchase gate
//   3. Finish or discard any intent left by an interrupted sale
//   4. Load the inventory and find the medicine by exact name
//   5. Check stock
//   6. Write the intent
//   7. Rewrite the inventory with the new quantity
//   8. Append the purchase
//   9. Clear the intent
//
// A failure before step 6 writes nothing. A failure at step 7 clears the
// intent again. A failure at step 8 leaves the intent in place and the next
// Recover appends the missing purchase.
//
// The journal shares the purchase ledger's gate. Gates are always entered
// inventory first.
//
// =============================================================================

package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/pharmacy-records/internal/inventory"
	"github.com/ginjaninja78/pharmacy-records/internal/purchases"
	"github.com/ginjaninja78/pharmacy-records/internal/records"
	"github.com/ginjaninja78/pharmacy-records/internal/validation"
)

var (
	// ErrSaleIncomplete means the inventory was decremented but the
	// purchase could not be appended. The intent stays in the journal.
	ErrSaleIncomplete = errors.New("sale incomplete: inventory updated but purchase not recorded")

	// ErrJournalConflict means a pending intent matches neither the
	// before nor the after state of the inventory.
	ErrJournalConflict = errors.New("sale journal conflicts with inventory")
)

// Outcome says what Recover did with a pending intent.
type Outcome int

const (
	// NothingPending means the journal was empty.
	NothingPending Outcome = iota

	// RolledBack means the inventory was never written; the intent was
	// discarded.
	RolledBack

	// RolledForward means the inventory was written; the purchase was
	// appended if missing and the intent cleared.
	RolledForward
)

func (o Outcome) String() string {
	switch o {
	case RolledBack:
		return "rolled back"
	case RolledForward:
		return "rolled forward"
	default:
		return "nothing pending"
	}
}

// Recovery reports the result of Recover.
type Recovery struct {
	Outcome Outcome

	// Intent is the intent that was found, or nil.
	Intent *Intent

	// Appended is true when recovery wrote the missing purchase.
	Appended bool
}

// Coordinator records sales against the inventory and purchase ledgers.
type Coordinator struct {
	inventory *inventory.Ledger
	purchases *purchases.Ledger
	journal   *journal
	now       func() time.Time
	log       logrus.FieldLogger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now for purchase timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New creates a coordinator.
//
// PARAMETERS:
//   - inv: The inventory ledger.
//   - pur: The purchase ledger.
//   - journalPath: The intent journal file.
//   - log: Logger; nil uses the logrus standard logger.
func New(inv *inventory.Ledger, pur *purchases.Ledger, journalPath string, log logrus.FieldLogger, opts ...Option) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "sales")
	c := &Coordinator{
		inventory: inv,
		purchases: pur,
		journal:   newJournal(journalPath, pur.Gate(), log),
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// withGates runs fn holding the inventory gate and then the purchase gate.
func (c *Coordinator) withGates(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.inventory.Gate().Write(ctx, func(ctx context.Context) error {
		return c.purchases.Gate().Write(ctx, fn)
	})
}

// =============================================================================
// RECORD PURCHASE
// =============================================================================

// RecordPurchase sells qty units of the medicine named name at price each.
//
// RETURNS:
//   - The purchase written to the ledger.
//   - A validation error if qty <= 0 or price < 0.
//   - records.ErrMedicineNotFound if no medicine has exactly that name.
//   - records.ErrInsufficientStock if qty exceeds the stock.
//   - An error wrapping ErrSaleIncomplete if the inventory was updated but
//     the purchase could not be appended.
//   In every error case except ErrSaleIncomplete both files are unchanged.
func (c *Coordinator) RecordPurchase(ctx context.Context, name string, qty int, price float64) (records.Purchase, error) {
	err := validation.First(
		validation.Required("medicine name", name),
		validation.PositiveInt("quantity", qty),
		validation.NonNegativeDecimal("price", price),
	)
	if err != nil {
		return records.Purchase{}, err
	}

	var sold records.Purchase
	err = c.withGates(ctx, func(ctx context.Context) error {
		if _, err := c.Recover(ctx); err != nil {
			return err
		}

		list, err := c.inventory.Snapshot(ctx)
		if err != nil {
			return err
		}
		index := -1
		for i, m := range list {
			if m.Name == name {
				index = i
				break
			}
		}
		if index < 0 {
			return fmt.Errorf("%w: %q", records.ErrMedicineNotFound, name)
		}

		before := list[index].Quantity
		after := before - qty
		if after < 0 {
			return fmt.Errorf("%w: %q has %d, requested %d", records.ErrInsufficientStock, name, before, qty)
		}

		offset, err := c.purchases.Len(ctx)
		if err != nil {
			return err
		}

		intent := Intent{
			ID:           uuid.New(),
			Purchase:     records.NewPurchase(name, qty, price, c.now()),
			StockBefore:  before,
			StockAfter:   after,
			LedgerOffset: offset,
		}
		log := c.log.WithFields(logrus.Fields{"intent": intent.ID, "medicine": name, "quantity": qty})

		if err := c.journal.write(ctx, intent); err != nil {
			return err
		}

		list[index].Quantity = after
		if err := c.inventory.Replace(ctx, list); err != nil {
			if clearErr := c.journal.clear(ctx); clearErr != nil {
				log.WithError(clearErr).Warn("could not clear intent after failed inventory write")
			}
			return err
		}

		if err := c.purchases.Append(ctx, intent.Purchase); err != nil {
			log.WithError(err).Error("purchase append failed, intent kept for recovery")
			return fmt.Errorf("%w: %v", ErrSaleIncomplete, err)
		}

		if err := c.journal.clear(ctx); err != nil {
			// The sale is complete; the next Recover finds the purchase
			// already recorded and only clears the intent.
			log.WithError(err).Warn("sale recorded but intent not cleared")
		}

		sold = intent.Purchase
		log.WithField("stock", after).Info("sale recorded")
		return nil
	})
	if err != nil {
		return records.Purchase{}, err
	}
	return sold, nil
}

// =============================================================================
// RECOVERY
// =============================================================================

// Recover resolves an intent left by an interrupted sale.
//
// The medicine's current quantity decides:
//   - equal to the intent's stock before: the inventory was never written,
//     the intent is discarded.
//   - equal to the stock after: the purchase is appended unless the ledger
//     already has it past the intent's ledger offset, then the intent is
//     cleared.
//   - anything else, or the medicine is gone: ErrJournalConflict, and the
//     intent stays for manual resolution.
func (c *Coordinator) Recover(ctx context.Context) (*Recovery, error) {
	var rec *Recovery
	err := c.withGates(ctx, func(ctx context.Context) error {
		intent, err := c.journal.pending(ctx)
		if err != nil {
			return err
		}
		if intent == nil {
			rec = &Recovery{Outcome: NothingPending}
			return nil
		}
		log := c.log.WithFields(logrus.Fields{"intent": intent.ID, "medicine": intent.Purchase.MedicineName})

		list, err := c.inventory.Snapshot(ctx)
		if err != nil {
			return err
		}
		current, found := 0, false
		for _, m := range list {
			if m.Name == intent.Purchase.MedicineName {
				current, found = m.Quantity, true
				break
			}
		}

		switch {
		case found && current == intent.StockAfter:
			appended := false
			recorded, err := c.purchases.Contains(ctx, intent.Purchase, intent.LedgerOffset)
			if err != nil {
				return err
			}
			if !recorded {
				if err := c.purchases.Append(ctx, intent.Purchase); err != nil {
					return fmt.Errorf("%w: %v", ErrSaleIncomplete, err)
				}
				appended = true
			}
			if err := c.journal.clear(ctx); err != nil {
				return err
			}
			rec = &Recovery{Outcome: RolledForward, Intent: intent, Appended: appended}
			log.WithField("appended", appended).Info("interrupted sale rolled forward")
			return nil

		case found && current == intent.StockBefore:
			if err := c.journal.clear(ctx); err != nil {
				return err
			}
			rec = &Recovery{Outcome: RolledBack, Intent: intent}
			log.Info("interrupted sale rolled back")
			return nil

		case !found:
			return fmt.Errorf("%w: medicine %q no longer exists (intent %s)",
				ErrJournalConflict, intent.Purchase.MedicineName, intent.ID)

		default:
			return fmt.Errorf("%w: %q has %d, intent %s expected %d or %d",
				ErrJournalConflict, intent.Purchase.MedicineName, current, intent.ID, intent.StockBefore, intent.StockAfter)
		}
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Pending returns the intent currently in the journal, or nil.
func (c *Coordinator) Pending(ctx context.Context) (*Intent, error) {
	var it *Intent
	err := c.purchases.Gate().Read(ctx, func(ctx context.Context) error {
		var err error
		it, err = c.journal.pending(ctx)
		return err
	})
	return it, err
}

// Discard drops a pending intent without touching either ledger. It is the
// manual way out of ErrJournalConflict.
func (c *Coordinator) Discard(ctx context.Context) error {
	return c.withGates(ctx, func(ctx context.Context) error {
		return c.journal.clear(ctx)
	})
}
