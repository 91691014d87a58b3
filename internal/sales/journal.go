package sales

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/pharmacy-records/internal/flatfile"
	"github.com/ginjaninja78/pharmacy-records/internal/records"
)

// Intent is the journal record for a sale in flight. It is written before
// the inventory is touched and cleared once the purchase is in the ledger.
type Intent struct {
	ID          uuid.UUID
	Purchase    records.Purchase
	StockBefore int
	StockAfter  int

	// LedgerOffset is the number of purchases in the ledger when the
	// intent was written. The sale's entry can only be at or after it.
	LedgerOffset int
}

// IntentCodec reads and writes journal lines:
//
//	id,medicineName,quantity,unitPrice,total,timestamp,stockBefore,stockAfter,ledgerOffset
//
// Lines without ledgerOffset are read with an offset of 0.
type IntentCodec struct{}

func (IntentCodec) Delimiter() string { return "," }

func (c IntentCodec) Format(it Intent) (string, error) {
	purchase, err := records.PurchaseCodec{}.Format(it.Purchase)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		it.ID.String(),
		purchase,
		strconv.Itoa(it.StockBefore),
		strconv.Itoa(it.StockAfter),
		strconv.Itoa(it.LedgerOffset),
	}, c.Delimiter()), nil
}

func (c IntentCodec) Parse(line string) (Intent, error) {
	fields := strings.Split(line, c.Delimiter())
	if len(fields) != 8 && len(fields) != 9 {
		return Intent{}, badIntent(line, "expected 9 fields, got %d", len(fields))
	}

	id, err := uuid.Parse(fields[0])
	if err != nil {
		return Intent{}, badIntent(line, "intent id %q: %v", fields[0], err)
	}
	purchase, err := records.PurchaseCodec{}.Parse(strings.Join(fields[1:6], c.Delimiter()))
	if err != nil {
		return Intent{}, badIntent(line, "%v", err)
	}
	before, err := strconv.Atoi(fields[6])
	if err != nil {
		return Intent{}, badIntent(line, "stock before %q is not an integer", fields[6])
	}
	after, err := strconv.Atoi(fields[7])
	if err != nil {
		return Intent{}, badIntent(line, "stock after %q is not an integer", fields[7])
	}

	offset := 0
	if len(fields) == 9 {
		offset, err = strconv.Atoi(fields[8])
		if err != nil || offset < 0 {
			return Intent{}, badIntent(line, "ledger offset %q is not a non-negative integer", fields[8])
		}
	}

	return Intent{ID: id, Purchase: purchase, StockBefore: before, StockAfter: after, LedgerOffset: offset}, nil
}

func badIntent(line, format string, args ...any) *records.MalformedRecordError {
	return &records.MalformedRecordError{Raw: line, Reason: fmt.Sprintf(format, args...)}
}

// journal holds at most one pending intent.
type journal struct {
	store *flatfile.Store[Intent]
}

func newJournal(path string, gate *flatfile.Gate, log logrus.FieldLogger) *journal {
	return &journal{store: flatfile.New[Intent](path, IntentCodec{}, gate, log)}
}

// pending returns the intent in the journal, or nil.
func (j *journal) pending(ctx context.Context) (*Intent, error) {
	list, err := j.store.LoadStrict(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sale journal: %w", err)
	}
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return &list[0], nil
	default:
		return nil, fmt.Errorf("%w: journal holds %d intents", ErrJournalConflict, len(list))
	}
}

func (j *journal) write(ctx context.Context, it Intent) error {
	if err := j.store.OverwriteAll(ctx, []Intent{it}); err != nil {
		return fmt.Errorf("failed to write sale intent: %w", err)
	}
	return nil
}

func (j *journal) clear(ctx context.Context) error {
	if err := j.store.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to clear sale journal: %w", err)
	}
	return nil
}
