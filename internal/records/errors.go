package records

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/pharmacy-records/internal/validation"
)

// Error kinds reported by the record store and transaction layer. Callers
// match them with errors.Is.
var (
	ErrIOUnavailable          = errors.New("file unavailable")
	ErrMalformedRecord        = errors.New("malformed record")
	ErrDuplicateName          = errors.New("duplicate name")
	ErrDuplicateUsername      = errors.New("duplicate username")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrMedicineNotFound       = errors.New("medicine not found")
	ErrInvalidIndex           = errors.New("invalid index")
	ErrInvariantViolation     = errors.New("invariant violation")
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("file changed since it was loaded")

	// ErrInvalidInput is matched by every *validation.ValidationError.
	ErrInvalidInput = validation.ErrInvalidInput
)

// MalformedRecordError reports a line that could not be parsed.
type MalformedRecordError struct {
	// File is the backing file, set by the store that read the line.
	File string

	// Line is the 1-based line number, set by the store.
	Line int

	// Raw is the unparsed line.
	Raw string

	// Reason says what was wrong with it.
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("malformed record %q: %s", e.Raw, e.Reason)
	}
	return fmt.Sprintf("%s:%d: malformed record %q: %s", e.File, e.Line, e.Raw, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

func malformed(raw, format string, args ...any) *MalformedRecordError {
	return &MalformedRecordError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
}

// IndexError builds an ErrInvalidIndex error for a positional operation.
func IndexError(index, size int) error {
	return fmt.Errorf("%w: %d (have %d records)", ErrInvalidIndex, index, size)
}
