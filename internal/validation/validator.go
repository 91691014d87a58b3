// =============================================================================
// Pharmacy Records - Field Validation Module
// =============================================================================
//
// This module holds the field-level rules every ledger enforces before it
// touches a file. Presentation layers are expected to collect and trim
// input, but the core re-validates everything it is given.
//
// RULES:
//   - required      : the value must not be empty after trimming
//   - non_negative  : integers and decimals must be >= 0
//   - positive      : integers must be > 0
//   - delimiter     : the value must not contain the record delimiter
//                     or a line break (values are never escaped on disk)
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is matched by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// =============================================================================
// VALIDATION ERROR TYPE
// =============================================================================

// ValidationError describes a single rejected field value.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Value is the offending value, rendered as text.
	Value string

	// Rule is the rule that was violated (see the module header).
	Rule string

	// Message is a human-readable explanation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("field '%s': %s (value: '%s')", e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// =============================================================================
// RULES
// =============================================================================

// Required rejects empty or whitespace-only values.
func Required(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Value: value, Rule: "required", Message: "must not be empty"}
	}
	return nil
}

// NonNegativeInt rejects values below zero.
func NonNegativeInt(field string, value int) *ValidationError {
	if value < 0 {
		return &ValidationError{Field: field, Value: strconv.Itoa(value), Rule: "non_negative", Message: "must be zero or greater"}
	}
	return nil
}

// PositiveInt rejects values below one.
func PositiveInt(field string, value int) *ValidationError {
	if value <= 0 {
		return &ValidationError{Field: field, Value: strconv.Itoa(value), Rule: "positive", Message: "must be greater than zero"}
	}
	return nil
}

// NonNegativeDecimal rejects negative, NaN and infinite values.
func NonNegativeDecimal(field string, value float64) *ValidationError {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return &ValidationError{
			Field:   field,
			Value:   strconv.FormatFloat(value, 'f', -1, 64),
			Rule:    "non_negative",
			Message: "must be a finite number zero or greater",
		}
	}
	return nil
}

// NoDelimiter rejects values that would break the line format of a record
// type using the given delimiter.
func NoDelimiter(field, value, delimiter string) *ValidationError {
	if strings.Contains(value, delimiter) {
		return &ValidationError{
			Field:   field,
			Value:   value,
			Rule:    "delimiter",
			Message: fmt.Sprintf("must not contain the delimiter %q", delimiter),
		}
	}
	if strings.ContainsAny(value, "\r\n") {
		return &ValidationError{Field: field, Value: value, Rule: "delimiter", Message: "must not contain a line break"}
	}
	return nil
}

// First returns the first failed check as an error. It returns an untyped
// nil when every check passed.
func First(checks ...*ValidationError) error {
	for _, c := range checks {
		if c != nil {
			return c
		}
	}
	return nil
}
