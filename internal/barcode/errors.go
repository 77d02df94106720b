package barcode

import "errors"

var (
	// ErrWidthOverflow means an amount needs more digits than the field allows.
	// High-order digits are never silently dropped.
	ErrWidthOverflow = errors.New("amount does not fit requested width")

	// ErrNegativeAmount means a negative amount was given to an encoder that
	// only handles unsigned fields.
	ErrNegativeAmount = errors.New("amount is negative")

	// ErrDueDateSpan means the gap between first and second due dates is
	// outside the 0..99 days the two-digit field can carry.
	ErrDueDateSpan = errors.New("days between due dates outside 0..99")

	// ErrCompanyID means the collection-network company id is not exactly
	// four digits.
	ErrCompanyID = errors.New("company id must be exactly 4 digits")
)
