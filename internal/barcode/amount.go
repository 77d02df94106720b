package barcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// EncodeAmount renders amount as a zero-padded digit string of exactly
// intDigits+decDigits characters, holding the amount in 10^-decDigits units.
// Halves round away from zero. An amount that does not fit the width is an
// error, never a truncation.
func EncodeAmount(amount decimal.Decimal, intDigits, decDigits int) (string, error) {
	scaled := amount.Shift(int32(decDigits)).Round(0)
	if scaled.Sign() < 0 {
		return "", fmt.Errorf("encode %s: %w", amount, ErrNegativeAmount)
	}
	digits := scaled.BigInt().String()
	width := intDigits + decDigits
	if len(digits) > width {
		return "", fmt.Errorf("encode %s as %d+%d digits: %w", amount, intDigits, decDigits, ErrWidthOverflow)
	}
	return strings.Repeat("0", width-len(digits)) + digits, nil
}

// DecodeAmount parses a digit string holding an integer number of
// 10^-decDigits units back into a decimal amount.
func DecodeAmount(digits string, decDigits int) (decimal.Decimal, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(digits), 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount field %q: %w", digits, err)
	}
	return decimal.New(n, int32(-decDigits)), nil
}
