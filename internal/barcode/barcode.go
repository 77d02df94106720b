// Package barcode builds and decodes the fixed-length numeric barcode the
// cash-collection network prints on municipal tax bills.
package barcode

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Length is the exact size of every barcode this package builds.
	Length = 42

	amountIntDigits    = 6
	amountDecDigits    = 2
	surchargeIntDigits = 4
	surchargeDecDigits = 2
	accountWidth       = 14

	// currencyLocal is the single-digit currency code for local-currency bills.
	currencyLocal = "0"
)

// Build assembles the 42-digit collection-network barcode:
//
//	company(4) amount(8) due1 as YYDDD(5) account(14) currency(1)
//	surcharge(6) days-to-second-due(2) check digits(2)
//
// The first check digit covers the 40-char base, the second covers the base
// plus the first digit.
func Build(companyID string, amountDue decimal.Decimal, dueFirst time.Time, billingAccountID string, surcharge decimal.Decimal, dueSecond time.Time) (string, error) {
	if len(companyID) != 4 || !allDigits(companyID) {
		return "", fmt.Errorf("company id %q: %w", companyID, ErrCompanyID)
	}

	amount8, err := EncodeAmount(amountDue, amountIntDigits, amountDecDigits)
	if err != nil {
		return "", err
	}
	surcharge6, err := EncodeAmount(surcharge, surchargeIntDigits, surchargeDecDigits)
	if err != nil {
		return "", err
	}

	delta := daysBetween(dueFirst, dueSecond)
	if delta < 0 || delta > 99 {
		return "", fmt.Errorf("due1 %s, due2 %s: %w", dueFirst.Format(time.DateOnly), dueSecond.Format(time.DateOnly), ErrDueDateSpan)
	}

	base := companyID + amount8 + encodeYYDDD(dueFirst) + NormalizeAccountID(billingAccountID) +
		currencyLocal + surcharge6 + fmt.Sprintf("%02d", delta)

	dv1 := CheckDigit(base)
	dv2 := CheckDigit(base + strconv.Itoa(dv1))
	return base + strconv.Itoa(dv1) + strconv.Itoa(dv2), nil
}

// NormalizeAccountID left-pads the billing-account id with zeros to 14 digits
// and keeps the rightmost 14 characters. An overlong id therefore loses its
// leading characters instead of failing the build; the surviving digits are
// the ones the network echoes back.
func NormalizeAccountID(id string) string {
	if len(id) < accountWidth {
		return strings.Repeat("0", accountWidth-len(id)) + id
	}
	return id[len(id)-accountWidth:]
}

// encodeYYDDD renders a date as two-digit year mod 100 plus three-digit day
// of year (001..366).
func encodeYYDDD(t time.Time) string {
	return fmt.Sprintf("%02d%03d", t.Year()%100, t.YearDay())
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
