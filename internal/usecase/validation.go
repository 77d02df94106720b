package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"muni-reconciler/internal/barcode"
	"muni-reconciler/internal/domain"
)

// ErrBarcodeTooShort is returned for a validation query whose barcode cannot
// possibly be one this system issued.
var ErrBarcodeTooShort = errors.New("barcode shorter than 42 characters")

// ValidationResult is the pre-payment snapshot the cash network requests at
// the counter before accepting money for a bill.
type ValidationResult struct {
	Valid            bool                 `json:"valid"`
	InvoiceID        uuid.UUID            `json:"invoice_id,omitempty"`
	Period           string               `json:"period,omitempty"`
	AmountFirstDue   decimal.Decimal      `json:"amount_first_due"`
	DueFirst         time.Time            `json:"due_first"`
	Surcharge        decimal.Decimal      `json:"surcharge"`
	DueSecond        time.Time            `json:"due_second"`
	InvoiceStatus    domain.InvoiceStatus `json:"invoice_status,omitempty"`
	BillingAccountID string               `json:"billing_account_id,omitempty"`
}

// ValidateBarcode resolves the invoice behind a scanned barcode. An unknown
// barcode is not an error: the result simply reports Valid=false.
func (s *BillingService) ValidateBarcode(ctx context.Context, code string) (*ValidationResult, error) {
	if len(code) < barcode.Length {
		return nil, ErrBarcodeTooShort
	}
	inv, err := s.invoices.FindByBarcode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("look up invoice by barcode: %w", err)
	}
	return s.snapshot(ctx, inv)
}

// ValidateAccount resolves the invoice behind a billing-account id.
func (s *BillingService) ValidateAccount(ctx context.Context, accountID string) (*ValidationResult, error) {
	inv, err := s.invoices.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("look up invoice by account: %w", err)
	}
	return s.snapshot(ctx, inv)
}

func (s *BillingService) snapshot(ctx context.Context, inv *domain.Invoice) (*ValidationResult, error) {
	if inv == nil {
		return &ValidationResult{Valid: false}, nil
	}
	obl, err := s.obligations.FindByID(ctx, inv.ObligationID)
	if err != nil {
		return nil, fmt.Errorf("look up obligation %s: %w", inv.ObligationID, err)
	}
	if obl == nil {
		return nil, fmt.Errorf("invoice %s references missing obligation %s", inv.ID, inv.ObligationID)
	}
	return &ValidationResult{
		Valid:            true,
		InvoiceID:        inv.ID,
		Period:           obl.Period,
		AmountFirstDue:   obl.AmountFirstDue,
		DueFirst:         obl.DueFirst,
		Surcharge:        obl.Surcharge,
		DueSecond:        obl.DueSecond,
		InvoiceStatus:    inv.Status,
		BillingAccountID: inv.BillingAccountID,
	}, nil
}
