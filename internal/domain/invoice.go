package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus tracks the lifecycle of an issued bill.
type InvoiceStatus string

const (
	InvoiceIssued InvoiceStatus = "ISSUED"
	InvoicePaid   InvoiceStatus = "PAID"
)

// ObligationStatus tracks the lifecycle of a tax obligation.
type ObligationStatus string

const (
	ObligationGenerated ObligationStatus = "GENERATED"
	ObligationInvoiced  ObligationStatus = "INVOICED"
	ObligationPaid      ObligationStatus = "PAID"
)

// Invoice is the printable bill for one tax obligation. At most one invoice
// exists per obligation. Barcode and BillingAccountID are the two keys the
// cash-collection network echoes back in its settlement file, so both must be
// unique across all invoices.
type Invoice struct {
	ID               uuid.UUID       `json:"id"`
	ObligationID     uuid.UUID       `json:"obligation_id"`
	Number           string          `json:"number"`
	AmountDue        decimal.Decimal `json:"amount_due"`
	DueFirst         time.Time       `json:"due_first"`
	DueSecond        time.Time       `json:"due_second"`
	Barcode          string          `json:"barcode"`
	CompanyID        string          `json:"company_id"`         // 4 digits assigned by the collection network
	BillingAccountID string          `json:"billing_account_id"` // normalized 14-digit account
	CurrencyCode     string          `json:"currency_code"`      // single digit, "0" = local currency
	Status           InvoiceStatus   `json:"status"`
}

// TaxObligation is one vehicle's tax liability for a YYYYMM period.
// Unique per (VehicleID, Period).
type TaxObligation struct {
	ID             uuid.UUID        `json:"id"`
	VehicleID      uuid.UUID        `json:"vehicle_id"`
	Period         string           `json:"period"` // YYYYMM
	AmountFirstDue decimal.Decimal  `json:"amount_first_due"`
	Surcharge      decimal.Decimal  `json:"surcharge"` // applies after the first due date
	DueFirst       time.Time        `json:"due_first"`
	DueSecond      time.Time        `json:"due_second"`
	Status         ObligationStatus `json:"status"`
}
