package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the state of an applied payment.
type PaymentStatus string

const (
	PaymentApplied PaymentStatus = "APPLIED"
)

// Payment is one settled collection applied to an invoice. ExternalID is the
// provider-specific idempotency key; the ledger enforces uniqueness on both
// (Provider, ExternalID) and (Provider, InvoiceID), which is what keeps
// re-submitted settlement files from paying the same invoice twice.
type Payment struct {
	ID           uuid.UUID       `json:"id"`
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	Provider     string          `json:"provider"`
	Amount       decimal.Decimal `json:"amount"`
	AccreditedAt time.Time       `json:"accredited_at"`
	ExternalID   string          `json:"external_id"`
	Status       PaymentStatus   `json:"status"`
}

// ReconciliationBatch is the audit row for one settlement-file ingestion.
// It is created when the scan starts and its totals are written once the
// whole file has been consumed.
type ReconciliationBatch struct {
	ID       uuid.UUID       `json:"id"`
	Provider string          `json:"provider"`
	Date     time.Time       `json:"date"`
	FileName string          `json:"file_name"`
	TxCount  int             `json:"tx_count"`
	Total    decimal.Decimal `json:"total"`
}

// BatchResult summarizes one settlement-file run. The diagnostic counters are
// the engine's only channel for soft problems: nothing in the scan aborts on a
// mismatched trailer, an unknown account or a re-submitted transaction.
type BatchResult struct {
	BatchID          uuid.UUID       `json:"batch_id"`
	FileName         string          `json:"file_name"`
	LotCount         int             `json:"lot_count"`
	TransactionCount int             `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`

	SkippedTransactions    int `json:"skipped_transactions"`
	DuplicatePayments      int `json:"duplicate_payments"`
	BarcodeFallbackMatches int `json:"barcode_fallback_matches"`
	TotalMismatches        int `json:"total_mismatches"`
}
