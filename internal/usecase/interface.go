package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"muni-reconciler/internal/domain"
)

// The store interfaces below are the engine's whole view of persistence.
// Implementations must enforce the uniqueness constraints atomically; the
// engine itself performs no locking.
//
//go:generate mockgen -destination=mocks/mock_stores.go -source=interface.go

// InvoiceStore is the invoice lookup/update surface the settlement processor
// and the billing service consume. Lookups return (nil, nil) when nothing
// matches.
type InvoiceStore interface {
	FindByAccountID(ctx context.Context, accountID string) (*domain.Invoice, error)
	FindByBarcode(ctx context.Context, code string) (*domain.Invoice, error)
	FindByObligation(ctx context.Context, obligationID uuid.UUID) (*domain.Invoice, error)
	Insert(ctx context.Context, inv domain.Invoice) error
	MarkPaid(ctx context.Context, invoiceID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// ObligationStore persists tax obligations, unique per (vehicle, period).
type ObligationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.TaxObligation, error)
	FindByVehicleAndPeriod(ctx context.Context, vehicleID uuid.UUID, period string) (*domain.TaxObligation, error)
	Insert(ctx context.Context, o domain.TaxObligation) error
	Update(ctx context.Context, o domain.TaxObligation) error
	MarkPaid(ctx context.Context, obligationID uuid.UUID) error
}

// PaymentLedger is the idempotent payment ledger. Exists answers whether a
// (provider, externalID) pair was already applied; Insert must reject both a
// duplicate external id and a second payment for the same (provider, invoice).
type PaymentLedger interface {
	Exists(ctx context.Context, provider, externalID string) (bool, error)
	Insert(ctx context.Context, p domain.Payment) error
}

// BatchStore records the per-file audit row.
type BatchStore interface {
	Create(ctx context.Context, b domain.ReconciliationBatch) error
	UpdateTotals(ctx context.Context, id uuid.UUID, txCount int, total decimal.Decimal) error
}

// VehicleStore reads the vehicle registry.
type VehicleStore interface {
	ListActive(ctx context.Context) ([]domain.Vehicle, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
}

// OwnerStore resolves vehicle owners.
type OwnerStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Owner, error)
}
