// Package gateway provides the storage implementations behind the usecase
// store interfaces. MemoryStore is the in-process backend; the uniqueness
// constraints it enforces under its mutex are the concurrency safety net the
// settlement processor relies on.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"muni-reconciler/internal/domain"
)

var (
	// ErrDuplicatePayment is returned when a payment with the same
	// (provider, external id) or (provider, invoice) already exists.
	ErrDuplicatePayment = errors.New("duplicate payment")

	// ErrDuplicateInvoice is returned when an invoice would violate the
	// barcode, billing-account or one-per-obligation uniqueness.
	ErrDuplicateInvoice = errors.New("duplicate invoice")

	// ErrDuplicateObligation is returned when an obligation for the same
	// (vehicle, period) already exists.
	ErrDuplicateObligation = errors.New("duplicate obligation")

	// ErrNotFound is returned by updates against a missing row.
	ErrNotFound = errors.New("not found")
)

// MemoryStore holds every table behind one mutex. The typed views returned
// by Invoices, Obligations, Payments, Batches, Vehicles and Owners satisfy
// the corresponding usecase interfaces. All reads return copies, so callers
// never alias internal state.
type MemoryStore struct {
	mu sync.Mutex

	invoices     map[uuid.UUID]*domain.Invoice
	byAccount    map[string]uuid.UUID
	byBarcode    map[string]uuid.UUID
	byObligation map[uuid.UUID]uuid.UUID

	obligations   map[uuid.UUID]*domain.TaxObligation
	obligationKey map[string]uuid.UUID // vehicleID|period

	payments         map[string]*domain.Payment // provider|externalID
	paymentByInvoice map[string]bool            // provider|invoiceID

	batches map[uuid.UUID]*domain.ReconciliationBatch

	vehicles []domain.Vehicle
	owners   map[uuid.UUID]*domain.Owner
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices:         make(map[uuid.UUID]*domain.Invoice),
		byAccount:        make(map[string]uuid.UUID),
		byBarcode:        make(map[string]uuid.UUID),
		byObligation:     make(map[uuid.UUID]uuid.UUID),
		obligations:      make(map[uuid.UUID]*domain.TaxObligation),
		obligationKey:    make(map[string]uuid.UUID),
		payments:         make(map[string]*domain.Payment),
		paymentByInvoice: make(map[string]bool),
		batches:          make(map[uuid.UUID]*domain.ReconciliationBatch),
		owners:           make(map[uuid.UUID]*domain.Owner),
	}
}

// Invoices returns the InvoiceStore view.
func (s *MemoryStore) Invoices() InvoiceLedger { return InvoiceLedger{s} }

// Obligations returns the ObligationStore view.
func (s *MemoryStore) Obligations() ObligationLedger { return ObligationLedger{s} }

// Payments returns the PaymentLedger view.
func (s *MemoryStore) Payments() PaymentJournal { return PaymentJournal{s} }

// Batches returns the BatchStore view.
func (s *MemoryStore) Batches() BatchJournal { return BatchJournal{s} }

// Vehicles returns the VehicleStore view.
func (s *MemoryStore) Vehicles() VehicleRegistry { return VehicleRegistry{s} }

// Owners returns the OwnerStore view.
func (s *MemoryStore) Owners() OwnerRegistry { return OwnerRegistry{s} }

// InvoiceLedger implements the invoice lookup/update interface.
type InvoiceLedger struct{ s *MemoryStore }

func (l InvoiceLedger) FindByAccountID(ctx context.Context, accountID string) (*domain.Invoice, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if id, ok := l.s.byAccount[accountID]; ok {
		inv := *l.s.invoices[id]
		return &inv, nil
	}
	return nil, nil
}

func (l InvoiceLedger) FindByBarcode(ctx context.Context, code string) (*domain.Invoice, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if id, ok := l.s.byBarcode[code]; ok {
		inv := *l.s.invoices[id]
		return &inv, nil
	}
	return nil, nil
}

func (l InvoiceLedger) FindByObligation(ctx context.Context, obligationID uuid.UUID) (*domain.Invoice, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if id, ok := l.s.byObligation[obligationID]; ok {
		inv := *l.s.invoices[id]
		return &inv, nil
	}
	return nil, nil
}

func (l InvoiceLedger) Insert(ctx context.Context, inv domain.Invoice) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.byBarcode[inv.Barcode]; ok {
		return fmt.Errorf("barcode %s: %w", inv.Barcode, ErrDuplicateInvoice)
	}
	if _, ok := l.s.byAccount[inv.BillingAccountID]; ok {
		return fmt.Errorf("billing account %s: %w", inv.BillingAccountID, ErrDuplicateInvoice)
	}
	if _, ok := l.s.byObligation[inv.ObligationID]; ok {
		return fmt.Errorf("obligation %s already invoiced: %w", inv.ObligationID, ErrDuplicateInvoice)
	}
	l.s.invoices[inv.ID] = &inv
	l.s.byBarcode[inv.Barcode] = inv.ID
	l.s.byAccount[inv.BillingAccountID] = inv.ID
	l.s.byObligation[inv.ObligationID] = inv.ID
	return nil
}

func (l InvoiceLedger) MarkPaid(ctx context.Context, invoiceID uuid.UUID) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	inv, ok := l.s.invoices[invoiceID]
	if !ok {
		return fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	inv.Status = domain.InvoicePaid
	return nil
}

func (l InvoiceLedger) Count(ctx context.Context) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return int64(len(l.s.invoices)), nil
}

// ObligationLedger implements the obligation store.
type ObligationLedger struct{ s *MemoryStore }

func (l ObligationLedger) FindByID(ctx context.Context, id uuid.UUID) (*domain.TaxObligation, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if o, ok := l.s.obligations[id]; ok {
		out := *o
		return &out, nil
	}
	return nil, nil
}

func (l ObligationLedger) FindByVehicleAndPeriod(ctx context.Context, vehicleID uuid.UUID, period string) (*domain.TaxObligation, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if id, ok := l.s.obligationKey[obligationKey(vehicleID, period)]; ok {
		out := *l.s.obligations[id]
		return &out, nil
	}
	return nil, nil
}

func (l ObligationLedger) Insert(ctx context.Context, o domain.TaxObligation) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	key := obligationKey(o.VehicleID, o.Period)
	if _, ok := l.s.obligationKey[key]; ok {
		return fmt.Errorf("vehicle %s period %s: %w", o.VehicleID, o.Period, ErrDuplicateObligation)
	}
	l.s.obligations[o.ID] = &o
	l.s.obligationKey[key] = o.ID
	return nil
}

func (l ObligationLedger) Update(ctx context.Context, o domain.TaxObligation) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.obligations[o.ID]; !ok {
		return fmt.Errorf("obligation %s: %w", o.ID, ErrNotFound)
	}
	l.s.obligations[o.ID] = &o
	return nil
}

func (l ObligationLedger) MarkPaid(ctx context.Context, obligationID uuid.UUID) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	o, ok := l.s.obligations[obligationID]
	if !ok {
		return fmt.Errorf("obligation %s: %w", obligationID, ErrNotFound)
	}
	o.Status = domain.ObligationPaid
	return nil
}

// PaymentJournal implements the idempotent payment ledger.
type PaymentJournal struct{ s *MemoryStore }

func (j PaymentJournal) Exists(ctx context.Context, provider, externalID string) (bool, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	_, ok := j.s.payments[paymentKey(provider, externalID)]
	return ok, nil
}

func (j PaymentJournal) Insert(ctx context.Context, p domain.Payment) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	key := paymentKey(p.Provider, p.ExternalID)
	if _, ok := j.s.payments[key]; ok {
		return fmt.Errorf("external id %s: %w", p.ExternalID, ErrDuplicatePayment)
	}
	invKey := paymentKey(p.Provider, p.InvoiceID.String())
	if j.s.paymentByInvoice[invKey] {
		return fmt.Errorf("invoice %s: %w", p.InvoiceID, ErrDuplicatePayment)
	}
	j.s.payments[key] = &p
	j.s.paymentByInvoice[invKey] = true
	return nil
}

// All returns every applied payment, for inspection and tests.
func (j PaymentJournal) All() []domain.Payment {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	out := make([]domain.Payment, 0, len(j.s.payments))
	for _, p := range j.s.payments {
		out = append(out, *p)
	}
	return out
}

// BatchJournal implements the per-file audit store.
type BatchJournal struct{ s *MemoryStore }

func (j BatchJournal) Create(ctx context.Context, b domain.ReconciliationBatch) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	if _, ok := j.s.batches[b.ID]; ok {
		return fmt.Errorf("batch %s already exists", b.ID)
	}
	j.s.batches[b.ID] = &b
	return nil
}

func (j BatchJournal) UpdateTotals(ctx context.Context, id uuid.UUID, txCount int, total decimal.Decimal) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	b, ok := j.s.batches[id]
	if !ok {
		return fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	b.TxCount = txCount
	b.Total = total
	return nil
}

// Get returns one audit row, for inspection and tests.
func (j BatchJournal) Get(id uuid.UUID) (domain.ReconciliationBatch, bool) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	if b, ok := j.s.batches[id]; ok {
		return *b, true
	}
	return domain.ReconciliationBatch{}, false
}

// VehicleRegistry implements the vehicle store, keeping registration order.
type VehicleRegistry struct{ s *MemoryStore }

func (r VehicleRegistry) ListActive(ctx context.Context) ([]domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Vehicle
	for _, v := range r.s.vehicles {
		if v.Active {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r VehicleRegistry) FindByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.vehicles {
		if v.ID == id {
			out := v
			return &out, nil
		}
	}
	return nil, nil
}

// OwnerRegistry implements the owner store.
type OwnerRegistry struct{ s *MemoryStore }

func (r OwnerRegistry) FindByID(ctx context.Context, id uuid.UUID) (*domain.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.owners[id]; ok {
		out := *o
		return &out, nil
	}
	return nil, nil
}

// AddVehicle registers a vehicle.
func (s *MemoryStore) AddVehicle(v domain.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles = append(s.vehicles, v)
}

// AddOwner registers an owner.
func (s *MemoryStore) AddOwner(o domain.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[o.ID] = &o
}

// AddInvoice loads an already issued invoice together with its obligation,
// as when restoring a billing snapshot before settlement.
func (s *MemoryStore) AddInvoice(inv domain.Invoice, obl domain.TaxObligation) error {
	if err := s.Obligations().Insert(context.Background(), obl); err != nil {
		return err
	}
	return s.Invoices().Insert(context.Background(), inv)
}

func obligationKey(vehicleID uuid.UUID, period string) string {
	return vehicleID.String() + "|" + period
}

func paymentKey(provider, suffix string) string {
	return provider + "|" + suffix
}
