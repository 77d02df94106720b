package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muni-reconciler/internal/domain"
	"muni-reconciler/internal/gateway"
)

func invoiceFixture() domain.Invoice {
	return domain.Invoice{
		ID:               uuid.New(),
		ObligationID:     uuid.New(),
		Number:           "001-00000001",
		AmountDue:        decimal.RequireFromString("8500.00"),
		Barcode:          "123400850000250311234567890123400323001007",
		CompanyID:        "1234",
		BillingAccountID: "20123456783250",
		CurrencyCode:     "0",
		Status:           domain.InvoiceIssued,
	}
}

func TestInvoiceLedger_Uniqueness(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()
	invoices := store.Invoices()

	first := invoiceFixture()
	require.NoError(t, invoices.Insert(ctx, first))

	dup := invoiceFixture() // fresh ids, same barcode and account
	err := invoices.Insert(ctx, dup)
	assert.ErrorIs(t, err, gateway.ErrDuplicateInvoice)

	dup.Barcode = "999999999999999999999999999999999999999999"
	err = invoices.Insert(ctx, dup)
	assert.ErrorIs(t, err, gateway.ErrDuplicateInvoice, "billing account is still taken")

	dup.BillingAccountID = "00000000000042"
	dup.ObligationID = first.ObligationID
	err = invoices.Insert(ctx, dup)
	assert.ErrorIs(t, err, gateway.ErrDuplicateInvoice, "one invoice per obligation")

	dup.ObligationID = uuid.New()
	assert.NoError(t, invoices.Insert(ctx, dup))

	count, err := invoices.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestInvoiceLedger_LookupsAndMarkPaid(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()
	invoices := store.Invoices()

	inv := invoiceFixture()
	require.NoError(t, invoices.Insert(ctx, inv))

	byAccount, err := invoices.FindByAccountID(ctx, inv.BillingAccountID)
	require.NoError(t, err)
	require.NotNil(t, byAccount)
	assert.Equal(t, inv.ID, byAccount.ID)

	// Returned rows are copies; mutating one never leaks back.
	byAccount.Status = domain.InvoicePaid
	fresh, err := invoices.FindByBarcode(ctx, inv.Barcode)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceIssued, fresh.Status)

	missing, err := invoices.FindByAccountID(ctx, "99999999999999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, invoices.MarkPaid(ctx, inv.ID))
	paid, err := invoices.FindByObligation(ctx, inv.ObligationID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, paid.Status)

	err = invoices.MarkPaid(ctx, uuid.New())
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestObligationLedger(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()
	obligations := store.Obligations()

	obl := domain.TaxObligation{
		ID:             uuid.New(),
		VehicleID:      uuid.New(),
		Period:         "202501",
		AmountFirstDue: decimal.NewFromInt(8500),
		Status:         domain.ObligationGenerated,
	}
	require.NoError(t, obligations.Insert(ctx, obl))

	err := obligations.Insert(ctx, domain.TaxObligation{
		ID:        uuid.New(),
		VehicleID: obl.VehicleID,
		Period:    obl.Period,
	})
	assert.ErrorIs(t, err, gateway.ErrDuplicateObligation)

	// Same vehicle, different period is fine.
	require.NoError(t, obligations.Insert(ctx, domain.TaxObligation{
		ID:        uuid.New(),
		VehicleID: obl.VehicleID,
		Period:    "202502",
	}))

	obl.Surcharge = decimal.RequireFromString("323.00")
	require.NoError(t, obligations.Update(ctx, obl))
	got, err := obligations.FindByID(ctx, obl.ID)
	require.NoError(t, err)
	assert.True(t, got.Surcharge.Equal(obl.Surcharge))

	err = obligations.Update(ctx, domain.TaxObligation{ID: uuid.New()})
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	require.NoError(t, obligations.MarkPaid(ctx, obl.ID))
	got, err = obligations.FindByVehicleAndPeriod(ctx, obl.VehicleID, obl.Period)
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationPaid, got.Status)
}

func TestPaymentJournal_Uniqueness(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()
	payments := store.Payments()

	p := domain.Payment{
		ID:           uuid.New(),
		InvoiceID:    uuid.New(),
		Provider:     "PAGOFACIL",
		Amount:       decimal.RequireFromString("8500.00"),
		AccreditedAt: time.Now(),
		ExternalID:   "PAGOFACIL:20250115:000001:00001",
		Status:       domain.PaymentApplied,
	}
	require.NoError(t, payments.Insert(ctx, p))

	exists, err := payments.Exists(ctx, p.Provider, p.ExternalID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = payments.Exists(ctx, "OTHER", p.ExternalID)
	require.NoError(t, err)
	assert.False(t, exists, "keys are scoped per provider")

	dup := p
	dup.ID = uuid.New()
	err = payments.Insert(ctx, dup)
	assert.ErrorIs(t, err, gateway.ErrDuplicatePayment)

	// A different external id against the same invoice is still refused.
	dup.ExternalID = "PAGOFACIL:20250116:000001:00001"
	err = payments.Insert(ctx, dup)
	assert.ErrorIs(t, err, gateway.ErrDuplicatePayment)

	dup.InvoiceID = uuid.New()
	assert.NoError(t, payments.Insert(ctx, dup))
	assert.Len(t, payments.All(), 2)
}

func TestBatchJournal(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()
	batches := store.Batches()

	b := domain.ReconciliationBatch{
		ID:       uuid.New(),
		Provider: "PAGOFACIL",
		Date:     time.Now(),
		FileName: "PF150125.0001",
	}
	require.NoError(t, batches.Create(ctx, b))
	assert.Error(t, batches.Create(ctx, b))

	total := decimal.RequireFromString("1500.00")
	require.NoError(t, batches.UpdateTotals(ctx, b.ID, 2, total))

	got, ok := batches.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.TxCount)
	assert.True(t, got.Total.Equal(total))
	assert.Equal(t, "PF150125.0001", got.FileName)

	err := batches.UpdateTotals(ctx, uuid.New(), 1, total)
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	_, ok = batches.Get(uuid.New())
	assert.False(t, ok)
}

func TestVehicleAndOwnerRegistries(t *testing.T) {
	ctx := context.Background()
	store := gateway.NewMemoryStore()

	owner := domain.Owner{ID: uuid.New(), Name: "Juan Perez", TaxID: "20-12345678-3"}
	store.AddOwner(owner)

	active := domain.Vehicle{ID: uuid.New(), OwnerID: owner.ID, Plate: "AB123CD", Category: "AUTO", Active: true}
	inactive := domain.Vehicle{ID: uuid.New(), OwnerID: owner.ID, Plate: "XY987ZT", Category: "AUTO", Active: false}
	store.AddVehicle(active)
	store.AddVehicle(inactive)

	list, err := store.Vehicles().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	v, err := store.Vehicles().FindByID(ctx, inactive.ID)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.False(t, v.Active)

	o, err := store.Owners().FindByID(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "20-12345678-3", o.TaxID)

	missing, err := store.Owners().FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAddInvoiceLinksObligation(t *testing.T) {
	store := gateway.NewMemoryStore()

	inv := invoiceFixture()
	obl := domain.TaxObligation{
		ID:        inv.ObligationID,
		VehicleID: uuid.New(),
		Period:    "202501",
		Status:    domain.ObligationInvoiced,
	}
	require.NoError(t, store.AddInvoice(inv, obl))

	got, err := store.Invoices().FindByObligation(context.Background(), obl.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inv.ID, got.ID)

	err = store.AddInvoice(inv, obl)
	assert.ErrorIs(t, err, gateway.ErrDuplicateObligation)
}
