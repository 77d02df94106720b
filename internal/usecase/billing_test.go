package usecase_test

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
	"muni-reconciler/internal/usecase"
)

const companyID = "1234"

func TestQuoteFor(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		period     string
		wantAmount string
		wantSurch  string
		wantDue1   time.Time
		wantDue2   time.Time
	}{
		{
			name:       "default category",
			category:   "AUTO",
			period:     "202501",
			wantAmount: "8500",
			wantSurch:  "323.00",
			wantDue1:   time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
			wantDue2:   time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "heavy motorbike pays the higher base",
			category:   "MOTO_>150cc",
			period:     "202501",
			wantAmount: "12000",
			wantSurch:  "456.00",
			wantDue1:   time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
			wantDue2:   time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "second due crosses the year",
			category:   "AUTO",
			period:     "202512",
			wantAmount: "8500",
			wantSurch:  "323.00",
			wantDue1:   time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
			wantDue2:   time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "february has the right last day",
			category:   "AUTO",
			period:     "202402",
			wantAmount: "8500",
			wantSurch:  "323.00",
			wantDue1:   time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
			wantDue2:   time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := usecase.QuoteFor(tt.category, tt.period)
			require.NoError(t, err)
			assert.True(t, quote.AmountFirstDue.Equal(decimal.RequireFromString(tt.wantAmount)),
				"amount %s", quote.AmountFirstDue)
			assert.True(t, quote.Surcharge.Equal(decimal.RequireFromString(tt.wantSurch)),
				"surcharge %s", quote.Surcharge)
			assert.True(t, quote.DueFirst.Equal(tt.wantDue1), "due first %s", quote.DueFirst)
			assert.True(t, quote.DueSecond.Equal(tt.wantDue2), "due second %s", quote.DueSecond)
		})
	}
}

func TestQuoteFor_InvalidPeriod(t *testing.T) {
	for _, period := range []string{"", "2025", "20251", "2025013", "2025AB", "202500", "202513"} {
		_, err := usecase.QuoteFor("AUTO", period)
		assert.ErrorIs(t, err, usecase.ErrInvalidPeriod, "period %q", period)
	}
}

func TestBuildBillingAccountID(t *testing.T) {
	tests := []struct {
		name   string
		taxID  string
		period string
		want   string
	}{
		{"formatted tax id", "20-12345678-3", "202503", "20123456783250"},
		{"bare digits", "20123456783", "202503", "20123456783250"},
		{"short tax id left-padded", "123", "202503", "00000000123250"},
		{"december period", "27-99887766-5", "202512", "27998877665251"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.BuildBillingAccountID(tt.taxID, tt.period)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 14)
		})
	}
}

// seedFleet registers an owner with two active vehicles plus a deregistered
// one, returning the store and the active vehicles.
func seedFleet(t *testing.T) (*gateway.MemoryStore, domain.Vehicle, domain.Vehicle) {
	t.Helper()
	store := gateway.NewMemoryStore()

	owner := domain.Owner{ID: uuid.New(), Name: "Maria Lopez", TaxID: "27-99887766-5"}
	store.AddOwner(owner)

	car := domain.Vehicle{ID: uuid.New(), OwnerID: owner.ID, Plate: "AB123CD", Category: "AUTO", Active: true}
	moto := domain.Vehicle{ID: uuid.New(), OwnerID: owner.ID, Plate: "A001BCD", Category: "MOTO_>150cc", Active: true}
	scrapped := domain.Vehicle{ID: uuid.New(), OwnerID: owner.ID, Plate: "XY987ZT", Category: "AUTO", Active: false}
	store.AddVehicle(car)
	store.AddVehicle(moto)
	store.AddVehicle(scrapped)

	return store, car, moto
}

func billingFor(store *gateway.MemoryStore) *usecase.BillingService {
	return usecase.NewBillingService(
		store.Vehicles(), store.Owners(), store.Obligations(), store.Invoices(), companyID)
}

func TestGenerateObligations(t *testing.T) {
	store, car, moto := seedFleet(t)
	svc := billingFor(store)
	ctx := context.Background()

	summary, err := svc.GenerateObligations(ctx, "202501", false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created, "inactive vehicles are excluded")
	assert.Zero(t, summary.Skipped)

	carObl, err := store.Obligations().FindByVehicleAndPeriod(ctx, car.ID, "202501")
	require.NoError(t, err)
	require.NotNil(t, carObl)
	assert.True(t, carObl.AmountFirstDue.Equal(decimal.NewFromInt(8500)))
	assert.Equal(t, domain.ObligationGenerated, carObl.Status)

	motoObl, err := store.Obligations().FindByVehicleAndPeriod(ctx, moto.ID, "202501")
	require.NoError(t, err)
	require.NotNil(t, motoObl)
	assert.True(t, motoObl.AmountFirstDue.Equal(decimal.NewFromInt(12000)))

	// Second run is a no-op.
	summary, err = svc.GenerateObligations(ctx, "202501", false)
	require.NoError(t, err)
	assert.Zero(t, summary.Created)
	assert.Equal(t, 2, summary.Skipped)

	// Overwrite recomputes unpaid obligations but never a paid one.
	require.NoError(t, store.Obligations().MarkPaid(ctx, carObl.ID))
	summary, err = svc.GenerateObligations(ctx, "202501", true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)

	paid, err := store.Obligations().FindByID(ctx, carObl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationPaid, paid.Status)
}

func TestGenerateObligations_InvalidPeriod(t *testing.T) {
	store, _, _ := seedFleet(t)
	_, err := billingFor(store).GenerateObligations(context.Background(), "2025-01", false)
	assert.ErrorIs(t, err, usecase.ErrInvalidPeriod)
}

func TestIssueInvoice(t *testing.T) {
	store, car, _ := seedFleet(t)
	svc := billingFor(store)
	ctx := context.Background()

	_, err := svc.GenerateObligations(ctx, "202503", false)
	require.NoError(t, err)
	obl, err := store.Obligations().FindByVehicleAndPeriod(ctx, car.ID, "202503")
	require.NoError(t, err)
	require.NotNil(t, obl)

	inv, err := svc.IssueInvoice(ctx, obl.ID)
	require.NoError(t, err)

	assert.Equal(t, "001-00000001", inv.Number)
	assert.Equal(t, obl.ID, inv.ObligationID)
	assert.Len(t, inv.Barcode, 42)
	assert.Equal(t, companyID, inv.CompanyID)
	assert.Equal(t, companyID, inv.Barcode[:4])
	assert.Equal(t, "27998877665250", inv.BillingAccountID)
	assert.Equal(t, "0", inv.CurrencyCode)
	assert.True(t, inv.AmountDue.Equal(decimal.RequireFromString("8500.00")))
	assert.Equal(t, domain.InvoiceIssued, inv.Status)

	invoiced, err := store.Obligations().FindByID(ctx, obl.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ObligationInvoiced, invoiced.Status)

	// Issuing again returns the same invoice instead of a second one.
	again, err := svc.IssueInvoice(ctx, obl.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, again.ID)
	count, err := store.Invoices().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIssueInvoice_Refusals(t *testing.T) {
	store, car, _ := seedFleet(t)
	svc := billingFor(store)
	ctx := context.Background()

	_, err := svc.IssueInvoice(ctx, uuid.New())
	assert.ErrorIs(t, err, usecase.ErrObligationNotFound)

	_, err = svc.GenerateObligations(ctx, "202504", false)
	require.NoError(t, err)
	obl, err := store.Obligations().FindByVehicleAndPeriod(ctx, car.ID, "202504")
	require.NoError(t, err)
	require.NoError(t, store.Obligations().MarkPaid(ctx, obl.ID))

	_, err = svc.IssueInvoice(ctx, obl.ID)
	assert.ErrorIs(t, err, usecase.ErrObligationPaid)
}

func TestValidateBarcode(t *testing.T) {
	store, car, _ := seedFleet(t)
	svc := billingFor(store)
	ctx := context.Background()

	_, err := svc.GenerateObligations(ctx, "202505", false)
	require.NoError(t, err)
	obl, err := store.Obligations().FindByVehicleAndPeriod(ctx, car.ID, "202505")
	require.NoError(t, err)
	inv, err := svc.IssueInvoice(ctx, obl.ID)
	require.NoError(t, err)

	_, err = svc.ValidateBarcode(ctx, "123456")
	assert.ErrorIs(t, err, usecase.ErrBarcodeTooShort)

	unknown, err := svc.ValidateBarcode(ctx, "999999999999999999999999999999999999999999")
	require.NoError(t, err)
	assert.False(t, unknown.Valid)

	result, err := svc.ValidateBarcode(ctx, inv.Barcode)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, inv.ID, result.InvoiceID)
	assert.Equal(t, "202505", result.Period)
	assert.True(t, result.AmountFirstDue.Equal(decimal.NewFromInt(8500)))
	assert.True(t, result.Surcharge.Equal(decimal.RequireFromString("323.00")))
	assert.Equal(t, domain.InvoiceIssued, result.InvoiceStatus)
	assert.Equal(t, inv.BillingAccountID, result.BillingAccountID)
}

func TestValidateAccount(t *testing.T) {
	store, car, _ := seedFleet(t)
	svc := billingFor(store)
	ctx := context.Background()

	_, err := svc.GenerateObligations(ctx, "202506", false)
	require.NoError(t, err)
	obl, err := store.Obligations().FindByVehicleAndPeriod(ctx, car.ID, "202506")
	require.NoError(t, err)
	inv, err := svc.IssueInvoice(ctx, obl.ID)
	require.NoError(t, err)

	unknown, err := svc.ValidateAccount(ctx, "00000000000000")
	require.NoError(t, err)
	assert.False(t, unknown.Valid)

	result, err := svc.ValidateAccount(ctx, inv.BillingAccountID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, inv.ID, result.InvoiceID)
	assert.Equal(t, "202506", result.Period)
}
