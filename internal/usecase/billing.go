package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"muni-reconciler/internal/barcode"
	"muni-reconciler/internal/domain"
	"muni-reconciler/internal/logger"
)

var (
	// ErrObligationNotFound is returned when issuing against an unknown obligation.
	ErrObligationNotFound = errors.New("obligation not found")

	// ErrObligationPaid is returned when issuing against an already paid obligation.
	ErrObligationPaid = errors.New("obligation is already paid")

	// ErrInvalidPeriod is returned for a period that is not six digits (YYYYMM).
	ErrInvalidPeriod = errors.New("period must be six digits, YYYYMM")
)

// Billing rates. The second-due amount carries a 3.8% surcharge over the base.
var (
	baseAmountDefault        = decimal.NewFromInt(8500)
	baseAmountHeavyMotorbike = decimal.NewFromInt(12000)
	surchargeFactor          = decimal.RequireFromString("1.038")
)

// heavyMotorbikePrefix marks the billing category taxed at the higher base.
const heavyMotorbikePrefix = "MOTO_>150"

// BillingService generates tax obligations for a period and issues invoices
// carrying the collection-network barcode.
type BillingService struct {
	vehicles    VehicleStore
	owners      OwnerStore
	obligations ObligationStore
	invoices    InvoiceStore
	companyID   string
	log         zerolog.Logger
}

// NewBillingService wires a billing service for one collection-network
// company id.
func NewBillingService(vehicles VehicleStore, owners OwnerStore, obligations ObligationStore, invoices InvoiceStore, companyID string) *BillingService {
	return &BillingService{
		vehicles:    vehicles,
		owners:      owners,
		obligations: obligations,
		invoices:    invoices,
		companyID:   companyID,
		log:         logger.WithComponent("billing"),
	}
}

// Quote holds the computed amounts and due dates for one vehicle and period.
type Quote struct {
	AmountFirstDue decimal.Decimal `json:"amount_first_due"`
	Surcharge      decimal.Decimal `json:"surcharge"`
	DueFirst       time.Time       `json:"due_first"`
	DueSecond      time.Time       `json:"due_second"`
}

// QuoteFor computes the period amounts for a billing category: the category
// base, a second-due amount at 3.8% surcharge, first due on the last day of
// the period month and second due ten days later.
func QuoteFor(category, period string) (Quote, error) {
	year, month, err := parsePeriod(period)
	if err != nil {
		return Quote{}, err
	}

	base := baseAmountDefault
	if strings.HasPrefix(category, heavyMotorbikePrefix) {
		base = baseAmountHeavyMotorbike
	}
	base = base.Round(2)

	secondDueAmount := base.Mul(surchargeFactor).Round(2)

	// Last day of the period month.
	dueFirst := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	dueSecond := dueFirst.AddDate(0, 0, 10)

	return Quote{
		AmountFirstDue: base,
		Surcharge:      secondDueAmount.Sub(base),
		DueFirst:       dueFirst,
		DueSecond:      dueSecond,
	}, nil
}

// GenerationSummary reports what obligation generation did for a period.
type GenerationSummary struct {
	Period  string `json:"period"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
}

// GenerateObligations creates one obligation per active vehicle for the
// period. Idempotent on (vehicle, period): an existing obligation is skipped
// unless overwrite is set, and a paid obligation is never touched.
func (s *BillingService) GenerateObligations(ctx context.Context, period string, overwrite bool) (*GenerationSummary, error) {
	if _, _, err := parsePeriod(period); err != nil {
		return nil, err
	}

	vehicles, err := s.vehicles.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active vehicles: %w", err)
	}

	summary := &GenerationSummary{Period: period}
	for _, v := range vehicles {
		existing, err := s.obligations.FindByVehicleAndPeriod(ctx, v.ID, period)
		if err != nil {
			return nil, fmt.Errorf("look up obligation for vehicle %s: %w", v.ID, err)
		}

		quote, err := QuoteFor(v.Category, period)
		if err != nil {
			return nil, err
		}

		switch {
		case existing == nil:
			o := domain.TaxObligation{
				ID:             uuid.New(),
				VehicleID:      v.ID,
				Period:         period,
				AmountFirstDue: quote.AmountFirstDue,
				Surcharge:      quote.Surcharge,
				DueFirst:       quote.DueFirst,
				DueSecond:      quote.DueSecond,
				Status:         domain.ObligationGenerated,
			}
			if err := s.obligations.Insert(ctx, o); err != nil {
				return nil, fmt.Errorf("insert obligation for vehicle %s: %w", v.ID, err)
			}
			summary.Created++

		case !overwrite || existing.Status == domain.ObligationPaid:
			summary.Skipped++

		default:
			existing.AmountFirstDue = quote.AmountFirstDue
			existing.Surcharge = quote.Surcharge
			existing.DueFirst = quote.DueFirst
			existing.DueSecond = quote.DueSecond
			if err := s.obligations.Update(ctx, *existing); err != nil {
				return nil, fmt.Errorf("update obligation %s: %w", existing.ID, err)
			}
			summary.Updated++
		}
	}

	s.log.Info().Str("period", period).Int("created", summary.Created).
		Int("updated", summary.Updated).Int("skipped", summary.Skipped).
		Msg("obligations generated")
	return summary, nil
}

// IssueInvoice issues the invoice for one obligation and builds its barcode.
// Idempotent per obligation: an existing invoice is returned as-is. A paid
// obligation is refused.
func (s *BillingService) IssueInvoice(ctx context.Context, obligationID uuid.UUID) (*domain.Invoice, error) {
	obl, err := s.obligations.FindByID(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("look up obligation %s: %w", obligationID, err)
	}
	if obl == nil {
		return nil, ErrObligationNotFound
	}
	if obl.Status == domain.ObligationPaid {
		return nil, ErrObligationPaid
	}

	if existing, err := s.invoices.FindByObligation(ctx, obligationID); err != nil {
		return nil, fmt.Errorf("look up invoice for obligation %s: %w", obligationID, err)
	} else if existing != nil {
		return existing, nil
	}

	vehicle, err := s.vehicles.FindByID(ctx, obl.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("look up vehicle %s: %w", obl.VehicleID, err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("vehicle %s not found for obligation %s", obl.VehicleID, obligationID)
	}
	owner, err := s.owners.FindByID(ctx, vehicle.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("look up owner %s: %w", vehicle.OwnerID, err)
	}
	if owner == nil {
		return nil, fmt.Errorf("owner %s not found for vehicle %s", vehicle.OwnerID, vehicle.ID)
	}

	account := BuildBillingAccountID(owner.TaxID, obl.Period)
	amount := obl.AmountFirstDue.Round(2)
	surcharge := obl.Surcharge.Round(2)

	code, err := barcode.Build(s.companyID, amount, obl.DueFirst, account, surcharge, obl.DueSecond)
	if err != nil {
		return nil, fmt.Errorf("build barcode for obligation %s: %w", obligationID, err)
	}

	count, err := s.invoices.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}

	inv := domain.Invoice{
		ID:               uuid.New(),
		ObligationID:     obl.ID,
		Number:           fmt.Sprintf("001-%08d", count+1),
		AmountDue:        amount,
		DueFirst:         obl.DueFirst,
		DueSecond:        obl.DueSecond,
		Barcode:          code,
		CompanyID:        s.companyID,
		BillingAccountID: barcode.NormalizeAccountID(account),
		CurrencyCode:     "0",
		Status:           domain.InvoiceIssued,
	}
	if err := s.invoices.Insert(ctx, inv); err != nil {
		return nil, fmt.Errorf("insert invoice for obligation %s: %w", obligationID, err)
	}

	obl.Status = domain.ObligationInvoiced
	if err := s.obligations.Update(ctx, *obl); err != nil {
		return nil, fmt.Errorf("update obligation %s: %w", obligationID, err)
	}

	s.log.Info().Str("invoice", inv.Number).Str("obligation", obl.ID.String()).
		Str("barcode", inv.Barcode).Msg("invoice issued")
	return &inv, nil
}

// BuildBillingAccountID derives the 14-digit account field the collection
// network echoes back: the owner's tax-id digits left-padded to 11, the
// period's two-digit year and month, and a trailing terminator, cut to the
// leading 14 characters.
func BuildBillingAccountID(taxID, period string) string {
	var b strings.Builder
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cuit := b.String()
	for len(cuit) < 11 {
		cuit = "0" + cuit
	}
	cuit = cuit[:11]

	account := cuit + period[2:4] + period[4:6] + "0"
	for len(account) < 14 {
		account = "0" + account
	}
	return account[:14]
}

func parsePeriod(period string) (year, month int, err error) {
	if len(period) != 6 {
		return 0, 0, ErrInvalidPeriod
	}
	year, err = strconv.Atoi(period[:4])
	if err != nil {
		return 0, 0, ErrInvalidPeriod
	}
	month, err = strconv.Atoi(period[4:])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, ErrInvalidPeriod
	}
	return year, month, nil
}
