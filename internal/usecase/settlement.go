package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"muni-reconciler/internal/barcode"
	"muni-reconciler/internal/domain"
	"muni-reconciler/internal/logger"
	"muni-reconciler/internal/settlement"
)

// SettlementProcessor ingests a collection-network transmission file and
// applies the settled payments to their invoices. Processing is single-pass
// and line-ordered: an instrument record's idempotency key depends on the
// most recent lot header and transaction header, so lines of one file must
// never be reordered or parallelized. Independent files may run concurrently
// against the same ledger.
type SettlementProcessor struct {
	invoices    InvoiceStore
	obligations ObligationStore
	payments    PaymentLedger
	batches     BatchStore
	provider    string
	now         func() time.Time
	log         zerolog.Logger
}

// NewSettlementProcessor wires a processor for one settlement provider.
func NewSettlementProcessor(invoices InvoiceStore, obligations ObligationStore, payments PaymentLedger, batches BatchStore, provider string) *SettlementProcessor {
	return &SettlementProcessor{
		invoices:    invoices,
		obligations: obligations,
		payments:    payments,
		batches:     batches,
		provider:    provider,
		now:         time.Now,
		log:         logger.WithComponent("settlement"),
	}
}

// fileState carries the running file-level totals, reset by a '1' header.
type fileState struct {
	batchCount         int
	paymentCount       int
	paymentAmountCents int64
}

// lotState carries the running lot totals, reset by each '3' header.
type lotState struct {
	number      int
	txCount     int
	amountCents int64
}

// txState carries the transaction being assembled across its '5', '6' and
// '7' records, reset after every '7'.
type txState struct {
	invoice   *domain.Invoice
	amount    decimal.Decimal
	recordSeq string
	workDate  string
}

// Process scans the settlement file line by line and returns the batch
// result. Only a read failure aborts the scan; every per-record problem is
// logged, counted in the result, and skipped. Reprocessing the same file
// content yields the same set of payments with zero duplicates.
func (p *SettlementProcessor) Process(ctx context.Context, fileName string, r io.Reader) (*domain.BatchResult, error) {
	batch := domain.ReconciliationBatch{
		ID:       uuid.New(),
		Provider: p.provider,
		Date:     p.now(),
		FileName: fileName,
	}
	if err := p.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create reconciliation batch: %w", err)
	}

	var (
		file   fileState
		lot    lotState
		tx     txState
		result = &domain.BatchResult{BatchID: batch.ID, FileName: fileName}
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256), 1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		if len(line) == 0 {
			continue
		}

		switch line[0] {
		case settlement.RecFileHeader:
			file = fileState{}

		case settlement.RecLotHeader:
			lot = lotState{number: settlement.LotBatchNumber(line)}
			file.batchCount++

		case settlement.RecTransaction:
			tx = txState{
				recordSeq: settlement.TxRecordSequence(line),
				workDate:  settlement.TxWorkDate(line),
			}
			amount, err := barcode.DecodeAmount(settlement.TxAmountDigits(line), 2)
			if err != nil {
				p.log.Warn().Int("line", lineNum).Err(err).Msg("unreadable transaction amount, using zero")
			}
			tx.amount = amount

			if account := settlement.TxAccountNumber(line); account != "" {
				inv, err := p.invoices.FindByAccountID(ctx, account)
				if err != nil {
					return nil, fmt.Errorf("look up invoice by account %q: %w", account, err)
				}
				tx.invoice = inv
			}

		case settlement.RecBarcode:
			// Fallback matcher only: a '5'-step account match always wins.
			if tx.invoice != nil {
				continue
			}
			code := settlement.BarcodeField(line)
			if code == "" {
				continue
			}
			inv, err := p.invoices.FindByBarcode(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("look up invoice by barcode: %w", err)
			}
			if inv != nil {
				tx.invoice = inv
				result.BarcodeFallbackMatches++
				p.log.Debug().Int("line", lineNum).Str("invoice", inv.ID.String()).Msg("matched by barcode fallback")
			}

		case settlement.RecInstrument:
			if err := p.settle(ctx, line, lineNum, &file, &lot, &tx, result); err != nil {
				return nil, err
			}
			tx = txState{}

		case settlement.RecLotTrailer:
			if declared := settlement.LotDeclaredCount(line); declared != lot.txCount {
				result.TotalMismatches++
				p.log.Warn().Int("lot", lot.number).Int("declared", declared).Int("applied", lot.txCount).
					Msg("lot payment count mismatch")
			}
			if declared := settlement.LotDeclaredAmountCents(line); declared != lot.amountCents {
				result.TotalMismatches++
				p.log.Warn().Int("lot", lot.number).Int64("declared_cents", declared).Int64("applied_cents", lot.amountCents).
					Msg("lot amount mismatch")
			}

		case settlement.RecFileTrailer:
			if declared := settlement.FileDeclaredBatches(line); declared != file.batchCount {
				result.TotalMismatches++
				p.log.Warn().Int("declared", declared).Int("counted", file.batchCount).Msg("file batch count mismatch")
			}
			if declared := settlement.FileDeclaredPayments(line); declared != file.paymentCount {
				result.TotalMismatches++
				p.log.Warn().Int("declared", declared).Int("applied", file.paymentCount).Msg("file payment count mismatch")
			}
			if declared := settlement.FileDeclaredAmountCents(line); declared != file.paymentAmountCents {
				result.TotalMismatches++
				p.log.Warn().Int64("declared_cents", declared).Int64("applied_cents", file.paymentAmountCents).
					Msg("file amount mismatch")
			}

		default:
			// Other record codes are ignored.
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read settlement file: %w", err)
	}

	result.LotCount = file.batchCount
	result.TransactionCount = file.paymentCount
	result.TotalAmount = decimal.New(file.paymentAmountCents, -2)
	if err := p.batches.UpdateTotals(ctx, batch.ID, file.paymentCount, result.TotalAmount); err != nil {
		return nil, fmt.Errorf("update batch totals: %w", err)
	}

	p.log.Info().Str("file", fileName).Int("lots", result.LotCount).
		Int("payments", result.TransactionCount).Str("total", result.TotalAmount.String()).
		Int("skipped", result.SkippedTransactions).Int("duplicates", result.DuplicatePayments).
		Msg("settlement file processed")
	return result, nil
}

// settle consumes an instrument ('7') record: it closes out the transaction
// assembled from the preceding '5'/'6' records, applying a payment when the
// idempotency key is new and an invoice was resolved.
func (p *SettlementProcessor) settle(ctx context.Context, line string, lineNum int, file *fileState, lot *lotState, tx *txState, result *domain.BatchResult) error {
	amount := tx.amount
	if digits := settlement.InstrumentAmountDigits(line); strings.TrimSpace(digits) != "" {
		inst, err := barcode.DecodeAmount(digits, 2)
		if err != nil {
			p.log.Warn().Int("line", lineNum).Err(err).Msg("unreadable instrument amount, keeping transaction amount")
		} else {
			amount = inst
		}
	}

	externalID := IdempotencyKey(p.provider, tx.workDate, lot.number, tx.recordSeq)

	exists, err := p.payments.Exists(ctx, p.provider, externalID)
	if err != nil {
		return fmt.Errorf("check payment %s: %w", externalID, err)
	}
	if exists {
		// Already applied on a previous run. The payment is not recreated,
		// but it still belongs to this file's settled set, so the lot and
		// file totals advance exactly as on the first run.
		result.DuplicatePayments++
		p.log.Debug().Str("external_id", externalID).Msg("payment already applied")
		tally(file, lot, amount)
		return nil
	}
	if tx.invoice == nil {
		result.SkippedTransactions++
		p.log.Warn().Str("external_id", externalID).Msg("no invoice matched settlement transaction")
		return nil
	}

	payment := domain.Payment{
		ID:           uuid.New(),
		InvoiceID:    tx.invoice.ID,
		Provider:     p.provider,
		Amount:       amount,
		AccreditedAt: p.now(),
		ExternalID:   externalID,
		Status:       domain.PaymentApplied,
	}
	if err := p.payments.Insert(ctx, payment); err != nil {
		return fmt.Errorf("insert payment %s: %w", externalID, err)
	}
	if err := p.invoices.MarkPaid(ctx, tx.invoice.ID); err != nil {
		return fmt.Errorf("mark invoice %s paid: %w", tx.invoice.ID, err)
	}
	if err := p.obligations.MarkPaid(ctx, tx.invoice.ObligationID); err != nil {
		return fmt.Errorf("mark obligation %s paid: %w", tx.invoice.ObligationID, err)
	}

	tally(file, lot, amount)
	return nil
}

// tally adds one settled transaction into the lot and file running totals.
func tally(file *fileState, lot *lotState, amount decimal.Decimal) {
	cents := amount.Shift(2).Round(0).IntPart()
	lot.txCount++
	lot.amountCents += cents
	file.paymentCount++
	file.paymentAmountCents += cents
}

// IdempotencyKey derives the dedup key of one settled transaction. It depends
// only on values the network reprints verbatim on every resubmission of the
// same physical file: work date, lot number and record sequence.
func IdempotencyKey(provider, workDate string, batchNumber int, recordSeq string) string {
	for len(recordSeq) < 5 {
		recordSeq = "0" + recordSeq
	}
	return fmt.Sprintf("%s:%s:%06d:%s", provider, workDate, batchNumber, recordSeq)
}
