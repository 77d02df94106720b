// Package settlement decodes the positional records of a collection-network
// transmission file. Each physical line is one record; the first character is
// the record-type discriminator and every other field sits at a fixed,
// zero-based offset.
package settlement

import (
	"strconv"
	"strings"
)

// Record type discriminators.
const (
	RecFileHeader  = '1'
	RecLotHeader   = '3'
	RecTransaction = '5'
	RecBarcode     = '6'
	RecInstrument  = '7'
	RecLotTrailer  = '8'
	RecFileTrailer = '9'
)

// SafeSubstring returns the fixed-width field starting at a zero-based
// offset. Real files carry short or truncated trailing padding, so a start
// past the end yields "" and a length past the end yields only the available
// tail. It never fails and never pads.
func SafeSubstring(line string, start, length int) string {
	if start < 0 || start >= len(line) {
		return ""
	}
	if start+length > len(line) {
		length = len(line) - start
	}
	return line[start : start+length]
}

// Lot header, record '3': create date at 1, batch number at 9.

func LotBatchNumber(line string) int {
	return toInt(SafeSubstring(line, 9, 6))
}

// Transaction header, record '5': record sequence at 1, work date at 8,
// transfer date at 16, account number at 23 (21 chars, right-padded with
// spaces), currency at 43, amount in cents at 47 (10 digits), terminal at 57.

func TxRecordSequence(line string) string {
	return strings.TrimSpace(SafeSubstring(line, 1, 5))
}

func TxWorkDate(line string) string {
	return SafeSubstring(line, 8, 8)
}

func TxAccountNumber(line string) string {
	return strings.TrimRight(SafeSubstring(line, 23, 21), " ")
}

func TxAmountDigits(line string) string {
	return SafeSubstring(line, 47, 10)
}

// Barcode record '6': the scanned barcode at 1, 80 chars right-padded.

func BarcodeField(line string) string {
	return strings.TrimRight(SafeSubstring(line, 1, 80), " ")
}

// Instrument record '7': currency at 1, instrument code at 4, instrument
// barcode at 5, amount in cents at 84 (15 digits).

func InstrumentAmountDigits(line string) string {
	return SafeSubstring(line, 84, 15)
}

// Lot trailer, record '8': create date at 1, batch number at 9, declared
// payment count at 15 (7 digits), declared amount in cents at 22 (12 digits).

func LotDeclaredCount(line string) int {
	return toInt(SafeSubstring(line, 15, 7))
}

func LotDeclaredAmountCents(line string) int64 {
	return toInt64(SafeSubstring(line, 22, 12))
}

// File trailer, record '9': create date at 1, total batches at 9 (6 digits),
// file payment count at 15 (7 digits), file amount in cents at 22 (12 digits).

func FileDeclaredBatches(line string) int {
	return toInt(SafeSubstring(line, 9, 6))
}

func FileDeclaredPayments(line string) int {
	return toInt(SafeSubstring(line, 15, 7))
}

func FileDeclaredAmountCents(line string) int64 {
	return toInt64(SafeSubstring(line, 22, 12))
}

// toInt is the tolerant parse the control records need: a blank, short or
// garbled field counts as zero rather than failing the file.
func toInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func toInt64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
