package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/corecapital/autoreports-api/internal/dates"
	"github.com/corecapital/autoreports-api/internal/models"
	appErrors "github.com/corecapital/autoreports-api/pkg/errors"
)

// Billing column positions in the invoicing export after cleanup.
const (
	colBillingTeacher  = 0
	colBillingShift    = 1
	colBillingEligible = 2
	colBillingStart    = 3
	colBillingEnd      = 4

	billingColumns = 5
)

// CleanBilling normalizes the invoicing byte stream: the export arrives
// tab-separated with NUL noise and doubled line breaks. NUL bytes are
// stripped, tabs become the CSV field separator, and blank lines
// collapse, leaving well-formed delimited records.
func CleanBilling(raw []byte) []byte {
	cleaned := bytes.ReplaceAll(raw, []byte{0}, nil)
	cleaned = bytes.ReplaceAll(cleaned, []byte("\t"), []byte(","))
	cleaned = bytes.ReplaceAll(cleaned, []byte("\r\n\r\n"), []byte("\r\n"))
	cleaned = bytes.ReplaceAll(cleaned, []byte("\n\n"), []byte("\n"))
	return cleaned
}

// BillingResult carries mapped billing rows plus exclusion counts.
type BillingResult struct {
	Rows    []models.BillingRow
	Skipped models.IngestSummary
}

// ParseBilling cleans the raw export and maps its records. The first
// record is the export's header line and is discarded; a header
// narrower than the column binding fails the whole export.
func ParseBilling(raw []byte) (BillingResult, error) {
	reader := csv.NewReader(bytes.NewReader(CleanBilling(raw)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return BillingResult{}, fmt.Errorf("parse invoicing records: %w", err)
	}
	if len(records) > 0 {
		if len(records[0]) < billingColumns {
			return BillingResult{}, appErrors.Clone(appErrors.ErrMissingColumn,
				fmt.Sprintf("invoicing export header has %d columns, expected %d", len(records[0]), billingColumns))
		}
		records = records[1:]
	}
	return MapBilling(records), nil
}

// MapBilling converts delimited records into typed billing rows. Short
// rows and rows with unparsable activity timestamps are counted and
// skipped; the batch continues.
func MapBilling(records [][]string) BillingResult {
	result := BillingResult{Rows: make([]models.BillingRow, 0, len(records))}
	for _, record := range records {
		if len(record) < billingColumns {
			result.Skipped.SkippedShortRows++
			continue
		}

		start, err := dates.Parse(strings.TrimSpace(record[colBillingStart]), dates.Clock24)
		if err != nil {
			result.Skipped.SkippedMalformedDate++
			continue
		}
		end, err := dates.Parse(strings.TrimSpace(record[colBillingEnd]), dates.Clock24)
		if err != nil {
			result.Skipped.SkippedMalformedDate++
			continue
		}

		result.Rows = append(result.Rows, models.BillingRow{
			TeacherName:   strings.TrimSpace(record[colBillingTeacher]),
			Shift:         strings.TrimSpace(record[colBillingShift]),
			Eligible:      parseEligible(record[colBillingEligible]),
			ActivityStart: start,
			ActivityEnd:   end,
		})
	}
	return result
}

func parseEligible(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "yes", "eligible", "1":
		return true
	default:
		return false
	}
}
