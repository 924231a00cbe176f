// Package sink writes collected pharmacy rows to the append-only
// output file.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rxmeter/collector/internal/core/domain"
)

var header = []string{
	"timestamp", "state", "zip_code", "city", "lat", "lng",
	"procedure_code", "drug_name", "dosage_form", "claim_count_orig",
	"pharmacy_name", "pharmacy_phone", "pharmacy_address",
	"pharmacy_distance", "pharmacy_rate", "price_fairness",
	"provider_price", "estimated_member_responsibility", "earned_benefit",
	"applied_to_deductible", "savings", "bill_over_benefit_amount",
	"facility_benefit_amount", "gsn", "ndc", "qty",
}

// CSVSink appends output rows to a CSV file. The header row is written
// once, only when the file is first created; reopening an existing file
// keeps appending below the prior contents.
type CSVSink struct {
	path   string
	file   *os.File
	writer *csv.Writer
	rows   int
}

// Open opens (or creates) the output file for appending.
func Open(path string) (*CSVSink, error) {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	s := &CSVSink{path: path, file: f, writer: csv.NewWriter(f)}
	if fresh {
		if err := s.writer.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to flush header: %w", err)
		}
	}
	return s, nil
}

// Append writes rows and flushes them to the file.
func (s *CSVSink) Append(rows []domain.OutputRow) error {
	for _, row := range rows {
		if err := s.writer.Write(record(row)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	s.rows += len(rows)
	return nil
}

// Rows returns the number of rows appended through this sink.
func (s *CSVSink) Rows() int {
	return s.rows
}

// Path returns the output file path.
func (s *CSVSink) Path() string {
	return s.path
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func record(r domain.OutputRow) []string {
	return []string{
		r.Timestamp,
		string(r.Region),
		r.Zip,
		r.City,
		ftoa(r.Lat),
		ftoa(r.Lng),
		r.ProcedureCode,
		r.DrugName,
		r.DosageForm,
		r.ClaimCount,
		r.PharmacyName,
		r.PharmacyPhone,
		r.PharmacyAddress,
		ftoa(r.PharmacyDistance),
		ftoa(r.PharmacyRate),
		r.PriceFairness,
		ftoa(r.ProviderPrice),
		ftoa(r.EstimatedMemberResp),
		ftoa(r.EarnedBenefit),
		ftoa(r.AppliedToDeductible),
		ftoa(r.Savings),
		ftoa(r.BillOverBenefit),
		ftoa(r.FacilityBenefitAmount),
		r.GSN,
		r.NDC,
		ftoa(r.Qty),
	}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
