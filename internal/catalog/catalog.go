// Package catalog loads the collection inputs: the drug catalog CSV and
// the per-region zip code lists.
package catalog

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rxmeter/collector/internal/core/domain"
)

// UUIDSource resolves a procedure code to its care resource uuid,
// backed by the identifier cache the preprocessing job produces.
type UUIDSource interface {
	Get(code string) (string, bool)
}

// Required catalog columns. The procedure code is read as a string to
// preserve leading zeros.
const (
	colCode    = "PROCEDURE_CODE"
	colName    = "DRUG_NAME_WITH_FORM_STRENGTH"
	colForm    = "DOSAGE_FORM"
	colBenefit = "TOTAL_BENEFIT_AMOUNT"
	colClaims  = "CLAIM_COUNT"
)

// fieldFunc extracts a named column from a record, empty when absent.
type fieldFunc func(record []string, name string) string

// readCatalog parses the catalog CSV, validates the required columns
// and applies the test-mode limit.
func readCatalog(path string, limit int) ([][]string, fieldFunc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colCode, colName, colForm} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("catalog missing required column %s", required)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if limit > 0 && len(records) > limit {
		slog.Info("Test mode: truncating catalog", "limit", limit)
		records = records[:limit]
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return records, field, nil
}

// LoadDrugs reads the catalog CSV and attaches resolved identifiers.
// Drugs without an identifier in the cache are skipped and reported,
// never retried. limit > 0 truncates the catalog (test mode).
func LoadDrugs(path string, uuids UUIDSource, limit int) ([]domain.Drug, error) {
	records, field, err := readCatalog(path, limit)
	if err != nil {
		return nil, err
	}

	var drugs []domain.Drug
	var skipped []string

	for _, record := range records {
		code := field(record, colCode)
		name := field(record, colName)

		careUUID, _ := uuids.Get(code)
		drug := domain.Drug{
			ProcedureCode: code,
			Name:          name,
			DosageForm:    field(record, colForm),
			CareUUID:      careUUID,
			ClaimCount:    field(record, colClaims),
			BenefitAmount: field(record, colBenefit),
		}
		if !drug.Collectible() {
			skipped = append(skipped, fmt.Sprintf("%s - %s", code, name))
			slog.Error("Skipping drug with no resolved identifier", "code", code, "name", name)
			continue
		}

		drugs = append(drugs, drug)
	}

	if len(skipped) > 0 {
		slog.Warn("Drugs skipped due to missing identifiers; run the preprocess job",
			"skipped", len(skipped), "loaded", len(drugs))
	} else {
		slog.Info("All catalog drugs have resolved identifiers", "loaded", len(drugs))
	}

	return drugs, nil
}

// Entry is a raw catalog row, before identifier resolution.
type Entry struct {
	Code string
	Name string
}

// LoadEntries reads the catalog without requiring resolved
// identifiers. The preprocessing job uses this to find the codes that
// still need resolving.
func LoadEntries(path string, limit int) ([]Entry, error) {
	records, field, err := readCatalog(path, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		code := field(record, colCode)
		if code == "" {
			continue
		}
		entries = append(entries, Entry{Code: code, Name: field(record, colName)})
	}
	return entries, nil
}

// ReadZips reads a newline-delimited zip list. limit > 0 truncates the
// list (test mode).
func ReadZips(path string, limit int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip list: %w", err)
	}

	var zips []string
	for _, line := range strings.Split(string(data), "\n") {
		if z := strings.TrimSpace(line); z != "" {
			zips = append(zips, z)
		}
	}
	if limit > 0 && len(zips) > limit {
		zips = zips[:limit]
	}
	return zips, nil
}
