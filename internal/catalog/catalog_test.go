package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

type mapUUIDs map[string]string

func (m mapUUIDs) Get(code string) (string, bool) {
	v, ok := m[code]
	return v, ok
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleCatalog = `PROCEDURE_CODE,DRUG_NAME_WITH_FORM_STRENGTH,DOSAGE_FORM,TOTAL_BENEFIT_AMOUNT,CLAIM_COUNT
00093720198,TESTDRUG 10MG TABLET,TABLET,123.45,42
00186077660,OTHERDRUG 5MG CAPSULE,CAPSULE,67.89,7
00071015723,NOUUID 20MG TABLET,TABLET,11.11,3
`

func TestLoadDrugs(t *testing.T) {
	path := writeFile(t, "drugs.csv", sampleCatalog)
	uuids := mapUUIDs{
		"00093720198": "uuid-a",
		"00186077660": "uuid-b",
	}

	drugs, err := LoadDrugs(path, uuids, 0)
	if err != nil {
		t.Fatalf("LoadDrugs failed: %v", err)
	}

	// The drug without a resolved identifier is excluded, not retried.
	if len(drugs) != 2 {
		t.Fatalf("got %d drugs, want 2", len(drugs))
	}
	if drugs[0].ProcedureCode != "00093720198" {
		t.Errorf("leading zeros lost: %q", drugs[0].ProcedureCode)
	}
	if drugs[0].CareUUID != "uuid-a" || drugs[0].DosageForm != "TABLET" {
		t.Errorf("unexpected drug: %+v", drugs[0])
	}
	if drugs[0].ClaimCount != "42" {
		t.Errorf("ClaimCount = %q, want 42", drugs[0].ClaimCount)
	}
}

func TestLoadDrugs_Limit(t *testing.T) {
	path := writeFile(t, "drugs.csv", sampleCatalog)
	uuids := mapUUIDs{"00093720198": "uuid-a", "00186077660": "uuid-b"}

	drugs, err := LoadDrugs(path, uuids, 1)
	if err != nil {
		t.Fatalf("LoadDrugs failed: %v", err)
	}
	if len(drugs) != 1 {
		t.Errorf("got %d drugs with limit 1, want 1", len(drugs))
	}
}

func TestLoadDrugs_MissingColumn(t *testing.T) {
	path := writeFile(t, "drugs.csv", "PROCEDURE_CODE,DOSAGE_FORM\n1,TABLET\n")
	if _, err := LoadDrugs(path, mapUUIDs{}, 0); err == nil {
		t.Fatal("expected error for missing required column")
	}
}

func TestLoadEntries(t *testing.T) {
	path := writeFile(t, "drugs.csv", sampleCatalog)

	entries, err := LoadEntries(path, 0)
	if err != nil {
		t.Fatalf("LoadEntries failed: %v", err)
	}
	// Rows without resolved identifiers are still included here.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[2].Code != "00071015723" || entries[2].Name != "NOUUID 20MG TABLET" {
		t.Errorf("unexpected entry: %+v", entries[2])
	}
}

func TestReadZips(t *testing.T) {
	path := writeFile(t, "zips.txt", "30301\n30302\n\n  30303  \n")

	zips, err := ReadZips(path, 0)
	if err != nil {
		t.Fatalf("ReadZips failed: %v", err)
	}
	want := []string{"30301", "30302", "30303"}
	if len(zips) != len(want) {
		t.Fatalf("got %d zips, want %d", len(zips), len(want))
	}
	for i := range want {
		if zips[i] != want[i] {
			t.Errorf("zips[%d] = %q, want %q", i, zips[i], want[i])
		}
	}
}

func TestReadZips_Limit(t *testing.T) {
	path := writeFile(t, "zips.txt", "30301\n30302\n30303\n")
	zips, err := ReadZips(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(zips) != 2 {
		t.Errorf("got %d zips with limit 2, want 2", len(zips))
	}
}
