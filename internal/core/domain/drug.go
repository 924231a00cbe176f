package domain

// Drug represents one catalog item to be priced.
//
// CareUUID is the opaque API resource identifier resolved by the
// preprocessing job. Drugs without a resolved CareUUID are not
// collectible and are dropped at load time, never retried.
type Drug struct {
	ProcedureCode string
	Name          string
	DosageForm    string
	CareUUID      string
	ClaimCount    string
	BenefitAmount string
}

// Collectible reports whether the drug has a resolved resource identifier.
func (d Drug) Collectible() bool {
	return d.CareUUID != ""
}
