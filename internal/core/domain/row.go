package domain

// OutputRow is one pharmacy result record, written append-only to the
// output file. One API response yields zero or more rows, one per
// pharmacy the API returned.
type OutputRow struct {
	Timestamp string
	Region    Region
	Zip       string
	City      string
	Lat       float64
	Lng       float64

	// Drug fields, copied from the catalog entry.
	ProcedureCode string
	DrugName      string
	DosageForm    string
	ClaimCount    string

	// Pharmacy fields.
	PharmacyName     string
	PharmacyPhone    string
	PharmacyAddress  string
	PharmacyDistance float64
	PharmacyRate     float64
	PriceFairness    string

	// Benefit fields.
	ProviderPrice         float64
	EstimatedMemberResp   float64
	EarnedBenefit         float64
	AppliedToDeductible   float64
	Savings               float64
	BillOverBenefit       float64
	FacilityBenefitAmount float64

	GSN string
	NDC string
	Qty float64
}
