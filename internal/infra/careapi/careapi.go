// Package careapi is the client for the upstream care pricing API. It
// owns request construction, response parsing, and the per-call retry
// policy: bounded attempts, backoff, and at most one credential refresh
// per logical call.
package careapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rxmeter/collector/internal/core/domain"
)

var (
	// ErrAuth means the API rejected the credentials and a refresh
	// did not help (or itself failed). The call is over.
	ErrAuth = errors.New("authentication failed")

	// ErrExhausted means every retry attempt failed. The unit is a
	// failure to the caller, not an exception.
	ErrExhausted = errors.New("all retry attempts failed")
)

// CredentialSource supplies and refreshes API credentials.
type CredentialSource interface {
	Get(ctx context.Context) (domain.Credentials, error)
	Refresh(ctx context.Context) (domain.Credentials, error)
}

// DetailResponse is the pricing response for one (drug, location) pair.
type DetailResponse struct {
	FacilityBenefitAmount float64    `json:"facilityBenefitAmount"`
	Pharmacies            []Pharmacy `json:"pharmacies"`
}

// Pharmacy is one matched provider in a detail response.
type Pharmacy struct {
	Name               string   `json:"name"`
	Phone              string   `json:"phone"`
	Address            Address  `json:"address"`
	Distance           float64  `json:"distance"`
	PharmacyRate       float64  `json:"pharmacyRate"`
	PriceFairness      string   `json:"priceFairness"`
	CareEstimateResult Estimate `json:"careEstimateResult"`
	GSN                string   `json:"gsn"`
	NDC                string   `json:"ndc"`
	Qty                float64  `json:"qty"`
}

// Address is a pharmacy street address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s %s", a.Street, a.City, a.State, a.Zip)
}

// Estimate holds the benefit breakdown for one pharmacy.
type Estimate struct {
	ProviderPrice         float64 `json:"providerPrice"`
	EstimatedMemberResp   float64 `json:"estimatedMemberResponsibility"`
	EarnedBenefit         float64 `json:"earnedBenefit"`
	AppliedToDeductible   float64 `json:"appliedToDeductible"`
	Savings               float64 `json:"savings"`
	BillOverBenefitAmount float64 `json:"billOverBenefitAmount"`
}

// SearchResponse is the paged result of the care search endpoint, used
// by the identifier preprocessing job.
type SearchResponse struct {
	Content []SearchResult `json:"content"`
}

// SearchResult is one care item returned by search.
type SearchResult struct {
	UUID string `json:"uuid"`
	Name string `json:"displayName"`
}

// mentionsAuth reports whether an error or response text looks
// authentication related. Expired credentials show up as several
// different symptoms in this API (generic errors mentioning the token,
// plain unauthorized text), so any of them is treated as
// maybe-stale-credentials.
func mentionsAuth(s string) bool {
	ls := strings.ToLower(s)
	return strings.Contains(ls, "token") || strings.Contains(ls, "unauthorized")
}
