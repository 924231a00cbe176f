package domain

import "fmt"

// WorkUnit is one (drug, location) pair to request from the API.
type WorkUnit struct {
	Drug     Drug
	Location Location
}

// Key returns the stable combination key identifying this unit.
// The key is what the checkpoint deduplicates on, so its format must
// never change between runs.
func (u WorkUnit) Key() string {
	return fmt.Sprintf("%s_%s", u.Drug.ProcedureCode, u.Location.Zip)
}
