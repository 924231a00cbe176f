package domain

import "fmt"

// Region identifies a geographic region (two-letter state code).
type Region string

// Location represents one geocoded zip code.
type Location struct {
	Zip    string
	Lat    float64
	Lng    float64
	Region Region
	City   string
}

// CacheKey returns the key used in the persisted location cache.
func (l Location) CacheKey() string {
	return fmt.Sprintf("%s_%s", l.Zip, l.Region)
}
