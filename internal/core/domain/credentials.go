package domain

import "time"

// Credentials holds the session state for the upstream API.
//
// A refresh replaces the whole value at once. Token and MemberUUID are
// issued together by the login helper and must never be mixed across
// refreshes.
type Credentials struct {
	Token      string
	MemberUUID string
	IssuedAt   time.Time
}

// Valid reports whether both halves of the credential pair are present.
func (c Credentials) Valid() bool {
	return c.Token != "" && c.MemberUUID != ""
}
