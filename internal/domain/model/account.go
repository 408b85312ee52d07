package model

import "time"

// Account is a registered user. Entitlements correlate on phone, not on
// account existence: UserID on an entitlement is linked lazily when a
// matching account is found.
type Account struct {
	ID        string // UUID
	Phone     string // normalized
	Name      string
	Email     string
	CreatedAt time.Time
}
