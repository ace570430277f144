package domain

import "time"

// Status is the account lifecycle state. Delete is terminal; block is a
// two-way toggle with active. An account is never deleted and blocked at
// the same time.
type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
	StatusDeleted Status = "deleted"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusDeleted:
		return true
	}
	return false
}

// Address is an optional postal/current address value object on the account.
type Address struct {
	Line1    string
	Line2    string
	City     string
	State    string
	Postcode string
	Country  string
}

type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string // argon2 encoded
	Status       Status
	RoleID       string // Foreign key to roles table

	EmailVerified bool
	PhoneVerified bool

	TFAEnabled bool
	TOTPSecret *string // base32 authenticator secret (nullable)

	// TOTPActivated records that possession of TOTPSecret was proven with a
	// valid code. An enrolled but unactivated secret never gates a login.
	TOTPActivated bool

	// PasswordUpdateRequested is armed by a verified forgot-password flow
	// and consumed by the next password change.
	PasswordUpdateRequested bool

	CurrentAddress *Address
	PostalAddress  *Address

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TOTPActive reports whether the account's authenticator is the second
// factor: a secret is on file and its holder has proven possession.
func (u User) TOTPActive() bool {
	return u.TOTPActivated && u.TOTPSecret != nil
}
