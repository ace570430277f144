package domain

import "time"

// OTPPurpose tags what a one-time code proves. Each purpose has at most one
// live challenge per user; requesting a new code supersedes the old one.
type OTPPurpose string

const (
	OTPEmailVerify   OTPPurpose = "email_verify"
	OTPPhoneVerify   OTPPurpose = "phone_verify"
	OTPPasswordReset OTPPurpose = "password_reset"
	OTPTFA           OTPPurpose = "tfa"
)

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPEmailVerify, OTPPhoneVerify, OTPPasswordReset, OTPTFA:
		return true
	}
	return false
}

// OTPState is the lifecycle of a challenge, derived from its timestamps.
type OTPState string

const (
	OTPPending  OTPState = "pending"
	OTPConsumed OTPState = "consumed"
	OTPExpired  OTPState = "expired"
)

// OTPChallenge is a stored one-time-code challenge. Only the Argon2id hash
// of the code is persisted; the plaintext goes to the delivery sink once and
// is discarded.
type OTPChallenge struct {
	ID         string
	UserID     string
	Purpose    OTPPurpose
	CodeHash   string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// State derives the challenge lifecycle at the given instant. Consumed wins
// over expired so a replayed code reports the stronger failure.
func (c OTPChallenge) State(now time.Time) OTPState {
	if c.ConsumedAt != nil {
		return OTPConsumed
	}
	if now.After(c.ExpiresAt) {
		return OTPExpired
	}
	return OTPPending
}
