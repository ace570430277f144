package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the default lifetime for access tokens.
// Short-lived tokens limit the window in which a stolen token is useful.
const DefaultAccessTokenTTL = 1 * time.Hour

// Claims are the access-token claims issued at login/registration. The token
// is proof of identity only; permission checks always re-resolve the role
// from the store, so no capability list is embedded here.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated user
	Username string `json:"username,omitempty"`

	// Email address on the account
	Email string `json:"email,omitempty"`

	// Phone number on the account
	Phone string `json:"phone,omitempty"`

	// RoleID is the foreign-key reference to the account's role
	RoleID string `json:"role_id,omitempty"`

	// RoleName is the display name of the role at issuance time
	RoleName string `json:"role,omitempty"`

	// Status is the account lifecycle state at issuance time
	// ("active", "blocked", "deleted")
	Status string `json:"status,omitempty"`

	// EmailVerified / PhoneVerified mirror the account flags at issuance
	EmailVerified bool `json:"email_verified"`
	PhoneVerified bool `json:"phone_verified"`
}

// NewAccessClaims builds minimally-correct claims for a principal.
func NewAccessClaims(
	subject, username, email, phone string,
	roleID, roleName, status string,
	emailVerified, phoneVerified bool,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Username:      username,
		Email:         email,
		Phone:         phone,
		RoleID:        roleID,
		RoleName:      roleName,
		Status:        status,
		EmailVerified: emailVerified,
		PhoneVerified: phoneVerified,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	// Check expired (exp)
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	// Check if a valid token isn't used before it is valid (nbf)
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
