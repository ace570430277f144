package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// OTPLength is the number of characters in a generated one-time code.
const OTPLength = 5

// GenerateOTP produces a fixed-length numeric one-time code. Codes are not
// unique across users; each is scoped to a single account record and only
// its Argon2id hash is ever persisted.
func GenerateOTP() (string, error) {
	const digits = "0123456789"
	code := make([]byte, OTPLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("failed to generate one-time code: %w", err)
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}

// RandomSecret creates a cryptographically secure random secret of the given
// byte length, returned base64url-encoded without padding. Used for dev-mode
// token signing secrets where none is configured.
func RandomSecret(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
