package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testClaims(ttl time.Duration) Claims {
	return NewAccessClaims(
		"01JC0USER00000000000000000",
		"john_doe",
		"john.doe@example.com",
		"0123-456-7890",
		"01JC0ROLE00000000000000000",
		"student",
		"active",
		true, false,
		ttl,
		"membergate",
		time.Now().UTC(),
	)
}

func TestHS256_SignAndVerify(t *testing.T) {
	t.Parallel()

	h, err := NewHS256("test-secret", "membergate")
	require.NoError(t, err)

	raw, err := h.Sign(testClaims(time.Minute))
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := h.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "john_doe", claims.Username)
	require.Equal(t, "student", claims.RoleName)
	require.Equal(t, "active", claims.Status)
	require.True(t, claims.EmailVerified)
	require.False(t, claims.PhoneVerified)
}

func TestHS256_DeterministicSignature(t *testing.T) {
	t.Parallel()

	h, err := NewHS256("test-secret", "membergate")
	require.NoError(t, err)

	c := testClaims(time.Minute)
	a, err := h.Sign(c)
	require.NoError(t, err)
	b, err := h.Sign(c)
	require.NoError(t, err)

	// HMAC over an identical payload with an identical secret is stable.
	require.Equal(t, a, b)
}

func TestHS256_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signer, err := NewHS256("secret-one", "membergate")
	require.NoError(t, err)
	verifier, err := NewHS256("secret-two", "membergate")
	require.NoError(t, err)

	raw, err := signer.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestHS256_RejectsExpired(t *testing.T) {
	t.Parallel()

	h, err := NewHS256("test-secret", "membergate")
	require.NoError(t, err)

	raw, err := h.Sign(testClaims(-time.Minute))
	require.NoError(t, err)

	_, err = h.Verify(raw)
	require.ErrorIs(t, err, ErrExpired)
}

func TestHS256_RejectsMalformed(t *testing.T) {
	t.Parallel()

	h, err := NewHS256("test-secret", "membergate")
	require.NoError(t, err)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := h.Verify(raw)
		require.Error(t, err, "token %q should not verify", raw)
	}
}

func TestHS256_RejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	signer, err := NewHS256("test-secret", "someone-else")
	require.NoError(t, err)
	verifier, err := NewHS256("test-secret", "membergate")
	require.NoError(t, err)

	c := testClaims(time.Minute)
	c.Issuer = "someone-else"
	raw, err := signer.Sign(c)
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestHS256_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewHS256("", "membergate")
	require.Error(t, err)
}

func TestClaims_ValidateExpiry(t *testing.T) {
	t.Parallel()

	t.Run("valid window passes", func(t *testing.T) {
		c := testClaims(time.Minute)
		require.NoError(t, c.ValidateExpiry())
	})

	t.Run("expired token rejected", func(t *testing.T) {
		c := testClaims(-time.Minute)
		require.ErrorIs(t, c.ValidateExpiry(), ErrExpired)
	})

	t.Run("leeway tolerates small skew", func(t *testing.T) {
		c := testClaims(-time.Second)
		require.NoError(t, c.ValidateExpiryWithLeeway(30*time.Second))
	})
}
