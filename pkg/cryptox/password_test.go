package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Set up a temporary pepper file for testing
	tmpDir := os.TempDir()
	pepperPath := filepath.Join(tmpDir, "test-pepper")
	SetPepperPath(pepperPath)

	// Clean up pepper file before and after tests
	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func TestHashSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty secret", ""},
		{"five digit otp", "48201"},
		{"whitespace", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashSecret(tt.secret)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			// Verify PHC format
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"),
				"hash should be in PHC format")

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")
		})
	}
}

func TestHashSecret_UniqueSalts(t *testing.T) {
	secret := "samepassword"

	hash1, err := HashSecret(secret)
	require.NoError(t, err)

	hash2, err := HashSecret(secret)
	require.NoError(t, err)

	// Each hash should differ due to unique salts
	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")

	// But all should verify the same secret
	require.NoError(t, VerifySecret(secret, hash1))
	require.NoError(t, VerifySecret(secret, hash2))

	// The stored hash never equals the plaintext
	require.NotEqual(t, secret, hash1)
}

func TestVerifySecret_WrongSecret(t *testing.T) {
	hash, err := HashSecret("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "correct-passwore", "", "CORRECT-PASSWORD"} {
		require.Error(t, VerifySecret(wrong, hash), "secret %q should not verify", wrong)
	}
}

func TestVerifySecret_MalformedDigest(t *testing.T) {
	tests := []struct {
		name   string
		digest string
	}{
		{"empty digest", ""},
		{"not a PHC string", "plainhash"},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"bad parameters", "$argon2id$v=19$m=x,t=y,p=z$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA"},
		{"bad hash encoding", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!"},
		{"truncated", "$argon2id$v=19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Malformed digests fail verification, they never panic.
			require.Error(t, VerifySecret("anything", tt.digest))
		})
	}
}

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, OTPLength)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "code should be numeric, got %q", code)
		}
		seen[code] = struct{}{}
	}

	// Not a uniqueness guarantee, but 50 identical codes would mean a broken
	// entropy source.
	require.Greater(t, len(seen), 1)
}

func TestRandomSecret(t *testing.T) {
	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := RandomSecret(0)
		require.Error(t, err)
		_, err = RandomSecret(-1)
		require.Error(t, err)
	})

	t.Run("generates distinct url-safe secrets", func(t *testing.T) {
		a, err := RandomSecret(32)
		require.NoError(t, err)
		b, err := RandomSecret(32)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
		require.NotContains(t, a, "=")
		require.NotContains(t, a, "+")
		require.NotContains(t, a, "/")
	})
}
