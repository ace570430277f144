package auth_test

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/membergate/pkg/authsdk"
)

func TestTOTPLoginFlow(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	_, session := registerMember(t, client, "ivan", "ivan@example.com")

	enrollment, err := session.EnrollTOTP(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.URL, "otpauth://")

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, session.ActivateTOTP(t.Context(), code))

	// With the authenticator active, a plain login withholds the token.
	res, err := client.Login(t.Context(), authsdk.LoginRequest{
		Username: "ivan", Password: memberPassword,
	})
	require.NoError(t, err)
	require.True(t, res.TFARequired)
	require.Empty(t, res.AccessToken)

	t.Run("wrong code", func(t *testing.T) {
		_, err := client.VerifyTFA(t.Context(), authsdk.TFARequest{
			Username: "ivan", Password: memberPassword, Code: "000000",
		})
		requireAPIError(t, err, authsdk.ErrorCodeInvalidCode)
	})

	t.Run("valid code completes the login", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)

		res, err := client.VerifyTFA(t.Context(), authsdk.TFARequest{
			Username: "ivan", Password: memberPassword, Code: code,
		})
		require.NoError(t, err)
		require.NotEmpty(t, res.AccessToken)
	})

	t.Run("removing the authenticator restores plain login after disable", func(t *testing.T) {
		require.NoError(t, session.RemoveTOTP(t.Context()))
		require.NoError(t, session.DisableTFA(t.Context()))

		res, err := client.Login(t.Context(), authsdk.LoginRequest{
			Username: "ivan", Password: memberPassword,
		})
		require.NoError(t, err)
		require.False(t, res.TFARequired)
		require.NotEmpty(t, res.AccessToken)
	})
}

func TestTOTPEnrollmentRequiresActivation(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	_, session := registerMember(t, client, "judy", "judy@example.com")

	_, err := session.EnrollTOTP(t.Context())
	require.NoError(t, err)

	// Enrollment alone changes nothing at login.
	res, err := client.Login(t.Context(), authsdk.LoginRequest{
		Username: "judy", Password: memberPassword,
	})
	require.NoError(t, err)
	require.False(t, res.TFARequired)
	require.NotEmpty(t, res.AccessToken)

	err = session.ActivateTOTP(t.Context(), "123456")
	requireAPIError(t, err, authsdk.ErrorCodeInvalidCode)
}
