package auth_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLogin verifies that /v1/login is rate limited. The endpoint
// carries a strict per-IP limit (5 req/min) to slow credential stuffing.
func TestRateLimitLogin(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	// Exhaust the strict budget with bad credentials. The first 5 attempts
	// must fail on the credentials themselves, not the limiter.
	var lastErr error
	for i := range 6 {
		_, err := client.Login(t.Context(), authsdk.LoginRequest{
			Username: "nosuchuser",
			Password: "WrongPass123!",
		})
		require.Error(t, err)

		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		if i < 5 {
			require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode,
				"request %d should fail authentication, not rate limiting", i+1)
		}
		lastErr = err
	}

	var apiErr *authsdk.APIError
	require.ErrorAs(t, lastErr, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Equal(t, "rate_limit_exceeded", apiErr.Code)
}

// TestRateLimitForgotPassword verifies that /v1/password/forgot is rate
// limited. The endpoint always answers 202 so the limiter is the only thing
// standing between an attacker and unlimited delivery attempts.
func TestRateLimitForgotPassword(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	for i := range 5 {
		err := client.ForgotPassword(t.Context(), "nobody@example.com")
		require.NoError(t, err, "request %d should be accepted", i+1)
	}

	err := client.ForgotPassword(t.Context(), "nobody@example.com")
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

// TestRateLimitIndependentEndpoints verifies that exhausting one endpoint's
// budget does not lock out the rest of the service.
func TestRateLimitIndependentEndpoints(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	// Burn the login budget.
	for range 6 {
		_, _ = client.Login(t.Context(), authsdk.LoginRequest{
			Username: "nosuchuser",
			Password: "WrongPass123!",
		})
	}

	// Health probes are unlimited and must still respond.
	health, err := client.Livez(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)

	// Registration has its own strict bucket and should still have budget.
	_, err = client.Register(t.Context(), authsdk.RegisterRequest{
		Username:        "limituser",
		Email:           "limituser@example.com",
		Password:        memberPassword,
		ConfirmPassword: memberPassword,
	})
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) {
		require.NotEqual(t, http.StatusTooManyRequests, apiErr.StatusCode,
			"register should not share the login budget")
	} else {
		require.NoError(t, err)
	}
}
