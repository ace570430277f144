package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the MemberGate authentication service. It covers
// the unauthenticated surface and creates authenticated Sessions on login.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns it with its first access token.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	err := c.postJSON(ctx, "/v1/register", req, http.StatusCreated, &out)
	return out, err
}

// Login authenticates primary credentials. When the account requires a
// second factor the response has TFARequired set and no token; complete the
// login with VerifyTFA.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var out LoginResponse
	err := c.postJSON(ctx, "/v1/login", req, http.StatusOK, &out)
	return out, err
}

// VerifyTFA completes a login parked behind a second-factor challenge.
func (c *SDKClient) VerifyTFA(ctx context.Context, req TFARequest) (LoginResponse, error) {
	var out LoginResponse
	err := c.postJSON(ctx, "/v1/login/tfa", req, http.StatusOK, &out)
	return out, err
}

// ForgotPassword starts the reset flow. The response is identical whether
// or not the identifier matches an account.
func (c *SDKClient) ForgotPassword(ctx context.Context, identifier string) error {
	return c.postJSON(ctx, "/v1/password/forgot",
		PasswordForgotRequest{Identifier: identifier}, http.StatusAccepted, nil)
}

// ResetPassword proves possession of the delivered reset code. On accounts
// without two-factor the returned token is armed for exactly one password
// change; with two-factor enabled the response has TFARequired set, the
// token is withheld, and the reset completes with ResetPasswordTFA.
func (c *SDKClient) ResetPassword(ctx context.Context, identifier, code string) (LoginResponse, error) {
	var out LoginResponse
	err := c.postJSON(ctx, "/v1/password/reset",
		PasswordResetRequest{Identifier: identifier, Code: code}, http.StatusOK, &out)
	return out, err
}

// ResetPasswordTFA clears the second factor on a reset parked by
// ResetPassword. The code is the account's TFA code, delivered or from the
// authenticator app, not the reset code.
func (c *SDKClient) ResetPasswordTFA(ctx context.Context, identifier, code string) (LoginResponse, error) {
	var out LoginResponse
	err := c.postJSON(ctx, "/v1/password/reset/tfa",
		PasswordResetRequest{Identifier: identifier, Code: code}, http.StatusOK, &out)
	return out, err
}

// Livez reports whether the service process is up.
func (c *SDKClient) Livez(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.getJSON(ctx, "/livez", http.StatusOK, &out)
	return out, err
}

// Readyz reports whether the service can reach its database.
func (c *SDKClient) Readyz(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.getJSON(ctx, "/readyz", http.StatusOK, &out)
	return out, err
}

// NewSession wraps an access token for authenticated calls.
func (c *SDKClient) NewSession(accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken}
}

// AuthenticateSession logs in and returns a Session in one step. It fails
// when the account requires a second factor.
func (c *SDKClient) AuthenticateSession(ctx context.Context, req LoginRequest) (*Session, error) {
	res, err := c.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.TFARequired {
		return nil, &APIError{
			StatusCode:  http.StatusUnauthorized,
			Code:        ErrorCodeTFARequired,
			Description: "a second factor is required, complete the login with VerifyTFA",
		}
	}
	return c.NewSession(res.AccessToken), nil
}

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

func (c *SDKClient) postJSON(ctx context.Context, path string, body any, wantStatus int, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, wantStatus, out)
}

func (c *SDKClient) getJSON(ctx context.Context, path string, wantStatus int, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, wantStatus, out)
}

// decodeResponse unmarshals the expected body or surfaces the server's
// error payload as an *APIError.
func decodeResponse(resp *http.Response, wantStatus int, out any) error {
	if resp.StatusCode != wantStatus {
		return parseAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeServerError,
			Description: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        errResp.Error,
		Description: errResp.ErrorDescription,
	}
}
