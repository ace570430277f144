package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Session performs authenticated calls with a bearer token.
type Session struct {
	client      *SDKClient
	accessToken string
}

// AccessToken exposes the raw token, for callers that need to store it.
func (s *Session) AccessToken() string {
	return s.accessToken
}

// Me returns the caller's own account.
func (s *Session) Me(ctx context.Context) (UserResponse, error) {
	var out UserResponse
	err := s.do(ctx, http.MethodGet, "/v1/me", nil, http.StatusOK, &out)
	return out, err
}

// ChangePassword rotates the caller's password. Only honoured after a
// verified reset code armed the account.
func (s *Session) ChangePassword(ctx context.Context, newPassword, confirm string) error {
	return s.do(ctx, http.MethodPatch, "/v1/me/password",
		PasswordChangeRequest{NewPassword: newPassword, ConfirmPassword: confirm}, http.StatusOK, nil)
}

// RequestEmailVerification asks for a fresh email code.
func (s *Session) RequestEmailVerification(ctx context.Context) error {
	return s.do(ctx, http.MethodPost, "/v1/verify/email/request", nil, http.StatusAccepted, nil)
}

// VerifyEmail submits the delivered email code.
func (s *Session) VerifyEmail(ctx context.Context, code string) error {
	return s.do(ctx, http.MethodPost, "/v1/verify/email", CodeRequest{Code: code}, http.StatusOK, nil)
}

// RequestPhoneVerification asks for a fresh phone code.
func (s *Session) RequestPhoneVerification(ctx context.Context) error {
	return s.do(ctx, http.MethodPost, "/v1/verify/phone/request", nil, http.StatusAccepted, nil)
}

// VerifyPhone submits the delivered phone code.
func (s *Session) VerifyPhone(ctx context.Context, code string) error {
	return s.do(ctx, http.MethodPost, "/v1/verify/phone", CodeRequest{Code: code}, http.StatusOK, nil)
}

// EnableTFA turns on the second-factor requirement at login.
func (s *Session) EnableTFA(ctx context.Context) error {
	return s.do(ctx, http.MethodPost, "/v1/tfa", nil, http.StatusOK, nil)
}

// DisableTFA turns the second-factor requirement off.
func (s *Session) DisableTFA(ctx context.Context) error {
	return s.do(ctx, http.MethodDelete, "/v1/tfa", nil, http.StatusOK, nil)
}

// EnrollTOTP provisions an authenticator secret. Activate it with a valid
// code before it participates in login.
func (s *Session) EnrollTOTP(ctx context.Context) (TOTPEnrollResponse, error) {
	var out TOTPEnrollResponse
	err := s.do(ctx, http.MethodPost, "/v1/tfa/totp/enroll", nil, http.StatusOK, &out)
	return out, err
}

// ActivateTOTP proves possession of the enrolled secret.
func (s *Session) ActivateTOTP(ctx context.Context, code string) error {
	return s.do(ctx, http.MethodPost, "/v1/tfa/totp/activate", CodeRequest{Code: code}, http.StatusOK, nil)
}

// RemoveTOTP drops the authenticator; delivered codes take over at login.
func (s *Session) RemoveTOTP(ctx context.Context) error {
	return s.do(ctx, http.MethodDelete, "/v1/tfa/totp", nil, http.StatusOK, nil)
}

// ListUsers returns all non-deleted accounts. Requires users:read.
func (s *Session) ListUsers(ctx context.Context) (UserListResponse, error) {
	var out UserListResponse
	err := s.do(ctx, http.MethodGet, "/v1/users", nil, http.StatusOK, &out)
	return out, err
}

// GetUser returns one account by id. Requires users:read.
func (s *Session) GetUser(ctx context.Context, id string) (UserResponse, error) {
	var out UserResponse
	err := s.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(id), nil, http.StatusOK, &out)
	return out, err
}

// CreateUser creates an account on behalf of another person. Requires
// users:create; any role may be assigned.
func (s *Session) CreateUser(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	err := s.do(ctx, http.MethodPost, "/v1/users", req, http.StatusCreated, &out)
	return out, err
}

// UpdateUser partially edits an account. Requires users:update.
func (s *Session) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error) {
	var out UserResponse
	err := s.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(id), req, http.StatusOK, &out)
	return out, err
}

// BlockUser suspends an account. Requires users:block.
func (s *Session) BlockUser(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodPost, "/v1/users/"+url.PathEscape(id)+"/block", nil, http.StatusOK, nil)
}

// UnblockUser lifts a suspension. Requires users:block.
func (s *Session) UnblockUser(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(id)+"/block", nil, http.StatusOK, nil)
}

// DeleteUser soft-deletes an account. Requires users:delete.
func (s *Session) DeleteUser(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(id), nil, http.StatusOK, nil)
}

// ListRoles returns the role graph. Requires roles:read.
func (s *Session) ListRoles(ctx context.Context) (RoleListResponse, error) {
	var out RoleListResponse
	err := s.do(ctx, http.MethodGet, "/v1/roles", nil, http.StatusOK, &out)
	return out, err
}

// CreateRole adds a role. Requires roles:manage.
func (s *Session) CreateRole(ctx context.Context, req CreateRoleRequest) (RoleResponse, error) {
	var out RoleResponse
	err := s.do(ctx, http.MethodPost, "/v1/roles", req, http.StatusCreated, &out)
	return out, err
}

// ReplaceRolePermissions swaps a role's permission set. Requires roles:manage.
func (s *Session) ReplaceRolePermissions(ctx context.Context, name string, permissions []string) (RoleResponse, error) {
	var out RoleResponse
	err := s.do(ctx, http.MethodPut, "/v1/roles/"+url.PathEscape(name)+"/permissions",
		ReplacePermissionsRequest{Permissions: permissions}, http.StatusOK, &out)
	return out, err
}

// ListPermissions returns the capability catalogue. Requires roles:read.
func (s *Session) ListPermissions(ctx context.Context) (PermissionListResponse, error) {
	var out PermissionListResponse
	err := s.do(ctx, http.MethodGet, "/v1/permissions", nil, http.StatusOK, &out)
	return out, err
}

func (s *Session) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.client.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, wantStatus, out)
}
