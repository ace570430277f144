package http

import (
	"net/http"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/lumenlabs/membergate/pkg/httpx"
	"github.com/lumenlabs/membergate/pkg/slogx"
)

// PasswordHandler handles the forgot-password flow and password rotation.
type PasswordHandler struct {
	OTPService     *service.OTPService
	TokenService   *service.TokenService
	AccountService *service.AccountService
	LoginService   *service.LoginService
	Store          store.Store
}

// HandleForgot handles POST /v1/password/forgot
//
//	@Summary		Start a password reset
//	@Description	Sends a reset code to the account matching the identifier. The
//	@Description	response is 202 whether or not the identifier matches anything, so
//	@Description	the endpoint cannot be used to probe which identities exist.
//	@Tags			Passwords
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasswordForgotRequest	true	"Public identifier"
//	@Success		202		{object}	authsdk.MessageResponse			"Reset code sent if the account exists"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Malformed request"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/password/forgot [post].
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.PasswordForgotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Identifier == "" {
		authsdk.ErrInvalidRequest.WithDescription("identifier is required").WriteError(w)
		return
	}

	if err := h.OTPService.RequestPasswordReset(ctx, req.Identifier); err != nil {
		// Delivery trouble stays invisible to the caller for the same
		// reason unknown identifiers do.
		slogx.FromContext(ctx).Error("failed to issue reset code", "err", err)
	}
	httpx.WriteJSON(w, http.StatusAccepted, authsdk.MessageResponse{
		Message: "if the account exists, a reset code has been sent",
	})
}

// HandleReset handles POST /v1/password/reset
//
//	@Summary		Verify a password reset code
//	@Description	Consumes the delivered reset code. On success the account's
//	@Description	password-update gate is armed and an access token is returned; use
//	@Description	it to set the new password via PATCH /v1/me/password. Accounts with
//	@Description	two-factor enabled receive no token here: the response signals
//	@Description	tfa_required and the reset completes at /v1/password/reset/tfa, so a
//	@Description	reset code alone never defeats the second factor.
//	@Tags			Passwords
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasswordResetRequest	true	"Identifier and reset code"
//	@Success		200		{object}	authsdk.LoginResponse			"Token armed for one password change, or a pending second factor"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Invalid, expired, or used code"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/password/reset [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.OTPService.VerifyPasswordReset(ctx, req.Identifier, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if user.TFAEnabled {
		if !user.TOTPActive() {
			if err := h.OTPService.RequestTFA(ctx, user); err != nil {
				writeServiceError(w, r, err)
				return
			}
		}
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{TFARequired: true})
		return
	}

	role, err := h.Store.Roles().GetRoleByID(ctx, user.RoleID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.TokenService.IssueForUser(user, role.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(service.LoginResult{
		Token: token, RoleName: role.Name,
	}, h.TokenService.AccessTTL))
}

// HandleResetTFA handles POST /v1/password/reset/tfa
//
//	@Summary		Complete a two-factor password reset
//	@Description	Finishes a reset parked behind a second factor. The code is the
//	@Description	account's TFA code, delivered or from the authenticator app, not the
//	@Description	reset code; the armed password-update gate from /v1/password/reset is
//	@Description	the proof that the reset code already cleared.
//	@Tags			Passwords
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasswordResetRequest	true	"Identifier and TFA code"
//	@Success		200		{object}	authsdk.LoginResponse			"Token armed for one password change"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Invalid, expired, or used code, or no reset pending"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Unknown identifier"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/password/reset/tfa [post].
func (h *PasswordHandler) HandleResetTFA(w http.ResponseWriter, r *http.Request) {
	var req authsdk.PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.LoginService.CompletePasswordReset(r.Context(), req.Identifier, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(res, h.TokenService.AccessTTL))
}

// HandleChange handles PATCH /v1/me/password
//
//	@Summary		Change the caller's password
//	@Description	Rotates the password. Only honoured while the account's reset gate
//	@Description	is armed by a verified reset code; the gate clears with the change.
//	@Tags			Passwords
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasswordChangeRequest	true	"New password"
//	@Success		200		{object}	authsdk.MessageResponse			"Password changed"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Gate not armed or weak password"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid or missing access token"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/me/password [patch].
func (h *PasswordHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req authsdk.PasswordChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeServiceError(w, r, service.ErrPasswordMismatch)
		return
	}

	if err := h.AccountService.ChangePassword(r.Context(), userID, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "password changed"})
}
