package http

import (
	"net/http"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/lumenlabs/membergate/pkg/httpx"
)

// LoginHandler handles primary authentication and the second-factor step.
type LoginHandler struct {
	LoginService *service.LoginService
	TokenService *service.TokenService
}

// HandleLogin handles POST /v1/login
//
//	@Summary		Log in
//	@Description	Authenticates with a password and exactly one of username, email, or
//	@Description	phone. Accounts with two-factor enabled receive no token here; the
//	@Description	response signals tfa_required and the login completes at /v1/login/tfa.
//	@Description	A wrong password and an unknown identifier both answer 401
//	@Description	invalid_credentials: the credential was well-formed but failed to
//	@Description	authenticate. 400 is reserved for malformed requests, such as zero or
//	@Description	multiple identifiers.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Token, or a pending second factor"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Blocked or deleted account"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/login [post].
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.LoginService.Login(ctx, service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	if res.TFARequired {
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{TFARequired: true})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(res, h.TokenService.AccessTTL))
}

// HandleTFA handles POST /v1/login/tfa
//
//	@Summary		Complete a two-factor login
//	@Description	Finishes a login parked behind a second factor. The primary
//	@Description	credentials are re-checked alongside the code: a delivered one-time
//	@Description	code, or the authenticator app code when one is active.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TFARequest		true	"Credentials and code"
//	@Success		200		{object}	authsdk.LoginResponse	"Access token"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid, expired, or used code"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/login/tfa [post].
func (h *LoginHandler) HandleTFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.TFARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.LoginService.VerifyTFA(ctx, service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(res, h.TokenService.AccessTTL))
}
