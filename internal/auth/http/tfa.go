package http

import (
	"net/http"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/lumenlabs/membergate/pkg/httpx"
)

// TFAHandler manages the second-factor settings of the caller's account.
type TFAHandler struct {
	TOTPService *service.TOTPService
	Store       store.Store
}

// HandleEnable handles POST /v1/tfa
//
//	@Summary		Enable two-factor login
//	@Description	Requires a second factor on every future login. Without an active
//	@Description	authenticator app the factor is a code delivered over the account's
//	@Description	email or phone.
//	@Tags			TFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"Two-factor enabled"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/tfa [post].
func (h *TFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.Store.Users().SetTFAEnabled(r.Context(), userID, true); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "two-factor enabled"})
}

// HandleDisable handles DELETE /v1/tfa
//
//	@Summary		Disable two-factor login
//	@Tags			TFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"Two-factor disabled"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/tfa [delete].
func (h *TFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.Store.Users().SetTFAEnabled(r.Context(), userID, false); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "two-factor disabled"})
}

// HandleEnroll handles POST /v1/tfa/totp/enroll
//
//	@Summary		Enroll an authenticator app
//	@Description	Provisions a TOTP secret and returns it with its otpauth URL. The
//	@Description	secret is shown once and stays inert until activated with a valid
//	@Description	code.
//	@Tags			TFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPEnrollResponse	"Secret and otpauth URL"
//	@Failure		400	{object}	authsdk.ErrorResponse		"An authenticator is already active"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/tfa/totp/enroll [post].
func (h *TFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	enrollment, err := h.TOTPService.Enroll(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		Secret:  enrollment.Secret,
		URL:     enrollment.URL,
		Issuer:  enrollment.Issuer,
		Account: enrollment.Account,
	})
}

// HandleActivate handles POST /v1/tfa/totp/activate
//
//	@Summary		Activate the enrolled authenticator
//	@Description	Proves possession of the enrolled secret with a valid code and
//	@Description	switches the account's second factor to the authenticator.
//	@Tags			TFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CodeRequest		true	"Authenticator code"
//	@Success		200		{object}	authsdk.MessageResponse	"Authenticator active"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code or nothing enrolled"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/tfa/totp/activate [post].
func (h *TFAHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req authsdk.CodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.TOTPService.Activate(r.Context(), userID, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "authenticator active"})
}

// HandleRemove handles DELETE /v1/tfa/totp
//
//	@Summary		Remove the authenticator app
//	@Description	Drops the authenticator secret. Two-factor stays enabled if it was
//	@Description	on; subsequent logins fall back to delivered codes.
//	@Tags			TFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"Authenticator removed"
//	@Failure		400	{object}	authsdk.ErrorResponse	"No authenticator enrolled"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/tfa/totp [delete].
func (h *TFAHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.TOTPService.Remove(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "authenticator removed"})
}
