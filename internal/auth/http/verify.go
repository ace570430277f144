package http

import (
	"net/http"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/lumenlabs/membergate/pkg/httpx"
)

// VerifyHandler handles email and phone channel verification.
type VerifyHandler struct {
	OTPService *service.OTPService
}

// HandleEmailRequest handles POST /v1/verify/email/request
//
//	@Summary		Request an email verification code
//	@Description	Sends a fresh code to the account's email address, superseding any
//	@Description	outstanding one.
//	@Tags			Verification
//	@Security		BearerAuth
//	@Produce		json
//	@Success		202	{object}	authsdk.MessageResponse	"Code sent"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Channel already verified"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/verify/email/request [post].
func (h *VerifyHandler) HandleEmailRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.OTPService.RequestEmailVerification(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, authsdk.MessageResponse{Message: "verification code sent"})
}

// HandleEmailVerify handles POST /v1/verify/email
//
//	@Summary		Verify the email address
//	@Description	Consumes the delivered code and marks the email address verified.
//	@Tags			Verification
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CodeRequest		true	"One-time code"
//	@Success		200		{object}	authsdk.MessageResponse	"Email verified"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid, expired, or used code"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/verify/email [post].
func (h *VerifyHandler) HandleEmailVerify(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req authsdk.CodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.OTPService.VerifyEmail(r.Context(), userID, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "email verified"})
}

// HandlePhoneRequest handles POST /v1/verify/phone/request
//
//	@Summary		Request a phone verification code
//	@Description	Sends a fresh code to the account's phone number.
//	@Tags			Verification
//	@Security		BearerAuth
//	@Produce		json
//	@Success		202	{object}	authsdk.MessageResponse	"Code sent"
//	@Failure		400	{object}	authsdk.ErrorResponse	"No phone on file or already verified"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/verify/phone/request [post].
func (h *VerifyHandler) HandlePhoneRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.OTPService.RequestPhoneVerification(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, authsdk.MessageResponse{Message: "verification code sent"})
}

// HandlePhoneVerify handles POST /v1/verify/phone
//
//	@Summary		Verify the phone number
//	@Description	Consumes the delivered code and marks the phone number verified.
//	@Tags			Verification
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CodeRequest		true	"One-time code"
//	@Success		200		{object}	authsdk.MessageResponse	"Phone verified"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid, expired, or used code"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/verify/phone [post].
func (h *VerifyHandler) HandlePhoneVerify(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req authsdk.CodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.OTPService.VerifyPhone(r.Context(), userID, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "phone verified"})
}
