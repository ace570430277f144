package http

import (
	"net/http"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/lumenlabs/membergate/pkg/httpx"
)

// DefaultPublicRole is assigned when a signup does not name one.
const DefaultPublicRole = "member"

// RegisterHandler handles public account creation.
type RegisterHandler struct {
	RegisterService *service.RegistrationService
	TokenService    *service.TokenService
	RolesService    *service.RolesService
}

// HandleRegister handles POST /v1/register
//
//	@Summary		Register a new account
//	@Description	Creates an account, issues its first access token, and sends an email
//	@Description	verification code. Re-registering the identifiers of a previously
//	@Description	deleted account revives that account in place. Administrative roles
//	@Description	cannot be self-assigned.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Account details"
//	@Success		201		{object}	authsdk.RegisterResponse	"Created account and token"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Validation failure"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Identifiers already registered"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/register [post].
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = DefaultPublicRole
	}

	res, err := h.RegisterService.Register(ctx, service.RegisterInput{
		Username:        req.Username,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Phone:           req.Phone,
		Role:            req.Role,
		CurrentAddress:  fromAddress(req.CurrentAddress),
		PostalAddress:   fromAddress(req.PostalAddress),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		User:  toUserResponse(res.User, req.Role),
		Token: toTokenResponse(res.Token, h.TokenService.AccessTTL),
	})
}
