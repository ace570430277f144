package http

import (
	"net/http"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/httpx"
)

// MeHandler serves the caller's own account.
type MeHandler struct {
	AccountService *service.AccountService
	RolesService   *service.RolesService
	Store          store.Store
}

// HandleGet handles GET /v1/me
//
//	@Summary		Get the caller's account
//	@Description	Returns the authenticated account with its current role name and
//	@Description	verification state.
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"The caller's account"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/me [get].
func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.AccountService.Get(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	role, err := h.Store.Roles().GetRoleByID(ctx, user.RoleID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user, role.Name))
}
