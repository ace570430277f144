package http

import (
	"net/http"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/lumenlabs/membergate/pkg/httpx"
)

// UsersHandler covers the administrative account surface. Every route is
// gated by a users:* permission in the router.
type UsersHandler struct {
	AccountService  *service.AccountService
	RegisterService *service.RegistrationService
	RolesService    *service.RolesService
	Store           store.Store
}

// roleName resolves a role id for response bodies; unknown ids degrade to
// an empty name rather than failing the request.
func (h *UsersHandler) roleName(r *http.Request, roleID string) string {
	role, err := h.Store.Roles().GetRoleByID(r.Context(), roleID)
	if err != nil {
		return ""
	}
	return role.Name
}

// HandleList handles GET /v1/users
//
//	@Summary		List accounts
//	@Description	Returns all accounts except soft-deleted ones, newest first.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserListResponse	"Accounts"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Missing users:read permission"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.AccountService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.UserListResponse{Users: make([]authsdk.UserResponse, 0, len(users))}
	names := make(map[string]string)
	for _, u := range users {
		name, ok := names[u.RoleID]
		if !ok {
			name = h.roleName(r, u.RoleID)
			names[u.RoleID] = name
		}
		out.Users = append(out.Users, toUserResponse(u, name))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /v1/users/{id}
//
//	@Summary		Get an account
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Account id"
//	@Success		200	{object}	authsdk.UserResponse	"The account"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Missing users:read permission"
//	@Failure		404	{object}	authsdk.ErrorResponse	"No such account"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.AccountService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user, h.roleName(r, user.RoleID)))
}

// HandleCreate handles POST /v1/users
//
//	@Summary		Create an account
//	@Description	Creates an account on behalf of another person. Unlike public
//	@Description	registration, any existing role may be assigned here, including the
//	@Description	administrative tiers.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Account details"
//	@Success		201		{object}	authsdk.RegisterResponse	"Created account"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Validation failure"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Missing users:create permission"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Identifiers already registered"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = DefaultPublicRole
	}

	res, err := h.RegisterService.CreateByAdmin(r.Context(), service.RegisterInput{
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

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		User: toUserResponse(res.User, req.Role),
	})
}

// HandleUpdate handles PATCH /v1/users/{id}
//
//	@Summary		Update an account
//	@Description	Applies a partial edit. Lifecycle state, verification flags, and
//	@Description	timestamps are not writable here; a password is accepted only while
//	@Description	the account's reset gate is armed. The caller cannot edit their own
//	@Description	account through this endpoint.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Account id"
//	@Param			request	body		authsdk.UpdateUserRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.UserResponse		"The updated account"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Validation failure"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Missing permission or self-targeted"
//	@Failure		404		{object}	authsdk.ErrorResponse		"No such account"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Identifiers already registered"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/users/{id} [patch].
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req authsdk.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.AccountService.Update(r.Context(), actorID, r.PathValue("id"), service.UpdateUserInput{
		Username:       req.Username,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Role:           req.Role,
		Password:       req.Password,
		CurrentAddress: fromAddress(req.CurrentAddress),
		PostalAddress:  fromAddress(req.PostalAddress),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user, h.roleName(r, user.RoleID)))
}

// HandleBlock handles POST /v1/users/{id}/block
//
//	@Summary		Block an account
//	@Description	Suspends an account; it keeps its data but cannot authenticate. The
//	@Description	caller cannot block their own account.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Account id"
//	@Success		200	{object}	authsdk.MessageResponse	"Account blocked"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Already blocked"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Missing permission or self-targeted"
//	@Failure		404	{object}	authsdk.ErrorResponse	"No such account"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/{id}/block [post].
func (h *UsersHandler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.AccountService.Block(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "account blocked"})
}

// HandleUnblock handles DELETE /v1/users/{id}/block
//
//	@Summary		Unblock an account
//	@Description	Lifts a suspension. The caller cannot unblock their own account.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Account id"
//	@Success		200	{object}	authsdk.MessageResponse	"Account unblocked"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Not blocked"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Missing permission or self-targeted"
//	@Failure		404	{object}	authsdk.ErrorResponse	"No such account"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/{id}/block [delete].
func (h *UsersHandler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.AccountService.Unblock(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "account unblocked"})
}

// HandleDelete handles DELETE /v1/users/{id}
//
//	@Summary		Delete an account
//	@Description	Soft-deletes an account. The record survives as a tombstone so its
//	@Description	history stays auditable; re-registering the same identifiers revives
//	@Description	it. The caller cannot delete their own account.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Account id"
//	@Success		200	{object}	authsdk.MessageResponse	"Account deleted"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Missing permission, self-targeted, or already deleted"
//	@Failure		404	{object}	authsdk.ErrorResponse	"No such account"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.AccountService.Delete(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "account deleted"})
}
