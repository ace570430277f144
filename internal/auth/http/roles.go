package http

import (
	"net/http"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/pkg/authsdk"
	"github.com/lumenlabs/membergate/pkg/httpx"
)

// RolesHandler exposes the role and permission graph.
type RolesHandler struct {
	RolesService *service.RolesService
}

func toRoleResponse(role domain.Role) authsdk.RoleResponse {
	return authsdk.RoleResponse{
		Name:        role.Name,
		Permissions: role.PermissionNames(),
	}
}

// HandleList handles GET /v1/roles
//
//	@Summary		List roles
//	@Description	Returns every role with its ordered permission names.
//	@Tags			Roles
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.RoleListResponse	"Roles"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Missing roles:read permission"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/roles [get].
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RolesService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.RoleListResponse{Roles: make([]authsdk.RoleResponse, 0, len(roles))}
	for _, role := range roles {
		out.Roles = append(out.Roles, toRoleResponse(role))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /v1/roles
//
//	@Summary		Create a role
//	@Description	Adds a role granting the named permissions. Every permission must
//	@Description	already exist in the catalogue.
//	@Tags			Roles
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateRoleRequest	true	"Role name and permissions"
//	@Success		201		{object}	authsdk.RoleResponse		"The created role"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Unknown permission"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Missing roles:manage permission"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Role name already exists"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/roles [post].
func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		authsdk.ErrInvalidRequest.WithDescription("role name is required").WriteError(w)
		return
	}

	role, err := h.RolesService.Create(r.Context(), req.Name, req.Permissions)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toRoleResponse(role))
}

// HandleReplacePermissions handles PUT /v1/roles/{name}/permissions
//
//	@Summary		Replace a role's permissions
//	@Description	Swaps the role's permission set wholesale. Holders of the role pick
//	@Description	up the new set on their next request; no token refresh is involved.
//	@Tags			Roles
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string								true	"Role name"
//	@Param			request	body		authsdk.ReplacePermissionsRequest	true	"New permission set"
//	@Success		200		{object}	authsdk.RoleResponse				"The updated role"
//	@Failure		400		{object}	authsdk.ErrorResponse				"Unknown role or permission"
//	@Failure		401		{object}	authsdk.ErrorResponse				"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.ErrorResponse				"Missing roles:manage permission"
//	@Failure		500		{object}	authsdk.ErrorResponse				"Internal server error"
//	@Router			/v1/roles/{name}/permissions [put].
func (h *RolesHandler) HandleReplacePermissions(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ReplacePermissionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := h.RolesService.ReplacePermissions(r.Context(), r.PathValue("name"), req.Permissions)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRoleResponse(role))
}

// HandleListPermissions handles GET /v1/permissions
//
//	@Summary		List the permission catalogue
//	@Tags			Roles
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.PermissionListResponse	"Permissions"
//	@Failure		401	{object}	authsdk.ErrorResponse			"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse			"Missing roles:read permission"
//	@Failure		500	{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/permissions [get].
func (h *RolesHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.RolesService.ListPermissions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.PermissionListResponse{Permissions: make([]authsdk.PermissionResponse, 0, len(perms))}
	for _, p := range perms {
		out.Permissions = append(out.Permissions, authsdk.PermissionResponse{
			Name:        p.Name,
			Description: p.Description,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
