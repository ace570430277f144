package httpx

import (
	"context"
	"net/http"
	"slices"

	"github.com/lumenlabs/membergate/pkg/slogx"
)

// PermissionSource resolves the current permission names for a role. The
// store-backed implementation lives with the services; the middleware only
// needs this one method.
type PermissionSource interface {
	PermissionsForRole(ctx context.Context, roleID string) ([]string, error)
}

// RequirePermission returns a middleware that allows the request only when
// the caller's role currently holds the named permission. The role is
// re-resolved from the store on every request; the token is treated as proof
// of identity, never as a cache of capability. The resolved permission set is
// attached to the context for downstream handlers.
func RequirePermission(src PermissionSource, name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			claims, ok := ClaimsFromContext(ctx)
			if !ok || claims.RoleID == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			perms, err := src.PermissionsForRole(ctx, claims.RoleID)
			if err != nil {
				log.Error("failed to resolve role permissions", "role_id", claims.RoleID, "err", err)
				WriteErrorJSON(w, http.StatusInternalServerError, "server_error", "failed to resolve permissions")
				return
			}

			if !slices.Contains(perms, name) {
				writePermissionError(w, name)
				return
			}

			ctx = context.WithValue(ctx, CtxKeyPermissions, perms)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-style error response for an authenticated caller lacking the
// required permission. The body follows the service's uniform error shape.
func writePermissionError(w http.ResponseWriter, required string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+required+`"`)
	WriteErrorJSON(w, http.StatusForbidden, "insufficient_permissions",
		"the caller's role does not hold "+required)
}
