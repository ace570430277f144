package httpx

import (
	"context"

	"github.com/lumenlabs/membergate/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID      ctxKey = "user_id"
	CtxKeyClaims      ctxKey = "claims"
	CtxKeyPermissions ctxKey = "permissions" // set by RequirePermission after a fresh role lookup
)

// ClaimsFromContext returns the verified token claims attached by
// AuthnMiddleware, or false if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// UserIDFromContext returns the authenticated subject id, or "".
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// PermissionsFromContext returns the permission names resolved fresh from
// the store for this request, or nil if no permission check has run.
func PermissionsFromContext(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyPermissions).([]string); ok {
		return v
	}
	return nil
}
