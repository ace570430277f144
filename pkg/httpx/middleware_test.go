package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumenlabs/membergate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type staticPermissions struct {
	perms map[string][]string
}

func (s staticPermissions) PermissionsForRole(_ context.Context, roleID string) ([]string, error) {
	return s.perms[roleID], nil
}

func issueTestToken(t *testing.T, h *jwtx.HS256, roleID string, ttl time.Duration) string {
	t.Helper()
	raw, err := h.Sign(jwtx.NewAccessClaims(
		"01JC0USER00000000000000000", "john_doe", "john.doe@example.com", "",
		roleID, "student", "active", true, false,
		ttl, "membergate", time.Now().UTC(),
	))
	require.NoError(t, err)
	return raw
}

func TestAuthnMiddleware(t *testing.T) {
	t.Parallel()

	h, err := jwtx.NewHS256("test-secret", "membergate")
	require.NoError(t, err)

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Chain(next, AuthnMiddleware(h))

	t.Run("missing credential rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "missing bearer token")
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueTestToken(t, h, "role-1", -time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token attaches principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueTestToken(t, h, "role-1", time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "01JC0USER00000000000000000", gotUserID)
	})
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	h, err := jwtx.NewHS256("test-secret", "membergate")
	require.NoError(t, err)

	src := staticPermissions{perms: map[string][]string{
		"role-editor": {"content:read", "content:write"},
		"role-member": {"content:read"},
	}}

	var gotPerms []string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPerms = PermissionsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := Chain(next,
		AuthnMiddleware(h),
		RequirePermission(src, "content:write"),
	)

	t.Run("role holding the permission is allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueTestToken(t, h, "role-editor", time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, []string{"content:read", "content:write"}, gotPerms)
	})

	t.Run("authenticated caller without the permission is forbidden", func(t *testing.T) {
		// Token is valid and unexpired; only the authorization step fails.
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueTestToken(t, h, "role-member", time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueTestToken(t, h, "role-ghost", time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated request never reaches the permission check", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
