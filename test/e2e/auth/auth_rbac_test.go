package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/membergate/pkg/authsdk"
)

func TestAdminSurfaceRequiresPermissions(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	admin := adminSession(t, client)
	_, member := registerMember(t, client, "dave", "dave@example.com")

	t.Run("admin can list users", func(t *testing.T) {
		users, err := admin.ListUsers(t.Context())
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(users.Users), 2)
	})

	t.Run("member cannot list users", func(t *testing.T) {
		_, err := member.ListUsers(t.Context())
		requireAPIError(t, err, "insufficient_permissions")
	})

	t.Run("member cannot manage roles", func(t *testing.T) {
		_, err := member.CreateRole(t.Context(), authsdk.CreateRoleRequest{
			Name: "rogue", Permissions: []string{"content:read"},
		})
		requireAPIError(t, err, "insufficient_permissions")
	})

	t.Run("unauthenticated requests are rejected", func(t *testing.T) {
		anon := client.NewSession("not-a-token")
		_, err := anon.ListUsers(t.Context())
		requireAPIError(t, err, authsdk.ErrorCodeInvalidToken)
	})
}

func TestRoleEditTakesEffectWithoutReLogin(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	admin := adminSession(t, client)

	// A bespoke role starts without users:read.
	_, err := admin.CreateRole(t.Context(), authsdk.CreateRoleRequest{
		Name:        "auditor",
		Permissions: []string{"content:read"},
	})
	require.NoError(t, err)

	created, err := admin.CreateUser(t.Context(), authsdk.RegisterRequest{
		Username:        "erin",
		Email:           "erin@example.com",
		Password:        memberPassword,
		ConfirmPassword: memberPassword,
		Role:            "auditor",
	})
	require.NoError(t, err)
	require.Equal(t, "auditor", created.User.Role)

	auditor, err := client.AuthenticateSession(t.Context(), authsdk.LoginRequest{
		Username: "erin", Password: memberPassword,
	})
	require.NoError(t, err)

	_, err = auditor.ListUsers(t.Context())
	requireAPIError(t, err, "insufficient_permissions")

	// Granting the permission to the role flips the answer for the same
	// token on the very next request.
	_, err = admin.ReplaceRolePermissions(t.Context(), "auditor", []string{"content:read", "users:read"})
	require.NoError(t, err)

	users, err := auditor.ListUsers(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, users.Users)
}

func TestAdminCreatesPrivilegedAccounts(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	admin := adminSession(t, client)

	created, err := admin.CreateUser(t.Context(), authsdk.RegisterRequest{
		Username:        "subadmin",
		Email:           "subadmin@example.com",
		Password:        memberPassword,
		ConfirmPassword: memberPassword,
		Role:            "sub-admin",
	})
	require.NoError(t, err)
	require.Equal(t, "sub-admin", created.User.Role)

	session, err := client.AuthenticateSession(t.Context(), authsdk.LoginRequest{
		Username: "subadmin", Password: memberPassword,
	})
	require.NoError(t, err)

	// Sub-admins hold users:read but not roles:manage.
	_, err = session.ListUsers(t.Context())
	require.NoError(t, err)
	_, err = session.CreateRole(t.Context(), authsdk.CreateRoleRequest{
		Name: "nope", Permissions: []string{"content:read"},
	})
	requireAPIError(t, err, "insufficient_permissions")
}
