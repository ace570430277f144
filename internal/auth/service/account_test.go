package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/store"
)

func strPtr(s string) *string { return &s }

func TestAccountUpdate_ProfileFields(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	user := registerMember(t, stack, "alice", "alice@example.com", "")

	updated, err := stack.Accounts.Update(ctx, admin.ID, user.ID, UpdateUserInput{
		FirstName: strPtr("Alicia"),
		Phone:     strPtr("+61400000009"),
		CurrentAddress: &domain.Address{
			Line1: "1 Example St", City: "Sydney", State: "NSW", Postcode: "2000", Country: "AU",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Alicia", updated.FirstName)
	require.Equal(t, "+61400000009", updated.Phone)
	require.NotNil(t, updated.CurrentAddress)
	require.Equal(t, "Sydney", updated.CurrentAddress.City)

	// Untouched fields survive a partial update.
	require.Equal(t, "alice", updated.Username)
	require.Equal(t, "alice@example.com", updated.Email)
}

func TestAccountUpdate_IdentifierEditsPersist(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	user := registerMember(t, stack, "hugo", "hugo@example.com", "")

	updated, err := stack.Accounts.Update(ctx, admin.ID, user.ID, UpdateUserInput{
		Username: strPtr("hugo2"),
		Email:    strPtr("hugo2@example.com"),
	})
	require.NoError(t, err)
	require.Equal(t, "hugo2", updated.Username)
	require.Equal(t, "hugo2@example.com", updated.Email)

	// The edits survive a fresh read, not just the in-memory merge.
	got, err := stack.Store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "hugo2", got.Username)
	require.Equal(t, "hugo2@example.com", got.Email)

	res, err := stack.Login.Login(ctx, LoginInput{Username: "hugo2", Password: "Sup3rSecret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	_, err = stack.Login.Login(ctx, LoginInput{Username: "hugo", Password: "Sup3rSecret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountUpdate_ChangingChannelResetsVerification(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	user := registerMember(t, stack, "bob", "bob@example.com", "")

	code := stack.Sink.codes[domain.OTPEmailVerify]
	require.NoError(t, stack.OTP.VerifyEmail(ctx, user.ID, code))

	updated, err := stack.Accounts.Update(ctx, admin.ID, user.ID, UpdateUserInput{
		Email: strPtr("bob@new.example.com"),
	})
	require.NoError(t, err)
	require.False(t, updated.EmailVerified)
}

func TestAccountUpdate_PasswordRequiresArmedGate(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	user := registerMember(t, stack, "carol", "carol@example.com", "")

	_, err := stack.Accounts.Update(ctx, admin.ID, user.ID, UpdateUserInput{
		Password: strPtr("N3wSecret1"),
	})
	require.ErrorIs(t, err, ErrPasswordNotArmed)

	require.NoError(t, stack.Store.Users().SetPasswordUpdateRequested(ctx, user.ID, true))
	_, err = stack.Accounts.Update(ctx, admin.ID, user.ID, UpdateUserInput{
		Password: strPtr("N3wSecret1"),
	})
	require.NoError(t, err)

	res, err := stack.Login.Login(ctx, LoginInput{Username: "carol", Password: "N3wSecret1"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
}

func TestAccountUpdate_RejectedPasswordLeavesProfileUntouched(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	user := registerMember(t, stack, "ivan", "ivan@example.com", "")

	// The unarmed gate rejects the whole edit, including the profile
	// fields bundled alongside the password.
	_, err := stack.Accounts.Update(ctx, admin.ID, user.ID, UpdateUserInput{
		FirstName: strPtr("Iva"),
		Email:     strPtr("iva@example.com"),
		Password:  strPtr("N3wSecret1"),
	})
	require.ErrorIs(t, err, ErrPasswordNotArmed)

	got, err := stack.Store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Test", got.FirstName)
	require.Equal(t, "ivan@example.com", got.Email)
}

func TestAccountUpdate_RoleChange(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	user := registerMember(t, stack, "dana", "dana@example.com", "")

	updated, err := stack.Accounts.Update(ctx, admin.ID, user.ID, UpdateUserInput{
		Role: strPtr("student"),
	})
	require.NoError(t, err)

	role, err := stack.Store.Roles().GetRoleByID(ctx, updated.RoleID)
	require.NoError(t, err)
	require.Equal(t, "student", role.Name)

	_, err = stack.Accounts.Update(ctx, admin.ID, user.ID, UpdateUserInput{Role: strPtr("wizard")})
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestAccountUpdate_IdentifierConflict(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	registerMember(t, stack, "erin", "erin@example.com", "")
	other := registerMember(t, stack, "frank", "frank@example.com", "")

	_, err := stack.Accounts.Update(ctx, admin.ID, other.ID, UpdateUserInput{
		Username: strPtr("erin"),
	})
	require.ErrorIs(t, err, ErrIdentityConflict)
}

func TestBlockUnblock_Lifecycle(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	target := registerMember(t, stack, "gary", "gary@example.com", "")

	require.NoError(t, stack.Accounts.Block(ctx, admin.ID, target.ID))

	got, err := stack.Store.Users().GetUserByID(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusBlocked, got.Status)

	require.ErrorIs(t, stack.Accounts.Block(ctx, admin.ID, target.ID), ErrAlreadyBlocked)

	require.NoError(t, stack.Accounts.Unblock(ctx, admin.ID, target.ID))
	require.ErrorIs(t, stack.Accounts.Unblock(ctx, admin.ID, target.ID), ErrNotBlocked)
}

func TestDelete_SoftDeletesAndPurgesChallenges(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	target := registerMember(t, stack, "hank", "hank@example.com", "")

	require.NoError(t, stack.Accounts.Delete(ctx, admin.ID, target.ID))

	// The record survives as a tombstone.
	got, err := stack.Store.Users().GetUserByID(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDeleted, got.Status)

	// But it is invisible to identifier lookups.
	_, err = stack.Store.Users().GetUserByIdentifier(ctx, "hank")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Its outstanding codes are gone.
	_, err = stack.Store.OTPChallenges().GetLatestChallenge(ctx, target.ID, domain.OTPEmailVerify)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, stack.Accounts.Delete(ctx, admin.ID, target.ID), ErrAlreadyDeleted)
	require.ErrorIs(t, stack.Accounts.Block(ctx, admin.ID, target.ID), ErrAlreadyDeleted)
}

func TestSelfActionGuard_Subject(t *testing.T) {
	stack := newAuthStack(t)
	ctx := testCtx()
	admin := registerMember(t, stack, "admin1", "admin1@example.com", "")
	peer := registerMember(t, stack, "peer", "peer@example.com", "")

	require.ErrorIs(t, stack.Accounts.Block(ctx, admin.ID, admin.ID), ErrSelfAction)
	require.ErrorIs(t, stack.Accounts.Delete(ctx, admin.ID, admin.ID), ErrSelfAction)
	require.ErrorIs(t, stack.Accounts.Unblock(ctx, admin.ID, admin.ID), ErrSelfAction)

	_, err := stack.Accounts.Update(ctx, admin.ID, admin.ID, UpdateUserInput{
		Role: strPtr("student"),
	})
	require.ErrorIs(t, err, ErrSelfAction)

	// A different subject with the same role is fine under this policy.
	require.NoError(t, stack.Accounts.Block(ctx, admin.ID, peer.ID))
}

func TestSelfActionGuard_Role(t *testing.T) {
	stack := newAuthStack(t)
	stack.Accounts.SelfPolicy = SelfByRole
	ctx := testCtx()
	actor := registerMember(t, stack, "actor", "actor@example.com", "")
	samerole := registerMember(t, stack, "peer", "peer@example.com", "")

	require.ErrorIs(t, stack.Accounts.Block(ctx, actor.ID, samerole.ID), ErrSelfAction)
	require.ErrorIs(t, stack.Accounts.Delete(ctx, actor.ID, samerole.ID), ErrSelfAction)

	_, err := stack.Accounts.Update(ctx, actor.ID, samerole.ID, UpdateUserInput{
		Role: strPtr("student"),
	})
	require.ErrorIs(t, err, ErrSelfAction)

	other, err := stack.Register.CreateByAdmin(ctx, RegisterInput{
		Username: "student1", Email: "student1@example.com",
		Password: "Sup3rSecret", ConfirmPassword: "Sup3rSecret", Role: "student",
	})
	require.NoError(t, err)
	require.NoError(t, stack.Accounts.Block(ctx, actor.ID, other.User.ID))
}
