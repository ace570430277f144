package store

import (
	"context"
	"errors"

	"github.com/lumenlabs/membergate/internal/auth/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists is returned on a uniqueness violation. The database
	// constraint is the authoritative arbiter for concurrent registrations;
	// any existence pre-check in the services is a fast path only.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Users() Users
	Roles() Roles
	OTPChallenges() OTPChallenges

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id, regardless of lifecycle state.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByIdentifier looks up a non-deleted user by exactly one of
	// username, email, or phone. Deleted accounts are invisible here.
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	// FindByUniqueFields returns any user (including soft-deleted ones)
	// matching the given username, email, or phone. Registration uses this
	// to distinguish the conflict path from the revival path.
	FindByUniqueFields(ctx context.Context, username, email, phone string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// A uniqueness violation surfaces as ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// ReviveUser overwrites the mutable fields of a soft-deleted record in
	// place, resetting it to active with a fresh password hash and role.
	ReviveUser(ctx context.Context, u domain.User) error

	// UpdateProfile mutates the editable profile fields and bumps updated_at.
	UpdateProfile(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and clears the
	// password_update_requested flag.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateStatus transitions the lifecycle state.
	UpdateStatus(ctx context.Context, userID string, status domain.Status) error

	// SetEmailVerified / SetPhoneVerified flip the channel verification flags.
	SetEmailVerified(ctx context.Context, userID string, verified bool) error
	SetPhoneVerified(ctx context.Context, userID string, verified bool) error

	// SetTFAEnabled toggles the second-factor requirement at login.
	SetTFAEnabled(ctx context.Context, userID string, enabled bool) error

	// UpdateTOTPSecret sets or clears the authenticator secret. Either way
	// the activated flag resets; the new secret is unproven.
	UpdateTOTPSecret(ctx context.Context, userID string, secret *string) error

	// ActivateTOTP marks the stored secret as proven and enables the
	// second-factor requirement in one write. Fails with ErrNotFound when
	// no secret is enrolled.
	ActivateTOTP(ctx context.Context, userID string) error

	// SetPasswordUpdateRequested arms or clears the reset gate.
	SetPasswordUpdateRequested(ctx context.Context, userID string, requested bool) error

	// ListUsers returns non-deleted users ordered by creation (newest first).
	ListUsers(ctx context.Context) ([]domain.User, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Roles interface {
	// GetRoleByID fetches a role with its ordered permission set.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName fetches a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListAll returns all roles with permissions.
	ListAll(ctx context.Context) ([]domain.Role, error)

	// CreateRole inserts a new role and links its permissions in order.
	CreateRole(ctx context.Context, r domain.Role) error

	// ReplaceRolePermissions swaps the role's permission set for the given
	// ordered permission ids.
	ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error

	// CreatePermission inserts a permission (bootstrap; name is unique).
	CreatePermission(ctx context.Context, p domain.Permission) error

	// GetPermissionByName fetches a permission by name.
	GetPermissionByName(ctx context.Context, name string) (domain.Permission, error)

	// ListPermissions returns the capability catalogue.
	ListPermissions(ctx context.Context) ([]domain.Permission, error)

	// IsEmpty returns true if there are no roles.
	IsEmpty(ctx context.Context) (bool, error)
}

type OTPChallenges interface {
	// CreateChallenge stores a fresh challenge, superseding (deleting) any
	// earlier challenge for the same user and purpose.
	CreateChallenge(ctx context.Context, c domain.OTPChallenge) error

	// GetLatestChallenge returns the newest challenge for a user and
	// purpose regardless of state; the service derives Pending/Consumed/
	// Expired from it.
	GetLatestChallenge(ctx context.Context, userID string, purpose domain.OTPPurpose) (domain.OTPChallenge, error)

	// ConsumeChallenge marks a challenge used so the code cannot replay.
	ConsumeChallenge(ctx context.Context, id string) error

	// DeleteUserChallenges removes all challenges for a user and purpose.
	DeleteUserChallenges(ctx context.Context, userID string, purpose domain.OTPPurpose) error

	// DeleteExpiredChallenges is housekeeping; it also removes consumed rows.
	DeleteExpiredChallenges(ctx context.Context) error
}
