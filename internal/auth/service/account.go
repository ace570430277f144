package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/cryptox"
)

// SelfActionPolicy decides what counts as acting on yourself for the
// administrative mutation guards. SelfBySubject blocks only the caller's
// own record; SelfByRole also blocks any record holding the caller's role.
type SelfActionPolicy string

const (
	SelfBySubject SelfActionPolicy = "subject"
	SelfByRole    SelfActionPolicy = "role"
)

var (
	ErrSelfAction       = errors.New("operation cannot target the acting account")
	ErrAlreadyBlocked   = errors.New("account is already blocked")
	ErrNotBlocked       = errors.New("account is not blocked")
	ErrAlreadyDeleted   = errors.New("account is already deleted")
	ErrPasswordNotArmed = errors.New("no password update was requested")
)

type UpdateUserInput struct {
	Username       *string
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Role           *string
	Password       *string
	CurrentAddress *domain.Address
	PostalAddress  *domain.Address
}

// AccountService covers the administrative lifecycle of accounts plus the
// caller's own password change. Lifecycle state, verification flags, and
// timestamps are never writable through Update; they move only through
// their dedicated operations.
type AccountService struct {
	Store      store.Store
	SelfPolicy SelfActionPolicy
}

// Update applies a partial edit to an account on behalf of an acting
// administrator; like the other administrative mutations it cannot target
// the actor's own record. A password is accepted only when the account's
// reset gate is armed; changing the email or phone clears the matching
// verification flag until it is proven again. All preconditions are
// checked before anything is written, and the profile and password writes
// share one transaction, so a rejected edit leaves no partial state.
func (s *AccountService) Update(ctx context.Context, actorID, targetID string, in UpdateUserInput) (domain.User, error) {
	user, err := s.guardSelfAction(ctx, actorID, targetID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Status == domain.StatusDeleted {
		return domain.User{}, ErrAlreadyDeleted
	}

	if in.Username != nil && *in.Username != user.Username {
		if *in.Username == "" {
			return domain.User{}, ErrMissingUsername
		}
		user.Username = *in.Username
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Email != nil && *in.Email != user.Email {
		if *in.Email == "" {
			return domain.User{}, ErrMissingEmail
		}
		user.Email = *in.Email
		user.EmailVerified = false
	}
	if in.Phone != nil && *in.Phone != user.Phone {
		user.Phone = *in.Phone
		user.PhoneVerified = false
	}
	if in.CurrentAddress != nil {
		user.CurrentAddress = in.CurrentAddress
	}
	if in.PostalAddress != nil {
		user.PostalAddress = in.PostalAddress
	}
	if in.Role != nil {
		role, err := s.Store.Roles().GetRoleByName(ctx, *in.Role)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.User{}, ErrUnknownRole
			}
			return domain.User{}, err
		}
		user.RoleID = role.ID
	}

	var newHash string
	if in.Password != nil {
		if !user.PasswordUpdateRequested {
			return domain.User{}, ErrPasswordNotArmed
		}
		if err := validatePassword(*in.Password); err != nil {
			return domain.User{}, err
		}
		if newHash, err = cryptox.HashSecret(*in.Password); err != nil {
			return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	user.UpdatedAt = time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateProfile(ctx, user); err != nil {
			return err
		}
		if in.Password != nil {
			return tx.Users().UpdatePasswordHash(ctx, user.ID, newHash)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrIdentityConflict
		}
		return domain.User{}, err
	}

	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// ChangePassword rotates the caller's own password. It is gated on the
// reset flag armed by a verified forgot-password code; the flag clears
// atomically with the hash write.
func (s *AccountService) ChangePassword(ctx context.Context, userID, newPassword string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.PasswordUpdateRequested {
		return ErrPasswordNotArmed
	}
	return s.setPassword(ctx, userID, newPassword)
}

// Block suspends an account. A blocked account keeps its data but cannot
// authenticate until unblocked.
func (s *AccountService) Block(ctx context.Context, actorID, targetID string) error {
	target, err := s.guardSelfAction(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	switch target.Status {
	case domain.StatusDeleted:
		return ErrAlreadyDeleted
	case domain.StatusBlocked:
		return ErrAlreadyBlocked
	}
	return s.Store.Users().UpdateStatus(ctx, targetID, domain.StatusBlocked)
}

// Unblock lifts a suspension. Like the other administrative mutations it
// cannot target the actor's own record.
func (s *AccountService) Unblock(ctx context.Context, actorID, targetID string) error {
	target, err := s.guardSelfAction(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	switch target.Status {
	case domain.StatusDeleted:
		return ErrAlreadyDeleted
	case domain.StatusActive:
		return ErrNotBlocked
	}
	return s.Store.Users().UpdateStatus(ctx, targetID, domain.StatusActive)
}

// Delete soft-deletes an account. The record survives so its history stays
// auditable and the identity can be revived by re-registration; a deleted
// account is invisible to login and listings.
func (s *AccountService) Delete(ctx context.Context, actorID, targetID string) error {
	target, err := s.guardSelfAction(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if target.Status == domain.StatusDeleted {
		return ErrAlreadyDeleted
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateStatus(ctx, targetID, domain.StatusDeleted); err != nil {
			return err
		}
		for _, purpose := range []domain.OTPPurpose{
			domain.OTPEmailVerify, domain.OTPPhoneVerify,
			domain.OTPPasswordReset, domain.OTPTFA,
		} {
			if err := tx.OTPChallenges().DeleteUserChallenges(ctx, targetID, purpose); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns an account by id.
func (s *AccountService) Get(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// List returns all non-deleted accounts.
func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// guardSelfAction rejects administrative mutations aimed back at the actor.
// Under the role policy any account sharing the actor's role is off limits,
// which prevents the last admin from locking everyone out.
func (s *AccountService) guardSelfAction(ctx context.Context, actorID, targetID string) (domain.User, error) {
	target, err := s.Store.Users().GetUserByID(ctx, targetID)
	if err != nil {
		return domain.User{}, err
	}

	if actorID == targetID {
		return domain.User{}, ErrSelfAction
	}
	if s.SelfPolicy == SelfByRole {
		actor, err := s.Store.Users().GetUserByID(ctx, actorID)
		if err != nil {
			return domain.User{}, err
		}
		if actor.RoleID == target.RoleID {
			return domain.User{}, ErrSelfAction
		}
	}
	return target, nil
}

func (s *AccountService) setPassword(ctx context.Context, userID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := cryptox.HashSecret(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}
