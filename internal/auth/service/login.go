package service

import (
	"context"
	"errors"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/cryptox"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrAccountDeleted     = errors.New("account has been deleted")
	ErrOneIdentifier      = errors.New("exactly one of username, email or phone is required")
	ErrTFANotPending      = errors.New("no second-factor challenge is pending")
)

type LoginInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// LoginResult is either a completed login (Token and RoleName set) or a
// parked one (TFARequired set, token withheld until the second factor
// clears).
type LoginResult struct {
	Token       string
	RoleName    string
	TFARequired bool
	User        domain.User
}

// LoginService checks primary credentials and, when the account has
// two-factor enabled, parks the login behind a second-factor challenge.
type LoginService struct {
	Store  store.Store
	Tokens *TokenService
	OTP    *OTPService
	TOTP   *TOTPService
}

// Login validates the password for the account named by exactly one public
// identifier. Checks run in a fixed order: existence, deletion, password,
// blocked status, then the second-factor branch. The password is verified
// before the blocked check so a blocked response is never disclosed to a
// caller who does not hold the credential.
func (s *LoginService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	identifier, err := soleIdentifier(in.Username, in.Email, in.Phone)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		return LoginResult{}, err
	}

	if cryptox.VerifySecret(in.Password, user.PasswordHash) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.Status == domain.StatusBlocked {
		return LoginResult{}, ErrAccountBlocked
	}

	if user.TFAEnabled {
		if !user.TOTPActive() {
			if err := s.OTP.RequestTFA(ctx, user); err != nil {
				return LoginResult{}, err
			}
		}
		return LoginResult{TFARequired: true, User: user}, nil
	}

	return s.complete(ctx, user)
}

// VerifyTFA completes a login parked by Login. The code is checked against
// the account's authenticator app when one is active, and against the
// delivered challenge otherwise. An enrolled but never-activated secret
// does not count; its holder never proved possession.
func (s *LoginService) VerifyTFA(ctx context.Context, in LoginInput, code string) (LoginResult, error) {
	identifier, err := soleIdentifier(in.Username, in.Email, in.Phone)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		return LoginResult{}, err
	}

	if cryptox.VerifySecret(in.Password, user.PasswordHash) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if user.Status == domain.StatusBlocked {
		return LoginResult{}, ErrAccountBlocked
	}
	if !user.TFAEnabled {
		return LoginResult{}, ErrTFANotPending
	}

	if err := s.checkSecondFactor(ctx, user, code); err != nil {
		return LoginResult{}, err
	}

	return s.complete(ctx, user)
}

// CompletePasswordReset issues a session for an account whose reset code
// already cleared but whose second factor is still outstanding. The armed
// password-update gate is the proof that the reset code was verified; the
// code here is the second factor, not the reset code.
func (s *LoginService) CompletePasswordReset(ctx context.Context, identifier, code string) (LoginResult, error) {
	user, err := s.lookup(ctx, identifier)
	if err != nil {
		return LoginResult{}, err
	}

	if user.Status == domain.StatusBlocked {
		return LoginResult{}, ErrAccountBlocked
	}
	if !user.TFAEnabled {
		return LoginResult{}, ErrTFANotPending
	}
	if !user.PasswordUpdateRequested {
		return LoginResult{}, ErrPasswordNotArmed
	}

	if err := s.checkSecondFactor(ctx, user, code); err != nil {
		return LoginResult{}, err
	}

	return s.complete(ctx, user)
}

// checkSecondFactor validates the code against the active authenticator
// when one exists, and against the delivered challenge otherwise.
func (s *LoginService) checkSecondFactor(ctx context.Context, user domain.User, code string) error {
	if user.TOTPActive() {
		return s.TOTP.Check(*user.TOTPSecret, code)
	}
	return s.OTP.VerifyTFA(ctx, user.ID, code)
}

// lookup resolves an identifier to a live account. Deleted accounts are
// reported distinctly from unknown ones.
func (s *LoginService) lookup(ctx context.Context, identifier string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	// The live lookup excludes soft-deleted rows; probe again across all
	// rows to distinguish "never existed" from "deleted".
	if ghost, ferr := s.Store.Users().FindByUniqueFields(ctx, identifier, identifier, identifier); ferr == nil && ghost.Status == domain.StatusDeleted {
		return domain.User{}, ErrAccountDeleted
	}
	return domain.User{}, ErrInvalidCredentials
}

func (s *LoginService) complete(ctx context.Context, user domain.User) (LoginResult, error) {
	role, err := s.Store.Roles().GetRoleByID(ctx, user.RoleID)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.Tokens.IssueForUser(user, role.Name)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, RoleName: role.Name, User: user}, nil
}

func soleIdentifier(username, email, phone string) (string, error) {
	var picked string
	count := 0
	for _, v := range []string{username, email, phone} {
		if v != "" {
			picked = v
			count++
		}
	}
	if count != 1 {
		return "", ErrOneIdentifier
	}
	return picked, nil
}
