package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/cryptox"
	"github.com/lumenlabs/membergate/pkg/idx"
	"github.com/lumenlabs/membergate/pkg/slogx"
)

var (
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	ErrWeakPassword     = errors.New("password does not meet requirements")
	ErrUnknownRole      = errors.New("unknown role")
	ErrReservedRole     = errors.New("role cannot be self-assigned")
	ErrIdentityConflict = errors.New("identity already registered")
	ErrMissingEmail     = errors.New("email is required")
	ErrMissingUsername  = errors.New("username is required")
)

type RegisterInput struct {
	Username        string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Role            string
	CurrentAddress  *domain.Address
	PostalAddress   *domain.Address
}

type RegisterResult struct {
	Token string
	User  domain.User
}

// RegistrationService reconciles a new signup against existing (possibly
// soft-deleted) identities.
type RegistrationService struct {
	Store  store.Store
	Tokens *TokenService
	OTP    *OTPService
}

// Register is the public self-service entry point. Administrative role
// names are rejected here; only CreateByAdmin may assign them.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if domain.IsReservedRole(in.Role) {
		return RegisterResult{}, ErrReservedRole
	}
	return s.register(ctx, in)
}

// CreateByAdmin creates an account on behalf of an authenticated caller
// holding the users:create permission. Any existing role may be assigned,
// including the administrative tiers.
func (s *RegistrationService) CreateByAdmin(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	return s.register(ctx, in)
}

func (s *RegistrationService) register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	log := slogx.FromContext(ctx)

	if err := validateRegistration(in); err != nil {
		return RegisterResult{}, err
	}

	role, err := s.Store.Roles().GetRoleByName(ctx, in.Role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RegisterResult{}, ErrUnknownRole
		}
		return RegisterResult{}, fmt.Errorf("failed to resolve role: %w", err)
	}

	hash, err := cryptox.HashSecret(in.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.User{
		ID:             idx.New().String(),
		Username:       in.Username,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		PasswordHash:   hash,
		Status:         domain.StatusActive,
		RoleID:         role.ID,
		CurrentAddress: in.CurrentAddress,
		PostalAddress:  in.PostalAddress,
	}

	// Fast-path pre-check. The partial unique indexes are the true arbiter:
	// a concurrent registration that slips past this read still fails the
	// insert, which maps to the same conflict below.
	existing, err := s.Store.Users().FindByUniqueFields(ctx, in.Username, in.Email, in.Phone)
	switch {
	case err == nil && existing.Status != domain.StatusDeleted:
		return RegisterResult{}, ErrIdentityConflict

	case err == nil:
		// A previously self-deleted identity re-registering under the same
		// unique identifiers: overwrite the record in place. A concurrent
		// registration can revive the row first, in which case the guarded
		// update matches nothing and reports NotFound; that race is the
		// same conflict.
		user.ID = existing.ID
		if err := s.Store.Users().ReviveUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) || errors.Is(err, store.ErrNotFound) {
				return RegisterResult{}, ErrIdentityConflict
			}
			return RegisterResult{}, fmt.Errorf("failed to revive account: %w", err)
		}

	case errors.Is(err, store.ErrNotFound):
		if err := s.Store.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return RegisterResult{}, ErrIdentityConflict
			}
			return RegisterResult{}, fmt.Errorf("failed to create account: %w", err)
		}

	default:
		return RegisterResult{}, fmt.Errorf("failed to check existing identities: %w", err)
	}

	// Kick off email verification. Delivery trouble is not a registration
	// failure; the code can be re-requested.
	if err := s.OTP.RequestEmailVerification(ctx, user.ID); err != nil {
		log.Warn("failed to issue email verification code", "user_id", user.ID, "err", err)
	}

	token, err := s.Tokens.IssueForUser(user, role.Name)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("failed to issue token: %w", err)
	}

	return RegisterResult{Token: token, User: user}, nil
}

func validateRegistration(in RegisterInput) error {
	if strings.TrimSpace(in.Email) == "" {
		return ErrMissingEmail
	}
	if strings.TrimSpace(in.Username) == "" {
		return ErrMissingUsername
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return validatePassword(in.Password)
}

// validatePassword enforces the minimum bar: 8+ characters with at least
// one upper, one lower, and one digit.
func validatePassword(pw string) error {
	if len(pw) < 8 {
		return ErrWeakPassword
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}
