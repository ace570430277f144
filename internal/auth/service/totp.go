package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/lumenlabs/membergate/internal/auth/store"
)

var (
	ErrInvalidTOTPCode   = errors.New("invalid authenticator code")
	ErrTOTPNotEnrolled   = errors.New("no authenticator is enrolled")
	ErrTOTPAlreadyActive = errors.New("an authenticator is already active")
)

type TOTPEnrollment struct {
	Secret  string
	URL     string
	Issuer  string
	Account string
}

// TOTPService manages app-based authenticators. Enrollment is two-step: a
// secret is provisioned first, then activated by proving possession with a
// valid code. Only an active authenticator participates in login.
type TOTPService struct {
	Store  store.Store
	Issuer string
}

// Enroll provisions a fresh secret for the account and returns the otpauth
// URL for the authenticator app. The secret stays inert until Activate.
func (s *TOTPService) Enroll(ctx context.Context, userID string) (TOTPEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return TOTPEnrollment{}, err
	}
	if user.TOTPActive() {
		return TOTPEnrollment{}, ErrTOTPAlreadyActive
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return TOTPEnrollment{}, fmt.Errorf("failed to generate authenticator key: %w", err)
	}

	secret := key.Secret()
	if err := s.Store.Users().UpdateTOTPSecret(ctx, userID, &secret); err != nil {
		return TOTPEnrollment{}, fmt.Errorf("failed to store authenticator secret: %w", err)
	}

	return TOTPEnrollment{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Issuer:  s.Issuer,
		Account: user.Username,
	}, nil
}

// Activate proves possession of the enrolled secret and switches the
// account's second factor to the authenticator.
func (s *TOTPService) Activate(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == nil || *user.TOTPSecret == "" {
		return ErrTOTPNotEnrolled
	}
	if user.TOTPActivated {
		return ErrTOTPAlreadyActive
	}

	if !totp.Validate(code, *user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Users().ActivateTOTP(ctx, userID)
}

// Remove drops the authenticator. Two-factor stays enabled if it was on;
// subsequent logins fall back to delivered codes.
func (s *TOTPService) Remove(ctx context.Context, userID string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == nil {
		return ErrTOTPNotEnrolled
	}
	return s.Store.Users().UpdateTOTPSecret(ctx, userID, nil)
}

// Check validates a code against an active authenticator secret.
func (s *TOTPService) Check(secret, code string) error {
	if !totp.Validate(code, secret) {
		return ErrInvalidTOTPCode
	}
	return nil
}
