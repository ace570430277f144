package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/notify"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/cryptox"
	"github.com/lumenlabs/membergate/pkg/idx"
)

const DefaultOTPTTL = 10 * time.Minute

var (
	ErrOTPInvalid      = errors.New("one-time code is invalid")
	ErrOTPExpired      = errors.New("one-time code has expired")
	ErrOTPConsumed     = errors.New("one-time code was already used")
	ErrAlreadyVerified = errors.New("channel already verified")
	ErrNoPhoneOnFile   = errors.New("no phone number on the account")
)

// OTPService implements the verification flows: email, phone,
// forgot-password, and the TFA login challenge. Every challenge carries a
// TTL and is consumed exactly once; only the Argon2id hash of a code is
// ever stored.
type OTPService struct {
	Store store.Store
	Sink  notify.Sink
	TTL   time.Duration
}

// RequestEmailVerification issues a fresh email-verification code for the
// account, superseding any outstanding one.
func (s *OTPService) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := s.issueChallenge(ctx, user.ID, domain.OTPEmailVerify)
	if err != nil {
		return err
	}
	return s.Sink.SendEmailOTP(ctx, user.Email, domain.OTPEmailVerify, code)
}

// VerifyEmail consumes an email-verification code and flips the flag.
func (s *OTPService) VerifyEmail(ctx context.Context, userID, code string) error {
	if err := s.consumeChallenge(ctx, userID, domain.OTPEmailVerify, code); err != nil {
		return err
	}
	return s.Store.Users().SetEmailVerified(ctx, userID, true)
}

// RequestPhoneVerification issues a fresh phone-verification code.
func (s *OTPService) RequestPhoneVerification(ctx context.Context, userID string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Phone == "" {
		return ErrNoPhoneOnFile
	}
	if user.PhoneVerified {
		return ErrAlreadyVerified
	}

	code, err := s.issueChallenge(ctx, user.ID, domain.OTPPhoneVerify)
	if err != nil {
		return err
	}
	return s.Sink.SendSMSOTP(ctx, user.Phone, domain.OTPPhoneVerify, code)
}

// VerifyPhone consumes a phone-verification code and flips the flag.
func (s *OTPService) VerifyPhone(ctx context.Context, userID, code string) error {
	if err := s.consumeChallenge(ctx, userID, domain.OTPPhoneVerify, code); err != nil {
		return err
	}
	return s.Store.Users().SetPhoneVerified(ctx, userID, true)
}

// RequestPasswordReset issues a reset code for the account matching the
// public identifier. An unknown or deleted identifier is NOT an error: the
// response is identical either way so the endpoint cannot be used to probe
// which identities exist.
func (s *OTPService) RequestPasswordReset(ctx context.Context, identifier string) error {
	user, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	code, err := s.issueChallenge(ctx, user.ID, domain.OTPPasswordReset)
	if err != nil {
		return err
	}

	if user.Email != "" {
		return s.Sink.SendEmailOTP(ctx, user.Email, domain.OTPPasswordReset, code)
	}
	return s.Sink.SendSMSOTP(ctx, user.Phone, domain.OTPPasswordReset, code)
}

// VerifyPasswordReset consumes a reset code, arms the account's
// password-update gate, and returns the account so the caller can issue a
// token for the follow-up password change.
func (s *OTPService) VerifyPasswordReset(ctx context.Context, identifier, code string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrOTPInvalid
		}
		return domain.User{}, err
	}

	if err := s.consumeChallenge(ctx, user.ID, domain.OTPPasswordReset, code); err != nil {
		return domain.User{}, err
	}

	if err := s.Store.Users().SetPasswordUpdateRequested(ctx, user.ID, true); err != nil {
		return domain.User{}, err
	}
	user.PasswordUpdateRequested = true
	return user, nil
}

// RequestTFA issues the second-factor challenge after a successful primary
// credential check, delivered over the account's verified channel.
func (s *OTPService) RequestTFA(ctx context.Context, user domain.User) error {
	code, err := s.issueChallenge(ctx, user.ID, domain.OTPTFA)
	if err != nil {
		return err
	}

	if user.Email != "" {
		return s.Sink.SendEmailOTP(ctx, user.Email, domain.OTPTFA, code)
	}
	return s.Sink.SendSMSOTP(ctx, user.Phone, domain.OTPTFA, code)
}

// VerifyTFA consumes the second-factor challenge.
func (s *OTPService) VerifyTFA(ctx context.Context, userID, code string) error {
	return s.consumeChallenge(ctx, userID, domain.OTPTFA, code)
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultOTPTTL
}

// issueChallenge generates a code, persists only its hash, and returns the
// plaintext exactly once for delivery.
func (s *OTPService) issueChallenge(ctx context.Context, userID string, purpose domain.OTPPurpose) (string, error) {
	code, err := cryptox.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := cryptox.HashSecret(code)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	challenge := domain.OTPChallenge{
		ID:        idx.New().String(),
		UserID:    userID,
		Purpose:   purpose,
		CodeHash:  hash,
		ExpiresAt: time.Now().UTC().Add(s.ttl()),
	}
	if err := s.Store.OTPChallenges().CreateChallenge(ctx, challenge); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}
	return code, nil
}

// consumeChallenge validates a submitted code against the latest stored
// challenge and marks it used so the same code can never replay.
func (s *OTPService) consumeChallenge(ctx context.Context, userID string, purpose domain.OTPPurpose, code string) error {
	challenge, err := s.Store.OTPChallenges().GetLatestChallenge(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOTPInvalid
		}
		return err
	}

	switch challenge.State(time.Now().UTC()) {
	case domain.OTPConsumed:
		return ErrOTPConsumed
	case domain.OTPExpired:
		return ErrOTPExpired
	}

	if cryptox.VerifySecret(code, challenge.CodeHash) != nil {
		return ErrOTPInvalid
	}

	return s.Store.OTPChallenges().ConsumeChallenge(ctx, challenge.ID)
}
