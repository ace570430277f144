// Package notify abstracts one-time-code delivery. The auth core hands a
// plaintext code to a Sink exactly once and discards it; actual transport
// (SMTP, SMS gateways) lives outside this repository.
package notify

import (
	"context"
	"log/slog"

	"github.com/lumenlabs/membergate/internal/auth/domain"
)

// Sink receives plaintext one-time codes for delivery.
type Sink interface {
	// SendEmailOTP delivers a code to an email address.
	SendEmailOTP(ctx context.Context, email string, purpose domain.OTPPurpose, code string) error

	// SendSMSOTP delivers a code to a phone number.
	SendSMSOTP(ctx context.Context, phone string, purpose domain.OTPPurpose, code string) error
}

// LogSink is the development sink: it records that a delivery happened
// without ever logging the code itself.
type LogSink struct {
	Logger *slog.Logger
}

func (s *LogSink) SendEmailOTP(ctx context.Context, email string, purpose domain.OTPPurpose, _ string) error {
	s.Logger.Info("one-time code issued", "channel", "email", "recipient", email, "purpose", string(purpose))
	return nil
}

func (s *LogSink) SendSMSOTP(ctx context.Context, phone string, purpose domain.OTPPurpose, _ string) error {
	s.Logger.Info("one-time code issued", "channel", "sms", "recipient", phone, "purpose", string(purpose))
	return nil
}
