package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/internal/auth/notify"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/internal/auth/store/drivers/sqlite"
	"github.com/lumenlabs/membergate/pkg/cryptox"
	"github.com/lumenlabs/membergate/pkg/jwtx"
	"github.com/lumenlabs/membergate/pkg/slogx"
)

func TestMain(m *testing.M) {
	tmpDir := os.TempDir()
	pepperPath := filepath.Join(tmpDir, "service-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

// newTestStore opens a fresh migrated sqlite store seeded with the default
// roles and permissions.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.ApplyMigrations())

	boot := &BootstrapService{Store: s}
	require.NoError(t, boot.Run(context.Background()))

	return s
}

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()

	signer, err := jwtx.NewHS256("test-token-secret", "membergate-test")
	require.NoError(t, err)
	return &TokenService{Signer: signer, Issuer: "membergate-test", AccessTTL: time.Hour}
}

// captureSink records delivered codes so flows can be driven end to end.
type captureSink struct {
	codes map[domain.OTPPurpose]string
}

func newCaptureSink() *captureSink {
	return &captureSink{codes: make(map[domain.OTPPurpose]string)}
}

func (s *captureSink) SendEmailOTP(_ context.Context, _ string, purpose domain.OTPPurpose, code string) error {
	s.codes[purpose] = code
	return nil
}

func (s *captureSink) SendSMSOTP(_ context.Context, _ string, purpose domain.OTPPurpose, code string) error {
	s.codes[purpose] = code
	return nil
}

var _ notify.Sink = (*captureSink)(nil)

// newAuthStack wires the full service graph over one store.
type authStack struct {
	Store    store.Store
	Tokens   *TokenService
	Sink     *captureSink
	OTP      *OTPService
	Register *RegistrationService
	Login    *LoginService
	TOTP     *TOTPService
	Accounts *AccountService
	Roles    *RolesService
}

func newAuthStack(t *testing.T) *authStack {
	t.Helper()

	s := newTestStore(t)
	tokens := newTestTokens(t)
	sink := newCaptureSink()
	otpSvc := &OTPService{Store: s, Sink: sink, TTL: time.Minute}
	totpSvc := &TOTPService{Store: s, Issuer: "membergate-test"}

	return &authStack{
		Store:    s,
		Tokens:   tokens,
		Sink:     sink,
		OTP:      otpSvc,
		Register: &RegistrationService{Store: s, Tokens: tokens, OTP: otpSvc},
		Login:    &LoginService{Store: s, Tokens: tokens, OTP: otpSvc, TOTP: totpSvc},
		TOTP:     totpSvc,
		Accounts: &AccountService{Store: s, SelfPolicy: SelfBySubject},
		Roles:    &RolesService{Store: s},
	}
}

func registerMember(t *testing.T, stack *authStack, username, email, phone string) domain.User {
	t.Helper()

	res, err := stack.Register.Register(testCtx(), RegisterInput{
		Username:        username,
		FirstName:       "Test",
		LastName:        "Member",
		Email:           email,
		Phone:           phone,
		Password:        "Sup3rSecret",
		ConfirmPassword: "Sup3rSecret",
		Role:            "member",
	})
	require.NoError(t, err)
	return res.User
}

func testCtx() context.Context {
	logger := slogx.New(slogx.Config{Service: "membergate-test", Level: "error", Format: "text"})
	return slogx.WithContext(context.Background(), logger)
}
