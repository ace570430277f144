package service

import (
	"time"

	"github.com/lumenlabs/membergate/internal/auth/domain"
	"github.com/lumenlabs/membergate/pkg/jwtx"
)

// TokenService issues signed identity assertions. Tokens prove identity
// only: authorization always re-resolves the role's permissions from the
// store, so nothing capability-shaped is embedded beyond the role reference.
type TokenService struct {
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration
}

// IssueForUser signs an access token for the given account.
func (s *TokenService) IssueForUser(u domain.User, roleName string) (string, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(
		u.ID, u.Username, u.Email, u.Phone,
		u.RoleID, roleName, string(u.Status),
		u.EmailVerified, u.PhoneVerified,
		ttl, s.Issuer, time.Now().UTC(),
	)
	return s.Signer.Sign(claims)
}
