package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/domain"
)

type otpRepo struct {
	db dbtx
}

func (r *otpRepo) CreateChallenge(ctx context.Context, c domain.OTPChallenge) error {
	// A fresh request supersedes any earlier challenge for this purpose so
	// at most one code per (user, purpose) is ever live.
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE user_id = ? AND purpose = ?`,
		c.UserID, string(c.Purpose)); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_challenges (id, user_id, purpose, code_hash, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, string(c.Purpose), c.CodeHash, c.ExpiresAt.UTC())
	return err
}

func (r *otpRepo) GetLatestChallenge(ctx context.Context, userID string, purpose domain.OTPPurpose) (domain.OTPChallenge, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, purpose, code_hash, expires_at, consumed_at, created_at
		 FROM otp_challenges
		 WHERE user_id = ? AND purpose = ?
		 ORDER BY created_at DESC
		 LIMIT 1`, userID, string(purpose))

	var (
		c          domain.OTPChallenge
		purposeRaw string
		consumedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.UserID, &purposeRaw, &c.CodeHash, &c.ExpiresAt, &consumedAt, &c.CreatedAt)
	if err != nil {
		return domain.OTPChallenge{}, mapNotFound(err)
	}
	c.Purpose = domain.OTPPurpose(purposeRaw)
	if consumedAt.Valid {
		t := consumedAt.Time
		c.ConsumedAt = &t
	}
	return c, nil
}

func (r *otpRepo) ConsumeChallenge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_challenges SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *otpRepo) DeleteUserChallenges(ctx context.Context, userID string, purpose domain.OTPPurpose) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE user_id = ? AND purpose = ?`,
		userID, string(purpose))
	return err
}

func (r *otpRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE expires_at < ? OR consumed_at IS NOT NULL`,
		time.Now().UTC())
	return err
}
