package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, first_name, last_name, email, phone,
	password_hash, status, role_id, email_verified, phone_verified,
	tfa_enabled, totp_secret, totp_activated, password_update_requested,
	current_address, postal_address, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE (username = ? OR email = ? OR (phone = ? AND phone != ''))
		   AND status != 'deleted'`,
		identifier, identifier, identifier)
	return scanUser(row)
}

func (r *usersRepo) FindByUniqueFields(ctx context.Context, username, email, phone string) (domain.User, error) {
	// Deleted rows are included: registration distinguishes the conflict
	// path from the revival path. Live rows sort first so an active match
	// wins over a stale deleted one.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE username = ? OR email = ? OR (phone = ? AND phone != '')
		 ORDER BY CASE WHEN status != 'deleted' THEN 0 ELSE 1 END, created_at DESC
		 LIMIT 1`,
		username, email, phone)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	current, err := marshalAddress(u.CurrentAddress)
	if err != nil {
		return err
	}
	postal, err := marshalAddress(u.PostalAddress)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (
			id, username, first_name, last_name, email, phone,
			password_hash, status, role_id, email_verified, phone_verified,
			tfa_enabled, totp_secret, totp_activated, password_update_requested,
			current_address, postal_address
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.Phone,
		u.PasswordHash, string(u.Status), u.RoleID,
		boolToInt(u.EmailVerified), boolToInt(u.PhoneVerified),
		boolToInt(u.TFAEnabled), nullString(u.TOTPSecret),
		boolToInt(u.TOTPActivated), boolToInt(u.PasswordUpdateRequested),
		current, postal)
	return mapUnique(err)
}

func (r *usersRepo) ReviveUser(ctx context.Context, u domain.User) error {
	current, err := marshalAddress(u.CurrentAddress)
	if err != nil {
		return err
	}
	postal, err := marshalAddress(u.PostalAddress)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			username = ?, first_name = ?, last_name = ?, email = ?, phone = ?,
			password_hash = ?, status = 'active', role_id = ?,
			email_verified = 0, phone_verified = 0,
			tfa_enabled = 0, totp_secret = NULL, totp_activated = 0,
			password_update_requested = 0,
			current_address = ?, postal_address = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'deleted'`,
		u.Username, u.FirstName, u.LastName, u.Email, u.Phone,
		u.PasswordHash, u.RoleID, current, postal, u.ID)
	if err != nil {
		return mapUnique(err)
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, u domain.User) error {
	current, err := marshalAddress(u.CurrentAddress)
	if err != nil {
		return err
	}
	postal, err := marshalAddress(u.PostalAddress)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			username = ?, first_name = ?, last_name = ?, email = ?, phone = ?,
			role_id = ?, email_verified = ?, phone_verified = ?,
			current_address = ?, postal_address = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		u.Username, u.FirstName, u.LastName, u.Email, u.Phone,
		u.RoleID, boolToInt(u.EmailVerified), boolToInt(u.PhoneVerified),
		current, postal, u.ID)
	if err != nil {
		return mapUnique(err)
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, password_update_requested = 0,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, newHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateStatus(ctx context.Context, userID string, status domain.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(verified), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetPhoneVerified(ctx context.Context, userID string, verified bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET phone_verified = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(verified), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetTFAEnabled(ctx context.Context, userID string, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET tfa_enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(enabled), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateTOTPSecret(ctx context.Context, userID string, secret *string) error {
	// Any secret change, including removal, invalidates the activation:
	// possession has only been proven for the old secret.
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = ?, totp_activated = 0,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		nullString(secret), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ActivateTOTP(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET totp_activated = 1, tfa_enabled = 1,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND totp_secret IS NOT NULL`,
		userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetPasswordUpdateRequested(ctx context.Context, userID string, requested bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_update_requested = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(requested), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE status != 'deleted'
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// scanner lets scanUser work for both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u                    domain.User
		status               string
		emailV, phoneV       int
		tfa, totpAct, pwReq  int
		totpSecret           sql.NullString
		currentRaw, postalRaw sql.NullString
		createdAt, updatedAt time.Time
	)

	err := s.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.PasswordHash, &status, &u.RoleID, &emailV, &phoneV,
		&tfa, &totpSecret, &totpAct, &pwReq,
		&currentRaw, &postalRaw, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Status = domain.Status(status)
	u.EmailVerified = emailV != 0
	u.PhoneVerified = phoneV != 0
	u.TFAEnabled = tfa != 0
	u.TOTPActivated = totpAct != 0
	u.PasswordUpdateRequested = pwReq != 0
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt

	if totpSecret.Valid {
		u.TOTPSecret = &totpSecret.String
	}
	if u.CurrentAddress, err = unmarshalAddress(currentRaw); err != nil {
		return domain.User{}, err
	}
	if u.PostalAddress, err = unmarshalAddress(postalRaw); err != nil {
		return domain.User{}, err
	}

	return u, nil
}

func marshalAddress(a *domain.Address) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func unmarshalAddress(ns sql.NullString) (*domain.Address, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var a domain.Address
	if err := json.Unmarshal([]byte(ns.String), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
