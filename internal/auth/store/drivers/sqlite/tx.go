package sqlite

import (
	"context"
	"database/sql"

	"github.com/lumenlabs/membergate/internal/auth/store"
)

// txStore exposes the repositories over a single open transaction. The
// caller owns the transaction's lifetime through Commit or Rollback.
type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer *sql.DB stays open and the transaction
// ends via Commit or Rollback.
func (t *txStore) Close() error { return nil }

// Ping is a no-op; the connection was already live when the transaction
// began.
func (t *txStore) Ping(ctx context.Context) error { return nil }

// Nested transactions are not supported. SAVEPOINTs could emulate them
// if a caller ever needs nesting.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) Roles() store.Roles                 { return &rolesRepo{db: t.tx} }
func (t *txStore) OTPChallenges() store.OTPChallenges { return &otpRepo{db: t.tx} }

// Migrations run against the root store before any transaction starts.
func (t *txStore) ApplyMigrations() error { return nil }
