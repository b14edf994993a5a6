package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-puja/internal/otp/entity"
)

// OTPRepo stores one OTP state row per phone.
type OTPRepo struct {
	db *sqlx.DB
}

func NewOTPRepo(db *sqlx.DB) *OTPRepo { return &OTPRepo{db: db} }

// EnsureTable creates the otp_states table if not exists.
func (r *OTPRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS otp_states (
  phone TEXT PRIMARY KEY,
  purpose TEXT NOT NULL DEFAULT 'login',
  request_id TEXT NOT NULL DEFAULT '',
  code_hash TEXT NOT NULL DEFAULT '',
  expires_at TIMESTAMPTZ,
  last_sent_at TIMESTAMPTZ,
  send_count INT NOT NULL DEFAULT 0,
  window_started_at TIMESTAMPTZ,
  verify_attempts INT NOT NULL DEFAULT 0,
  locked_until TIMESTAMPTZ,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectState = `SELECT phone, purpose, request_id, code_hash, expires_at, last_sent_at, send_count,
	window_started_at, verify_attempts, locked_until FROM otp_states WHERE phone=$1`

// Mutate runs fn on the phone's state while holding its row lock and writes the
// state back when fn returns save=true. Concurrent sends and verifies for one
// phone are serialized, so counters never drop an increment. fn's error is
// returned after the commit, letting a rejected request still record its attempt.
func (r *OTPRepo) Mutate(ctx context.Context, phone string, fn func(st *entity.State) (save bool, err error)) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// a row must exist for FOR UPDATE to lock it
	if _, err := tx.ExecContext(ctx, `INSERT INTO otp_states (phone) VALUES ($1) ON CONFLICT (phone) DO NOTHING`, phone); err != nil {
		return err
	}
	var st entity.State
	if err := tx.GetContext(ctx, &st, selectState+` FOR UPDATE`, phone); err != nil {
		return err
	}

	save, fnErr := fn(&st)
	if save {
		const q = `UPDATE otp_states SET purpose=:purpose, request_id=:request_id, code_hash=:code_hash,
		expires_at=:expires_at, last_sent_at=:last_sent_at, send_count=:send_count,
		window_started_at=:window_started_at, verify_attempts=:verify_attempts,
		locked_until=:locked_until, updated_at=NOW() WHERE phone=:phone`
		if _, err := tx.NamedExecContext(ctx, q, &st); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return fnErr
}
