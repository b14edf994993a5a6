package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jmoiron/sqlx"
)

// Tokens are stored as SHA-256 hex digests; the raw value only lives on the device.
//
// CREATE TABLE refresh_sessions (
//   id BIGSERIAL PRIMARY KEY,
//   token_hash TEXT NOT NULL UNIQUE,
//   user_id BIGINT NOT NULL,
//   client_id TEXT NOT NULL DEFAULT '',
//   expires_at TIMESTAMPTZ NOT NULL,
//   created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
// );

type RefreshRepo struct {
	db *sqlx.DB
}

func NewRefreshRepo(db *sqlx.DB) *RefreshRepo {
	return &RefreshRepo{db: db}
}

// EnsureTable creates refresh_sessions if it does not exist.
func (r *RefreshRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS refresh_sessions (
  id BIGSERIAL PRIMARY KEY,
  token_hash TEXT NOT NULL UNIQUE,
  user_id BIGINT NOT NULL,
  client_id TEXT NOT NULL DEFAULT '',
  expires_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_refresh_sessions_user_id ON refresh_sessions(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *RefreshRepo) Save(ctx context.Context, token string, userID int64, clientID string, expiresAt time.Time) (int64, error) {
	query := `INSERT INTO refresh_sessions (token_hash, user_id, client_id, expires_at) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	row := r.db.QueryRowxContext(ctx, query, HashToken(token), userID, clientID, expiresAt)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *RefreshRepo) Get(ctx context.Context, token string) (int64, int64, string, time.Time, error) {
	var id int64
	var userID int64
	var clientID string
	var expiresAt time.Time
	query := `SELECT id, user_id, client_id, expires_at FROM refresh_sessions WHERE token_hash = $1`
	row := r.db.QueryRowxContext(ctx, query, HashToken(token))
	if err := row.Scan(&id, &userID, &clientID, &expiresAt); err != nil {
		return 0, 0, "", time.Time{}, err
	}
	return id, userID, clientID, expiresAt, nil
}

// Consume deletes a live session and returns its owner in one statement, so a token
// can be spent at most once. A missing, expired or already spent token gives sql.ErrNoRows.
func (r *RefreshRepo) Consume(ctx context.Context, token string, now time.Time) (int64, string, error) {
	var userID int64
	var clientID string
	query := `DELETE FROM refresh_sessions WHERE token_hash = $1 AND expires_at > $2 RETURNING user_id, client_id`
	if err := r.db.QueryRowxContext(ctx, query, HashToken(token), now).Scan(&userID, &clientID); err != nil {
		return 0, "", err
	}
	return userID, clientID, nil
}

func (r *RefreshRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE token_hash = $1`, HashToken(token))
	return err
}

// DeleteByUser revokes every session of a user (logout everywhere).
func (r *RefreshRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes sessions past their expiry.
func (r *RefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DB returns the underlying handle.
func (r *RefreshRepo) DB() *sqlx.DB { return r.db }
