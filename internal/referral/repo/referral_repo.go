package repo

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-puja/internal/referral/entity"
)

// ErrDuplicateReferee is returned when the referee already has a referral row.
var ErrDuplicateReferee = errors.New("referee already referred")

type ReferralRepo struct {
	db *sqlx.DB
}

func NewReferralRepo(db *sqlx.DB) *ReferralRepo { return &ReferralRepo{db: db} }

// EnsureTable creates the referrals table if not exists.
func (r *ReferralRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS referrals (
  id BIGSERIAL PRIMARY KEY,
  referrer_id BIGINT NOT NULL,
  referee_id BIGINT NOT NULL UNIQUE,
  code TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON referrals(referrer_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Begin starts the transaction a referral and its awards are written in.
func (r *ReferralRepo) Begin(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// Create inserts ref within tx and fills its id and created_at.
func (r *ReferralRepo) Create(ctx context.Context, tx *sqlx.Tx, ref *entity.Referral) error {
	const q = `INSERT INTO referrals (referrer_id, referee_id, code) VALUES ($1,$2,$3) RETURNING id, created_at`
	err := tx.QueryRowxContext(ctx, q, ref.ReferrerID, ref.RefereeID, ref.Code).Scan(&ref.ID, &ref.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateReferee
	}
	return err
}

// GetByReferee returns the referral that brought refereeID in, or sql.ErrNoRows.
func (r *ReferralRepo) GetByReferee(ctx context.Context, refereeID int64) (*entity.Referral, error) {
	var ref entity.Referral
	const q = `SELECT id, referrer_id, referee_id, code, created_at FROM referrals WHERE referee_id=$1`
	if err := r.db.GetContext(ctx, &ref, q, refereeID); err != nil {
		return nil, err
	}
	return &ref, nil
}

// CountByReferrer counts successful referrals made by referrerID.
func (r *ReferralRepo) CountByReferrer(ctx context.Context, referrerID int64) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM referrals WHERE referrer_id=$1`, referrerID)
	return n, err
}
