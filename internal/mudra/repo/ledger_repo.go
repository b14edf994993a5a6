package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-puja/internal/mudra/entity"
)

// LedgerRepo provides append and read access to mudra_ledger.
type LedgerRepo struct {
	db *sqlx.DB
}

func NewLedgerRepo(db *sqlx.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// EnsureTable creates the ledger table if not exists (idempotent).
func (r *LedgerRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS mudra_ledger (
  id TEXT PRIMARY KEY,
  user_id BIGINT NOT NULL,
  activity TEXT NOT NULL,
  amount BIGINT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_mudra_ledger_user_created ON mudra_ledger(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_mudra_ledger_user_activity ON mudra_ledger(user_id, activity);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// CapCheck limits how often an activity may be appended for a user.
// Since is the start of the counting window; zero means "ever".
type CapCheck struct {
	Enabled bool
	Since   time.Time
}

// Append inserts e in its own transaction; see AppendTx.
// It reports whether the entry was written.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.Entry, check CapCheck) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	written, err := r.AppendTx(ctx, tx, e, check)
	if err != nil || !written {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// AppendTx inserts e within tx unless the cap check finds an earlier entry for
// the same user and activity. The user's ledger is serialized with a
// transaction-scoped advisory lock so concurrent awards cannot both pass the check.
func (r *LedgerRepo) AppendTx(ctx context.Context, tx *sqlx.Tx, e *entity.Entry, check CapCheck) (bool, error) {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, e.UserID); err != nil {
		return false, err
	}

	if check.Enabled {
		var n int64
		var err error
		if check.Since.IsZero() {
			err = tx.GetContext(ctx, &n, `SELECT COUNT(1) FROM mudra_ledger WHERE user_id=$1 AND activity=$2`, e.UserID, e.Activity)
		} else {
			err = tx.GetContext(ctx, &n, `SELECT COUNT(1) FROM mudra_ledger WHERE user_id=$1 AND activity=$2 AND created_at >= $3`, e.UserID, e.Activity, check.Since)
		}
		if err != nil {
			return false, err
		}
		if n > 0 {
			return false, nil
		}
	}

	const q = `INSERT INTO mudra_ledger (id, user_id, activity, amount, note, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := tx.ExecContext(ctx, q, e.ID, e.UserID, e.Activity, e.Amount, e.Note, e.CreatedAt); err != nil {
		return false, err
	}
	return true, nil
}

// History lists a user's entries newest first.
func (r *LedgerRepo) History(ctx context.Context, userID int64, limit, offset int) ([]*entity.Entry, error) {
	const q = `SELECT id, user_id, activity, amount, note, created_at FROM mudra_ledger
		WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	out := []*entity.Entry{}
	if err := r.db.SelectContext(ctx, &out, q, userID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// Balance sums every entry of the user.
func (r *LedgerRepo) Balance(ctx context.Context, userID int64) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount),0) FROM mudra_ledger WHERE user_id=$1`, userID); err != nil {
		return 0, err
	}
	return total, nil
}

// Totals sums entries per activity.
func (r *LedgerRepo) Totals(ctx context.Context, userID int64) ([]entity.ActivityTotal, error) {
	const q = `SELECT activity, COALESCE(SUM(amount),0) AS total, COUNT(1) AS count FROM mudra_ledger
		WHERE user_id=$1 GROUP BY activity ORDER BY activity`
	out := []entity.ActivityTotal{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}
