package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday/entity"
)

type PujaRepo struct {
	db *sqlx.DB
}

func NewPujaRepo(db *sqlx.DB) *PujaRepo { return &PujaRepo{db: db} }

// EnsureTable creates the special_pujas table if not exists.
func (r *PujaRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS special_pujas (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  date_mapping TEXT NOT NULL CHECK (date_mapping IN ('fixed','recurring')),
  next_date DATE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// List returns all pujas, dated ones first.
func (r *PujaRepo) List(ctx context.Context) ([]entity.SpecialPuja, error) {
	const q = `SELECT id, name, description, date_mapping, next_date, created_at FROM special_pujas
	ORDER BY next_date NULLS LAST, name`
	out := []entity.SpecialPuja{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts p and fills its id and created_at.
func (r *PujaRepo) Create(ctx context.Context, p *entity.SpecialPuja) error {
	const q = `INSERT INTO special_pujas (name, description, date_mapping, next_date)
	VALUES (:name, :description, :date_mapping, :next_date) RETURNING id, created_at`
	rows, err := r.db.NamedQueryContext(ctx, q, p)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&p.ID, &p.CreatedAt)
	}
	return rows.Err()
}

// Seed inserts defaults whose name is not present yet and moves a fixed
// date that has already passed to the default's later one. Operator edits
// that still lie ahead are kept. It returns how many rows changed.
func (r *PujaRepo) Seed(ctx context.Context, defaults []entity.SpecialPuja) (int64, error) {
	const q = `INSERT INTO special_pujas (name, description, date_mapping, next_date)
	VALUES (:name, :description, :date_mapping, :next_date)
	ON CONFLICT (name) DO UPDATE SET next_date = EXCLUDED.next_date
	WHERE special_pujas.date_mapping = 'fixed'
	AND special_pujas.next_date < CURRENT_DATE
	AND EXCLUDED.next_date > special_pujas.next_date`
	var added int64
	for i := range defaults {
		res, err := r.db.NamedExecContext(ctx, q, &defaults[i])
		if err != nil {
			return added, err
		}
		n, _ := res.RowsAffected()
		added += n
	}
	return added, nil
}
