package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-puja/internal/setting/entity"
)

// ErrDuplicateKey is returned when category+key already exists.
var ErrDuplicateKey = errors.New("duplicate setting key")

// Repo is the repository implementation for settings backed by PostgreSQL.
type Repo struct {
	db *sqlx.DB
}

// NewRepo constructs a new Repo with an existing *sqlx.DB connection.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// EnsureTable ensures the settings table and its index exist.
// Fields:
// - id varchar(32) PRIMARY KEY
// - category, key (unique together)
// - value jsonb
// - version bigint, bumped on every update
func (r *Repo) EnsureTable(ctx context.Context) error {
	// Check if table exists using to_regclass (Postgres). If it exists, skip creation.
	var tblName sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT to_regclass('public.settings')").Scan(&tblName); err != nil {
		return err
	}
	if !tblName.Valid {
		createTable := `CREATE TABLE settings (
			id varchar(32) PRIMARY KEY,
			category varchar(32) NOT NULL,
			key varchar(64) NOT NULL,
			value jsonb NOT NULL DEFAULT '{}'::jsonb,
			version bigint NOT NULL DEFAULT 1,
			status varchar(16) NOT NULL DEFAULT 'active',
			created_at timestamptz NOT NULL DEFAULT NOW(),
			updated_at timestamptz NOT NULL DEFAULT NOW()
		)`
		if _, err := r.db.ExecContext(ctx, createTable); err != nil {
			return err
		}
	}

	var idxName sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT to_regclass('public.idx_settings_category_key')").Scan(&idxName); err != nil {
		return err
	}
	if !idxName.Valid {
		createIndex := `CREATE UNIQUE INDEX idx_settings_category_key ON settings (category, key)`
		if _, err := r.db.ExecContext(ctx, createIndex); err != nil {
			return err
		}
	}
	return nil
}

const selectColumns = `SELECT id, category, key, value, version, status, created_at, updated_at FROM settings`

// List returns settings of category (all when empty), ordered by category and key.
func (r *Repo) List(ctx context.Context, category string, limit, offset int) ([]*entity.Setting, error) {
	out := []*entity.Setting{}
	var err error
	if category == "" {
		err = r.db.SelectContext(ctx, &out, selectColumns+` ORDER BY category, key LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &out, selectColumns+` WHERE category=$1 ORDER BY key LIMIT $2 OFFSET $3`, category, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns the setting or sql.ErrNoRows.
func (r *Repo) GetByID(ctx context.Context, id string) (*entity.Setting, error) {
	var st entity.Setting
	if err := r.db.GetContext(ctx, &st, selectColumns+` WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &st, nil
}

// Create inserts st.
func (r *Repo) Create(ctx context.Context, st *entity.Setting) error {
	const q = `INSERT INTO settings (id, category, key, value, version, status, created_at, updated_at)
	VALUES (:id, :category, :key, :value, :version, :status, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, st)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateKey
	}
	return err
}

// CreateIfMissing inserts st unless category+key exists and reports whether it was written.
func (r *Repo) CreateIfMissing(ctx context.Context, st *entity.Setting) (bool, error) {
	const q = `INSERT INTO settings (id, category, key, value, version, status, created_at, updated_at)
	VALUES (:id, :category, :key, :value, :version, :status, :created_at, :updated_at)
	ON CONFLICT (category, key) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, q, st)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Update writes value and status when the stored version equals expected.
// It returns the number of rows changed; zero means a version mismatch.
func (r *Repo) Update(ctx context.Context, st *entity.Setting, expected int64) (int64, error) {
	const q = `UPDATE settings SET value=$1, status=$2, version=$3, updated_at=$4 WHERE id=$5 AND version=$6`
	res, err := r.db.ExecContext(ctx, q, st.Value, st.Status, st.Version, st.UpdatedAt, st.ID, expected)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a setting and returns the number of rows deleted.
func (r *Repo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
